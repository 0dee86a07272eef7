package lcp

import (
	"encoding/binary"

	"github.com/dgoulet-net/ppplink/internal/frame"
)

// Option type numbers (RFC 1661 Section 6, RFC 1990, RFC 1994, RFC 2125).
const (
	OptMRU       uint8 = 1
	OptAsyncMap  uint8 = 2
	OptAuth      uint8 = 3
	OptQuality   uint8 = 4
	OptMagic     uint8 = 5
	OptPFC       uint8 = 7
	OptACFC      uint8 = 8
	OptCallback  uint8 = 13
	OptMRRU      uint8 = 17
	OptSSNHF     uint8 = 18
	OptEPDisc    uint8 = 19
	OptLDisc     uint8 = 23
)

// Option is an LCP configuration option (spec.md Section 3, CpOption).
// Type returns the numeric type used on the wire; Encode returns the
// option's Value bytes only (the TLV header is added by the caller).
type Option interface {
	Type() uint8
	Encode() []byte
}

// MD is a CHAP digest algorithm (spec.md Section 3, MdType).
type MD uint8

const (
	MD5     MD = 5
	SHA1    MD = 6
	MSCHAP  MD = 128
	MSCHAPV2 MD = 129
)

// AuthProto identifies the negotiated authentication protocol carried
// by the Auth option.
type AuthProto struct {
	// Proto is the PPP protocol number: ProtoPAP, ProtoCHAP, or ProtoEAP.
	Proto frame.Proto
	// Digest is only meaningful when Proto == ProtoCHAP.
	Digest MD
}

// MRU is the Maximum Receive Unit option.
type MRU uint16

func (o MRU) Type() uint8 { return OptMRU }
func (o MRU) Encode() []byte {
	b := make([]byte, 2)
	binary.BigEndian.PutUint16(b, uint16(o))
	return b
}

// AsyncMap is the Async-Control-Character-Map option.
type AsyncMap uint32

func (o AsyncMap) Type() uint8 { return OptAsyncMap }
func (o AsyncMap) Encode() []byte {
	b := make([]byte, 4)
	binary.BigEndian.PutUint32(b, uint32(o))
	return b
}

// Auth is the Authentication-Protocol option.
type Auth struct {
	Proto AuthProto
}

func (o Auth) Type() uint8 { return OptAuth }
func (o Auth) Encode() []byte {
	b := make([]byte, 2, 3)
	binary.BigEndian.PutUint16(b, uint16(o.Proto.Proto))
	if o.Proto.Proto == frame.ProtoCHAP {
		b = append(b, byte(o.Proto.Digest))
	}
	return b
}

// Quality is the Quality-Protocol option (LQR, RFC 1989).
type Quality struct {
	Protocol uint16
	Period   uint32
}

func (o Quality) Type() uint8 { return OptQuality }
func (o Quality) Encode() []byte {
	b := make([]byte, 6)
	binary.BigEndian.PutUint16(b[:2], o.Protocol)
	binary.BigEndian.PutUint32(b[2:], o.Period)
	return b
}

// Magic is the Magic-Number option.
type Magic uint32

func (o Magic) Type() uint8 { return OptMagic }
func (o Magic) Encode() []byte {
	b := make([]byte, 4)
	binary.BigEndian.PutUint32(b, uint32(o))
	return b
}

// PFC is the empty Protocol-Field-Compression option.
type PFC struct{}

func (o PFC) Type() uint8    { return OptPFC }
func (o PFC) Encode() []byte { return nil }

// ACFC is the empty Address-and-Control-Field-Compression option.
type ACFC struct{}

func (o ACFC) Type() uint8    { return OptACFC }
func (o ACFC) Encode() []byte { return nil }

// Callback is the Callback option (RFC 1570).
type Callback struct {
	Op      uint8
	Message []byte
}

func (o Callback) Type() uint8 { return OptCallback }
func (o Callback) Encode() []byte {
	b := make([]byte, 0, 1+len(o.Message))
	b = append(b, o.Op)
	return append(b, o.Message...)
}

// MRRU is the Max-Reconstructed-Receive-Unit option (multilink, RFC 1990).
type MRRU uint16

func (o MRRU) Type() uint8 { return OptMRRU }
func (o MRRU) Encode() []byte {
	b := make([]byte, 2)
	binary.BigEndian.PutUint16(b, uint16(o))
	return b
}

// SSNHF is the empty Short-Sequence-Number-Header-Format option.
type SSNHF struct{}

func (o SSNHF) Type() uint8    { return OptSSNHF }
func (o SSNHF) Encode() []byte { return nil }

// EPDisc is the Endpoint-Discriminator option (RFC 1990).
type EPDisc struct {
	Class   uint8
	Address []byte
}

func (o EPDisc) Type() uint8 { return OptEPDisc }
func (o EPDisc) Encode() []byte {
	b := make([]byte, 0, 1+len(o.Address))
	b = append(b, o.Class)
	return append(b, o.Address...)
}

// LDisc is the Link-Discriminator option (RFC 1638/2125).
type LDisc uint16

func (o LDisc) Type() uint8 { return OptLDisc }
func (o LDisc) Encode() []byte {
	b := make([]byte, 2)
	binary.BigEndian.PutUint16(b, uint16(o))
	return b
}

// Raw is an option this core doesn't know the shape of, kept verbatim
// for passthrough (spec.md Section 3, CpOption.Raw; Section 8, decoder
// robustness law).
type Raw struct {
	T    uint8
	Data []byte
}

func (o Raw) Type() uint8    { return o.T }
func (o Raw) Encode() []byte { return o.Data }

// DecodeOptions parses a wire-format option list into typed Options.
// Per spec.md Section 4.1: if a known option's payload size disagrees
// with its schema, it is surfaced as Raw rather than rejected outright;
// a malformed TLV boundary truncates decoding and the residual bytes
// are delivered as a single Raw option.
func DecodeOptions(b []byte) []Option {
	tlvs, residual := frame.SplitTLVs(b)
	opts := make([]Option, 0, len(tlvs)+1)
	for _, t := range tlvs {
		opts = append(opts, decodeOne(t))
	}
	if len(residual) > 0 {
		opts = append(opts, Raw{T: residual[0], Data: residual[1:]})
	}
	return opts
}

func decodeOne(t frame.TLV) Option {
	switch t.Type {
	case OptMRU:
		if len(t.Value) != 2 {
			return Raw{T: t.Type, Data: t.Value}
		}
		return MRU(binary.BigEndian.Uint16(t.Value))
	case OptAsyncMap:
		if len(t.Value) != 4 {
			return Raw{T: t.Type, Data: t.Value}
		}
		return AsyncMap(binary.BigEndian.Uint32(t.Value))
	case OptAuth:
		if len(t.Value) < 2 {
			return Raw{T: t.Type, Data: t.Value}
		}
		proto := frame.Proto(binary.BigEndian.Uint16(t.Value[:2]))
		if proto == frame.ProtoCHAP {
			if len(t.Value) != 3 {
				return Raw{T: t.Type, Data: t.Value}
			}
			return Auth{Proto: AuthProto{Proto: proto, Digest: MD(t.Value[2])}}
		}
		if len(t.Value) != 2 {
			return Raw{T: t.Type, Data: t.Value}
		}
		return Auth{Proto: AuthProto{Proto: proto}}
	case OptQuality:
		if len(t.Value) != 6 {
			return Raw{T: t.Type, Data: t.Value}
		}
		return Quality{
			Protocol: binary.BigEndian.Uint16(t.Value[:2]),
			Period:   binary.BigEndian.Uint32(t.Value[2:]),
		}
	case OptMagic:
		if len(t.Value) != 4 {
			return Raw{T: t.Type, Data: t.Value}
		}
		return Magic(binary.BigEndian.Uint32(t.Value))
	case OptPFC:
		if len(t.Value) != 0 {
			return Raw{T: t.Type, Data: t.Value}
		}
		return PFC{}
	case OptACFC:
		if len(t.Value) != 0 {
			return Raw{T: t.Type, Data: t.Value}
		}
		return ACFC{}
	case OptCallback:
		if len(t.Value) < 1 {
			return Raw{T: t.Type, Data: t.Value}
		}
		msg := append([]byte(nil), t.Value[1:]...)
		return Callback{Op: t.Value[0], Message: msg}
	case OptMRRU:
		if len(t.Value) != 2 {
			return Raw{T: t.Type, Data: t.Value}
		}
		return MRRU(binary.BigEndian.Uint16(t.Value))
	case OptSSNHF:
		if len(t.Value) != 0 {
			return Raw{T: t.Type, Data: t.Value}
		}
		return SSNHF{}
	case OptEPDisc:
		if len(t.Value) < 1 {
			return Raw{T: t.Type, Data: t.Value}
		}
		addr := append([]byte(nil), t.Value[1:]...)
		return EPDisc{Class: t.Value[0], Address: addr}
	case OptLDisc:
		if len(t.Value) != 2 {
			return Raw{T: t.Type, Data: t.Value}
		}
		return LDisc(binary.BigEndian.Uint16(t.Value))
	default:
		data := append([]byte(nil), t.Value...)
		return Raw{T: t.Type, Data: data}
	}
}

// EncodeOptions is the exact inverse of DecodeOptions: it serializes a
// list of Options into wire-format TLVs, concatenated in order
// (spec.md Section 8: encode_options(L1++L2) = encode_options(L1)++encode_options(L2)).
func EncodeOptions(opts []Option) []byte {
	var buf []byte
	for _, o := range opts {
		buf = frame.EncodeTLV(buf, o.Type(), o.Encode())
	}
	return buf
}
