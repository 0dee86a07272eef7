// Package ipcp implements the IP Control Protocol option codec,
// frame codec, and negotiation policy (spec.md Sections 3, 4.5; RFC 1332).
package ipcp

import (
	"encoding/binary"
	"net"

	"github.com/dgoulet-net/ppplink/internal/frame"
)

// Option type numbers (RFC 1332 Section 3; RFC 1877 for the DNS pair).
const (
	OptIPAddresses      uint8 = 1 // deprecated IP-Addresses (RFC 1172), decoded for passthrough only
	OptIPCompression    uint8 = 2
	OptIPAddress        uint8 = 3
	OptPrimaryDNS       uint8 = 129
	OptPrimaryNBNS      uint8 = 130
	OptSecondaryDNS     uint8 = 131
	OptSecondaryNBNS    uint8 = 132
)

// Option is an IPCP configuration option.
type Option interface {
	Type() uint8
	Encode() []byte
}

// IPAddress is the IP-Address option (RFC 1332 Section 3.6), the one
// this core actually negotiates (spec.md Section 4.5).
type IPAddress net.IP

func (o IPAddress) Type() uint8 { return OptIPAddress }
func (o IPAddress) Encode() []byte {
	b := make([]byte, 4)
	copy(b, net.IP(o).To4())
	return b
}

// IsZero reports whether the address is 0.0.0.0 (RFC 1332's "I don't
// have an address, suggest one" sentinel).
func (o IPAddress) IsZero() bool {
	ip := net.IP(o).To4()
	return ip == nil || ip.Equal(net.IPv4zero)
}

// DNSAddress is any of the RFC 1877 DNS/NBNS address options.
type DNSAddress struct {
	T  uint8
	IP net.IP
}

func (o DNSAddress) Type() uint8 { return o.T }
func (o DNSAddress) Encode() []byte {
	b := make([]byte, 4)
	copy(b, o.IP.To4())
	return b
}

// Compression is the IP-Compression-Protocol option (Van Jacobson, RFC 1332).
type Compression struct {
	Protocol   uint16
	MaxSlotID  uint8
	CompSlotID uint8
}

func (o Compression) Type() uint8 { return OptIPCompression }
func (o Compression) Encode() []byte {
	b := make([]byte, 4)
	binary.BigEndian.PutUint16(b[:2], o.Protocol)
	b[2] = o.MaxSlotID
	b[3] = o.CompSlotID
	return b
}

// Raw is an option this core doesn't know the shape of.
type Raw struct {
	T    uint8
	Data []byte
}

func (o Raw) Type() uint8    { return o.T }
func (o Raw) Encode() []byte { return o.Data }

// DecodeOptions parses a wire-format option list, same robustness rules
// as internal/lcp.DecodeOptions (spec.md Section 4.1).
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
	case OptIPAddress, OptPrimaryDNS, OptPrimaryNBNS, OptSecondaryDNS, OptSecondaryNBNS:
		if len(t.Value) != 4 {
			return Raw{T: t.Type, Data: t.Value}
		}
		ip := net.IPv4(t.Value[0], t.Value[1], t.Value[2], t.Value[3]).To4()
		if t.Type == OptIPAddress {
			return IPAddress(ip)
		}
		return DNSAddress{T: t.Type, IP: ip}
	case OptIPCompression:
		if len(t.Value) != 4 {
			return Raw{T: t.Type, Data: t.Value}
		}
		return Compression{
			Protocol:   binary.BigEndian.Uint16(t.Value[:2]),
			MaxSlotID:  t.Value[2],
			CompSlotID: t.Value[3],
		}
	default:
		data := append([]byte(nil), t.Value...)
		return Raw{T: t.Type, Data: data}
	}
}

// EncodeOptions is the exact inverse of DecodeOptions.
func EncodeOptions(opts []Option) []byte {
	var buf []byte
	for _, o := range opts {
		buf = frame.EncodeTLV(buf, o.Type(), o.Encode())
	}
	return buf
}
