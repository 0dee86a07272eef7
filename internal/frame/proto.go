// Package frame implements protocol-number dispatch and the shared
// wire primitives (CP header, option TLV splitting) used by every PPP
// control protocol codec (LCP, IPCP, PAP, CHAP).
package frame

import (
	"encoding/binary"
	"fmt"
)

// Proto is a PPP Protocol field value (RFC 1661 Section 2, Appendix B).
type Proto uint16

// Protocol numbers this core recognizes. Protocols not listed here are
// still valid wire values; SplitProto returns them unchanged, and the
// Link Protocol-Rejects the ones it does not handle.
const (
	ProtoIPv4  Proto = 0x0021
	ProtoIPCP  Proto = 0x8021
	ProtoLCP   Proto = 0xc021
	ProtoPAP   Proto = 0xc023
	ProtoLQR   Proto = 0xc025
	ProtoCHAP  Proto = 0xc223
	ProtoEAP   Proto = 0xc227
	ProtoCBCP  Proto = 0xc029
	ProtoCCP   Proto = 0x80fd
	ProtoECP   Proto = 0x8053
	ProtoIPv6  Proto = 0x0057
	ProtoIPv6CP Proto = 0x8057
	ProtoATCP  Proto = 0x0029
	ProtoIPXCP Proto = 0x802b
	ProtoVJC   Proto = 0x002d
)

// String renders a human-readable protocol name, falling back to the
// numeric value for anything this core doesn't name.
func (p Proto) String() string {
	switch p {
	case ProtoIPv4:
		return "IPv4"
	case ProtoIPCP:
		return "IPCP"
	case ProtoLCP:
		return "LCP"
	case ProtoPAP:
		return "PAP"
	case ProtoLQR:
		return "LQR"
	case ProtoCHAP:
		return "CHAP"
	case ProtoEAP:
		return "EAP"
	case ProtoCBCP:
		return "CBCP"
	case ProtoCCP:
		return "CCP"
	case ProtoECP:
		return "ECP"
	case ProtoIPv6:
		return "IPv6"
	case ProtoIPv6CP:
		return "IPv6CP"
	case ProtoATCP:
		return "ATCP"
	case ProtoIPXCP:
		return "IPXCP"
	case ProtoVJC:
		return "VJC"
	default:
		return fmt.Sprintf("0x%04x", uint16(p))
	}
}

// SplitProto reads the 16-bit Protocol field off the front of a raw PPP
// payload (spec.md Section 4.1: "byte slice starting at the PPP
// Protocol field"), returning the remaining bytes.
func SplitProto(b []byte) (Proto, []byte, error) {
	if len(b) < 2 {
		return 0, nil, ErrMalformed
	}
	return Proto(binary.BigEndian.Uint16(b[:2])), b[2:], nil
}

// PrependProto prepends the 16-bit Protocol field to an already-encoded
// CP frame body, producing a complete PPP payload ready for transport.
func PrependProto(p Proto, body []byte) []byte {
	out := make([]byte, 2+len(body))
	binary.BigEndian.PutUint16(out[:2], uint16(p))
	copy(out[2:], body)
	return out
}
