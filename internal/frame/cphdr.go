package frame

import (
	"encoding/binary"
	"errors"
	"io"
)

// Code is a Control Protocol code shared by LCP and the NCPs (RFC 1661
// Section 4.2, RFC 1332).
type Code uint8

const (
	CodeVendorSpecific    Code = 0
	CodeConfigureRequest  Code = 1
	CodeConfigureAck      Code = 2
	CodeConfigureNak      Code = 3
	CodeConfigureReject   Code = 4
	CodeTerminateRequest  Code = 5
	CodeTerminateAck      Code = 6
	CodeCodeReject        Code = 7
	CodeProtocolReject    Code = 8
	CodeEchoRequest       Code = 9
	CodeEchoReply         Code = 10
	CodeDiscardRequest    Code = 11
	CodeIdentification    Code = 12
	CodeTimeRemaining     Code = 13
	CodeResetRequest      Code = 14
	CodeResetReply        Code = 15
)

// ErrMalformed is returned for any CP header whose declared length is
// below 4 or overflows the buffer (spec.md Section 7, kind 1); a buffer
// shorter than the 4-byte header itself yields io.ErrUnexpectedEOF.
var ErrMalformed = errors.New("frame: malformed CP header")

// CPHeader is the generic four-byte header shared by LCP and the NCPs.
type CPHeader struct {
	Code Code
	ID   uint8
}

// ParseCPHeader reads the 4-byte CP header from b and returns it along
// with the data slice (length Length-4, per spec.md Section 4.1/6).
// Trailing bytes beyond the declared Length are padding and are simply
// not included in data; the caller must not treat their presence as an
// error (spec.md Section 3 invariants).
func ParseCPHeader(b []byte) (hdr CPHeader, data []byte, err error) {
	if len(b) < 4 {
		return CPHeader{}, nil, io.ErrUnexpectedEOF
	}
	length := int(binary.BigEndian.Uint16(b[2:4]))
	if length < 4 {
		return CPHeader{}, nil, ErrMalformed
	}
	if length > len(b) {
		return CPHeader{}, nil, ErrMalformed
	}
	hdr = CPHeader{Code: Code(b[0]), ID: b[1]}
	return hdr, b[4:length], nil
}

// AppendCPHeader appends a CP header (Code, ID, and a placeholder
// Length) to buf and returns the new slice along with the offset of
// the Length field, so the caller can patch it in once the body has
// been written.
func AppendCPHeader(buf []byte, code Code, id uint8) (out []byte, lengthOffset int) {
	out = append(buf, byte(code), id, 0, 0)
	return out, len(out) - 2
}

// PatchLength writes the final CP Length field (data length + 4) at
// lengthOffset once the full packet has been serialized.
func PatchLength(buf []byte, lengthOffset int) {
	binary.BigEndian.PutUint16(buf[lengthOffset:lengthOffset+2], uint16(len(buf)-lengthOffset+2))
}
