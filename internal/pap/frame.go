// Package pap implements the Password Authentication Protocol frame
// codec and the two-sided authenticator driver (spec.md Sections 3,
// 4.4; RFC 1334 Section 2).
package pap

import (
	"errors"

	"github.com/dgoulet-net/ppplink/internal/frame"
)

// Code is a PAP packet code (RFC 1334 Section 2.2); it reuses the
// generic CP header layout but not its Code enumeration.
type Code uint8

const (
	CodeAuthenticateRequest Code = 1
	CodeAuthenticateAck     Code = 2
	CodeAuthenticateNak     Code = 3
)

// ErrUnknownCode is returned for any Code outside the three PAP uses.
var ErrUnknownCode = errors.New("pap: unknown code")

// Body is the payload of a PAP frame (spec.md Section 3, PapMsg).
type Body interface {
	isPAPBody()
}

// AuthRequest carries the peer's claimed identity and password
// (spec.md Section 4.1: "peer_len:u8 || peer_id:(peer_len) || pass_len:u8 || passwd:(pass_len)").
type AuthRequest struct {
	PeerID   []byte
	Password []byte
}

func (AuthRequest) isPAPBody() {}

// Ack carries an optional human-readable message.
type Ack struct {
	Message []byte
}

func (Ack) isPAPBody() {}

// Nak carries an optional human-readable message.
type Nak struct {
	Message []byte
}

func (Nak) isPAPBody() {}

// Frame is a decoded PAP packet.
type Frame struct {
	Code Code
	ID   uint8
	Body Body
}

// Decode parses a PAP frame body (the bytes after the PPP Protocol
// field; the 4-byte Code/ID/Length header is included).
func Decode(b []byte) (Frame, error) {
	hdr, data, err := frame.ParseCPHeader(b)
	if err != nil {
		return Frame{}, err
	}

	f := Frame{Code: Code(hdr.Code), ID: hdr.ID}

	switch f.Code {
	case CodeAuthenticateRequest:
		if len(data) < 1 {
			return Frame{}, frame.ErrMalformed
		}
		peerLen := int(data[0])
		if len(data) < 1+peerLen+1 {
			return Frame{}, frame.ErrMalformed
		}
		peerID := data[1 : 1+peerLen]
		rest := data[1+peerLen:]
		passLen := int(rest[0])
		if len(rest) < 1+passLen {
			return Frame{}, frame.ErrMalformed
		}
		f.Body = AuthRequest{
			PeerID:   append([]byte(nil), peerID...),
			Password: append([]byte(nil), rest[1:1+passLen]...),
		}
	case CodeAuthenticateAck:
		f.Body = Ack{Message: decodeMsg(data)}
	case CodeAuthenticateNak:
		f.Body = Nak{Message: decodeMsg(data)}
	default:
		return Frame{}, ErrUnknownCode
	}

	return f, nil
}

// decodeMsg implements "msg_len:u8 || msg:(msg_len)", silently
// discarding trailing bytes (spec.md Section 4.1).
func decodeMsg(data []byte) []byte {
	if len(data) < 1 {
		return nil
	}
	msgLen := int(data[0])
	if len(data) < 1+msgLen {
		return append([]byte(nil), data[1:]...)
	}
	return append([]byte(nil), data[1:1+msgLen]...)
}

// Encode is the exact inverse of Decode.
func (f Frame) Encode() []byte {
	out, lenOff := frame.AppendCPHeader(make([]byte, 0, 16), frame.Code(f.Code), f.ID)

	switch body := f.Body.(type) {
	case AuthRequest:
		out = append(out, uint8(len(body.PeerID)))
		out = append(out, body.PeerID...)
		out = append(out, uint8(len(body.Password)))
		out = append(out, body.Password...)
	case Ack:
		out = append(out, uint8(len(body.Message)))
		out = append(out, body.Message...)
	case Nak:
		out = append(out, uint8(len(body.Message)))
		out = append(out, body.Message...)
	}

	frame.PatchLength(out, lenOff)
	return out
}
