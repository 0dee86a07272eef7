// Package chap implements the Challenge-Handshake Authentication
// Protocol frame codec (spec.md Sections 3, 9; RFC 1994). Only the
// wire encoding is in scope here; the cryptographic challenge/response
// computation and the driver state machine are explicit non-goals
// (spec.md Section 1) left to a future extension.
package chap

import (
	"errors"

	"github.com/dgoulet-net/ppplink/internal/frame"
)

// Code is a CHAP packet code (RFC 1994 Section 4.1).
type Code uint8

const (
	CodeChallenge Code = 1
	CodeResponse  Code = 2
	CodeSuccess   Code = 3
	CodeFailure   Code = 4
)

// ErrUnknownCode is returned for any Code outside the four CHAP uses.
var ErrUnknownCode = errors.New("chap: unknown code")

// Body is the payload of a CHAP frame (spec.md Section 3, ChapMsg).
type Body interface {
	isCHAPBody()
}

// Challenge carries the authenticator's challenge value and name
// (spec.md Section 4.1: "value_len:u8 || value:(value_len) || name:(rest)").
type Challenge struct {
	Value []byte
	Name  []byte
}

func (Challenge) isCHAPBody() {}

// Response carries the peer's computed response to a Challenge.
type Response struct {
	Value []byte
	Name  []byte
}

func (Response) isCHAPBody() {}

// Success carries an optional human-readable message.
type Success struct {
	Message []byte
}

func (Success) isCHAPBody() {}

// Failure carries an optional human-readable message.
type Failure struct {
	Message []byte
}

func (Failure) isCHAPBody() {}

// Frame is a decoded CHAP packet.
type Frame struct {
	Code Code
	ID   uint8
	Body Body
}

// Decode parses a CHAP frame body (the bytes after the PPP Protocol
// field; the 4-byte Code/ID/Length header is included).
func Decode(b []byte) (Frame, error) {
	hdr, data, err := frame.ParseCPHeader(b)
	if err != nil {
		return Frame{}, err
	}

	f := Frame{Code: Code(hdr.Code), ID: hdr.ID}

	switch f.Code {
	case CodeChallenge:
		value, name, err := decodeValueName(data)
		if err != nil {
			return Frame{}, err
		}
		f.Body = Challenge{Value: value, Name: name}
	case CodeResponse:
		value, name, err := decodeValueName(data)
		if err != nil {
			return Frame{}, err
		}
		f.Body = Response{Value: value, Name: name}
	case CodeSuccess:
		f.Body = Success{Message: append([]byte(nil), data...)}
	case CodeFailure:
		f.Body = Failure{Message: append([]byte(nil), data...)}
	default:
		return Frame{}, ErrUnknownCode
	}

	return f, nil
}

func decodeValueName(data []byte) (value, name []byte, err error) {
	if len(data) < 1 {
		return nil, nil, frame.ErrMalformed
	}
	valueLen := int(data[0])
	if len(data) < 1+valueLen {
		return nil, nil, frame.ErrMalformed
	}
	value = append([]byte(nil), data[1:1+valueLen]...)
	name = append([]byte(nil), data[1+valueLen:]...)
	return value, name, nil
}

// Encode is the exact inverse of Decode.
func (f Frame) Encode() []byte {
	out, lenOff := frame.AppendCPHeader(make([]byte, 0, 16), frame.Code(f.Code), f.ID)

	switch body := f.Body.(type) {
	case Challenge:
		out = append(out, uint8(len(body.Value)))
		out = append(out, body.Value...)
		out = append(out, body.Name...)
	case Response:
		out = append(out, uint8(len(body.Value)))
		out = append(out, body.Value...)
		out = append(out, body.Name...)
	case Success:
		out = append(out, body.Message...)
	case Failure:
		out = append(out, body.Message...)
	}

	frame.PatchLength(out, lenOff)
	return out
}
