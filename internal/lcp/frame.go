// Package lcp implements the Link Control Protocol frame codec
// (spec.md Sections 3, 4.1) and the LCP option-negotiation policy
// plugged into the generic CP-FSM engine (spec.md Section 4.3).
package lcp

import (
	"encoding/binary"
	"errors"
	"io"

	"github.com/dgoulet-net/ppplink/internal/frame"
)

// ErrUnknownCode is returned when an LCP frame carries a Code this
// core does not recognize (spec.md Section 7, kind 3: the caller is
// expected to reply with a Code-Reject rather than drop silently).
var ErrUnknownCode = errors.New("lcp: unknown code")

// Body is the payload of an LCP frame; its concrete type depends on
// Frame.Code (spec.md Section 3).
type Body interface {
	isLCPBody()
}

// OptionsBody carries the option list for Configure-Request/Ack/Nak/Reject.
type OptionsBody struct {
	Options []Option
}

func (OptionsBody) isLCPBody() {}

// TermDataBody carries free-form data for Terminate-Request/-Ack.
type TermDataBody struct {
	Data []byte
}

func (TermDataBody) isLCPBody() {}

// CodeRejectBody carries the rejected packet, verbatim, for Code-Reject.
type CodeRejectBody struct {
	Rejected []byte
}

func (CodeRejectBody) isLCPBody() {}

// ProtocolRejectBody carries the rejected protocol number and packet.
type ProtocolRejectBody struct {
	Proto frame.Proto
	Info  []byte
}

func (ProtocolRejectBody) isLCPBody() {}

// IdentificationBody carries a free-form identification message.
type IdentificationBody struct {
	Magic   uint32
	Message []byte
}

func (IdentificationBody) isLCPBody() {}

// TimeRemainingBody carries the remaining-session-time message.
type TimeRemainingBody struct {
	Magic   uint32
	Seconds uint32
	Message []byte
}

func (TimeRemainingBody) isLCPBody() {}

// EmptyBody is the body for Echo-Request/-Reply/Discard-Request, which
// carry no payload beyond their (handled at the CP-FSM or link layer,
// not modeled here) optional Magic/Data extension.
type EmptyBody struct{}

func (EmptyBody) isLCPBody() {}

// Frame is a decoded LCP packet (spec.md Section 3, the `Lcp` variant).
type Frame struct {
	Code frame.Code
	ID   uint8
	Body Body
}

// Decode parses an LCP frame body (the bytes after the PPP Protocol
// field; the CP header is included). Malformed headers return
// frame.ErrMalformed/io.ErrUnexpectedEOF per spec.md Section 7 kind 1.
func Decode(b []byte) (Frame, error) {
	hdr, data, err := frame.ParseCPHeader(b)
	if err != nil {
		return Frame{}, err
	}

	f := Frame{Code: hdr.Code, ID: hdr.ID}

	switch hdr.Code {
	case frame.CodeConfigureRequest, frame.CodeConfigureAck, frame.CodeConfigureNak, frame.CodeConfigureReject:
		f.Body = OptionsBody{Options: DecodeOptions(data)}
	case frame.CodeTerminateRequest, frame.CodeTerminateAck:
		f.Body = TermDataBody{Data: data}
	case frame.CodeCodeReject:
		f.Body = CodeRejectBody{Rejected: data}
	case frame.CodeProtocolReject:
		if len(data) < 2 {
			return Frame{}, io.ErrUnexpectedEOF
		}
		f.Body = ProtocolRejectBody{
			Proto: frame.Proto(binary.BigEndian.Uint16(data[:2])),
			Info:  data[2:],
		}
	case frame.CodeIdentification:
		if len(data) < 4 {
			return Frame{}, io.ErrUnexpectedEOF
		}
		f.Body = IdentificationBody{
			Magic:   binary.BigEndian.Uint32(data[:4]),
			Message: data[4:],
		}
	case frame.CodeTimeRemaining:
		if len(data) < 8 {
			return Frame{}, io.ErrUnexpectedEOF
		}
		f.Body = TimeRemainingBody{
			Magic:   binary.BigEndian.Uint32(data[:4]),
			Seconds: binary.BigEndian.Uint32(data[4:8]),
			Message: data[8:],
		}
	case frame.CodeEchoRequest, frame.CodeEchoReply, frame.CodeDiscardRequest:
		f.Body = EmptyBody{}
	default:
		return Frame{}, ErrUnknownCode
	}

	return f, nil
}

// Encode is the exact inverse of Decode.
func (f Frame) Encode() []byte {
	out, lenOff := frame.AppendCPHeader(make([]byte, 0, 16), f.Code, f.ID)

	switch body := f.Body.(type) {
	case OptionsBody:
		out = append(out, EncodeOptions(body.Options)...)
	case TermDataBody:
		out = append(out, body.Data...)
	case CodeRejectBody:
		out = append(out, body.Rejected...)
	case ProtocolRejectBody:
		b := make([]byte, 2)
		binary.BigEndian.PutUint16(b, uint16(body.Proto))
		out = append(out, b...)
		out = append(out, body.Info...)
	case IdentificationBody:
		b := make([]byte, 4)
		binary.BigEndian.PutUint32(b, body.Magic)
		out = append(out, b...)
		out = append(out, body.Message...)
	case TimeRemainingBody:
		b := make([]byte, 8)
		binary.BigEndian.PutUint32(b[:4], body.Magic)
		binary.BigEndian.PutUint32(b[4:], body.Seconds)
		out = append(out, b...)
		out = append(out, body.Message...)
	case EmptyBody:
		// no payload
	}

	frame.PatchLength(out, lenOff)
	return out
}
