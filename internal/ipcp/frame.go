package ipcp

import (
	"errors"

	"github.com/dgoulet-net/ppplink/internal/frame"
)

// ErrUnknownCode is returned when an IPCP frame carries a Code outside
// the subset IPCP actually uses (RFC 1332 Section 2: only the generic
// Configure/Terminate/Code-Reject codes apply, never an auth code).
var ErrUnknownCode = errors.New("ipcp: unknown code")

// Body is the payload of an IPCP frame.
type Body interface {
	isIPCPBody()
}

// OptionsBody carries the option list for Configure-Request/Ack/Nak/Reject.
type OptionsBody struct {
	Options []Option
}

func (OptionsBody) isIPCPBody() {}

// TermDataBody carries free-form data for Terminate-Request/-Ack.
type TermDataBody struct {
	Data []byte
}

func (TermDataBody) isIPCPBody() {}

// CodeRejectBody carries the rejected packet, verbatim.
type CodeRejectBody struct {
	Rejected []byte
}

func (CodeRejectBody) isIPCPBody() {}

// Frame is a decoded IPCP packet.
type Frame struct {
	Code frame.Code
	ID   uint8
	Body Body
}

// Decode parses an IPCP frame body (bytes after the CP header is included).
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
	}

	frame.PatchLength(out, lenOff)
	return out
}
