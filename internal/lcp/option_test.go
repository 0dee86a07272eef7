package lcp

import (
	"testing"

	"github.com/dgoulet-net/ppplink/internal/frame"
)

func TestDecodeOptionsMalformedMRUFallsBackToRaw(t *testing.T) {
	// OptMRU (type 1) with a 3-byte value instead of the required 2.
	tlv := frame.EncodeTLV(nil, OptMRU, []byte{0, 1, 2})
	opts := DecodeOptions(tlv)
	if len(opts) != 1 {
		t.Fatalf("got %d options", len(opts))
	}
	raw, ok := opts[0].(Raw)
	if !ok {
		t.Fatalf("got %T, want Raw", opts[0])
	}
	if raw.T != OptMRU {
		t.Fatalf("got type %d", raw.T)
	}
}

func TestDecodeOptionsAuthCHAP(t *testing.T) {
	auth := Auth{Proto: AuthProto{Proto: frame.ProtoCHAP, Digest: MD5}}
	tlv := frame.EncodeTLV(nil, OptAuth, auth.Encode())
	opts := DecodeOptions(tlv)
	if len(opts) != 1 {
		t.Fatalf("got %d options", len(opts))
	}
	got, ok := opts[0].(Auth)
	if !ok {
		t.Fatalf("got %T, want Auth", opts[0])
	}
	if got != auth {
		t.Fatalf("got %+v, want %+v", got, auth)
	}
}

func TestDecodeOptionsResidualBecomesRaw(t *testing.T) {
	good := frame.EncodeTLV(nil, OptMagic, Magic(7).Encode())
	truncated := append(good, 5, 9) // declares length 9 but only 2 bytes remain
	opts := DecodeOptions(truncated)
	if len(opts) != 2 {
		t.Fatalf("got %d options", len(opts))
	}
	if _, ok := opts[0].(Magic); !ok {
		t.Fatalf("got %T for first option", opts[0])
	}
	raw, ok := opts[1].(Raw)
	if !ok {
		t.Fatalf("got %T for second option, want Raw", opts[1])
	}
	if raw.T != 5 {
		t.Fatalf("got residual type %d", raw.T)
	}
}
