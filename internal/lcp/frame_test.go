package lcp

import (
	"bytes"
	"errors"
	"testing"

	"github.com/dgoulet-net/ppplink/internal/frame"
	"github.com/google/go-cmp/cmp"
)

func TestConfigureRequestRoundTrip(t *testing.T) {
	f := Frame{
		Code: frame.CodeConfigureRequest,
		ID:   3,
		Body: OptionsBody{Options: []Option{MRU(1500), Magic(0xdeadbeef), PFC{}}},
	}
	got, err := Decode(f.Encode())
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if diff := cmp.Diff(f, got); diff != "" {
		t.Fatalf("round trip mismatch (-want +got):\n%s", diff)
	}
}

func TestTerminateRoundTrip(t *testing.T) {
	f := Frame{Code: frame.CodeTerminateRequest, ID: 1, Body: TermDataBody{Data: []byte("bye")}}
	got, err := Decode(f.Encode())
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if diff := cmp.Diff(f, got); diff != "" {
		t.Fatalf("mismatch (-want +got):\n%s", diff)
	}
}

func TestProtocolRejectRoundTrip(t *testing.T) {
	f := Frame{Code: frame.CodeProtocolReject, ID: 9, Body: ProtocolRejectBody{Proto: frame.ProtoIPCP, Info: []byte{1, 2, 3}}}
	got, err := Decode(f.Encode())
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if diff := cmp.Diff(f, got); diff != "" {
		t.Fatalf("mismatch (-want +got):\n%s", diff)
	}
}

func TestDecodeUnknownCode(t *testing.T) {
	buf := []byte{99, 1, 0, 4}
	if _, err := Decode(buf); !errors.Is(err, ErrUnknownCode) {
		t.Fatalf("got %v, want ErrUnknownCode", err)
	}
}

func TestDecodeEchoIsEmptyBody(t *testing.T) {
	f := Frame{Code: frame.CodeEchoRequest, ID: 0, Body: EmptyBody{}}
	got, err := Decode(f.Encode())
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if _, ok := got.Body.(EmptyBody); !ok {
		t.Fatalf("got body %#v", got.Body)
	}
}

func TestEncodeOptionsConcatenation(t *testing.T) {
	l1 := []Option{MRU(1500)}
	l2 := []Option{PFC{}, ACFC{}}
	combined := append(append([]Option{}, l1...), l2...)
	if !bytes.Equal(EncodeOptions(combined), append(EncodeOptions(l1), EncodeOptions(l2)...)) {
		t.Fatal("EncodeOptions is not homomorphic over concatenation")
	}
}
