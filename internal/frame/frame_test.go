package frame

import (
	"bytes"
	"errors"
	"testing"
)

func TestCPHeaderRoundTrip(t *testing.T) {
	buf, lenOff := AppendCPHeader(nil, CodeConfigureRequest, 7)
	buf = append(buf, []byte("payload")...)
	PatchLength(buf, lenOff)

	hdr, data, err := ParseCPHeader(buf)
	if err != nil {
		t.Fatalf("ParseCPHeader: %v", err)
	}
	if hdr.Code != CodeConfigureRequest || hdr.ID != 7 {
		t.Fatalf("got hdr %+v", hdr)
	}
	if !bytes.Equal(data, []byte("payload")) {
		t.Fatalf("got data %q", data)
	}
}

func TestParseCPHeaderShort(t *testing.T) {
	if _, _, err := ParseCPHeader([]byte{1, 2}); err == nil {
		t.Fatal("expected error for short header")
	}
}

func TestParseCPHeaderOverflow(t *testing.T) {
	buf := []byte{byte(CodeConfigureAck), 1, 0, 200}
	if _, _, err := ParseCPHeader(buf); !errors.Is(err, ErrMalformed) {
		t.Fatalf("got %v, want ErrMalformed", err)
	}
}

func TestSplitProtoPrependProto(t *testing.T) {
	payload := PrependProto(ProtoLCP, []byte{1, 2, 3})
	proto, rest, err := SplitProto(payload)
	if err != nil {
		t.Fatalf("SplitProto: %v", err)
	}
	if proto != ProtoLCP {
		t.Fatalf("got proto %v", proto)
	}
	if !bytes.Equal(rest, []byte{1, 2, 3}) {
		t.Fatalf("got rest %v", rest)
	}
}

func TestSplitProtoTooShort(t *testing.T) {
	if _, _, err := SplitProto([]byte{1}); !errors.Is(err, ErrMalformed) {
		t.Fatalf("got %v, want ErrMalformed", err)
	}
}

func TestSplitTLVsStopsOnMalformedBoundary(t *testing.T) {
	// One well-formed TLV (type=1, len=3, value=[0xaa]) followed by a
	// truncated one (declares len=9 but only 2 bytes remain).
	b := []byte{1, 3, 0xaa, 2, 9}
	tlvs, residual := SplitTLVs(b)
	if len(tlvs) != 1 || tlvs[0].Type != 1 || !bytes.Equal(tlvs[0].Value, []byte{0xaa}) {
		t.Fatalf("got tlvs %+v", tlvs)
	}
	if !bytes.Equal(residual, []byte{2, 9}) {
		t.Fatalf("got residual %v", residual)
	}
}

func TestProtoString(t *testing.T) {
	if ProtoLCP.String() != "LCP" {
		t.Fatalf("got %q", ProtoLCP.String())
	}
	if Proto(0x1234).String() != "0x1234" {
		t.Fatalf("got %q", Proto(0x1234).String())
	}
}
