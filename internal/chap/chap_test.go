package chap

import (
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestChallengeResponseRoundTrip(t *testing.T) {
	for _, f := range []Frame{
		{Code: CodeChallenge, ID: 1, Body: Challenge{Value: []byte{1, 2, 3, 4}, Name: []byte("server")}},
		{Code: CodeResponse, ID: 1, Body: Response{Value: []byte{5, 6, 7, 8}, Name: []byte("client")}},
		{Code: CodeSuccess, ID: 1, Body: Success{Message: []byte("welcome")}},
		{Code: CodeFailure, ID: 1, Body: Failure{Message: []byte("denied")}},
	} {
		got, err := Decode(f.Encode())
		if err != nil {
			t.Fatalf("Decode: %v", err)
		}
		if diff := cmp.Diff(f, got); diff != "" {
			t.Fatalf("round trip mismatch (-want +got):\n%s", diff)
		}
	}
}

func TestDecodeUnknownCode(t *testing.T) {
	buf := []byte{0xff, 1, 0, 4}
	if _, err := Decode(buf); err != ErrUnknownCode {
		t.Fatalf("got %v, want ErrUnknownCode", err)
	}
}
