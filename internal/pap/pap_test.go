package pap

import (
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestAuthRequestRoundTrip(t *testing.T) {
	f := Frame{Code: CodeAuthenticateRequest, ID: 1, Body: AuthRequest{PeerID: []byte("alice"), Password: []byte("hunter2")}}
	got, err := Decode(f.Encode())
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if diff := cmp.Diff(f, got); diff != "" {
		t.Fatalf("round trip mismatch (-want +got):\n%s", diff)
	}
}

func TestAckNakRoundTrip(t *testing.T) {
	for _, f := range []Frame{
		{Code: CodeAuthenticateAck, ID: 2, Body: Ack{Message: []byte("welcome")}},
		{Code: CodeAuthenticateNak, ID: 3, Body: Nak{Message: []byte("denied")}},
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

type recordingSender struct {
	sent []Frame
}

func (s *recordingSender) Send(b []byte) {
	f, err := Decode(b)
	if err != nil {
		panic(err)
	}
	s.sent = append(s.sent, f)
}

func TestPeerAuthenticatorAcceptsValidCredentials(t *testing.T) {
	sender := &recordingSender{}
	verify := func(peerID, password []byte) (bool, map[string]string) {
		return string(peerID) == "alice" && string(password) == "hunter2", map[string]string{"plan": "gold"}
	}
	a := NewPeerAuthenticator(sender, verify)

	res := a.HandleFrame(Frame{Code: CodeAuthenticateRequest, ID: 1, Body: AuthRequest{PeerID: []byte("alice"), Password: []byte("hunter2")}})
	if res == nil || !res.Success {
		t.Fatalf("got %+v", res)
	}
	if res.SessionOpts["plan"] != "gold" {
		t.Fatalf("got session opts %v", res.SessionOpts)
	}
	if len(sender.sent) != 1 || sender.sent[0].Code != CodeAuthenticateAck {
		t.Fatalf("got sent %+v", sender.sent)
	}
}

func TestPeerAuthenticatorRejectsInvalidCredentials(t *testing.T) {
	sender := &recordingSender{}
	verify := func(peerID, password []byte) (bool, map[string]string) { return false, nil }
	a := NewPeerAuthenticator(sender, verify)

	res := a.HandleFrame(Frame{Code: CodeAuthenticateRequest, ID: 1, Body: AuthRequest{PeerID: []byte("bob"), Password: []byte("wrong")}})
	if res == nil || res.Success {
		t.Fatalf("got %+v", res)
	}
	if len(sender.sent) != 1 || sender.sent[0].Code != CodeAuthenticateNak {
		t.Fatalf("got sent %+v", sender.sent)
	}
}

func TestSelfAuthenticatorSendsThenSucceeds(t *testing.T) {
	sender := &recordingSender{}
	a := NewSelfAuthenticator(sender, []byte("carol"), []byte("secret"))
	a.Start()

	if len(sender.sent) != 1 || sender.sent[0].Code != CodeAuthenticateRequest {
		t.Fatalf("got sent %+v", sender.sent)
	}

	res := a.HandleFrame(Frame{Code: CodeAuthenticateAck, ID: sender.sent[0].ID, Body: Ack{}})
	if res == nil || !res.Success {
		t.Fatalf("got %+v", res)
	}
}

func TestSelfAuthenticatorRetriesThenFails(t *testing.T) {
	sender := &recordingSender{}
	a := NewSelfAuthenticator(sender, []byte("carol"), []byte("secret"))
	a.Start()

	var last *Result
	for i := 0; i < MaxRetries; i++ {
		last = a.Timeout()
		if last != nil {
			t.Fatalf("expected nil before retries exhausted, got %+v at iteration %d", last, i)
		}
	}
	last = a.Timeout()
	if last == nil || last.Success {
		t.Fatalf("expected failure after exhausting retries, got %+v", last)
	}
	if len(sender.sent) != MaxRetries+1 {
		t.Fatalf("got %d sends, want %d", len(sender.sent), MaxRetries+1)
	}
}
