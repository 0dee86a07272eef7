package ipcp

import (
	"net"
	"testing"

	"github.com/dgoulet-net/ppplink/internal/frame"
	"github.com/dgoulet-net/ppplink/internal/fsm"
	"github.com/google/go-cmp/cmp"
)

func TestFrameRoundTrip(t *testing.T) {
	f := Frame{
		Code: frame.CodeConfigureRequest,
		ID:   4,
		Body: OptionsBody{Options: []Option{IPAddress(net.IPv4(10, 0, 0, 1).To4())}},
	}
	got, err := Decode(f.Encode())
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if diff := cmp.Diff(f, got); diff != "" {
		t.Fatalf("round trip mismatch (-want +got):\n%s", diff)
	}
}

func TestPolicyNaksZeroAddressWithSuggestion(t *testing.T) {
	peer := net.IPv4(192, 168, 1, 1).To4()
	p := NewPolicy(Config{PeerAddress: peer})

	_, nak, rej := p.CheckReceived([]fsm.Option{IPAddress(net.IPv4zero.To4())})
	if len(rej) != 0 {
		t.Fatalf("expected no rejects, got %v", rej)
	}
	if len(nak) != 1 {
		t.Fatalf("expected one nak, got %v", nak)
	}
	if !net.IP(nak[0].(IPAddress)).Equal(peer) {
		t.Fatalf("got %v, want %v", net.IP(nak[0].(IPAddress)), peer)
	}
}

func TestPolicyRejectsZeroAddressWithoutSuggestion(t *testing.T) {
	p := NewPolicy(Config{})
	_, _, rej := p.CheckReceived([]fsm.Option{IPAddress(net.IPv4zero.To4())})
	if len(rej) != 1 {
		t.Fatalf("got rej=%v", rej)
	}
}

func TestPolicyAcksNonZeroAddress(t *testing.T) {
	p := NewPolicy(Config{})
	addr := net.IPv4(203, 0, 113, 5).To4()
	ack, nak, rej := p.CheckReceived([]fsm.Option{IPAddress(addr)})
	if len(nak) != 0 || len(rej) != 0 {
		t.Fatalf("got nak=%v rej=%v", nak, rej)
	}
	if len(ack) != 1 {
		t.Fatalf("got ack=%v", ack)
	}
}

func TestPolicyProcessNakAdoptsSuggestedAddress(t *testing.T) {
	p := NewPolicy(Config{})
	suggested := net.IPv4(203, 0, 113, 9).To4()
	converged := p.ProcessNak([]fsm.Option{IPAddress(suggested)})
	if converged {
		t.Fatal("expected convergence to report false on first adoption")
	}
	opts := p.BuildRequestOptions()
	if !net.IP(opts[0].(IPAddress)).Equal(suggested) {
		t.Fatalf("got %v, want %v", opts[0], suggested)
	}
}
