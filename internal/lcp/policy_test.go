package lcp

import (
	"testing"

	"github.com/dgoulet-net/ppplink/internal/frame"
	"github.com/dgoulet-net/ppplink/internal/fsm"
)

func TestPolicyBuildRequestOptionsIncludesConfigured(t *testing.T) {
	auth := AuthProto{Proto: frame.ProtoPAP}
	p := NewPolicy(Config{MRU: 1500, Auth: &auth}, 0xaabbccdd)

	opts := p.BuildRequestOptions()
	var sawMRU, sawAuth, sawMagic bool
	for _, o := range opts {
		switch v := o.(type) {
		case MRU:
			sawMRU = v == 1500
		case Auth:
			sawAuth = v.Proto == auth
		case Magic:
			sawMagic = uint32(v) == 0xaabbccdd
		}
	}
	if !sawMRU || !sawAuth || !sawMagic {
		t.Fatalf("got opts %+v", opts)
	}
}

func TestPolicyRandomMagicNeverZero(t *testing.T) {
	p := NewPolicy(Config{}, 0)
	if p.magic == 0 {
		t.Fatal("expected a nonzero random magic")
	}
}

func TestPolicyCheckReceivedNaksOversizeMRU(t *testing.T) {
	p := NewPolicy(Config{MaxMRU: 1492}, 1)
	ack, nak, rej := p.CheckReceived([]fsm.Option{MRU(1500)})
	if len(ack) != 0 || len(rej) != 0 {
		t.Fatalf("got ack=%v rej=%v", ack, rej)
	}
	if len(nak) != 1 || nak[0].(MRU) != 1492 {
		t.Fatalf("got nak=%v", nak)
	}
}

func TestPolicyCheckReceivedRejectsUnsupported(t *testing.T) {
	p := NewPolicy(Config{}, 1)
	_, _, rej := p.CheckReceived([]fsm.Option{Callback{Op: 0}})
	if len(rej) != 1 {
		t.Fatalf("got rej=%v", rej)
	}
}

func TestPolicyCheckReceivedAuthAcceptance(t *testing.T) {
	p := NewPolicy(Config{AcceptAuths: []AuthProto{{Proto: frame.ProtoPAP}}}, 1)
	ack, nak, rej := p.CheckReceived([]fsm.Option{Auth{Proto: AuthProto{Proto: frame.ProtoPAP}}})
	if len(ack) != 1 || len(nak) != 0 || len(rej) != 0 {
		t.Fatalf("got ack=%v nak=%v rej=%v", ack, nak, rej)
	}
}

func TestPolicyCheckReceivedAuthRejectedWhenUnconfigured(t *testing.T) {
	p := NewPolicy(Config{AcceptAuths: []AuthProto{{Proto: frame.ProtoPAP}}}, 1)
	_, _, rej := p.CheckReceived([]fsm.Option{Auth{Proto: AuthProto{Proto: frame.ProtoCHAP}}})
	if len(rej) != 1 {
		t.Fatalf("got rej=%v", rej)
	}
}

func TestPolicyMagicLoopbackDetectionNaks(t *testing.T) {
	p := NewPolicy(Config{}, 0x12345678)
	_, nak, _ := p.CheckReceived([]fsm.Option{Magic(0x12345678)})
	if len(nak) != 1 {
		t.Fatalf("got nak=%v", nak)
	}
	if uint32(nak[0].(Magic)) == 0x12345678 {
		t.Fatal("expected a different suggested magic")
	}
}

func TestPolicyProcessRejectDropsOption(t *testing.T) {
	p := NewPolicy(Config{MRU: 1500}, 1)
	converged := p.ProcessReject([]fsm.Option{MRU(1500)})
	if converged {
		t.Fatal("expected convergence to report false on first rejection")
	}
	opts := p.BuildRequestOptions()
	for _, o := range opts {
		if _, ok := o.(MRU); ok {
			t.Fatal("MRU should have been dropped after rejection")
		}
	}
}

func TestPolicyProcessNakAdoptsSuggestion(t *testing.T) {
	p := NewPolicy(Config{MRU: 1500}, 1)
	converged := p.ProcessNak([]fsm.Option{MRU(1400)})
	if converged {
		t.Fatal("expected convergence to report false when the desired value changed")
	}
	opts := p.BuildRequestOptions()
	var got MRU
	for _, o := range opts {
		if v, ok := o.(MRU); ok {
			got = v
		}
	}
	if got != 1400 {
		t.Fatalf("got MRU %d, want 1400", got)
	}
}
