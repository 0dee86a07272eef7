package fsm

import "testing"

func TestApplyNoRule(t *testing.T) {
	res := Apply(StateInitial, EventRTR)
	if res.Changed || len(res.Actions) != 0 || res.New != StateInitial {
		t.Fatalf("expected no-op, got %+v", res)
	}
}

func TestApplyOpenFromInitial(t *testing.T) {
	res := Apply(StateInitial, EventOpen)
	if res.New != StateStarting {
		t.Fatalf("got new state %v", res.New)
	}
	if len(res.Actions) != 1 || res.Actions[0] != ActionTLS {
		t.Fatalf("got actions %v", res.Actions)
	}
}

func TestApplyUpToOpenedHappyPath(t *testing.T) {
	s := StateStarting
	seq := []struct {
		event Event
		want  State
	}{
		{EventUp, StateReqSent},
		{EventRCA, StateAckRcvd},
		{EventRCRPlus, StateOpened},
	}
	for _, step := range seq {
		res := Apply(s, step.event)
		s = res.New
		if s != step.want {
			t.Fatalf("event %v: got %v, want %v", step.event, s, step.want)
		}
	}
}

func TestStateAndEventStrings(t *testing.T) {
	if StateOpened.String() != "Opened" {
		t.Fatalf("got %q", StateOpened.String())
	}
	if State(255).String() != "Unknown" {
		t.Fatalf("got %q", State(255).String())
	}
	if EventRCRPlus.String() != "RCR+" {
		t.Fatalf("got %q", EventRCRPlus.String())
	}
	if Event(255).String() != "Unknown" {
		t.Fatalf("got %q", Event(255).String())
	}
	if ActionTLU.String() != "tlu" {
		t.Fatalf("got %q", ActionTLU.String())
	}
}
