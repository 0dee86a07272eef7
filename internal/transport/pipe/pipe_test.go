package pipe

import (
	"bytes"
	"testing"
	"time"
)

func TestSendRecvRoundTrip(t *testing.T) {
	a, b, err := NewPair()
	if err != nil {
		t.Fatalf("NewPair: %v", err)
	}
	defer a.Terminate()
	defer b.Terminate()

	msg := []byte("configure-request")
	if err := a.Send(msg); err != nil {
		t.Fatalf("Send: %v", err)
	}

	select {
	case got := <-b.Recv():
		if !bytes.Equal(got, msg) {
			t.Fatalf("got %q, want %q", got, msg)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for message")
	}
}

func TestCountersTrackBytesAndPackets(t *testing.T) {
	a, b, err := NewPair()
	if err != nil {
		t.Fatalf("NewPair: %v", err)
	}
	defer a.Terminate()
	defer b.Terminate()

	if err := a.Send([]byte("hello")); err != nil {
		t.Fatalf("Send: %v", err)
	}
	<-b.Recv()

	ac := a.Counters()
	if ac.OutOctets != 5 || ac.OutPackets != 1 {
		t.Fatalf("got sender counters %+v", ac)
	}

	// Give the receiver's readLoop goroutine a moment to tally in.
	deadline := time.Now().Add(time.Second)
	for time.Now().Before(deadline) {
		if bc := b.Counters(); bc.InOctets == 5 && bc.InPackets == 1 {
			return
		}
		time.Sleep(time.Millisecond)
	}
	t.Fatalf("got receiver counters %+v, want InOctets=5 InPackets=1", b.Counters())
}

func TestTerminateIsIdempotent(t *testing.T) {
	a, b, err := NewPair()
	if err != nil {
		t.Fatalf("NewPair: %v", err)
	}
	defer b.Terminate()

	if err := a.Terminate(); err != nil {
		t.Fatalf("first Terminate: %v", err)
	}
	if err := a.Terminate(); err != nil {
		t.Fatalf("second Terminate: %v", err)
	}
}

func TestRecvChannelClosesAfterTerminate(t *testing.T) {
	a, b, err := NewPair()
	if err != nil {
		t.Fatalf("NewPair: %v", err)
	}
	defer a.Terminate()

	if err := b.Terminate(); err != nil {
		t.Fatalf("Terminate: %v", err)
	}

	select {
	case _, ok := <-a.Recv():
		if ok {
			t.Fatal("expected the channel to be closed, got a value")
		}
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for recv channel to close")
	}
}
