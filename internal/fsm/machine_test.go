package fsm

import "testing"

type fakeOpt struct {
	t uint8
	v byte
}

func (o fakeOpt) Type() uint8    { return o.t }
func (o fakeOpt) Encode() []byte { return []byte{o.v} }

// alwaysAcceptPolicy accepts every option a peer proposes and always
// proposes a single fixed option itself.
type alwaysAcceptPolicy struct {
	want Option
}

func (p *alwaysAcceptPolicy) BuildRequestOptions() []Option { return []Option{p.want} }
func (p *alwaysAcceptPolicy) CheckReceived(received []Option) (ack, nak, rej []Option) {
	return received, nil, nil
}
func (p *alwaysAcceptPolicy) ProcessNak(received []Option) bool    { return true }
func (p *alwaysAcceptPolicy) ProcessReject(received []Option) bool { return true }

type recordingSender struct {
	scrCount  int
	lastAck   []Option
	lastNak   []Option
	lastRej   []Option
	terminate int
	codeRej   int
	echoRep   int
}

func (s *recordingSender) SendConfigureRequest(id uint8, opts []Option) { s.scrCount++ }
func (s *recordingSender) SendConfigureAck(id uint8, opts []Option)     { s.lastAck = opts }
func (s *recordingSender) SendConfigureNak(id uint8, opts []Option)     { s.lastNak = opts }
func (s *recordingSender) SendConfigureReject(id uint8, opts []Option)  { s.lastRej = opts }
func (s *recordingSender) SendTerminateRequest(id uint8)                { s.terminate++ }
func (s *recordingSender) SendTerminateAck(id uint8)                    {}
func (s *recordingSender) SendCodeReject(id uint8, rejected []byte)     { s.codeRej++ }
func (s *recordingSender) SendEchoReply(id uint8)                       { s.echoRep++ }

type recordingNotifier struct {
	started, finished, down int
	ups                     int
	ourOpts, hisOpts        []Option
}

func (n *recordingNotifier) Started()  { n.started++ }
func (n *recordingNotifier) Finished() { n.finished++ }
func (n *recordingNotifier) Down()     { n.down++ }
func (n *recordingNotifier) Up(our, his []Option) {
	n.ups++
	n.ourOpts, n.hisOpts = our, his
}

func TestMachineHappyPathToOpened(t *testing.T) {
	want := fakeOpt{t: 1, v: 0x42}
	policy := &alwaysAcceptPolicy{want: want}
	sender := &recordingSender{}
	notifier := &recordingNotifier{}

	m := NewMachine(policy, sender, notifier)
	m.Open()
	m.LowerUp()

	if m.State() != StateReqSent {
		t.Fatalf("after Open+Up: got %v", m.State())
	}
	if sender.scrCount != 1 {
		t.Fatalf("expected one Configure-Request sent, got %d", sender.scrCount)
	}

	// Peer echoes back a Configure-Ack for what we sent.
	m.RecvConfigureAck(0, []Option{want})
	if m.State() != StateAckRcvd {
		t.Fatalf("after RCA: got %v", m.State())
	}

	// Peer's own Configure-Request arrives and is acceptable.
	m.RecvConfigureRequest(1, []Option{want})
	if m.State() != StateOpened {
		t.Fatalf("after RCR+: got %v", m.State())
	}
	if notifier.ups != 1 {
		t.Fatalf("expected exactly one Up notification, got %d", notifier.ups)
	}
	if len(notifier.ourOpts) != 1 || notifier.ourOpts[0] != Option(want) {
		t.Fatalf("got ourOpts %v", notifier.ourOpts)
	}
}

func TestMachineTimeoutExhaustionFinishes(t *testing.T) {
	policy := &alwaysAcceptPolicy{want: fakeOpt{t: 1, v: 1}}
	sender := &recordingSender{}
	notifier := &recordingNotifier{}

	m := NewMachine(policy, sender, notifier)
	m.MaxConfigure = 2
	m.Open()
	m.LowerUp()

	if m.State() != StateReqSent {
		t.Fatalf("got %v", m.State())
	}

	// Two retransmits (TO+), then the counter hits zero and tlf fires.
	m.Timeout()
	if m.State() != StateReqSent {
		t.Fatalf("after first timeout: got %v", m.State())
	}
	m.Timeout()
	if m.State() != StateReqSent {
		t.Fatalf("after second timeout: got %v", m.State())
	}
	m.Timeout()
	if m.State() != StateStopped {
		t.Fatalf("after exhausting retries: got %v", m.State())
	}
	if notifier.finished != 1 {
		t.Fatalf("expected Finished notification, got %d", notifier.finished)
	}
}

func TestMachineAntiThrashElevatesNakToReject(t *testing.T) {
	// A policy that always Naks a given option type, to exercise the
	// pppd-style anti-thrash guard once nakRounds reaches MaxFailure.
	policy := &alwaysNakPolicy{}
	sender := &recordingSender{}
	notifier := &recordingNotifier{}

	m := NewMachine(policy, sender, notifier)
	m.MaxFailure = 2
	m.Open()
	m.LowerUp()

	m.RecvConfigureRequest(0, []Option{fakeOpt{t: 9, v: 1}})
	if sender.lastRej != nil {
		t.Fatalf("first round should still Nak, got Reject %v", sender.lastRej)
	}
	m.RecvConfigureRequest(1, []Option{fakeOpt{t: 9, v: 1}})
	if sender.lastRej != nil {
		t.Fatalf("second round should still Nak, got Reject %v", sender.lastRej)
	}
	m.RecvConfigureRequest(2, []Option{fakeOpt{t: 9, v: 1}})
	if sender.lastRej == nil {
		t.Fatal("expected the anti-thrash guard to elevate to Reject by the third round")
	}
}

type alwaysNakPolicy struct{}

func (p *alwaysNakPolicy) BuildRequestOptions() []Option { return nil }
func (p *alwaysNakPolicy) CheckReceived(received []Option) (ack, nak, rej []Option) {
	return nil, received, nil
}
func (p *alwaysNakPolicy) ProcessNak(received []Option) bool    { return true }
func (p *alwaysNakPolicy) ProcessReject(received []Option) bool { return true }

func TestMachineEchoReply(t *testing.T) {
	policy := &alwaysAcceptPolicy{want: fakeOpt{t: 1, v: 1}}
	sender := &recordingSender{}
	notifier := &recordingNotifier{}

	m := NewMachine(policy, sender, notifier)
	m.Open()
	m.LowerUp()
	m.RecvConfigureAck(0, []Option{fakeOpt{t: 1, v: 1}})
	m.RecvConfigureRequest(1, []Option{fakeOpt{t: 1, v: 1}})
	if m.State() != StateOpened {
		t.Fatalf("got %v", m.State())
	}

	m.RecvEcho(5)
	if sender.echoRep != 1 {
		t.Fatalf("expected one echo reply, got %d", sender.echoRep)
	}
}
