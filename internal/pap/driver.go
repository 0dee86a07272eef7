package pap

import "time"

// RestartInterval and MaxRetries bound the prove-side's retransmission
// of Authenticate-Request (spec.md Section 4.4: "up to 3 resends at
// 3-second intervals").
const (
	RestartInterval = 3 * time.Second
	MaxRetries      = 3
)

// Sender emits an encoded PAP frame onto the link.
type Sender interface {
	Send(b []byte)
}

// Direction identifies which side of the PAP exchange a Result came
// from (spec.md Section 4.4, AuthDirection).
type Direction int

const (
	AuthPeer Direction = iota
	AuthWithPeer
)

func (d Direction) String() string {
	if d == AuthPeer {
		return "AuthPeer"
	}
	return "AuthWithPeer"
}

// Result is the notification an authenticator hands back to the Link
// once it reaches a terminal state.
type Result struct {
	Direction   Direction
	Success     bool
	PeerID      []byte
	SessionOpts map[string]string
	FailReason  string
}

// VerifyFunc is the configuration provider callback for the verifying
// side: given the peer's claimed identity and password, it reports
// whether they're valid and any per-user session overrides to merge in
// (spec.md Section 4.7).
type VerifyFunc func(peerID, password []byte) (ok bool, sessionOpts map[string]string)

// PeerAuthenticator implements the AuthPeer direction: we wait for and
// verify the peer's Authenticate-Request.
type PeerAuthenticator struct {
	sender Sender
	verify VerifyFunc
	done   bool
}

// NewPeerAuthenticator creates an AuthPeer-direction authenticator.
func NewPeerAuthenticator(sender Sender, verify VerifyFunc) *PeerAuthenticator {
	return &PeerAuthenticator{sender: sender, verify: verify}
}

// HandleFrame processes a received PAP frame, returning a non-nil
// Result once the exchange concludes.
func (a *PeerAuthenticator) HandleFrame(f Frame) *Result {
	if a.done {
		return nil
	}
	req, ok := f.Body.(AuthRequest)
	if !ok {
		return nil
	}

	valid, sessionOpts := a.verify(req.PeerID, req.Password)
	a.done = true
	if valid {
		a.sender.Send(Frame{Code: CodeAuthenticateAck, ID: f.ID, Body: Ack{}}.Encode())
		return &Result{Direction: AuthPeer, Success: true, PeerID: req.PeerID, SessionOpts: sessionOpts}
	}
	a.sender.Send(Frame{Code: CodeAuthenticateNak, ID: f.ID, Body: Nak{}}.Encode())
	return &Result{Direction: AuthPeer, Success: false, FailReason: "invalid credentials"}
}

// SelfAuthenticator implements the AuthWithPeer direction: we send our
// own Authenticate-Request and wait for the peer's Ack/Nak, resending
// on timeout up to MaxRetries times.
type SelfAuthenticator struct {
	sender  Sender
	name    []byte
	secret  []byte
	id      uint8
	retries int
	done    bool
}

// NewSelfAuthenticator creates an AuthWithPeer-direction authenticator.
func NewSelfAuthenticator(sender Sender, name, secret []byte) *SelfAuthenticator {
	return &SelfAuthenticator{sender: sender, name: name, secret: secret}
}

// Start sends the initial Authenticate-Request.
func (a *SelfAuthenticator) Start() {
	a.send()
}

func (a *SelfAuthenticator) send() {
	a.sender.Send(Frame{
		Code: CodeAuthenticateRequest,
		ID:   a.id,
		Body: AuthRequest{PeerID: a.name, Password: a.secret},
	}.Encode())
}

// HandleFrame processes a received PAP frame, returning a non-nil
// Result once the exchange concludes.
func (a *SelfAuthenticator) HandleFrame(f Frame) *Result {
	if a.done || f.ID != a.id {
		return nil
	}
	switch f.Body.(type) {
	case Ack:
		a.done = true
		return &Result{Direction: AuthWithPeer, Success: true}
	case Nak:
		a.done = true
		return &Result{Direction: AuthWithPeer, Success: false, FailReason: "peer rejected our credentials"}
	}
	return nil
}

// Timeout is called by the driver when the restart timer fires. It
// resends up to MaxRetries times, then gives up.
func (a *SelfAuthenticator) Timeout() *Result {
	if a.done {
		return nil
	}
	if a.retries >= MaxRetries {
		a.done = true
		return &Result{Direction: AuthWithPeer, Success: false, FailReason: "no response from peer"}
	}
	a.retries++
	a.id++
	a.send()
	return nil
}
