package fsm

import "time"

// Option is anything with a wire option Type and Encode, the same
// method set lcp.Option and ipcp.Option implement. The engine never
// needs to know the concrete option set of the CP plugged into it.
type Option interface {
	Type() uint8
	Encode() []byte
}

// Policy supplies the per-protocol negotiation semantics plugged into
// the generic engine (spec.md Section 4.2).
type Policy interface {
	// BuildRequestOptions returns the options this end currently wants
	// to propose in a Configure-Request.
	BuildRequestOptions() []Option
	// CheckReceived classifies a peer's Configure-Request into the
	// options to Ack, Nak, and Reject.
	CheckReceived(received []Option) (ack, nak, rej []Option)
	// ProcessNak updates this end's desired options in response to a
	// peer Configure-Nak, and reports whether the desired set has
	// converged (stopped changing).
	ProcessNak(received []Option) (converged bool)
	// ProcessReject updates this end's desired options in response to
	// a peer Configure-Reject (the options must be dropped from future
	// requests), and reports whether the desired set has converged.
	ProcessReject(received []Option) (converged bool)
}

// Sender emits wire frames for the protocol this Machine drives. The
// driver plugging a Sender in owns the actual codec and transport.
type Sender interface {
	SendConfigureRequest(id uint8, opts []Option)
	SendConfigureAck(id uint8, opts []Option)
	SendConfigureNak(id uint8, opts []Option)
	SendConfigureReject(id uint8, opts []Option)
	SendTerminateRequest(id uint8)
	SendTerminateAck(id uint8)
	SendCodeReject(id uint8, rejected []byte)
	SendEchoReply(id uint8)
}

// Notifier receives the engine's up/down/started/finished notifications
// (spec.md Section 4.2).
type Notifier interface {
	Up(ourOpts, hisOpts []Option)
	Down()
	Started()
	Finished()
}

const (
	// DefaultRestartTimer is the RFC 1661 Section 4.2 default restart
	// timer interval.
	DefaultRestartTimer = 3 * time.Second
	// DefaultMaxConfigure is the default retransmit bound for
	// Configure-Request.
	DefaultMaxConfigure = 10
	// DefaultMaxTerminate is the default retransmit bound for
	// Terminate-Request.
	DefaultMaxTerminate = 2
	// DefaultMaxFailure bounds how many consecutive received
	// Configure-Requests this end answers with Nak or Reject before it
	// turns its Naks into Rejects (pppd-style anti-thrash guard; not a
	// named RFC action).
	DefaultMaxFailure = 5
)

// Machine is the stateful CP-FSM driver: the pure table in table.go
// plus the restart timer/counter bookkeeping and the option-state
// tracking (our_opts / his_opts, spec.md Section 3) RFC 1661 leaves to
// the implementation.
type Machine struct {
	policy   Policy
	sender   Sender
	notifier Notifier

	MaxConfigure int
	MaxTerminate int
	MaxFailure   int

	state        State
	restartCount int
	nextID       uint8

	lastSent   []Option // options in our most recently sent Configure-Request
	pendingAck []Option // options we most recently decided to Ack for the peer
	nakRounds  int      // consecutive Nak round-trips seen while negotiating

	OurOpts []Option // spec.md: options the peer acknowledged for us
	HisOpts []Option // spec.md: options we acknowledged for the peer
}

// NewMachine creates a Machine in State Initial.
func NewMachine(policy Policy, sender Sender, notifier Notifier) *Machine {
	return &Machine{
		policy:       policy,
		sender:       sender,
		notifier:     notifier,
		MaxConfigure: DefaultMaxConfigure,
		MaxTerminate: DefaultMaxTerminate,
		MaxFailure:   DefaultMaxFailure,
		state:        StateInitial,
	}
}

// State returns the current automaton state.
func (m *Machine) State() State { return m.state }

func (m *Machine) allocID() uint8 {
	id := m.nextID
	m.nextID++
	return id
}

// --- Administrative / lower-layer events ---

func (m *Machine) Open()      { m.drive(EventOpen, eventCtx{}) }
func (m *Machine) Close()     { m.drive(EventClose, eventCtx{}) }
func (m *Machine) LowerUp()   { m.drive(EventUp, eventCtx{}) }
func (m *Machine) LowerDown() { m.drive(EventDown, eventCtx{}) }

// Timeout is called by the driver when the restart timer fires. It
// decides TO+ vs TO- from the restart counter (spec.md Section 4.2:
// "each resend decrements; on zero, tlf").
func (m *Machine) Timeout() {
	if m.restartCount > 0 {
		m.restartCount--
		m.drive(EventTOPlus, eventCtx{})
		return
	}
	m.drive(EventTOMinus, eventCtx{})
}

// --- Peer-frame events ---

// RecvConfigureRequest processes a received Configure-Request.
func (m *Machine) RecvConfigureRequest(id uint8, received []Option) {
	ack, nak, rej := m.policy.CheckReceived(received)
	if len(nak) > 0 && m.nakRounds >= m.MaxFailure {
		rej = append(rej, nak...)
		nak = nil
	}
	event := EventRCRPlus
	if len(nak) > 0 || len(rej) > 0 {
		event = EventRCRMinus
		m.nakRounds++
	} else {
		m.nakRounds = 0
	}
	m.pendingAck = ack
	m.drive(event, eventCtx{id: id, ack: ack, nak: nak, rej: rej})
}

// RecvConfigureAck processes a received Configure-Ack.
func (m *Machine) RecvConfigureAck(id uint8, _ []Option) {
	m.drive(EventRCA, eventCtx{id: id})
}

// RecvConfigureNak processes a received Configure-Nak.
func (m *Machine) RecvConfigureNak(id uint8, received []Option) {
	m.policy.ProcessNak(received)
	m.drive(EventRCN, eventCtx{id: id})
}

// RecvConfigureReject processes a received Configure-Reject.
func (m *Machine) RecvConfigureReject(id uint8, received []Option) {
	m.policy.ProcessReject(received)
	m.drive(EventRCN, eventCtx{id: id})
}

// RecvTerminateRequest processes a received Terminate-Request.
func (m *Machine) RecvTerminateRequest(id uint8) {
	m.drive(EventRTR, eventCtx{id: id})
}

// RecvTerminateAck processes a received Terminate-Ack.
func (m *Machine) RecvTerminateAck(id uint8) {
	m.drive(EventRTA, eventCtx{id: id})
}

// RecvUnknownCode processes a frame with a Code this protocol doesn't
// recognize; rejected carries the verbatim packet for Code-Reject.
func (m *Machine) RecvUnknownCode(id uint8, rejected []byte) {
	m.drive(EventRUC, eventCtx{id: id, raw: rejected})
}

// RecvCodeReject processes a received Code-Reject or Protocol-Reject.
// catastrophic indicates the rejected code/protocol was essential to
// this CP's own operation (e.g. our own Configure-Request was
// rejected), per spec.md Section 4.2's RXJ-/RXJ+ split.
func (m *Machine) RecvCodeReject(catastrophic bool) {
	if catastrophic {
		m.drive(EventRXJMinus, eventCtx{})
		return
	}
	m.drive(EventRXJPlus, eventCtx{})
}

// RecvEcho processes a received Echo-Request (the only one of
// Echo-Request/-Reply/Discard-Request that provokes a reply).
func (m *Machine) RecvEcho(id uint8) {
	m.drive(EventRXR, eventCtx{id: id})
}

// eventCtx carries the payload a triggering frame brought along, so
// exec can thread it through to the right Sender call.
type eventCtx struct {
	id            uint8
	ack, nak, rej []Option
	raw           []byte
}

func (m *Machine) drive(event Event, ctx eventCtx) {
	result := Apply(m.state, event)
	m.state = result.New
	m.exec(result.Actions, ctx)
}

func (m *Machine) exec(actions []Action, ctx eventCtx) {
	hasSCR, hasSTR := false, false
	for _, a := range actions {
		if a == ActionSCR {
			hasSCR = true
		}
		if a == ActionSTR {
			hasSTR = true
		}
	}

	for _, a := range actions {
		switch a {
		case ActionTLS:
			m.notifier.Started()
		case ActionTLF:
			m.notifier.Finished()
		case ActionTLU:
			m.OurOpts = m.lastSent
			m.HisOpts = m.pendingAck
			m.notifier.Up(m.OurOpts, m.HisOpts)
		case ActionTLD:
			m.notifier.Down()
		case ActionIRC:
			if hasSTR {
				m.restartCount = m.MaxTerminate
			} else if hasSCR {
				m.restartCount = m.MaxConfigure
			} else {
				m.restartCount = m.MaxConfigure
			}
		case ActionZRC:
			m.restartCount = 0
		case ActionSCR:
			opts := m.policy.BuildRequestOptions()
			m.lastSent = opts
			m.sender.SendConfigureRequest(m.allocID(), opts)
		case ActionSCA:
			m.sender.SendConfigureAck(ctx.id, ctx.ack)
		case ActionSCN:
			if len(ctx.rej) > 0 {
				m.sender.SendConfigureReject(ctx.id, ctx.rej)
			} else {
				m.sender.SendConfigureNak(ctx.id, ctx.nak)
			}
		case ActionSTR:
			m.sender.SendTerminateRequest(m.allocID())
		case ActionSTA:
			m.sender.SendTerminateAck(ctx.id)
		case ActionSCJ:
			m.sender.SendCodeReject(ctx.id, ctx.raw)
		case ActionSER:
			m.sender.SendEchoReply(ctx.id)
		}
	}
}
