// Package fsm implements the generic CP-FSM automaton shared by every
// PPP control protocol (RFC 1661 Section 4.2), parametrized by a
// per-protocol Policy (spec.md Section 4.2).
//
// The transition table itself is a pure function over (State, Event),
// in the same style as a classic protocol-FSM transition table: no
// side effects, no knowledge of timers or transport. The stateful
// driver that owns timers, restart counters and the send/receive path
// lives in Machine (machine.go).
package fsm

// State is a CP-FSM state (RFC 1661 Section 4.2).
type State uint8

const (
	StateInitial State = iota
	StateStarting
	StateClosed
	StateStopped
	StateClosing
	StateStopping
	StateReqSent
	StateAckRcvd
	StateAckSent
	StateOpened
)

func (s State) String() string {
	switch s {
	case StateInitial:
		return "Initial"
	case StateStarting:
		return "Starting"
	case StateClosed:
		return "Closed"
	case StateStopped:
		return "Stopped"
	case StateClosing:
		return "Closing"
	case StateStopping:
		return "Stopping"
	case StateReqSent:
		return "Req-Sent"
	case StateAckRcvd:
		return "Ack-Rcvd"
	case StateAckSent:
		return "Ack-Sent"
	case StateOpened:
		return "Opened"
	default:
		return "Unknown"
	}
}

// Event is a CP-FSM input event (RFC 1661 Section 4.2).
type Event uint8

const (
	EventUp    Event = iota // lower layer came up
	EventDown               // lower layer went down
	EventOpen               // administrative Open
	EventClose              // administrative Close
	EventTOPlus             // restart timer expired, counter > 0
	EventTOMinus            // restart timer expired, counter == 0
	EventRCRPlus            // received an acceptable Configure-Request
	EventRCRMinus           // received an unacceptable Configure-Request
	EventRCA                // received a Configure-Ack
	EventRCN                // received a Configure-Nak or Configure-Reject
	EventRTR                // received a Terminate-Request
	EventRTA                // received a Terminate-Ack
	EventRUC                // received an unrecognized Code
	EventRXJPlus            // received an acceptable Code/Protocol-Reject
	EventRXJMinus           // received a catastrophic Code/Protocol-Reject
	EventRXR                // received an Echo-Request/-Reply/Discard-Request
)

func (e Event) String() string {
	names := [...]string{
		"Up", "Down", "Open", "Close", "TO+", "TO-",
		"RCR+", "RCR-", "RCA", "RCN", "RTR", "RTA", "RUC", "RXJ+", "RXJ-", "RXR",
	}
	if int(e) < len(names) {
		return names[e]
	}
	return "Unknown"
}

// Action is a side-effect the driver must execute after a transition
// (RFC 1661 Section 4.2: tls, tlf, tlu, tld, irc, zrc, scr, sca, scn,
// str, sta, scj, ser).
type Action uint8

const (
	ActionTLS Action = iota + 1 // this-layer-started
	ActionTLF                   // this-layer-finished
	ActionTLU                   // this-layer-up
	ActionTLD                   // this-layer-down
	ActionIRC                   // initialize-restart-count
	ActionZRC                   // zero-restart-count
	ActionSCR                   // send-configure-request
	ActionSCA                   // send-configure-ack
	ActionSCN                   // send-configure-nak/reject
	ActionSTR                   // send-terminate-request
	ActionSTA                   // send-terminate-ack
	ActionSCJ                   // send-code-reject
	ActionSER                   // send-echo-reply
)

func (a Action) String() string {
	names := [...]string{
		"", "tls", "tlf", "tlu", "tld", "irc", "zrc",
		"scr", "sca", "scn", "str", "sta", "scj", "ser",
	}
	if int(a) < len(names) {
		return names[a]
	}
	return "unknown"
}

type stateEvent struct {
	state State
	event Event
}

type transition struct {
	next    State
	actions []Action
}

// Result is the outcome of applying an Event to a State.
type Result struct {
	Old     State
	New     State
	Actions []Action
	Changed bool
}

// table is the RFC 1661 Section 4.2 automaton, reconstructed from the
// per-state prose description (Section 4.2, sub-sections "Initial,
// Starting", "Closed, Stopped", "Closing, Stopping", "Request-Sent",
// "Ack-Rcvd", "Ack-Sent", "Opened") rather than typed in from the
// appendix table directly. Unlisted (state, event) pairs are no-ops:
// the event is either impossible in that state or intentionally
// ignored (e.g. RXJ+ almost everywhere).
var table = map[stateEvent]transition{
	{StateInitial, EventUp}:   {StateClosed, nil},
	{StateInitial, EventOpen}: {StateStarting, []Action{ActionTLS}},

	{StateStarting, EventUp}:    {StateReqSent, []Action{ActionIRC, ActionSCR}},
	{StateStarting, EventClose}: {StateInitial, []Action{ActionTLF}},

	{StateClosed, EventDown}:    {StateInitial, nil},
	{StateClosed, EventOpen}:    {StateReqSent, []Action{ActionIRC, ActionSCR}},
	{StateClosed, EventRTR}:     {StateClosed, []Action{ActionSTA}},
	{StateClosed, EventRUC}:     {StateClosed, []Action{ActionSCJ}},
	{StateClosed, EventRXJPlus}: {StateClosed, nil},
	{StateClosed, EventRCRPlus}: {StateClosed, []Action{ActionSTA}},
	{StateClosed, EventRCRMinus}: {StateClosed, []Action{ActionSTA}},
	{StateClosed, EventRCA}:     {StateClosed, []Action{ActionSTA}},
	{StateClosed, EventRCN}:     {StateClosed, []Action{ActionSTA}},
	{StateClosed, EventRTA}:     {StateClosed, nil},

	{StateStopped, EventDown}:     {StateStarting, nil},
	{StateStopped, EventRCRPlus}:  {StateAckSent, []Action{ActionIRC, ActionSCR, ActionSCA}},
	{StateStopped, EventRCRMinus}: {StateReqSent, []Action{ActionIRC, ActionSCR, ActionSCN}},
	{StateStopped, EventRCA}:      {StateStopped, []Action{ActionSTA}},
	{StateStopped, EventRCN}:      {StateStopped, []Action{ActionSTA}},
	{StateStopped, EventRTR}:      {StateStopped, []Action{ActionSTA}},
	{StateStopped, EventRUC}:      {StateStopped, []Action{ActionSCJ}},
	{StateStopped, EventRXJPlus}:  {StateStopped, nil},
	{StateStopped, EventRXJMinus}: {StateStarting, []Action{ActionTLS}},

	{StateClosing, EventDown}:     {StateInitial, []Action{ActionTLF}},
	{StateClosing, EventTOPlus}:   {StateClosing, []Action{ActionSTR}},
	{StateClosing, EventTOMinus}:  {StateClosed, []Action{ActionTLF}},
	{StateClosing, EventRCRPlus}:  {StateClosing, []Action{ActionSTA}},
	{StateClosing, EventRCRMinus}: {StateClosing, []Action{ActionSTA}},
	{StateClosing, EventRCA}:      {StateClosing, []Action{ActionSTA}},
	{StateClosing, EventRCN}:      {StateClosing, []Action{ActionSTA}},
	{StateClosing, EventRTR}:      {StateClosing, []Action{ActionSTA}},
	{StateClosing, EventRTA}:      {StateClosed, []Action{ActionTLF}},
	{StateClosing, EventRUC}:      {StateClosing, []Action{ActionSCJ}},
	{StateClosing, EventRXJPlus}:  {StateClosing, nil},
	{StateClosing, EventRXJMinus}: {StateClosed, []Action{ActionTLF}},

	{StateStopping, EventDown}:     {StateStarting, []Action{ActionTLF}},
	{StateStopping, EventTOPlus}:   {StateStopping, []Action{ActionSTR}},
	{StateStopping, EventTOMinus}:  {StateStopped, []Action{ActionTLF}},
	{StateStopping, EventRCRPlus}:  {StateStopping, nil},
	{StateStopping, EventRCRMinus}: {StateStopping, nil},
	{StateStopping, EventRCA}:      {StateStopping, nil},
	{StateStopping, EventRCN}:      {StateStopping, nil},
	{StateStopping, EventRTR}:      {StateStopping, []Action{ActionSTA}},
	{StateStopping, EventRTA}:      {StateStopped, []Action{ActionTLF}},
	{StateStopping, EventRUC}:      {StateStopping, []Action{ActionSCJ}},
	{StateStopping, EventRXJPlus}:  {StateStopping, nil},
	{StateStopping, EventRXJMinus}: {StateStopped, []Action{ActionTLF}},

	{StateReqSent, EventDown}:     {StateStarting, nil},
	{StateReqSent, EventClose}:    {StateClosing, []Action{ActionSTR}},
	{StateReqSent, EventTOPlus}:   {StateReqSent, []Action{ActionSCR}},
	{StateReqSent, EventTOMinus}:  {StateStopped, []Action{ActionTLF}},
	{StateReqSent, EventRCRPlus}:  {StateAckSent, []Action{ActionSCA}},
	{StateReqSent, EventRCRMinus}: {StateReqSent, []Action{ActionSCN}},
	{StateReqSent, EventRCA}:      {StateAckRcvd, []Action{ActionIRC}},
	{StateReqSent, EventRCN}:      {StateReqSent, []Action{ActionIRC, ActionSCR}},
	{StateReqSent, EventRTR}:      {StateReqSent, []Action{ActionSTA}},
	{StateReqSent, EventRTA}:      {StateReqSent, nil},
	{StateReqSent, EventRUC}:      {StateReqSent, []Action{ActionSCJ}},
	{StateReqSent, EventRXJPlus}:  {StateReqSent, nil},
	{StateReqSent, EventRXJMinus}: {StateStopped, []Action{ActionTLF}},

	{StateAckRcvd, EventDown}:     {StateStarting, nil},
	{StateAckRcvd, EventClose}:    {StateClosing, []Action{ActionSTR}},
	{StateAckRcvd, EventTOPlus}:   {StateReqSent, []Action{ActionSCR}},
	{StateAckRcvd, EventTOMinus}:  {StateStopped, []Action{ActionTLF}},
	{StateAckRcvd, EventRCRPlus}:  {StateOpened, []Action{ActionSCA, ActionTLU}},
	{StateAckRcvd, EventRCRMinus}: {StateReqSent, []Action{ActionSCN}},
	{StateAckRcvd, EventRCA}:      {StateReqSent, []Action{ActionSCR}},
	{StateAckRcvd, EventRCN}:      {StateReqSent, []Action{ActionSCR}},
	{StateAckRcvd, EventRTR}:      {StateReqSent, []Action{ActionSTA}},
	{StateAckRcvd, EventRTA}:      {StateReqSent, nil},
	{StateAckRcvd, EventRUC}:      {StateAckRcvd, []Action{ActionSCJ}},
	{StateAckRcvd, EventRXJPlus}:  {StateAckRcvd, nil},
	{StateAckRcvd, EventRXJMinus}: {StateStopped, []Action{ActionTLF}},

	{StateAckSent, EventDown}:     {StateStarting, nil},
	{StateAckSent, EventClose}:    {StateClosing, []Action{ActionSTR}},
	{StateAckSent, EventTOPlus}:   {StateAckSent, []Action{ActionSCR}},
	{StateAckSent, EventTOMinus}:  {StateStopped, []Action{ActionTLF}},
	{StateAckSent, EventRCRPlus}:  {StateAckSent, []Action{ActionSCA}},
	{StateAckSent, EventRCRMinus}: {StateReqSent, []Action{ActionSCN}},
	{StateAckSent, EventRCA}:      {StateOpened, []Action{ActionIRC, ActionTLU}},
	{StateAckSent, EventRCN}:      {StateAckSent, []Action{ActionIRC, ActionSCR}},
	{StateAckSent, EventRTR}:      {StateReqSent, []Action{ActionSTA}},
	{StateAckSent, EventRTA}:      {StateReqSent, nil},
	{StateAckSent, EventRUC}:      {StateAckSent, []Action{ActionSCJ}},
	{StateAckSent, EventRXJPlus}:  {StateAckSent, nil},
	{StateAckSent, EventRXJMinus}: {StateStopped, []Action{ActionTLF}},

	{StateOpened, EventDown}:     {StateStarting, []Action{ActionTLD}},
	{StateOpened, EventClose}:    {StateClosing, []Action{ActionTLD, ActionIRC, ActionSTR}},
	{StateOpened, EventRCRPlus}:  {StateAckSent, []Action{ActionTLD, ActionSCR, ActionSCA}},
	{StateOpened, EventRCRMinus}: {StateReqSent, []Action{ActionTLD, ActionSCR, ActionSCN}},
	{StateOpened, EventRCA}:      {StateReqSent, []Action{ActionTLD, ActionSCR}},
	{StateOpened, EventRCN}:      {StateReqSent, []Action{ActionTLD, ActionSCR}},
	{StateOpened, EventRTR}:      {StateStopping, []Action{ActionTLD, ActionZRC, ActionSTA}},
	{StateOpened, EventRTA}:      {StateReqSent, []Action{ActionTLD, ActionSCR}},
	{StateOpened, EventRUC}:      {StateOpened, []Action{ActionSCJ}},
	{StateOpened, EventRXJPlus}:  {StateOpened, nil},
	{StateOpened, EventRXJMinus}: {StateStopped, []Action{ActionTLD, ActionTLF}},
	{StateOpened, EventRXR}:      {StateOpened, []Action{ActionSER}},
}

// Apply is the pure CP-FSM transition function (RFC 1661 Section 4.2).
// Unlisted (state, event) pairs are silently ignored: Changed is false
// and Actions is empty.
func Apply(state State, event Event) Result {
	tr, ok := table[stateEvent{state, event}]
	if !ok {
		return Result{Old: state, New: state}
	}
	return Result{
		Old:     state,
		New:     tr.next,
		Actions: tr.actions,
		Changed: tr.next != state,
	}
}
