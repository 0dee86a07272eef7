// Package transport defines the carrier contract the Link orchestrator
// consumes (spec.md Section 6): a byte-oriented sender/receiver with a
// per-peer byte counter. Concrete carriers (PPPoE, an in-process pipe
// for tests) live in the pppoe and pipe subpackages.
package transport

// Counters is the per-peer traffic tally a Transport reports, used by
// the accounting sink on Interim/Stop records (spec.md Section 6).
type Counters struct {
	InOctets   uint64
	OutOctets  uint64
	InPackets  uint64
	OutPackets uint64

	// Line carries whatever access-line attributes the carrier can
	// report (populated by carriers that negotiate them, e.g. PPPoE
	// TR-101 tags; zero value for carriers that can't). See LineInfo.
	Line LineInfo
}

// LineInfo is the DSL-Forum (TR-101) access-line attribute set the
// accounting sink attaches to Start/Interim/Stop records when the
// underlying carrier reports it (spec.md Section 6).
type LineInfo struct {
	CircuitID           string
	RemoteID            string
	ActualDataRateUp    uint32
	ActualDataRateDown  uint32
	MinDataRateUp       uint32
	MinDataRateDown     uint32
	AttainableRateUp    uint32
	AttainableRateDown  uint32
	InterleavingDelayUp uint32
	InterleavingDelayDn uint32
}

// Transport is the carrier contract the Link orchestrator drives. A
// complete PPP payload (from the Protocol field onward) crosses this
// boundary in each direction; framing (HDLC escaping, PPPoE session
// headers) is the concrete Transport's concern, not the Link's.
type Transport interface {
	// Send enqueues a complete PPP payload for transmission.
	Send(payload []byte) error
	// Recv delivers the channel the Link selects on for inbound
	// PacketIn events (spec.md Section 5).
	Recv() <-chan []byte
	// Counters reports the running per-peer traffic tally.
	Counters() Counters
	// Terminate closes the carrier. Idempotent.
	Terminate() error
}
