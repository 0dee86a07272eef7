// Package accounting implements the fire-and-forget RADIUS-like
// accounting sink consumed by the Link orchestrator (spec.md Section 6).
package accounting

import (
	"time"
)

// Kind identifies where a Record falls in a session's lifecycle.
type Kind int

const (
	Start Kind = iota
	Interim
	Stop
)

func (k Kind) String() string {
	switch k {
	case Start:
		return "Start"
	case Interim:
		return "Interim"
	case Stop:
		return "Stop"
	default:
		return "Unknown"
	}
}

// ServiceType and FramedProtocol are the fixed RADIUS attribute values
// this core always emits for a PPP session (spec.md Section 6).
const (
	ServiceTypeFramed  = 2
	FramedProtocolPPP  = 1
)

// Record is a single accounting event (spec.md Section 6: "attributes
// including UserName, FramedIpAddress, SessionTime, NasIdentifier,
// ServiceType=2(Framed), FramedProtocol=1(PPP)").
type Record struct {
	Kind Kind

	UserName        string
	FramedIPAddress string
	SessionTime     time.Duration
	NasIdentifier   string
	ServiceType     int
	FramedProtocol  int

	// StopReason is populated only on Kind == Stop.
	StopReason string

	// DSL-Forum PPPoE attributes (TR-101, RFC 4679), populated from the
	// transport's reported line characteristics when the carrier
	// negotiates them (e.g. internal/transport/pppoe reading the
	// Vendor-Specific discovery tag). Zero-valued fields mean the
	// carrier didn't report that attribute.
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

	// Session volume counters, populated on Interim/Stop from the
	// transport's per-peer byte counter (spec.md Section 6 transport
	// contract: get_counter).
	InOctets   uint64
	OutOctets  uint64
	InPackets  uint64
	OutPackets uint64
}

// Sink accepts accounting Records without back-pressure (spec.md
// Section 5: "Link submits requests without back-pressure").
type Sink interface {
	Submit(Record)
}

// NopSink discards every record; used when no accounting backend is
// configured.
type NopSink struct{}

func (NopSink) Submit(Record) {}

var _ Sink = NopSink{}
