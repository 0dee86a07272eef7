// Package metrics exposes ppplinkd's Prometheus instrumentation.
package metrics

import "github.com/prometheus/client_golang/prometheus"

const (
	namespace = "ppplink"
	subsystem = "link"
)

// Label names used across the Collector's vectors.
const (
	labelPeerID = "peer_id"
	labelPhase  = "phase"
	labelProto  = "protocol"
)

// Collector holds every Prometheus metric ppplinkd reports.
type Collector struct {
	// LinksActive tracks the number of Links currently running per phase.
	LinksActive *prometheus.GaugeVec

	// PhaseTransitions counts Link phase transitions (Establish, Auth,
	// Network, Terminating).
	PhaseTransitions *prometheus.CounterVec

	// CPFSMUp counts CP-FSM Up notifications per protocol (lcp, ipcp).
	CPFSMUp *prometheus.CounterVec
	// CPFSMRestarts counts restart-timer retransmissions per protocol.
	CPFSMRestarts *prometheus.CounterVec

	// AuthFailures counts authentication failures, by direction.
	AuthFailures *prometheus.CounterVec

	// AccountingRecordsEmitted counts accounting records submitted to
	// the sink, by kind.
	AccountingRecordsEmitted *prometheus.CounterVec

	// FramesDecodeErrors counts frame-codec decode errors.
	FramesDecodeErrors *prometheus.CounterVec
}

// NewCollector creates a Collector and registers its metrics against
// reg. If reg is nil, prometheus.DefaultRegisterer is used.
func NewCollector(reg prometheus.Registerer) *Collector {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}

	c := newMetrics()

	reg.MustRegister(
		c.LinksActive,
		c.PhaseTransitions,
		c.CPFSMUp,
		c.CPFSMRestarts,
		c.AuthFailures,
		c.AccountingRecordsEmitted,
		c.FramesDecodeErrors,
	)

	return c
}

func newMetrics() *Collector {
	return &Collector{
		LinksActive: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "active",
			Help:      "Number of currently active links, by phase.",
		}, []string{labelPhase}),

		PhaseTransitions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "phase_transitions_total",
			Help:      "Total Link phase transitions.",
		}, []string{labelPeerID, labelPhase}),

		CPFSMUp: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "cpfsm",
			Name:      "up_total",
			Help:      "Total CP-FSM Up notifications, by protocol.",
		}, []string{labelPeerID, labelProto}),

		CPFSMRestarts: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "cpfsm",
			Name:      "restarts_total",
			Help:      "Total CP-FSM restart-timer retransmissions, by protocol.",
		}, []string{labelPeerID, labelProto}),

		AuthFailures: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "auth",
			Name:      "failures_total",
			Help:      "Total authentication failures, by direction.",
		}, []string{labelPeerID, "direction"}),

		AccountingRecordsEmitted: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "accounting",
			Name:      "records_total",
			Help:      "Total accounting records submitted to the sink, by kind.",
		}, []string{"kind"}),

		FramesDecodeErrors: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "frame",
			Name:      "decode_errors_total",
			Help:      "Total frame decode errors.",
		}, []string{labelProto}),
	}
}

// Noop returns a Collector backed by an isolated registry, useful for
// tests and for callers that don't want global-registry side effects.
func Noop() *Collector {
	return NewCollector(prometheus.NewRegistry())
}
