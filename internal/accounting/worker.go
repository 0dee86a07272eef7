package accounting

import "github.com/rs/zerolog"

// Backend delivers a Record to the actual RADIUS (or compatible)
// accounting server. Encoding the RADIUS wire attributes themselves is
// outside this core's scope (spec.md Section 1); Backend is the seam a
// caller plugs a real client into.
type Backend interface {
	Send(Record) error
}

// Worker drains a bounded queue of Records on its own goroutine so
// that Submit never blocks the link actor (spec.md Section 5:
// "outbound RADIUS requests are dispatched to a detached worker and
// are fire-and-forget from the link's perspective").
type Worker struct {
	backend Backend
	log     zerolog.Logger
	queue   chan Record
	done    chan struct{}
}

// NewWorker creates a Worker with the given queue depth. Submit drops
// the incoming record rather than blocking if the queue is full,
// since accounting delivery is explicitly best-effort.
func NewWorker(backend Backend, log zerolog.Logger, queueDepth int) *Worker {
	if queueDepth <= 0 {
		queueDepth = 64
	}
	w := &Worker{
		backend: backend,
		log:     log.With().Str("component", "accounting").Logger(),
		queue:   make(chan Record, queueDepth),
		done:    make(chan struct{}),
	}
	go w.run()
	return w
}

// Submit implements Sink.
func (w *Worker) Submit(r Record) {
	select {
	case w.queue <- r:
	default:
		w.log.Warn().Str("kind", r.Kind.String()).Msg("accounting queue full, dropping record")
	}
}

// Close stops the worker's goroutine once the queue drains.
func (w *Worker) Close() {
	close(w.queue)
	<-w.done
}

func (w *Worker) run() {
	defer close(w.done)
	for r := range w.queue {
		if err := w.backend.Send(r); err != nil {
			w.log.Error().Err(err).Str("kind", r.Kind.String()).Msg("accounting delivery failed")
		}
	}
}

var _ Sink = (*Worker)(nil)
