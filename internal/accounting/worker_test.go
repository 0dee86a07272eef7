package accounting

import (
	"sync"
	"testing"

	"github.com/rs/zerolog"
)

type recordingBackend struct {
	mu  sync.Mutex
	got []Record
}

func (b *recordingBackend) Send(r Record) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.got = append(b.got, r)
	return nil
}

func (b *recordingBackend) count() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.got)
}

func TestWorkerDeliversSubmittedRecords(t *testing.T) {
	backend := &recordingBackend{}
	w := NewWorker(backend, zerolog.Nop(), 4)

	w.Submit(Record{Kind: Start, UserName: "alice"})
	w.Submit(Record{Kind: Stop, UserName: "alice"})
	w.Close()

	if backend.count() != 2 {
		t.Fatalf("got %d records, want 2", backend.count())
	}
}

func TestWorkerDropsWhenQueueFull(t *testing.T) {
	blockCh := make(chan struct{})
	backend := &blockingBackend{block: blockCh}
	w := NewWorker(backend, zerolog.Nop(), 1)

	// The first Submit is picked up immediately by run() and blocks on
	// backend.Send; the queue (depth 1) absorbs the second; the third
	// must be dropped rather than block Submit.
	w.Submit(Record{Kind: Start})
	w.Submit(Record{Kind: Interim})
	w.Submit(Record{Kind: Stop})

	close(blockCh)
	w.Close()
}

type blockingBackend struct {
	block chan struct{}
	once  sync.Once
}

func (b *blockingBackend) Send(Record) error {
	b.once.Do(func() { <-b.block })
	return nil
}

func TestKindString(t *testing.T) {
	if Start.String() != "Start" || Interim.String() != "Interim" || Stop.String() != "Stop" {
		t.Fatal("unexpected Kind.String() values")
	}
	if Kind(99).String() != "Unknown" {
		t.Fatalf("got %q", Kind(99).String())
	}
}

func TestNopSinkDiscards(t *testing.T) {
	var s Sink = NopSink{}
	s.Submit(Record{Kind: Start})
}
