package worker

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/spec-kit/event-tickets/internal/events"
)

// blockingSink holds every Handle call until release is closed.
type blockingSink struct {
	mu      sync.Mutex
	handled []events.EventType
	release chan struct{}
}

func (s *blockingSink) Handle(_ context.Context, event events.Event) error {
	<-s.release
	s.mu.Lock()
	s.handled = append(s.handled, event.Type)
	s.mu.Unlock()
	return nil
}

func (s *blockingSink) count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.handled)
}

func TestAuditWorkerPublishDoesNotWaitOnSink(t *testing.T) {
	bus := events.NewInMemoryBus()
	sink := &blockingSink{release: make(chan struct{})}
	w := NewAuditWorker(bus, sink, 8, nil)
	w.Start(context.Background())

	start := time.Now()
	for i := 0; i < 3; i++ {
		if err := bus.Publish(context.Background(), events.NewEvent(events.EventTicketFlagged, "t1", "g", nil)); err != nil {
			t.Fatalf("Publish: %v", err)
		}
	}
	if elapsed := time.Since(start); elapsed > 100*time.Millisecond {
		t.Fatalf("publish blocked for %v", elapsed)
	}
	if sink.count() != 0 {
		t.Fatal("sink ran before release")
	}

	close(sink.release)
	w.Stop()
	if got := sink.count(); got != 3 {
		t.Fatalf("handled = %d, want 3", got)
	}
}

func TestAuditWorkerDropsWhenQueueFull(t *testing.T) {
	bus := events.NewInMemoryBus()
	sink := &blockingSink{release: make(chan struct{})}
	w := NewAuditWorker(bus, sink, 1, nil)
	w.Start(context.Background())

	for i := 0; i < 10; i++ {
		_ = bus.Publish(context.Background(), events.NewEvent(events.EventTicketDispatched, "t1", "g", nil))
	}

	close(sink.release)
	w.Stop()
	// One event may be in the sink and one in the queue; the rest are dropped.
	if got := sink.count(); got < 1 || got > 2 {
		t.Fatalf("handled = %d, want 1 or 2", got)
	}
}

func TestAuditWorkerIgnoresEventsAfterStop(t *testing.T) {
	bus := events.NewInMemoryBus()
	sink := &blockingSink{release: make(chan struct{})}
	close(sink.release)
	w := NewAuditWorker(bus, sink, 4, nil)
	w.Start(context.Background())
	w.Stop()

	if err := bus.Publish(context.Background(), events.NewEvent(events.EventTicketVerified, "t1", "g", nil)); err != nil {
		t.Fatalf("Publish after Stop: %v", err)
	}
	if sink.count() != 0 {
		t.Fatalf("handled = %d after stop", sink.count())
	}
}
