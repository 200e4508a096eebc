package worker

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/spec-kit/event-tickets/internal/events"
)

// DefaultAuditQueueSize bounds the events waiting to be recorded.
const DefaultAuditQueueSize = 256

const auditHandleTimeout = 5 * time.Second

// EventSink consumes events off the publishing path.
type EventSink interface {
	Handle(ctx context.Context, event events.Event) error
}

// AuditWorker queues bus events and hands them to a sink on its own
// goroutine, so publishers never wait on the delivery log or the broker.
// When the queue is full new events are dropped and logged.
type AuditWorker struct {
	bus    events.Bus
	sink   EventSink
	queue  chan events.Event
	logger *zap.Logger

	once sync.Once
	done chan struct{}
	wg   sync.WaitGroup
}

// NewAuditWorker creates a worker. A size below 1 uses DefaultAuditQueueSize.
func NewAuditWorker(bus events.Bus, sink EventSink, size int, logger *zap.Logger) *AuditWorker {
	if size < 1 {
		size = DefaultAuditQueueSize
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &AuditWorker{
		bus:    bus,
		sink:   sink,
		queue:  make(chan events.Event, size),
		logger: logger,
		done:   make(chan struct{}),
	}
}

// Start subscribes to every event type and begins draining the queue.
func (w *AuditWorker) Start(ctx context.Context) {
	if w.bus == nil || w.sink == nil {
		return
	}
	for _, eventType := range events.AllEventTypes {
		w.bus.Subscribe(eventType, w.enqueue)
	}
	ctx = context.WithoutCancel(ctx)
	w.wg.Add(1)
	go w.run(ctx)
}

// Stop drains queued events and waits for the worker to exit.
func (w *AuditWorker) Stop() {
	w.once.Do(func() { close(w.done) })
	w.wg.Wait()
}

func (w *AuditWorker) enqueue(_ context.Context, event events.Event) error {
	select {
	case <-w.done:
		return nil
	default:
	}
	select {
	case w.queue <- event:
	default:
		w.logger.Warn("audit queue full; event dropped",
			zap.String("type", string(event.Type)),
			zap.String("ticket_id", event.TicketID))
	}
	return nil
}

func (w *AuditWorker) run(ctx context.Context) {
	defer w.wg.Done()
	for {
		select {
		case event := <-w.queue:
			w.handle(ctx, event)
		case <-w.done:
			for {
				select {
				case event := <-w.queue:
					w.handle(ctx, event)
				default:
					return
				}
			}
		}
	}
}

func (w *AuditWorker) handle(ctx context.Context, event events.Event) {
	ctx, cancel := context.WithTimeout(ctx, auditHandleTimeout)
	defer cancel()
	if err := w.sink.Handle(ctx, event); err != nil {
		w.logger.Warn("audit handler failed",
			zap.String("type", string(event.Type)),
			zap.String("ticket_id", event.TicketID),
			zap.Error(err))
	}
}
