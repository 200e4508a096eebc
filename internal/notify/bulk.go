package notify

import (
	"context"
	"time"

	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/spec-kit/event-tickets/internal/domain"
	"github.com/spec-kit/event-tickets/internal/observability"
)

// Bulk item statuses.
const (
	BulkStatusSent   = "sent"
	BulkStatusFailed = "failed"
)

// BulkItem is one send within a batch.
type BulkItem struct {
	Ticket    *domain.Ticket
	Recipient domain.Recipient
	MediaRef  string
}

// BulkResult mirrors its BulkItem and adds the outcome.
type BulkResult struct {
	TicketID  string                  `json:"ticket_id"`
	Recipient domain.Recipient        `json:"recipient"`
	Status    string                  `json:"status"`
	Result    *domain.DispatchOutcome `json:"result,omitempty"`
	Error     string                  `json:"error,omitempty"`
}

// BulkCoordinator sends items one at a time with a fixed pause between them.
type BulkCoordinator struct {
	sender  Sender
	delay   time.Duration
	metrics *observability.Metrics
	logger  *zap.Logger
}

func NewBulkCoordinator(sender Sender, delay time.Duration, metrics *observability.Metrics, logger *zap.Logger) *BulkCoordinator {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &BulkCoordinator{sender: sender, delay: delay, metrics: metrics, logger: logger}
}

// SendBulk never fails as a whole: every item gets a result, in input order.
// The configured delay is waited after each send before the next one starts.
// Items left when ctx ends are marked failed.
func (b *BulkCoordinator) SendBulk(ctx context.Context, items []BulkItem) []BulkResult {
	results := make([]BulkResult, len(items))
	for i, item := range items {
		res := BulkResult{Recipient: item.Recipient}
		if item.Ticket != nil {
			res.TicketID = item.Ticket.ID
		}

		var err error
		if i > 0 {
			err = b.pause(ctx)
		} else {
			err = ctx.Err()
		}
		if err != nil {
			res.Status = BulkStatusFailed
			res.Error = err.Error()
			results[i] = res
			b.metrics.RecordBulkItem(res.Status)
			continue
		}

		outcome, err := b.sender.Send(ctx, item.Ticket, item.Recipient, SendOptions{MediaRef: item.MediaRef})
		if err != nil {
			b.logger.Warn("bulk item failed", zap.Int("index", i), zap.String("ticket_id", res.TicketID), zap.Error(err))
			res.Status = BulkStatusFailed
			res.Error = err.Error()
		} else {
			res.Status = BulkStatusSent
			res.Result = &outcome
		}
		results[i] = res
		b.metrics.RecordBulkItem(res.Status)
	}

	b.logger.Info("bulk send finished", zap.Int("items", len(items)))
	return results
}

// pause blocks for the full delay counted from now, or until ctx ends.
func (b *BulkCoordinator) pause(ctx context.Context) error {
	if b.delay <= 0 {
		return ctx.Err()
	}
	gap := rate.NewLimiter(rate.Every(b.delay), 1)
	gap.Allow()
	return gap.Wait(ctx)
}
