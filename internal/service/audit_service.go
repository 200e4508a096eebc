package service

import (
	"context"
	"encoding/json"
	"errors"

	"go.uber.org/zap"

	"github.com/spec-kit/event-tickets/internal/events"
	"github.com/spec-kit/event-tickets/internal/repository"
)

// AuditService mirrors domain events into the delivery log and, when
// configured, an external broker.
type AuditService struct {
	deliveries repository.DeliveryLogRepository
	forward    events.EventHandler
	logger     *zap.Logger
}

// NewAuditService creates the service. deliveries and forward may be nil.
func NewAuditService(deliveries repository.DeliveryLogRepository, forward events.EventHandler, logger *zap.Logger) *AuditService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &AuditService{deliveries: deliveries, forward: forward, logger: logger}
}

// Handle routes one event to the delivery log and the forwarder. It is
// driven by the audit worker, off the publishing goroutine.
func (a *AuditService) Handle(ctx context.Context, event events.Event) error {
	var err error
	switch event.Type {
	case events.EventTicketDispatched:
		err = a.handleTicketDispatched(ctx, event)
	case events.EventTicketVerified:
		err = a.handleTicketVerified(ctx, event)
	case events.EventTicketFlagged:
		err = a.handleTicketFlagged(ctx, event)
	}
	if a.forward != nil {
		if ferr := a.forward(ctx, event); ferr != nil {
			err = errors.Join(err, ferr)
		}
	}
	return err
}

func (a *AuditService) handleTicketDispatched(ctx context.Context, event events.Event) error {
	payload, _ := event.Payload.(events.TicketDispatchedPayload)
	a.logger.Info("TicketDispatched",
		zap.String("ticket_id", event.TicketID),
		zap.String("primary_method", payload.PrimaryMethod),
		zap.Bool("succeeded", payload.Succeeded))

	record := repository.DeliveryRecord{
		TicketID:      event.TicketID,
		Event:         string(event.Type),
		PrimaryMethod: payload.PrimaryMethod,
		RecordedAt:    event.Timestamp,
	}
	if attempts, err := json.Marshal(payload.Attempts); err == nil {
		record.Attempts = attempts
	}
	return a.record(ctx, record)
}

func (a *AuditService) handleTicketVerified(ctx context.Context, event events.Event) error {
	a.logger.Debug("TicketVerified", zap.String("ticket_id", event.TicketID), zap.Any("payload", event.Payload))
	return nil
}

func (a *AuditService) handleTicketFlagged(ctx context.Context, event events.Event) error {
	a.logger.Warn("TicketFlagged", zap.String("ticket_id", event.TicketID), zap.String("group", event.Group), zap.Any("payload", event.Payload))
	return a.record(ctx, repository.DeliveryRecord{
		TicketID:   event.TicketID,
		Event:      string(event.Type),
		RecordedAt: event.Timestamp,
	})
}

func (a *AuditService) record(ctx context.Context, record repository.DeliveryRecord) error {
	if a.deliveries == nil {
		return nil
	}
	if err := a.deliveries.Record(ctx, record); err != nil {
		a.logger.Warn("delivery log write failed", zap.String("ticket_id", record.TicketID), zap.Error(err))
		return err
	}
	return nil
}
