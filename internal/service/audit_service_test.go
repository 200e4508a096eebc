package service

import (
	"context"
	"testing"

	"github.com/spec-kit/event-tickets/internal/domain"
	"github.com/spec-kit/event-tickets/internal/events"
)

func TestAuditServiceRecordsAndForwards(t *testing.T) {
	log := &memoryDeliveryLog{}
	var forwarded []events.EventType
	forward := func(_ context.Context, e events.Event) error {
		forwarded = append(forwarded, e.Type)
		return nil
	}
	audit := NewAuditService(log, forward, nil)
	ctx := context.Background()

	_ = audit.Handle(ctx, events.NewEvent(events.EventTicketDispatched, "t1", "g", events.TicketDispatchedPayload{
		PrimaryMethod: "sms",
		Succeeded:     true,
		Attempts:      []domain.DeliveryResult{{Channel: "sms", Success: true}},
	}))
	_ = audit.Handle(ctx, events.NewEvent(events.EventTicketVerified, "t1", "g", events.TicketVerifiedPayload{VerificationCount: 2}))
	_ = audit.Handle(ctx, events.NewEvent(events.EventTicketFlagged, "t1", "g", events.TicketVerifiedPayload{VerificationCount: 2, Flagged: true}))

	records, _ := log.List(ctx, "t1")
	if len(records) != 2 {
		t.Fatalf("records = %+v", records)
	}
	if records[0].Event != string(events.EventTicketFlagged) || records[1].PrimaryMethod != "sms" {
		t.Fatalf("records = %+v", records)
	}
	if len(forwarded) != 3 {
		t.Fatalf("forwarded = %v", forwarded)
	}
}
