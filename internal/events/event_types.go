package events

import (
	"time"

	"github.com/google/uuid"

	"github.com/spec-kit/event-tickets/internal/domain"
)

// EventType enumerates supported event identifiers.
type EventType string

const (
	EventTicketVerified   EventType = "ticket_verified"
	EventTicketFlagged    EventType = "ticket_flagged"
	EventTicketDispatched EventType = "ticket_dispatched"
)

// AllEventTypes lists every event a subscriber may want to mirror.
var AllEventTypes = []EventType{EventTicketVerified, EventTicketFlagged, EventTicketDispatched}

// Event represents a domain event emitted by services.
type Event struct {
	ID        string    `json:"id"`
	Type      EventType `json:"type"`
	TicketID  string    `json:"ticket_id"`
	Group     string    `json:"group,omitempty"`
	Timestamp time.Time `json:"timestamp"`
	Payload   any       `json:"payload"`
}

// NewEvent stamps an event with a fresh id and timestamp.
func NewEvent(eventType EventType, ticketID, group string, payload any) Event {
	return Event{
		ID:        uuid.NewString(),
		Type:      eventType,
		TicketID:  ticketID,
		Group:     group,
		Timestamp: time.Now().UTC(),
		Payload:   payload,
	}
}

// TicketVerifiedPayload payload. Also used for ticket_flagged.
type TicketVerifiedPayload struct {
	VerificationCount int        `json:"verification_count"`
	Flagged           bool       `json:"flagged"`
	FirstVerifiedAt   *time.Time `json:"first_verified_at,omitempty"`
}

// TicketDispatchedPayload payload.
type TicketDispatchedPayload struct {
	PrimaryMethod string                  `json:"primary_method"`
	Succeeded     bool                    `json:"succeeded"`
	Attempts      []domain.DeliveryResult `json:"attempts"`
}
