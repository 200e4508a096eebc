package domain

import "time"

// JobStatus is the lifecycle state of a scheduled notification.
type JobStatus string

const (
	JobStatusScheduled JobStatus = "scheduled"
	JobStatusFired     JobStatus = "fired"
	JobStatusCancelled JobStatus = "cancelled"
)

// Recipient identifies where a ticket message is delivered.
type Recipient struct {
	Phone string `json:"phone"`
	Email string `json:"email,omitempty"`
}

// NotificationJob is a deferred one-shot ticket send.
type NotificationJob struct {
	ID        string
	Ticket    Ticket
	Recipient Recipient
	MediaRef  string
	FireAt    time.Time
	Status    JobStatus
	CreatedAt time.Time
}

// DeliveryResult is the outcome of one channel attempt.
type DeliveryResult struct {
	Channel           string `json:"channel"`
	Success           bool   `json:"success"`
	ProviderMessageID string `json:"provider_message_id,omitempty"`
	Link              string `json:"link,omitempty"`
	Error             string `json:"error,omitempty"`
}

// DispatchOutcome aggregates every attempt made for one logical send.
type DispatchOutcome struct {
	TicketID      string           `json:"ticket_id"`
	Attempts      []DeliveryResult `json:"attempts"`
	PrimaryMethod string           `json:"primary_method"`
	SentAt        time.Time        `json:"sent_at"`
}

// Succeeded reports whether any attempt succeeded.
func (o DispatchOutcome) Succeeded() bool {
	for _, attempt := range o.Attempts {
		if attempt.Success {
			return true
		}
	}
	return false
}
