package dto

import (
	"time"

	"github.com/spec-kit/event-tickets/internal/domain"
)

// SendRequest addresses one ticket send. Phone defaults to the holder's.
type SendRequest struct {
	TicketID string `json:"ticket_id"`
	Phone    string `json:"phone"`
	Email    string `json:"email"`
	MediaRef string `json:"media_ref"`
}

// BulkSendRequest payload.
type BulkSendRequest struct {
	Items []SendRequest `json:"items"`
}

// ScheduleRequest payload. SendAt is "YYYY-MM-DD HH:MM:SS" in the scheduler
// timezone, or RFC 3339.
type ScheduleRequest struct {
	SendRequest
	SendAt string `json:"send_at"`
}

// JobResponse describes a scheduled send.
type JobResponse struct {
	ID        string           `json:"id"`
	TicketID  string           `json:"ticket_id"`
	Recipient domain.Recipient `json:"recipient"`
	FireAt    time.Time        `json:"fire_at"`
	Status    domain.JobStatus `json:"status"`
	CreatedAt time.Time        `json:"created_at"`
}
