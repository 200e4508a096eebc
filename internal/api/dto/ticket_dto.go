package dto

import (
	"time"

	"github.com/spec-kit/event-tickets/internal/domain"
)

// CreateTicketRequest payload.
type CreateTicketRequest struct {
	HolderName  string            `json:"holder_name"`
	HolderPhone string            `json:"holder_phone"`
	TicketType  domain.TicketType `json:"ticket_type"`
}

// ChangeTypeRequest payload.
type ChangeTypeRequest struct {
	TicketType domain.TicketType `json:"ticket_type"`
}

// SentRequest payload.
type SentRequest struct {
	Sent *bool `json:"sent"`
}

// ActiveRequest payload.
type ActiveRequest struct {
	Active *bool `json:"active"`
}

// VerificationEntryResponse is one scan in a ticket's history.
type VerificationEntryResponse struct {
	Timestamp time.Time `json:"timestamp"`
	Verified  bool      `json:"verified"`
}

// TicketResponse represents a ticket.
type TicketResponse struct {
	ID                  string                      `json:"id"`
	Group               string                      `json:"group"`
	HolderName          string                      `json:"holder_name"`
	HolderPhone         string                      `json:"holder_phone"`
	TicketType          domain.TicketType           `json:"ticket_type"`
	QRPayload           string                      `json:"qr_payload"`
	Verified            bool                        `json:"verified"`
	VerificationCount   int                         `json:"verification_count"`
	VerificationHistory []VerificationEntryResponse `json:"verification_history"`
	Flagged             bool                        `json:"flagged"`
	Sent                bool                        `json:"sent"`
	SentAt              *time.Time                  `json:"sent_at"`
	Active              bool                        `json:"active"`
	CreatedAt           time.Time                   `json:"created_at"`
	UpdatedAt           time.Time                   `json:"updated_at"`
}

// VerifyRequest accepts exactly one lookup key.
type VerifyRequest struct {
	QRData   string `json:"qr_data"`
	Phone    string `json:"phone"`
	TicketID string `json:"ticket_id"`
}

// VerifyResponse is returned by the door scan endpoint.
type VerifyResponse struct {
	Ticket          *TicketResponse  `json:"ticket,omitempty"`
	Message         string           `json:"message"`
	Warning         string           `json:"warning,omitempty"`
	FirstVerifiedAt *time.Time       `json:"first_verified_at,omitempty"`
	RequiresChoice  bool             `json:"requires_choice"`
	Candidates      []TicketResponse `json:"candidates,omitempty"`
}
