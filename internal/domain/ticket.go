package domain

import "time"

// TicketType is the closed set of ticket kinds sold for the event.
type TicketType string

const (
	TicketTypeBal            TicketType = "BAL"
	TicketTypeAfter          TicketType = "AFTER"
	TicketTypeAfterVIP       TicketType = "AFTER VIP"
	TicketTypeBalAndAfter    TicketType = "BAL + AFTER"
	TicketTypeBalAndAfterVIP TicketType = "BAL + AFTER VIP"
)

// TicketTypes lists every valid ticket type.
var TicketTypes = []TicketType{
	TicketTypeBalAndAfter,
	TicketTypeBal,
	TicketTypeAfter,
	TicketTypeAfterVIP,
	TicketTypeBalAndAfterVIP,
}

// Valid reports whether t is one of the known ticket types.
func (t TicketType) Valid() bool {
	for _, known := range TicketTypes {
		if t == known {
			return true
		}
	}
	return false
}

// VerificationEntry records one successful door scan.
type VerificationEntry struct {
	Timestamp time.Time `json:"timestamp"`
	Verified  bool      `json:"verified"`
}

// Ticket is an issued event ticket.
type Ticket struct {
	ID                string
	Group             string
	IssuedBy          string
	HolderName        string
	HolderPhone       string
	Type              TicketType
	QRPayload         string
	Verified          bool
	VerificationCount int
	History           []VerificationEntry
	Flagged           bool
	Sent              bool
	SentAt            *time.Time
	Active            bool
	CreatedAt         time.Time
	UpdatedAt         time.Time
}

// FirstVerifiedAt returns the timestamp of the first scan, if any.
func (t *Ticket) FirstVerifiedAt() *time.Time {
	if len(t.History) == 0 {
		return nil
	}
	ts := t.History[0].Timestamp
	return &ts
}

// Clone returns a deep copy so callers never share history slices.
func (t *Ticket) Clone() *Ticket {
	if t == nil {
		return nil
	}
	cp := *t
	cp.History = append([]VerificationEntry(nil), t.History...)
	if t.SentAt != nil {
		sentAt := *t.SentAt
		cp.SentAt = &sentAt
	}
	return &cp
}
