package service

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"

	"github.com/spec-kit/event-tickets/internal/domain"
)

type qrPayload struct {
	Group    string            `json:"group"`
	Holder   string            `json:"holder"`
	Phone    string            `json:"phone"`
	Type     domain.TicketType `json:"type"`
	Nonce    string            `json:"nonce"`
	IssuedAt string            `json:"issued_at"`
}

// newQRPayload encodes the ticket's identity with a fresh nonce so every
// issuance, including a type change, yields a distinct payload.
func newQRPayload(ticket *domain.Ticket, issuedAt time.Time) (string, error) {
	raw, err := json.Marshal(qrPayload{
		Group:    ticket.Group,
		Holder:   ticket.HolderName,
		Phone:    ticket.HolderPhone,
		Type:     ticket.Type,
		Nonce:    uuid.NewString(),
		IssuedAt: issuedAt.UTC().Format(time.RFC3339),
	})
	if err != nil {
		return "", err
	}
	return string(raw), nil
}
