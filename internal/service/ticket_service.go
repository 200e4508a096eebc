package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/spec-kit/event-tickets/internal/clock"
	"github.com/spec-kit/event-tickets/internal/domain"
	"github.com/spec-kit/event-tickets/internal/phone"
	"github.com/spec-kit/event-tickets/internal/repository"
	apperrors "github.com/spec-kit/event-tickets/pkg/util/errorutil"
)

// Scope identifies the organizer acting on tickets. Tickets of other groups
// are reported as not found.
type Scope struct {
	OrganizerID string
	Group       string
}

// TicketService coordinates ticket issuance and administration.
type TicketService struct {
	tickets    repository.TicketRepository
	normalizer *phone.Normalizer
	logger     *zap.Logger
	clock      clock.Clock
}

// TicketDependencies bundles collaborators for ticket service.
type TicketDependencies struct {
	TicketRepo repository.TicketRepository
	Normalizer *phone.Normalizer
	Logger     *zap.Logger
	Clock      clock.Clock
}

// TicketCreateInput describes ticket creation payload.
type TicketCreateInput struct {
	HolderName  string
	HolderPhone string
	Type        domain.TicketType
}

// NewTicketService constructs the service.
func NewTicketService(deps TicketDependencies) *TicketService {
	if deps.Logger == nil {
		deps.Logger = zap.NewNop()
	}
	if deps.Clock == nil {
		deps.Clock = clock.Real()
	}
	if deps.Normalizer == nil {
		deps.Normalizer = phone.NewNormalizer("")
	}
	return &TicketService{
		tickets:    deps.TicketRepo,
		normalizer: deps.Normalizer,
		logger:     deps.Logger,
		clock:      deps.Clock,
	}
}

// CreateTicket issues a ticket for the scope's group.
func (s *TicketService) CreateTicket(ctx context.Context, scope Scope, input TicketCreateInput) (*domain.Ticket, error) {
	input.HolderName = strings.TrimSpace(input.HolderName)
	input.HolderPhone = strings.TrimSpace(input.HolderPhone)
	if input.HolderName == "" {
		return nil, apperrors.NewValidationError("holder name is required", nil)
	}
	if _, err := s.normalizer.Parse(input.HolderPhone); err != nil {
		return nil, apperrors.NewValidationError("invalid holder phone", map[string]any{"phone": input.HolderPhone})
	}
	if !input.Type.Valid() {
		return nil, invalidTypeError(input.Type)
	}

	ticket := &domain.Ticket{
		ID:          uuid.NewString(),
		Group:       scope.Group,
		IssuedBy:    scope.OrganizerID,
		HolderName:  input.HolderName,
		HolderPhone: input.HolderPhone,
		Type:        input.Type,
		Active:      true,
	}
	payload, err := newQRPayload(ticket, s.clock.Now())
	if err != nil {
		return nil, err
	}
	ticket.QRPayload = payload

	if err := s.tickets.Create(ctx, ticket); err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return nil, apperrors.NewConflict("QR payload collision", map[string]any{"ticket_id": ticket.ID})
		}
		return nil, err
	}
	s.logger.Info("ticket issued",
		zap.String("ticket_id", ticket.ID),
		zap.String("group", ticket.Group),
		zap.String("type", string(ticket.Type)))
	return ticket, nil
}

// GetTicket returns a ticket of the scope's group.
func (s *TicketService) GetTicket(ctx context.Context, scope Scope, id string) (*domain.Ticket, error) {
	ticket, err := s.tickets.GetByID(ctx, id)
	if err != nil {
		return nil, notFoundOr(err, "ticket")
	}
	if ticket.Group != scope.Group {
		return nil, apperrors.NewNotFound("ticket", nil)
	}
	return ticket, nil
}

// ListTickets returns every ticket of the scope's group, oldest first.
func (s *TicketService) ListTickets(ctx context.Context, scope Scope) ([]domain.Ticket, error) {
	return s.tickets.ListByGroup(ctx, scope.Group)
}

// ChangeType switches the ticket type and regenerates its QR payload. The
// previous payload no longer matches any ticket.
func (s *TicketService) ChangeType(ctx context.Context, scope Scope, id string, ticketType domain.TicketType) (*domain.Ticket, error) {
	if !ticketType.Valid() {
		return nil, invalidTypeError(ticketType)
	}
	ticket, err := s.GetTicket(ctx, scope, id)
	if err != nil {
		return nil, err
	}
	ticket.Type = ticketType
	payload, err := newQRPayload(ticket, s.clock.Now())
	if err != nil {
		return nil, err
	}
	// Flagged is monotonic: a lower threshold can set it, a higher one never clears it.
	flag := ticket.VerificationCount >= domain.FlagThreshold(ticketType)
	if err := s.tickets.UpdateType(ctx, id, ticketType, payload, flag); err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return nil, apperrors.NewConflict("QR payload collision", map[string]any{"ticket_id": id})
		}
		return nil, notFoundOr(err, "ticket")
	}
	ticket.QRPayload = payload
	ticket.Flagged = ticket.Flagged || flag
	s.logger.Info("ticket type changed", zap.String("ticket_id", id), zap.String("type", string(ticketType)))
	return ticket, nil
}

// MarkSent records the organizer's confirmation that the ticket reached its holder.
func (s *TicketService) MarkSent(ctx context.Context, scope Scope, id string, sent bool) (*domain.Ticket, error) {
	ticket, err := s.GetTicket(ctx, scope, id)
	if err != nil {
		return nil, err
	}
	var sentAt *time.Time
	if sent {
		now := s.clock.Now().UTC()
		sentAt = &now
	}
	if err := s.tickets.UpdateSent(ctx, id, sent, sentAt); err != nil {
		return nil, notFoundOr(err, "ticket")
	}
	ticket.Sent, ticket.SentAt = sent, sentAt
	return ticket, nil
}

// SetActive toggles the administrative kill switch.
func (s *TicketService) SetActive(ctx context.Context, scope Scope, id string, active bool) (*domain.Ticket, error) {
	ticket, err := s.GetTicket(ctx, scope, id)
	if err != nil {
		return nil, err
	}
	if err := s.tickets.UpdateActive(ctx, id, active); err != nil {
		return nil, notFoundOr(err, "ticket")
	}
	ticket.Active = active
	s.logger.Info("ticket activation changed", zap.String("ticket_id", id), zap.Bool("active", active))
	return ticket, nil
}

// DeleteTicket removes a ticket permanently.
func (s *TicketService) DeleteTicket(ctx context.Context, scope Scope, id string) error {
	if _, err := s.GetTicket(ctx, scope, id); err != nil {
		return err
	}
	if err := s.tickets.Delete(ctx, id); err != nil {
		return notFoundOr(err, "ticket")
	}
	s.logger.Info("ticket deleted", zap.String("ticket_id", id))
	return nil
}

func invalidTypeError(t domain.TicketType) error {
	allowed := make([]string, 0, len(domain.TicketTypes))
	for _, known := range domain.TicketTypes {
		allowed = append(allowed, string(known))
	}
	return apperrors.NewValidationError("invalid ticket type", map[string]any{
		"type":    string(t),
		"allowed": allowed,
	})
}
