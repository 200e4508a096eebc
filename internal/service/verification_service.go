package service

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/spec-kit/event-tickets/internal/clock"
	"github.com/spec-kit/event-tickets/internal/domain"
	"github.com/spec-kit/event-tickets/internal/events"
	"github.com/spec-kit/event-tickets/internal/observability"
	"github.com/spec-kit/event-tickets/internal/phone"
	"github.com/spec-kit/event-tickets/internal/repository"
	apperrors "github.com/spec-kit/event-tickets/pkg/util/errorutil"
)

const (
	MessageVerified = "Ticket verified successfully"
	WarningFlagged  = "WARNING: this ticket has already been validated before!"
)

// VerificationResult is the outcome of a door scan. When Candidates is
// non-empty nothing was verified and the caller must pick one by id.
type VerificationResult struct {
	Ticket          *domain.Ticket
	Message         string
	Warning         string
	FirstVerifiedAt *time.Time
	Candidates      []domain.Ticket
}

// NeedsSelection reports whether the scan matched several tickets.
func (r VerificationResult) NeedsSelection() bool {
	return len(r.Candidates) > 0
}

// VerificationService turns scans into verification state transitions.
// Repeat scans are not rejected; they raise the flag once the ticket type's
// threshold is reached.
//
// The read-increment-write sequence is not guarded: two simultaneous scans
// of one ticket can lose an increment.
type VerificationService struct {
	tickets    repository.TicketRepository
	normalizer *phone.Normalizer
	bus        events.Bus
	metrics    *observability.Metrics
	logger     *zap.Logger
	clock      clock.Clock
}

// VerificationDependencies bundles collaborators for the verification service.
type VerificationDependencies struct {
	TicketRepo repository.TicketRepository
	Normalizer *phone.Normalizer
	Bus        events.Bus
	Metrics    *observability.Metrics
	Logger     *zap.Logger
	Clock      clock.Clock
}

func NewVerificationService(deps VerificationDependencies) *VerificationService {
	if deps.Logger == nil {
		deps.Logger = zap.NewNop()
	}
	if deps.Clock == nil {
		deps.Clock = clock.Real()
	}
	if deps.Normalizer == nil {
		deps.Normalizer = phone.NewNormalizer("")
	}
	return &VerificationService{
		tickets:    deps.TicketRepo,
		normalizer: deps.Normalizer,
		bus:        deps.Bus,
		metrics:    deps.Metrics,
		logger:     deps.Logger,
		clock:      deps.Clock,
	}
}

// VerifyByPayload verifies the ticket whose QR payload matches exactly.
func (s *VerificationService) VerifyByPayload(ctx context.Context, payload string) (VerificationResult, error) {
	payload = strings.TrimSpace(payload)
	var doc map[string]any
	if payload == "" || json.Unmarshal([]byte(payload), &doc) != nil {
		return VerificationResult{}, apperrors.NewValidationError("malformed QR payload", nil)
	}

	ticket, err := s.tickets.GetByQRPayload(ctx, payload)
	if err != nil {
		return VerificationResult{}, notFoundOr(err, "ticket")
	}
	return s.verify(ctx, ticket)
}

// VerifyByPhone verifies the single ticket matching phoneNumber. Several
// matches are returned as candidates without changing any ticket.
func (s *VerificationService) VerifyByPhone(ctx context.Context, phoneNumber string) (VerificationResult, error) {
	num, err := s.normalizer.Parse(phoneNumber)
	if err != nil {
		return VerificationResult{}, apperrors.NewValidationError("invalid phone number", map[string]any{"phone": phoneNumber})
	}

	matches, err := s.tickets.FindByPhone(ctx, num)
	if err != nil {
		return VerificationResult{}, err
	}
	switch len(matches) {
	case 0:
		return VerificationResult{}, apperrors.NewNotFound("ticket", map[string]any{"phone": num.Canonical})
	case 1:
		return s.verify(ctx, &matches[0])
	default:
		return VerificationResult{
			Message:    "Several tickets match this phone number; select one to verify",
			Candidates: matches,
		}, nil
	}
}

// VerifyByID verifies the ticket with the given id.
func (s *VerificationService) VerifyByID(ctx context.Context, id string) (VerificationResult, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return VerificationResult{}, apperrors.NewValidationError("ticket id is required", nil)
	}
	ticket, err := s.tickets.GetByID(ctx, id)
	if err != nil {
		return VerificationResult{}, notFoundOr(err, "ticket")
	}
	return s.verify(ctx, ticket)
}

func (s *VerificationService) verify(ctx context.Context, ticket *domain.Ticket) (VerificationResult, error) {
	if !ticket.Active {
		return VerificationResult{}, apperrors.NewValidationError("ticket inactive", map[string]any{"ticket_id": ticket.ID})
	}

	wasFlagged := ticket.Flagged
	ticket.VerificationCount++
	ticket.History = append(ticket.History, domain.VerificationEntry{Timestamp: s.clock.Now().UTC(), Verified: true})
	if ticket.VerificationCount >= domain.FlagThreshold(ticket.Type) {
		ticket.Flagged = true
	}
	ticket.Verified = true

	if err := s.tickets.UpdateVerification(ctx, ticket); err != nil {
		return VerificationResult{}, notFoundOr(err, "ticket")
	}
	s.metrics.RecordVerification(ticket.Flagged)

	result := VerificationResult{Ticket: ticket, Message: MessageVerified}
	if ticket.Flagged {
		result.Warning = WarningFlagged
		result.FirstVerifiedAt = ticket.FirstVerifiedAt()
		s.logger.Warn("flagged ticket scanned",
			zap.String("ticket_id", ticket.ID),
			zap.Int("verification_count", ticket.VerificationCount))
	}

	payload := events.TicketVerifiedPayload{
		VerificationCount: ticket.VerificationCount,
		Flagged:           ticket.Flagged,
		FirstVerifiedAt:   ticket.FirstVerifiedAt(),
	}
	s.publish(ctx, events.NewEvent(events.EventTicketVerified, ticket.ID, ticket.Group, payload))
	if ticket.Flagged && !wasFlagged {
		s.publish(ctx, events.NewEvent(events.EventTicketFlagged, ticket.ID, ticket.Group, payload))
	}
	return result, nil
}

func (s *VerificationService) publish(ctx context.Context, event events.Event) {
	if s.bus == nil {
		return
	}
	if err := s.bus.Publish(ctx, event); err != nil {
		s.logger.Warn("verification event handlers failed", zap.String("event_type", string(event.Type)), zap.Error(err))
	}
}

// notFoundOr maps the store's not-found sentinel to a NotFound domain error.
func notFoundOr(err error, resource string) error {
	if errors.Is(err, repository.ErrNotFound) {
		return apperrors.NewNotFound(resource, nil)
	}
	return err
}
