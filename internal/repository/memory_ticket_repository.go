package repository

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/spec-kit/event-tickets/internal/domain"
	"github.com/spec-kit/event-tickets/internal/phone"
)

// MemoryTicketRepository keeps tickets in process memory. It is used when no
// Postgres DSN is configured and by tests. Stored values are cloned on the
// way in and out so callers never share state with the store.
type MemoryTicketRepository struct {
	mu      sync.RWMutex
	tickets map[string]*domain.Ticket
	now     func() time.Time
}

// NewMemoryTicketRepository returns an empty in-memory store.
func NewMemoryTicketRepository() *MemoryTicketRepository {
	return &MemoryTicketRepository{
		tickets: make(map[string]*domain.Ticket),
		now:     time.Now,
	}
}

func (r *MemoryTicketRepository) Create(_ context.Context, ticket *domain.Ticket) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.tickets[ticket.ID]; exists {
		return ErrDuplicate
	}
	for _, existing := range r.tickets {
		if existing.QRPayload == ticket.QRPayload {
			return ErrDuplicate
		}
	}
	now := r.now()
	ticket.CreatedAt = now
	ticket.UpdatedAt = now
	r.tickets[ticket.ID] = ticket.Clone()
	return nil
}

func (r *MemoryTicketRepository) GetByID(_ context.Context, id string) (*domain.Ticket, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	ticket, ok := r.tickets[id]
	if !ok {
		return nil, ErrNotFound
	}
	return ticket.Clone(), nil
}

func (r *MemoryTicketRepository) GetByQRPayload(_ context.Context, payload string) (*domain.Ticket, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	for _, ticket := range r.tickets {
		if ticket.QRPayload == payload {
			return ticket.Clone(), nil
		}
	}
	return nil, ErrNotFound
}

func (r *MemoryTicketRepository) ListByGroup(_ context.Context, group string) ([]domain.Ticket, error) {
	return r.collect(func(t *domain.Ticket) bool { return t.Group == group }), nil
}

func (r *MemoryTicketRepository) FindByPhone(_ context.Context, num phone.Number) ([]domain.Ticket, error) {
	return r.collect(func(t *domain.Ticket) bool { return num.MatchesStored(t.HolderPhone) }), nil
}

func (r *MemoryTicketRepository) UpdateVerification(_ context.Context, ticket *domain.Ticket) error {
	return r.mutate(ticket.ID, func(stored *domain.Ticket) {
		stored.Verified = ticket.Verified
		stored.VerificationCount = ticket.VerificationCount
		stored.History = append([]domain.VerificationEntry(nil), ticket.History...)
		stored.Flagged = ticket.Flagged
		ticket.UpdatedAt = stored.UpdatedAt
	})
}

func (r *MemoryTicketRepository) UpdateType(_ context.Context, id string, ticketType domain.TicketType, payload string, flag bool) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	stored, ok := r.tickets[id]
	if !ok {
		return ErrNotFound
	}
	for otherID, existing := range r.tickets {
		if otherID != id && existing.QRPayload == payload {
			return ErrDuplicate
		}
	}
	stored.Type = ticketType
	stored.QRPayload = payload
	stored.Flagged = stored.Flagged || flag
	stored.UpdatedAt = r.now()
	return nil
}

func (r *MemoryTicketRepository) UpdateSent(_ context.Context, id string, sent bool, sentAt *time.Time) error {
	return r.mutate(id, func(stored *domain.Ticket) {
		stored.Sent = sent
		if sentAt != nil {
			at := *sentAt
			stored.SentAt = &at
		} else {
			stored.SentAt = nil
		}
	})
}

func (r *MemoryTicketRepository) UpdateActive(_ context.Context, id string, active bool) error {
	return r.mutate(id, func(stored *domain.Ticket) {
		stored.Active = active
	})
}

func (r *MemoryTicketRepository) Delete(_ context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.tickets[id]; !ok {
		return ErrNotFound
	}
	delete(r.tickets, id)
	return nil
}

func (r *MemoryTicketRepository) mutate(id string, fn func(stored *domain.Ticket)) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	stored, ok := r.tickets[id]
	if !ok {
		return ErrNotFound
	}
	stored.UpdatedAt = r.now()
	fn(stored)
	return nil
}

func (r *MemoryTicketRepository) collect(match func(*domain.Ticket) bool) []domain.Ticket {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var out []domain.Ticket
	for _, ticket := range r.tickets {
		if match(ticket) {
			out = append(out, *ticket.Clone())
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].ID < out[j].ID
		}
		return out[i].CreatedAt.Before(out[j].CreatedAt)
	})
	return out
}

var _ TicketRepository = (*MemoryTicketRepository)(nil)
