package repository

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/spec-kit/event-tickets/internal/domain"
)

// OrganizerRepository persists organizer accounts.
type OrganizerRepository interface {
	Create(ctx context.Context, organizer *domain.Organizer) error
	GetByID(ctx context.Context, id string) (*domain.Organizer, error)
	GetByUsername(ctx context.Context, username string) (*domain.Organizer, error)
}

type organizerRepository struct {
	pool *pgxpool.Pool
}

// NewOrganizerRepository returns a Postgres-backed organizer repository.
func NewOrganizerRepository(pool *pgxpool.Pool) OrganizerRepository {
	return &organizerRepository{pool: pool}
}

func (r *organizerRepository) Create(ctx context.Context, organizer *domain.Organizer) error {
	const query = `
        INSERT INTO organizers (id, username, password_hash, group_name)
        VALUES ($1, $2, $3, $4)
        RETURNING created_at, updated_at`
	err := r.pool.QueryRow(ctx, query,
		organizer.ID,
		organizer.Username,
		organizer.PasswordHash,
		organizer.Group,
	).Scan(&organizer.CreatedAt, &organizer.UpdatedAt)
	return mapPgError(err)
}

func (r *organizerRepository) GetByID(ctx context.Context, id string) (*domain.Organizer, error) {
	const query = `
        SELECT id, username, password_hash, group_name, created_at, updated_at
        FROM organizers WHERE id=$1`
	return r.fetch(ctx, query, id)
}

func (r *organizerRepository) GetByUsername(ctx context.Context, username string) (*domain.Organizer, error) {
	const query = `
        SELECT id, username, password_hash, group_name, created_at, updated_at
        FROM organizers WHERE lower(username)=lower($1)`
	return r.fetch(ctx, query, username)
}

func (r *organizerRepository) fetch(ctx context.Context, query string, arg any) (*domain.Organizer, error) {
	var o domain.Organizer
	err := r.pool.QueryRow(ctx, query, arg).Scan(
		&o.ID,
		&o.Username,
		&o.PasswordHash,
		&o.Group,
		&o.CreatedAt,
		&o.UpdatedAt,
	)
	if err != nil {
		return nil, mapPgError(err)
	}
	return &o, nil
}

// MemoryOrganizerRepository is the in-process fallback store.
type MemoryOrganizerRepository struct {
	mu   sync.RWMutex
	byID map[string]domain.Organizer
}

func NewMemoryOrganizerRepository() *MemoryOrganizerRepository {
	return &MemoryOrganizerRepository{byID: make(map[string]domain.Organizer)}
}

func (r *MemoryOrganizerRepository) Create(_ context.Context, organizer *domain.Organizer) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, existing := range r.byID {
		if strings.EqualFold(existing.Username, organizer.Username) {
			return ErrDuplicate
		}
	}
	now := time.Now()
	organizer.CreatedAt = now
	organizer.UpdatedAt = now
	r.byID[organizer.ID] = *organizer
	return nil
}

func (r *MemoryOrganizerRepository) GetByID(_ context.Context, id string) (*domain.Organizer, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	o, ok := r.byID[id]
	if !ok {
		return nil, ErrNotFound
	}
	return &o, nil
}

func (r *MemoryOrganizerRepository) GetByUsername(_ context.Context, username string) (*domain.Organizer, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	for _, o := range r.byID {
		if strings.EqualFold(o.Username, username) {
			found := o
			return &found, nil
		}
	}
	return nil, ErrNotFound
}
