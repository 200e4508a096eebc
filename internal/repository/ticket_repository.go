package repository

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/spec-kit/event-tickets/internal/domain"
	"github.com/spec-kit/event-tickets/internal/phone"
)

// TicketRepository encapsulates ticket persistence.
type TicketRepository interface {
	Create(ctx context.Context, ticket *domain.Ticket) error
	GetByID(ctx context.Context, id string) (*domain.Ticket, error)
	GetByQRPayload(ctx context.Context, payload string) (*domain.Ticket, error)
	ListByGroup(ctx context.Context, group string) ([]domain.Ticket, error)
	FindByPhone(ctx context.Context, num phone.Number) ([]domain.Ticket, error)
	UpdateVerification(ctx context.Context, ticket *domain.Ticket) error
	// UpdateType sets flagged when flag is true; it never clears it.
	UpdateType(ctx context.Context, id string, ticketType domain.TicketType, payload string, flag bool) error
	UpdateSent(ctx context.Context, id string, sent bool, sentAt *time.Time) error
	UpdateActive(ctx context.Context, id string, active bool) error
	Delete(ctx context.Context, id string) error
}

type ticketRepository struct {
	pool *pgxpool.Pool
}

// NewTicketRepository instantiates the Postgres-backed repository.
func NewTicketRepository(pool *pgxpool.Pool) TicketRepository {
	return &ticketRepository{pool: pool}
}

const ticketColumns = `id, group_name, issued_by, holder_name, holder_phone, ticket_type, qr_payload,
               verified, verification_count, verification_history, flagged, sent, sent_at, active,
               created_at, updated_at`

func (r *ticketRepository) Create(ctx context.Context, ticket *domain.Ticket) error {
	history, err := json.Marshal(nonNilHistory(ticket.History))
	if err != nil {
		return fmt.Errorf("encode history: %w", err)
	}
	const query = `
        INSERT INTO tickets (id, group_name, issued_by, holder_name, holder_phone, ticket_type, qr_payload,
            verified, verification_count, verification_history, flagged, sent, sent_at, active)
        VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14)
        RETURNING created_at, updated_at`
	err = r.pool.QueryRow(ctx, query,
		ticket.ID,
		ticket.Group,
		ticket.IssuedBy,
		ticket.HolderName,
		ticket.HolderPhone,
		ticket.Type,
		ticket.QRPayload,
		ticket.Verified,
		ticket.VerificationCount,
		history,
		ticket.Flagged,
		ticket.Sent,
		ticket.SentAt,
		ticket.Active,
	).Scan(&ticket.CreatedAt, &ticket.UpdatedAt)
	return mapPgError(err)
}

func (r *ticketRepository) GetByID(ctx context.Context, id string) (*domain.Ticket, error) {
	query := `SELECT ` + ticketColumns + ` FROM tickets WHERE id=$1`
	return r.fetchSingle(ctx, query, id)
}

func (r *ticketRepository) GetByQRPayload(ctx context.Context, payload string) (*domain.Ticket, error) {
	query := `SELECT ` + ticketColumns + ` FROM tickets WHERE qr_payload=$1`
	return r.fetchSingle(ctx, query, payload)
}

func (r *ticketRepository) ListByGroup(ctx context.Context, group string) ([]domain.Ticket, error) {
	query := `SELECT ` + ticketColumns + ` FROM tickets WHERE group_name=$1 ORDER BY created_at ASC`
	rows, err := r.pool.Query(ctx, query, group)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanTickets(rows)
}

// FindByPhone matches any textual variant exactly, or the trailing digits
// of the stored value after stripping non-digits.
func (r *ticketRepository) FindByPhone(ctx context.Context, num phone.Number) ([]domain.Ticket, error) {
	query := `SELECT ` + ticketColumns + ` FROM tickets
        WHERE holder_phone = ANY($1) OR regexp_replace(holder_phone, '\D', '', 'g') LIKE $2
        ORDER BY created_at ASC`
	rows, err := r.pool.Query(ctx, query, num.Variants(), "%"+num.Suffix)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanTickets(rows)
}

func (r *ticketRepository) UpdateVerification(ctx context.Context, ticket *domain.Ticket) error {
	history, err := json.Marshal(nonNilHistory(ticket.History))
	if err != nil {
		return fmt.Errorf("encode history: %w", err)
	}
	const query = `
        UPDATE tickets SET verified=$1, verification_count=$2, verification_history=$3, flagged=$4, updated_at=NOW()
        WHERE id=$5
        RETURNING updated_at`
	err = r.pool.QueryRow(ctx, query,
		ticket.Verified,
		ticket.VerificationCount,
		history,
		ticket.Flagged,
		ticket.ID,
	).Scan(&ticket.UpdatedAt)
	return mapPgError(err)
}

func (r *ticketRepository) UpdateType(ctx context.Context, id string, ticketType domain.TicketType, payload string, flag bool) error {
	const query = `UPDATE tickets SET ticket_type=$1, qr_payload=$2, flagged = flagged OR $3, updated_at=NOW() WHERE id=$4`
	return r.execOne(ctx, query, ticketType, payload, flag, id)
}

func (r *ticketRepository) UpdateSent(ctx context.Context, id string, sent bool, sentAt *time.Time) error {
	const query = `UPDATE tickets SET sent=$1, sent_at=$2, updated_at=NOW() WHERE id=$3`
	return r.execOne(ctx, query, sent, sentAt, id)
}

func (r *ticketRepository) UpdateActive(ctx context.Context, id string, active bool) error {
	const query = `UPDATE tickets SET active=$1, updated_at=NOW() WHERE id=$2`
	return r.execOne(ctx, query, active, id)
}

func (r *ticketRepository) Delete(ctx context.Context, id string) error {
	return r.execOne(ctx, `DELETE FROM tickets WHERE id=$1`, id)
}

func (r *ticketRepository) execOne(ctx context.Context, query string, args ...any) error {
	cmd, err := r.pool.Exec(ctx, query, args...)
	if err != nil {
		return mapPgError(err)
	}
	if cmd.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *ticketRepository) fetchSingle(ctx context.Context, query string, arg any) (*domain.Ticket, error) {
	ticket, err := scanTicket(r.pool.QueryRow(ctx, query, arg))
	if err != nil {
		return nil, mapPgError(err)
	}
	return ticket, nil
}

func scanTicket(row pgx.Row) (*domain.Ticket, error) {
	var (
		ticket  domain.Ticket
		history []byte
	)
	if err := row.Scan(
		&ticket.ID,
		&ticket.Group,
		&ticket.IssuedBy,
		&ticket.HolderName,
		&ticket.HolderPhone,
		&ticket.Type,
		&ticket.QRPayload,
		&ticket.Verified,
		&ticket.VerificationCount,
		&history,
		&ticket.Flagged,
		&ticket.Sent,
		&ticket.SentAt,
		&ticket.Active,
		&ticket.CreatedAt,
		&ticket.UpdatedAt,
	); err != nil {
		return nil, err
	}
	if len(history) > 0 {
		if err := json.Unmarshal(history, &ticket.History); err != nil {
			return nil, fmt.Errorf("decode history: %w", err)
		}
	}
	return &ticket, nil
}

func scanTickets(rows pgx.Rows) ([]domain.Ticket, error) {
	var result []domain.Ticket
	for rows.Next() {
		ticket, err := scanTicket(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, *ticket)
	}
	return result, rows.Err()
}

func nonNilHistory(h []domain.VerificationEntry) []domain.VerificationEntry {
	if h == nil {
		return []domain.VerificationEntry{}
	}
	return h
}
