package repository

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// DeliveryRecord is one entry of a ticket's delivery history.
type DeliveryRecord struct {
	TicketID      string          `json:"ticket_id"`
	Event         string          `json:"event"`
	PrimaryMethod string          `json:"primary_method,omitempty"`
	Attempts      json.RawMessage `json:"attempts,omitempty"`
	RecordedAt    time.Time       `json:"recorded_at"`
}

// DeliveryLogRepository keeps a bounded, expiring list of delivery records per ticket.
type DeliveryLogRepository interface {
	Record(ctx context.Context, record DeliveryRecord) error
	List(ctx context.Context, ticketID string) ([]DeliveryRecord, error)
}

type deliveryLogRepository struct {
	client     *redis.Client
	ttl        time.Duration
	maxEntries int64
}

// NewDeliveryLogRepository stores records under deliveries:<ticket id>.
func NewDeliveryLogRepository(client *redis.Client, ttl time.Duration, maxEntries int) DeliveryLogRepository {
	if maxEntries <= 0 {
		maxEntries = 50
	}
	return &deliveryLogRepository{client: client, ttl: ttl, maxEntries: int64(maxEntries)}
}

func deliveryKey(ticketID string) string {
	return "deliveries:" + ticketID
}

func (r *deliveryLogRepository) Record(ctx context.Context, record DeliveryRecord) error {
	payload, err := json.Marshal(record)
	if err != nil {
		return fmt.Errorf("encode delivery record: %w", err)
	}
	key := deliveryKey(record.TicketID)
	pipe := r.client.TxPipeline()
	pipe.LPush(ctx, key, payload)
	pipe.LTrim(ctx, key, 0, r.maxEntries-1)
	if r.ttl > 0 {
		pipe.Expire(ctx, key, r.ttl)
	}
	_, err = pipe.Exec(ctx)
	return err
}

// List returns records newest first.
func (r *deliveryLogRepository) List(ctx context.Context, ticketID string) ([]DeliveryRecord, error) {
	raw, err := r.client.LRange(ctx, deliveryKey(ticketID), 0, r.maxEntries-1).Result()
	if err != nil {
		return nil, err
	}
	records := make([]DeliveryRecord, 0, len(raw))
	for _, item := range raw {
		var rec DeliveryRecord
		if err := json.Unmarshal([]byte(item), &rec); err != nil {
			continue
		}
		records = append(records, rec)
	}
	return records, nil
}
