package events

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
)

// PG persists domain events to the host database.
type PG struct {
	Pool *pgxpool.Pool
}

// InsertEvent appends one event row.
func (s PG) InsertEvent(ctx context.Context, ev Event) error {
	if s.Pool == nil {
		return errors.New("events: pool not configured")
	}
	if _, err := s.Pool.Exec(ctx, `
		INSERT INTO domain_events (id, topic, order_id, payload, occurred_at)
		VALUES ($1, $2, $3, $4, $5)`,
		ev.ID, ev.Topic, ev.OrderID, ev.Payload, ev.OccurredAt); err != nil {
		return fmt.Errorf("events: insert: %w", err)
	}
	return nil
}
