package chronopay

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
)

// CallbackRecord is the audit row kept for every IPN attempt. The handler
// ignores failures silently towards the gateway, so the audit trail is the
// only place a rejected callback leaves a trace besides logs.
type CallbackRecord struct {
	ID            uuid.UUID
	Outcome       Outcome
	OrderID       int64 // zero when the correlation id did not resolve
	TransactionID string
	Payload       []byte
	ReceivedAt    time.Time
}

// AuditStore records callback attempts.
type AuditStore interface {
	Record(ctx context.Context, rec CallbackRecord) error
}

// PGAudit implements AuditStore against the host database.
type PGAudit struct {
	Pool *pgxpool.Pool
}

// Record appends one audit row.
func (s PGAudit) Record(ctx context.Context, rec CallbackRecord) error {
	if s.Pool == nil {
		return errors.New("chronopay: audit pool not configured")
	}
	if _, err := s.Pool.Exec(ctx, `
		INSERT INTO ipn_callbacks (id, outcome, order_id, transaction_id, payload, received_at)
		VALUES ($1, $2, $3, $4, $5, $6)`,
		rec.ID, string(rec.Outcome), rec.OrderID, rec.TransactionID, rec.Payload, rec.ReceivedAt); err != nil {
		return fmt.Errorf("chronopay: record callback: %w", err)
	}
	return nil
}
