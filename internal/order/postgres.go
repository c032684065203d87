package order

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// PG implements Store against the host database.
type PG struct {
	Pool *pgxpool.Pool
}

// GetByID loads one order.
func (s PG) GetByID(ctx context.Context, id int64) (Order, error) {
	var o Order
	err := s.Pool.QueryRow(ctx, `
		SELECT id, total, currency_id, billing_address_id, payment_status, created_at
		FROM orders WHERE id = $1`, id).
		Scan(&o.ID, &o.Total, &o.CurrencyID, &o.BillingAddressID, &o.PaymentStatus, &o.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Order{}, ErrNotFound
		}
		return Order{}, fmt.Errorf("order: get %d: %w", id, err)
	}
	return o, nil
}

// CanMarkAsPaid allows the transition only from the pending state.
func (s PG) CanMarkAsPaid(o Order) bool {
	return o.PaymentStatus == PaymentPending
}

// MarkAsPaid performs the status-guarded transition. The WHERE clause keeps
// the update idempotent under concurrent callbacks: the second writer matches
// zero rows and changes nothing.
func (s PG) MarkAsPaid(ctx context.Context, id int64) error {
	_, err := s.Pool.Exec(ctx, `
		UPDATE orders SET payment_status = $1, paid_at = now()
		WHERE id = $2 AND payment_status = $3`,
		PaymentPaid, id, PaymentPending)
	if err != nil {
		return fmt.Errorf("order: mark paid %d: %w", id, err)
	}
	return nil
}
