// Package order exposes the host platform's order state to the payment plugin.
package order

import (
	"context"
	"errors"
	"time"
)

// ErrNotFound is returned when no order matches the given id.
var ErrNotFound = errors.New("order: not found")

// PaymentStatus is the host's payment state for an order.
type PaymentStatus string

const (
	PaymentPending  PaymentStatus = "PENDING"
	PaymentPaid     PaymentStatus = "PAID"
	PaymentRefunded PaymentStatus = "REFUNDED"
	PaymentVoided   PaymentStatus = "VOIDED"
)

// Order is the slice of the host order the payment flow needs.
type Order struct {
	ID               int64
	Total            float64
	CurrencyID       int64
	BillingAddressID int64
	PaymentStatus    PaymentStatus
	CreatedAt        time.Time
}

// Store is the order collaborator the provider depends on.
type Store interface {
	GetByID(ctx context.Context, id int64) (Order, error)
	// CanMarkAsPaid reports whether the paid transition is allowed from the
	// order's current state.
	CanMarkAsPaid(o Order) bool
	// MarkAsPaid transitions a pending order to paid. Calling it on an order
	// that already left the pending state is a no-op.
	MarkAsPaid(ctx context.Context, id int64) error
}
