// Package chronopay integrates the ChronoPay hosted-payment gateway: it builds
// the signed redirect form, processes the signed IPN callback and exposes the
// plugin capability surface to the host platform.
package chronopay

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/noah-isme/chronopay-gateway/internal/directory"
	"github.com/noah-isme/chronopay-gateway/internal/events"
	"github.com/noah-isme/chronopay-gateway/internal/order"
	"github.com/noah-isme/chronopay-gateway/internal/settings"
)

// repostGrace is the minimum age an order must reach before the customer may
// retry the redirect, so a callback still in flight is not raced.
const repostGrace = time.Minute

// Provider wires the host collaborators the payment flow depends on.
type Provider struct {
	Settings  settings.Store
	Orders    order.Store
	Directory directory.Lookup
	Events    *events.Bus
	// BaseURL is the public store location used to build the callback URL.
	BaseURL string
}

// SystemName implements the plugin contract.
func (p *Provider) SystemName() string { return settings.SystemName }

// Install seeds default settings unless the plugin is already configured.
func (p *Provider) Install(ctx context.Context) error {
	if p == nil || p.Settings == nil {
		return errors.New("chronopay: settings store not configured")
	}
	_, err := p.Settings.Load(ctx)
	if err == nil {
		return nil
	}
	if !errors.Is(err, settings.ErrNotConfigured) {
		return fmt.Errorf("chronopay: install: %w", err)
	}
	return p.Settings.Save(ctx, settings.Defaults())
}

// Uninstall removes the plugin settings.
func (p *Provider) Uninstall(ctx context.Context) error {
	if p == nil || p.Settings == nil {
		return errors.New("chronopay: settings store not configured")
	}
	return p.Settings.Delete(ctx)
}

// Capability flags. ChronoPay is a pure redirection method: nothing beyond the
// initial hosted payment is supported, and callers must check these before
// invoking the corresponding operation.

// MethodType reports how the customer reaches the gateway.
func (p *Provider) MethodType() string { return "Redirection" }

func (p *Provider) SupportsCapture() bool       { return false }
func (p *Provider) SupportsRefund() bool        { return false }
func (p *Provider) SupportsPartialRefund() bool { return false }
func (p *Provider) SupportsVoid() bool          { return false }
func (p *Provider) SupportsRecurring() bool     { return false }

// OperationResult reports the outcome of a gateway operation.
type OperationResult struct {
	Errors []string
}

// Failed reports whether the operation collected any errors.
func (r OperationResult) Failed() bool { return len(r.Errors) > 0 }

func notSupported(op string) OperationResult {
	return OperationResult{Errors: []string{op + " method not supported"}}
}

// Capture is not supported by the hosted flow.
func (p *Provider) Capture(context.Context, int64) OperationResult {
	return notSupported("capture")
}

// Refund is not supported by the hosted flow.
func (p *Provider) Refund(context.Context, int64) OperationResult {
	return notSupported("refund")
}

// Void is not supported by the hosted flow.
func (p *Provider) Void(context.Context, int64) OperationResult {
	return notSupported("void")
}

// ProcessRecurring is not supported by the hosted flow.
func (p *Provider) ProcessRecurring(context.Context, int64) OperationResult {
	return notSupported("recurring payment")
}

// CancelRecurring is not supported by the hosted flow.
func (p *Provider) CancelRecurring(context.Context, int64) OperationResult {
	return notSupported("recurring payment")
}

// AdditionalFee returns the flat handling fee configured by the admin.
func (p *Provider) AdditionalFee(ctx context.Context) (float64, error) {
	st, err := p.Settings.Load(ctx)
	if err != nil {
		return 0, err
	}
	return st.AdditionalFee, nil
}

// CanRepost reports whether the customer may be offered a retry redirect for
// the order: only pending orders older than the grace window qualify.
func (p *Provider) CanRepost(o order.Order, now time.Time) bool {
	if o.PaymentStatus != order.PaymentPending {
		return false
	}
	return now.Sub(o.CreatedAt) >= repostGrace
}
