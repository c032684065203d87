package chronopay

import (
	"context"
	"errors"
	"fmt"
	"strconv"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"

	"github.com/noah-isme/chronopay-gateway/internal/events"
	"github.com/noah-isme/chronopay-gateway/internal/hostedpay"
	"github.com/noah-isme/chronopay-gateway/internal/order"
)

// Outcome classifies how an IPN callback was handled. None of the outcomes is
// surfaced to the gateway: the HTTP response is always a redirect to the store
// home, so failure reasons cannot be probed from outside.
type Outcome string

const (
	// OutcomeIgnored covers invalid signatures, unparseable correlation ids
	// and transitions the order state forbids. No mutation happens.
	OutcomeIgnored Outcome = "ignored"
	// OutcomeOrderNotFound means the correlation id parsed but matched no
	// order. No mutation happens.
	OutcomeOrderNotFound Outcome = "order_not_found"
	// OutcomeMarked means verification passed and the order transitioned to
	// paid.
	OutcomeMarked Outcome = "marked"
)

// HandleCallback verifies the IPN fields and marks the referenced order paid
// when all preconditions hold. A repeated valid payload is a no-op on the
// second pass: the already-paid order fails the transition predicate and the
// callback degrades to OutcomeIgnored without error.
func (p *Provider) HandleCallback(ctx context.Context, fields hostedpay.Fields) (Outcome, error) {
	if p == nil || p.Settings == nil || p.Orders == nil {
		return OutcomeIgnored, errors.New("chronopay: provider not configured")
	}
	ctx, span := otel.Tracer("chronopay.Provider").Start(ctx, "Provider.HandleCallback")
	defer span.End()

	outcome := OutcomeIgnored
	defer func() {
		span.SetAttributes(attribute.String("ipn.outcome", string(outcome)))
	}()

	st, err := p.Settings.Load(ctx)
	if err != nil {
		span.RecordError(err)
		return OutcomeIgnored, fmt.Errorf("chronopay: load settings: %w", err)
	}
	if !hostedpay.VerifyResponseSign(fields, st.SharedSecret) {
		return OutcomeIgnored, nil
	}
	orderID, err := strconv.Atoi(fields.Get("cs1"))
	if err != nil {
		return OutcomeIgnored, nil
	}
	span.SetAttributes(attribute.Int("order.id", orderID))

	o, err := p.Orders.GetByID(ctx, int64(orderID))
	if err != nil {
		if errors.Is(err, order.ErrNotFound) {
			outcome = OutcomeOrderNotFound
			return outcome, nil
		}
		span.RecordError(err)
		return OutcomeIgnored, fmt.Errorf("chronopay: get order %d: %w", orderID, err)
	}
	if !p.Orders.CanMarkAsPaid(o) {
		return OutcomeIgnored, nil
	}
	if err := p.Orders.MarkAsPaid(ctx, o.ID); err != nil {
		span.RecordError(err)
		return OutcomeIgnored, fmt.Errorf("chronopay: mark paid %d: %w", o.ID, err)
	}
	if p.Events != nil {
		_, _ = p.Events.Emit(ctx, events.TopicOrderPaid, o.ID, map[string]any{
			"orderId":       o.ID,
			"transactionId": fields.Get("transaction_id"),
			"total":         fields.Get("total"),
		})
	}
	outcome = OutcomeMarked
	return outcome, nil
}
