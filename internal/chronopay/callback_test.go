package chronopay_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/noah-isme/chronopay-gateway/internal/chronopay"
	"github.com/noah-isme/chronopay-gateway/internal/events"
	"github.com/noah-isme/chronopay-gateway/internal/hostedpay"
	"github.com/noah-isme/chronopay-gateway/internal/order"
	"github.com/noah-isme/chronopay-gateway/internal/settings"
)

// validCallbackFields carries a payload signed with shared secret "secret":
// md5("secret" + "CUST-77" + "TX-900" + "purchase" + "19.90").
func validCallbackFields() hostedpay.Fields {
	return hostedpay.Fields{
		"customer_id":      "CUST-77",
		"transaction_id":   "TX-900",
		"transaction_type": "purchase",
		"total":            "19.90",
		"cs1":              "42",
		"sign":             "345bd8381829525dbcb99f4d94401f00",
	}
}

func newCallbackProvider() (*chronopay.Provider, *fakeOrders, *fakeEventStore) {
	orders := &fakeOrders{orders: map[int64]order.Order{
		42: {
			ID:               42,
			Total:            19.9,
			CurrencyID:       1,
			BillingAddressID: 7,
			PaymentStatus:    order.PaymentPending,
			CreatedAt:        time.Now().Add(-time.Hour),
		},
	}}
	store := &fakeEventStore{}
	p := &chronopay.Provider{
		Settings: &fakeSettings{current: settings.Settings{
			GatewayURL:   settings.DefaultGatewayURL,
			ProductID:    "P1",
			SharedSecret: "secret",
		}},
		Orders: orders,
		Events: &events.Bus{Store: store},
	}
	return p, orders, store
}

func TestHandleCallbackMarksOrderPaid(t *testing.T) {
	p, orders, store := newCallbackProvider()

	outcome, err := p.HandleCallback(context.Background(), validCallbackFields())
	require.NoError(t, err)
	require.Equal(t, chronopay.OutcomeMarked, outcome)
	require.Equal(t, []int64{42}, orders.marked)
	require.Equal(t, order.PaymentPaid, orders.orders[42].PaymentStatus)

	require.Len(t, store.events, 1)
	require.Equal(t, events.TopicOrderPaid, store.events[0].Topic)
	require.Equal(t, int64(42), store.events[0].OrderID)
}

func TestHandleCallbackIdempotent(t *testing.T) {
	p, orders, _ := newCallbackProvider()
	ctx := context.Background()

	outcome, err := p.HandleCallback(ctx, validCallbackFields())
	require.NoError(t, err)
	require.Equal(t, chronopay.OutcomeMarked, outcome)

	// the identical payload arriving again must not mark twice
	outcome, err = p.HandleCallback(ctx, validCallbackFields())
	require.NoError(t, err)
	require.Equal(t, chronopay.OutcomeIgnored, outcome)
	require.Equal(t, []int64{42}, orders.marked)
}

func TestHandleCallbackRejectsBadSignature(t *testing.T) {
	p, orders, _ := newCallbackProvider()

	fields := validCallbackFields()
	fields.Set("sign", "00000000000000000000000000000000")
	outcome, err := p.HandleCallback(context.Background(), fields)
	require.NoError(t, err)
	require.Equal(t, chronopay.OutcomeIgnored, outcome)
	require.Empty(t, orders.marked)
}

func TestHandleCallbackRejectsMissingSignature(t *testing.T) {
	p, orders, _ := newCallbackProvider()

	fields := validCallbackFields()
	delete(fields, "sign")
	outcome, err := p.HandleCallback(context.Background(), fields)
	require.NoError(t, err)
	require.Equal(t, chronopay.OutcomeIgnored, outcome)
	require.Empty(t, orders.marked)
}

func TestHandleCallbackUnknownOrder(t *testing.T) {
	p, _, _ := newCallbackProvider()

	// signed over the same transaction fields, cs1 is not part of the digest
	fields := validCallbackFields()
	fields.Set("cs1", "999")
	outcome, err := p.HandleCallback(context.Background(), fields)
	require.NoError(t, err)
	require.Equal(t, chronopay.OutcomeOrderNotFound, outcome)
}

func TestHandleCallbackUnparseableOrderID(t *testing.T) {
	p, orders, _ := newCallbackProvider()

	fields := validCallbackFields()
	fields.Set("cs1", "not-a-number")
	outcome, err := p.HandleCallback(context.Background(), fields)
	require.NoError(t, err)
	require.Equal(t, chronopay.OutcomeIgnored, outcome)
	require.Empty(t, orders.marked)
}

func TestHandleCallbackNotInstalled(t *testing.T) {
	p, _, _ := newCallbackProvider()
	p.Settings = &fakeSettings{loadErr: settings.ErrNotConfigured}

	outcome, err := p.HandleCallback(context.Background(), validCallbackFields())
	require.ErrorIs(t, err, settings.ErrNotConfigured)
	require.Equal(t, chronopay.OutcomeIgnored, outcome)
}
