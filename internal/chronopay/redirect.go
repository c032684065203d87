package chronopay

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"

	"github.com/noah-isme/chronopay-gateway/internal/directory"
	"github.com/noah-isme/chronopay-gateway/internal/hostedpay"
	"github.com/noah-isme/chronopay-gateway/internal/obs"
)

// CallbackPath is the fixed IPN endpoint suffix the gateway posts back to.
const CallbackPath = "/Plugins/PaymentChronoPay/IPNHandler"

// RedirectRequest is the assembled, signed form post the customer's browser
// submits to the gateway. It is transient: built per checkout attempt, never
// persisted.
type RedirectRequest struct {
	GatewayURL string           `json:"gatewayUrl"`
	Fields     hostedpay.Fields `json:"fields"`
	FieldOrder []string         `json:"fieldOrder"`
}

// FormatPrice renders an amount with exactly two fraction digits using
// invariant formatting, as the gateway requires.
func FormatPrice(v float64) string {
	return strconv.FormatFloat(v, 'f', 2, 64)
}

// BuildRedirect assembles the outbound form for the given order. State and
// country are included only when their lookups succeed; the signature covers
// the product id and price only.
func (p *Provider) BuildRedirect(ctx context.Context, orderID int64) (RedirectRequest, error) {
	var zero RedirectRequest
	if p == nil || p.Settings == nil || p.Orders == nil || p.Directory == nil {
		return zero, errors.New("chronopay: provider not configured")
	}
	ctx, span := otel.Tracer("chronopay.Provider").Start(ctx, "Provider.BuildRedirect")
	defer span.End()

	start := time.Now()
	result := "error"
	defer func() {
		span.SetAttributes(
			attribute.Int64("order.id", orderID),
			attribute.String("redirect.result", result),
			attribute.Float64("redirect.duration_ms", obs.DurationMillis(time.Since(start))),
		)
		if obs.RedirectBuildTotal != nil {
			obs.RedirectBuildTotal.WithLabelValues(result).Inc()
		}
	}()

	st, err := p.Settings.Load(ctx)
	if err != nil {
		span.RecordError(err)
		return zero, err
	}
	o, err := p.Orders.GetByID(ctx, orderID)
	if err != nil {
		span.RecordError(err)
		return zero, err
	}
	billing, err := p.Directory.AddressByID(ctx, o.BillingAddressID)
	if err != nil {
		span.RecordError(err)
		return zero, fmt.Errorf("chronopay: billing address: %w", err)
	}
	currency, err := p.Directory.CurrencyByID(ctx, o.CurrencyID)
	if err != nil {
		span.RecordError(err)
		return zero, fmt.Errorf("chronopay: currency: %w", err)
	}

	price := FormatPrice(o.Total)
	req := RedirectRequest{GatewayURL: st.GatewayURL}
	add := func(key, value string) {
		req.Fields.Set(key, value)
		req.FieldOrder = append(req.FieldOrder, key)
	}
	add("product_id", st.ProductID)
	add("product_name", st.ProductName)
	add("product_price", price)
	add("product_price_currency", currency.Code)
	add("cb_url", strings.TrimRight(p.BaseURL, "/")+CallbackPath)
	add("cb_type", "P")
	add("cs1", strconv.FormatInt(o.ID, 10))
	add("f_name", billing.FirstName)
	add("s_name", billing.LastName)
	add("street", billing.Street)
	add("city", billing.City)
	add("zip", billing.Zip)
	add("phone", billing.Phone)
	add("email", billing.Email)

	if billing.StateID != 0 {
		state, err := p.Directory.StateByID(ctx, billing.StateID)
		switch {
		case err == nil:
			add("state", state.Abbreviation)
		case !errors.Is(err, directory.ErrNotFound):
			span.RecordError(err)
			return zero, fmt.Errorf("chronopay: state: %w", err)
		}
	}
	if billing.CountryID != 0 {
		country, err := p.Directory.CountryByID(ctx, billing.CountryID)
		switch {
		case err == nil:
			add("country", country.ThreeLetterCode)
		case !errors.Is(err, directory.ErrNotFound):
			span.RecordError(err)
			return zero, fmt.Errorf("chronopay: country: %w", err)
		}
	}

	add("sign", hostedpay.RequestSign(st.ProductID, price, st.SharedSecret))
	result = "success"
	return req, nil
}
