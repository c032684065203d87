package chronopay_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/noah-isme/chronopay-gateway/internal/chronopay"
	"github.com/noah-isme/chronopay-gateway/internal/directory"
	"github.com/noah-isme/chronopay-gateway/internal/order"
	"github.com/noah-isme/chronopay-gateway/internal/settings"
)

func newRedirectProvider() (*chronopay.Provider, *fakeOrders) {
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
	dir := fakeDirectory{
		addresses: map[int64]directory.Address{
			7: {
				ID:        7,
				FirstName: "Max",
				LastName:  "Mustermann",
				Street:    "Hauptstrasse 1",
				City:      "Munich",
				Zip:       "80331",
				Phone:     "+49 89 123456",
				Email:     "max@example.com",
				StateID:   3,
				CountryID: 5,
			},
		},
		currencies: map[int64]directory.Currency{1: {ID: 1, Code: "USD"}},
		countries:  map[int64]directory.Country{5: {ID: 5, ThreeLetterCode: "DEU"}},
		states:     map[int64]directory.State{3: {ID: 3, Abbreviation: "BY"}},
	}
	p := &chronopay.Provider{
		Settings: &fakeSettings{current: settings.Settings{
			GatewayURL:   settings.DefaultGatewayURL,
			ProductID:    "P1",
			ProductName:  "Store purchase",
			SharedSecret: "secret",
		}},
		Orders:    orders,
		Directory: dir,
		BaseURL:   "https://store.example.com",
	}
	return p, orders
}

func TestBuildRedirectAssemblesSignedForm(t *testing.T) {
	p, _ := newRedirectProvider()

	req, err := p.BuildRedirect(context.Background(), 42)
	require.NoError(t, err)
	require.Equal(t, settings.DefaultGatewayURL, req.GatewayURL)

	require.Equal(t, "P1", req.Fields.Get("product_id"))
	require.Equal(t, "Store purchase", req.Fields.Get("product_name"))
	require.Equal(t, "19.90", req.Fields.Get("product_price"), "price must carry exactly two decimals")
	require.Equal(t, "USD", req.Fields.Get("product_price_currency"))
	require.Equal(t, "https://store.example.com/Plugins/PaymentChronoPay/IPNHandler", req.Fields.Get("cb_url"))
	require.Equal(t, "P", req.Fields.Get("cb_type"))
	require.Equal(t, "42", req.Fields.Get("cs1"))
	require.Equal(t, "Max", req.Fields.Get("f_name"))
	require.Equal(t, "Mustermann", req.Fields.Get("s_name"))
	require.Equal(t, "Hauptstrasse 1", req.Fields.Get("street"))
	require.Equal(t, "Munich", req.Fields.Get("city"))
	require.Equal(t, "80331", req.Fields.Get("zip"))
	require.Equal(t, "+49 89 123456", req.Fields.Get("phone"))
	require.Equal(t, "max@example.com", req.Fields.Get("email"))
	require.Equal(t, "BY", req.Fields.Get("state"))
	require.Equal(t, "DEU", req.Fields.Get("country"))

	// md5("P1-19.90-secret")
	require.Equal(t, "e2079c0e4aaae879f3944f93147fa4de", req.Fields.Get("sign"))
	require.Equal(t, "sign", req.FieldOrder[len(req.FieldOrder)-1], "signature is appended last")
	require.Len(t, req.Fields, len(req.FieldOrder))
}

func TestBuildRedirectOmitsUnresolvedStateAndCountry(t *testing.T) {
	p, _ := newRedirectProvider()
	dir := p.Directory.(fakeDirectory)
	dir.states = map[int64]directory.State{}
	dir.countries = map[int64]directory.Country{}
	p.Directory = dir

	req, err := p.BuildRedirect(context.Background(), 42)
	require.NoError(t, err)
	require.NotContains(t, req.FieldOrder, "state")
	require.NotContains(t, req.FieldOrder, "country")
}

func TestBuildRedirectUnknownOrder(t *testing.T) {
	p, _ := newRedirectProvider()
	_, err := p.BuildRedirect(context.Background(), 999)
	require.ErrorIs(t, err, order.ErrNotFound)
}

func TestBuildRedirectNotInstalled(t *testing.T) {
	p, _ := newRedirectProvider()
	p.Settings = &fakeSettings{loadErr: settings.ErrNotConfigured}
	_, err := p.BuildRedirect(context.Background(), 42)
	require.ErrorIs(t, err, settings.ErrNotConfigured)
}

func TestFormatPrice(t *testing.T) {
	require.Equal(t, "19.90", chronopay.FormatPrice(19.9))
	require.Equal(t, "10.00", chronopay.FormatPrice(10))
	require.Equal(t, "0.05", chronopay.FormatPrice(0.05))
	require.Equal(t, "1234.57", chronopay.FormatPrice(1234.567))
}
