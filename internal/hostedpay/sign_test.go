package hostedpay_test

import (
	"net/url"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/noah-isme/chronopay-gateway/internal/hostedpay"
)

func TestRequestSignKnownVector(t *testing.T) {
	t.Parallel()

	// md5("P1-10.00-secret")
	const want = "83369167bf10ef37e0f8d8fc4467a242"
	require.Equal(t, want, hostedpay.RequestSign("P1", "10.00", "secret"))
	require.Equal(t, want, hostedpay.RequestSign("P1", "10.00", "secret"), "signing must be deterministic")
}

func TestVerifyResponseSignMissingOrEmptySign(t *testing.T) {
	t.Parallel()

	require.False(t, hostedpay.VerifyResponseSign(nil, "secret"))
	require.False(t, hostedpay.VerifyResponseSign(hostedpay.Fields{}, "secret"))
	require.False(t, hostedpay.VerifyResponseSign(hostedpay.Fields{"sign": ""}, "secret"))
	require.False(t, hostedpay.VerifyResponseSign(hostedpay.Fields{
		"customer_id":    "CUST-77",
		"transaction_id": "TX-900",
	}, "secret"))
}

func TestVerifyResponseSignValidPayload(t *testing.T) {
	t.Parallel()

	// md5("secret" + "CUST-77" + "TX-900" + "purchase" + "19.90")
	fields := hostedpay.Fields{
		"sign":             "345bd8381829525dbcb99f4d94401f00",
		"customer_id":      "CUST-77",
		"transaction_id":   "TX-900",
		"transaction_type": "purchase",
		"total":            "19.90",
	}
	require.True(t, hostedpay.VerifyResponseSign(fields, "secret"))
}

func TestVerifyResponseSignIgnoresUnrelatedFields(t *testing.T) {
	t.Parallel()

	fields := hostedpay.Fields{
		"sign":             "345bd8381829525dbcb99f4d94401f00",
		"customer_id":      "CUST-77",
		"transaction_id":   "TX-900",
		"transaction_type": "purchase",
		"total":            "19.90",
		"cs1":              "42",
		"language":         "en",
		"site_id":          "extra",
	}
	require.True(t, hostedpay.VerifyResponseSign(fields, "secret"),
		"digest covers only the four business fields")
}

func TestVerifyResponseSignMissingFieldBehavesAsEmpty(t *testing.T) {
	t.Parallel()

	// md5("secret" + "CUST-77" + "" + "purchase" + "19.90")
	const sign = "102ff774d276155e1eb1032bfe0837dd"
	withEmpty := hostedpay.Fields{
		"sign":             sign,
		"customer_id":      "CUST-77",
		"transaction_id":   "",
		"transaction_type": "purchase",
		"total":            "19.90",
	}
	withMissing := hostedpay.Fields{
		"sign":             sign,
		"customer_id":      "CUST-77",
		"transaction_type": "purchase",
		"total":            "19.90",
	}
	require.True(t, hostedpay.VerifyResponseSign(withEmpty, "secret"))
	require.True(t, hostedpay.VerifyResponseSign(withMissing, "secret"))
}

func TestRequestAndResponseDigestsAreDisjoint(t *testing.T) {
	t.Parallel()

	// An outbound sign over product/price must never satisfy the inbound
	// verification even with the same secret — the two digests cover
	// different field sets.
	outbound := hostedpay.RequestSign("P1", "19.90", "secret")
	fields := hostedpay.Fields{
		"sign":             outbound,
		"customer_id":      "P1",
		"transaction_id":   "",
		"transaction_type": "",
		"total":            "19.90",
	}
	require.False(t, hostedpay.VerifyResponseSign(fields, "secret"))
}

func TestFieldsFromForm(t *testing.T) {
	t.Parallel()

	values := url.Values{}
	values.Set("sign", "abc")
	values.Add("total", "10.00")
	values.Add("total", "999.00")

	fields := hostedpay.FromForm(values)
	require.Equal(t, "abc", fields.Get("sign"))
	require.Equal(t, "10.00", fields.Get("total"), "first value wins")
	require.Equal(t, "", fields.Get("missing"))
}
