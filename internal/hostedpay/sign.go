// Package hostedpay implements the ChronoPay hosted-payment signing protocol:
// an MD5 hex digest over concatenated field values shared between the outbound
// redirect form and the inbound IPN callback.
//
// MD5 is the digest the gateway dictates. It is kept for wire compatibility
// only; an integration with a new gateway should use HMAC-SHA256 instead.
package hostedpay

import (
	"crypto/hmac"
	"crypto/md5"
	"encoding/hex"
)

// RequestSign computes the outbound request signature. The gateway covers only
// the product id and the formatted price; the remaining form fields are not
// part of the digest.
func RequestSign(productID, price, secret string) string {
	return md5Hex(productID + "-" + price + "-" + secret)
}

// VerifyResponseSign recomputes the IPN signature from the callback fields and
// compares it against the provided sign. Missing fields degrade to empty
// strings, and an absent or empty sign always fails. The function never errors
// on malformed input.
func VerifyResponseSign(fields Fields, secret string) bool {
	provided := fields.Get("sign")
	if provided == "" {
		return false
	}
	expected := md5Hex(secret +
		fields.Get("customer_id") +
		fields.Get("transaction_id") +
		fields.Get("transaction_type") +
		fields.Get("total"))
	return hmac.Equal([]byte(expected), []byte(provided))
}

func md5Hex(s string) string {
	sum := md5.Sum([]byte(s))
	return hex.EncodeToString(sum[:])
}
