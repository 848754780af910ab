package payment

import (
	"crypto/hmac"
	"crypto/sha512"
	"encoding/hex"
)

// SignatureHeader carries the provider's webhook signature.
const SignatureHeader = "X-Paystack-Signature"

// VerifyWebhookSignature checks a webhook payload against its signature
// header: an HMAC-SHA512 over the raw body, hex encoded. The comparison is
// constant time. Returns false for an empty secret or signature.
func VerifyWebhookSignature(payload []byte, signature string, secret []byte) bool {
	if len(secret) == 0 || signature == "" {
		return false
	}
	mac := hmac.New(sha512.New, secret)
	mac.Write(payload)
	expected := hex.EncodeToString(mac.Sum(nil))
	return hmac.Equal([]byte(expected), []byte(signature))
}
