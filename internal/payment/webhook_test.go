package payment_test

import (
	"crypto/hmac"
	"crypto/sha512"
	"encoding/hex"
	"testing"

	"github.com/heartwood-edu/heartwood/internal/payment"
)

func sign(payload, secret []byte) string {
	mac := hmac.New(sha512.New, secret)
	mac.Write(payload)
	return hex.EncodeToString(mac.Sum(nil))
}

func TestVerifyWebhookSignature(t *testing.T) {
	secret := []byte("whsec_test")
	payload := []byte(`{"event":"charge.success","data":{"reference":"ref-123"}}`)
	good := sign(payload, secret)

	tests := []struct {
		name      string
		payload   []byte
		signature string
		secret    []byte
		want      bool
	}{
		{"valid", payload, good, secret, true},
		{"tampered payload", []byte(`{"event":"charge.success","data":{"reference":"ref-999"}}`), good, secret, false},
		{"wrong secret", payload, good, []byte("other secret"), false},
		{"garbage signature", payload, "deadbeef", secret, false},
		{"empty signature", payload, "", secret, false},
		{"empty secret", payload, good, nil, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := payment.VerifyWebhookSignature(tt.payload, tt.signature, tt.secret); got != tt.want {
				t.Errorf("VerifyWebhookSignature() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestVerifyWebhookSignature_SingleByteFlip(t *testing.T) {
	secret := []byte("whsec_test")
	payload := []byte(`{"event":"subscription.create"}`)
	good := sign(payload, secret)

	for i := range payload {
		mutated := append([]byte(nil), payload...)
		mutated[i] ^= 0x01
		if payment.VerifyWebhookSignature(mutated, good, secret) {
			t.Fatalf("signature accepted after flipping byte %d", i)
		}
	}
}
