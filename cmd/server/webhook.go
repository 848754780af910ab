package main

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/heartwood-edu/heartwood/internal/payment"
)

func contextWithTimeout() (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.Background(), 30*time.Second)
}

const maxWebhookBody = 1 << 20 // 1 MiB

// webhookEvent is the provider's envelope for webhook deliveries.
type webhookEvent struct {
	Event string `json:"event"`
	Data  struct {
		Reference string `json:"reference"`
		Amount    int64  `json:"amount"`
	} `json:"data"`
}

// handlePaymentWebhook verifies the signature over the raw body before
// trusting anything in it. Unverifiable deliveries are rejected without
// processing.
func (a *app) handlePaymentWebhook(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(io.LimitReader(r.Body, maxWebhookBody))
	if err != nil {
		http.Error(w, "unreadable body", http.StatusBadRequest)
		return
	}

	signature := r.Header.Get(payment.SignatureHeader)
	if !payment.VerifyWebhookSignature(body, signature, []byte(a.cfg.Payment.WebhookSecret)) {
		slog.Warn("rejected webhook with bad signature", "remote", r.RemoteAddr)
		http.Error(w, "invalid signature", http.StatusUnauthorized)
		return
	}

	var ev webhookEvent
	if err := json.Unmarshal(body, &ev); err != nil {
		http.Error(w, "malformed event", http.StatusBadRequest)
		return
	}

	slog.Info("payment webhook received",
		"event", ev.Event,
		"reference", ev.Data.Reference,
		"amount", ev.Data.Amount,
	)

	// Charge outcomes are re-verified against the provider before any
	// subscription state changes; the webhook alone is advisory.
	if ev.Event == "charge.success" && a.payment != nil {
		go func() {
			ctx, cancel := contextWithTimeout()
			defer cancel()
			if _, err := a.payment.Verify(ctx, ev.Data.Reference); err != nil {
				slog.Error("charge verification failed", "reference", ev.Data.Reference, "error", err)
			}
		}()
	}

	w.WriteHeader(http.StatusOK)
}
