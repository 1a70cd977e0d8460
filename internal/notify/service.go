// Package notify sends outbound payment-link messages at checkout.
//
// The engine treats delivery as best-effort: a failed send is logged and the
// order still completes. OSS ships with the webhook driver (POST to an SMS
// gateway); a log-only driver backs local dev and tests.
package notify

import (
	"bytes"
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/rs/zerolog/log"
)

// Sender requests an outbound payment-link message.
type Sender interface {
	SendPaymentLink(ctx context.Context, phone string, amount float64, orderID string) error
}

// ── Webhook sender ──────────────────────────────────────────

// paymentLinkPayload is the JSON body posted to the gateway.
type paymentLinkPayload struct {
	Phone     string    `json:"phone"`
	Amount    float64   `json:"amount"`
	OrderID   string    `json:"order_id"`
	LinkURL   string    `json:"link_url,omitempty"`
	Timestamp time.Time `json:"timestamp"`
}

// WebhookSender posts payment-link requests to a configured gateway URL,
// signing the body with HMAC-SHA256 when a secret is set.
type WebhookSender struct {
	URL     string
	Secret  string
	LinkURL string
	client  *http.Client
}

// NewWebhookSender creates a webhook-backed sender.
func NewWebhookSender(url, secret, linkURL string) *WebhookSender {
	return &WebhookSender{
		URL:     url,
		Secret:  secret,
		LinkURL: linkURL,
		client:  &http.Client{Timeout: 15 * time.Second},
	}
}

func (w *WebhookSender) SendPaymentLink(ctx context.Context, phone string, amount float64, orderID string) error {
	body, err := json.Marshal(paymentLinkPayload{
		Phone:     phone,
		Amount:    amount,
		OrderID:   orderID,
		LinkURL:   w.LinkURL,
		Timestamp: time.Now().UTC(),
	})
	if err != nil {
		return fmt.Errorf("encode payment link payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, w.URL, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("create payment link request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if w.Secret != "" {
		mac := hmac.New(sha256.New, []byte(w.Secret))
		mac.Write(body)
		req.Header.Set("X-Orderline-Signature", hex.EncodeToString(mac.Sum(nil)))
	}

	resp, err := w.client.Do(req)
	if err != nil {
		return fmt.Errorf("send payment link: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 300 {
		return fmt.Errorf("payment link gateway returned status %d", resp.StatusCode)
	}

	log.Info().Str("order_id", orderID).Float64("amount", amount).Msg("Payment link sent")
	return nil
}

// ── Log sender ──────────────────────────────────────────────

// LogSender logs instead of sending. Default when no gateway is configured.
type LogSender struct{}

func (LogSender) SendPaymentLink(ctx context.Context, phone string, amount float64, orderID string) error {
	log.Info().
		Str("order_id", orderID).
		Str("phone", phone).
		Float64("amount", amount).
		Msg("Payment link send skipped (no gateway configured)")
	return nil
}
