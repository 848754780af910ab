// Package payment wraps the subscription payment provider's REST API. The
// secret key is injected from configuration — it is never compiled in — and
// provider errors are propagated with their payload intact for diagnostics.
package payment

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

const defaultBaseURL = "https://api.paystack.co"

// APIError is a non-2xx (or declined) provider response. The raw body is
// preserved so upstream failures are never silently swallowed.
type APIError struct {
	StatusCode int
	Message    string
	Body       []byte
}

func (e *APIError) Error() string {
	return fmt.Sprintf("payment provider: status %d: %s", e.StatusCode, e.Message)
}

// Client calls the payment provider.
type Client struct {
	secretKey string
	baseURL   string
	client    *http.Client
}

// Option configures a Client.
type Option func(*Client)

// WithBaseURL overrides the provider endpoint, mainly for tests.
func WithBaseURL(url string) Option {
	return func(c *Client) {
		c.baseURL = url
	}
}

// WithHTTPClient sets a custom HTTP client.
func WithHTTPClient(client *http.Client) Option {
	return func(c *Client) {
		c.client = client
	}
}

// NewClient creates a provider client. The secret key comes from
// configuration (environment / secret store), never from source.
func NewClient(secretKey string, opts ...Option) *Client {
	c := &Client{
		secretKey: secretKey,
		baseURL:   defaultBaseURL,
		client:    &http.Client{Timeout: 30 * time.Second},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// InitializeRequest starts a checkout for a parent's subscription payment.
// Amount is in the provider's minor unit (kobo).
type InitializeRequest struct {
	Email     string `json:"email"`
	Amount    int64  `json:"amount"`
	Reference string `json:"reference,omitempty"`
	Plan      string `json:"plan,omitempty"`
}

// Transaction is the handle returned by Initialize.
type Transaction struct {
	Reference        string `json:"reference"`
	AuthorizationURL string `json:"authorization_url"`
	AccessCode       string `json:"access_code"`
}

// Authorization is the reusable card authorization from a verified charge.
type Authorization struct {
	AuthorizationCode string `json:"authorization_code"`
	CardType          string `json:"card_type"`
	Last4             string `json:"last4"`
	Reusable          bool   `json:"reusable"`
}

// Verification is the provider's view of a transaction.
type Verification struct {
	Status        string        `json:"status"`
	Amount        int64         `json:"amount"`
	PaidAt        time.Time     `json:"paid_at"`
	Authorization Authorization `json:"authorization"`
}

// Initialize starts a transaction and returns the checkout handle.
func (c *Client) Initialize(ctx context.Context, req InitializeRequest) (Transaction, error) {
	var tx Transaction
	if err := c.post(ctx, "/transaction/initialize", req, &tx); err != nil {
		return Transaction{}, err
	}
	return tx, nil
}

// Verify fetches the outcome of a transaction by reference.
func (c *Client) Verify(ctx context.Context, reference string) (Verification, error) {
	var v Verification
	if err := c.get(ctx, "/transaction/verify/"+reference, &v); err != nil {
		return Verification{}, err
	}
	return v, nil
}

// CreateSubscription subscribes a customer to a plan using a stored card
// authorization and returns the subscription code.
func (c *Client) CreateSubscription(ctx context.Context, customer, plan, authorizationCode string) (string, error) {
	body := map[string]string{
		"customer":      customer,
		"plan":          plan,
		"authorization": authorizationCode,
	}
	var sub struct {
		SubscriptionCode string `json:"subscription_code"`
	}
	if err := c.post(ctx, "/subscription", body, &sub); err != nil {
		return "", err
	}
	return sub.SubscriptionCode, nil
}

// DisableSubscription cancels a subscription.
func (c *Client) DisableSubscription(ctx context.Context, code, token string) error {
	body := map[string]string{
		"code":  code,
		"token": token,
	}
	return c.post(ctx, "/subscription/disable", body, nil)
}

// envelope is the provider's standard response wrapper.
type envelope struct {
	Status  bool            `json:"status"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
}

func (c *Client) post(ctx context.Context, path string, body, out any) error {
	payload, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("encoding request: %w", err)
	}
	return c.do(ctx, http.MethodPost, path, bytes.NewReader(payload), out)
}

func (c *Client) get(ctx context.Context, path string, out any) error {
	return c.do(ctx, http.MethodGet, path, nil, out)
}

func (c *Client) do(ctx context.Context, method, path string, body io.Reader, out any) error {
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.secretKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return fmt.Errorf("calling payment provider: %w", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("reading provider response: %w", err)
	}

	var env envelope
	if err := json.Unmarshal(raw, &env); err != nil {
		env.Message = http.StatusText(resp.StatusCode)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 || !env.Status {
		return &APIError{
			StatusCode: resp.StatusCode,
			Message:    env.Message,
			Body:       raw,
		}
	}

	if out != nil {
		if err := json.Unmarshal(env.Data, out); err != nil {
			return fmt.Errorf("decoding provider response: %w", err)
		}
	}
	return nil
}
