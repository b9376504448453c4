// internal/domain/payment/client.go
package payment

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/sirupsen/logrus"
	"github.com/your-org/storefront-core/internal/config"
	"github.com/your-org/storefront-core/internal/domain/cart"
)

// Client talks to the storefront payment/account API
type Client struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
	logger     *logrus.Logger
}

// NewClient creates a gateway client from configuration
func NewClient(cfg *config.Config, logger *logrus.Logger) *Client {
	return &Client{
		baseURL: cfg.External.Gateway.BaseURL,
		apiKey:  cfg.External.Gateway.APIKey,
		httpClient: &http.Client{
			Timeout: cfg.External.Gateway.Timeout,
		},
		logger: logger,
	}
}

// CheckEmailAvailable asks the server whether an email has no account yet.
// Callers treat an error as "available" (fail-open); this lookup must never
// block checkout.
func (c *Client) CheckEmailAvailable(ctx context.Context, email string) (bool, error) {
	var result struct {
		Available bool `json:"available"`
	}
	if err := c.post(ctx, "/check-email", map[string]string{"email": email}, &result); err != nil {
		return false, err
	}
	return result.Available, nil
}

// CreatePaymentIntent creates a provider payment intent for the cart
func (c *Client) CreatePaymentIntent(ctx context.Context, items []cart.Line, promoCode string) (*PaymentIntent, error) {
	req := struct {
		Items     []cart.Line `json:"items"`
		PromoCode string      `json:"promo_code,omitempty"`
	}{Items: items, PromoCode: promoCode}

	var intent PaymentIntent
	if err := c.post(ctx, "/create-payment-intent", req, &intent); err != nil {
		return nil, &TokenizationError{Reason: err.Error()}
	}
	if intent.ID == "" {
		return nil, &TokenizationError{Reason: "gateway returned no intent id"}
	}
	return &intent, nil
}

// ProcessPayment submits the charge. The server recomputes the total from the
// items and promo code; the response's VerifiedTotal is authoritative.
func (c *Client) ProcessPayment(ctx context.Context, req *ChargeRequest) (*ChargeResult, error) {
	var result ChargeResult
	if err := c.post(ctx, "/process-payment", req, &result); err != nil {
		return nil, &ChargeError{Reason: err.Error()}
	}
	if !result.Success {
		reason := result.Error
		if reason == "" {
			reason = "payment was declined"
		}
		return nil, &ChargeError{Reason: reason}
	}
	return &result, nil
}

func (c *Client) post(ctx context.Context, path string, body, out interface{}) error {
	payload, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("failed to encode request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("failed to build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if c.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("gateway request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("gateway returned status %d", resp.StatusCode)
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("failed to decode gateway response: %w", err)
	}
	return nil
}
