// internal/domain/promo/http_validator.go
package promo

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/your-org/storefront-core/internal/config"
)

// HTTPValidator validates promo codes against the storefront API
type HTTPValidator struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
}

// NewHTTPValidator creates a validator talking to the configured gateway
func NewHTTPValidator(cfg *config.Config) *HTTPValidator {
	return &HTTPValidator{
		baseURL: cfg.External.Gateway.BaseURL,
		apiKey:  cfg.External.Gateway.APIKey,
		httpClient: &http.Client{
			Timeout: cfg.External.Gateway.Timeout,
		},
	}
}

// ValidatePromo calls the validate-promo endpoint. Transport or decode errors
// surface to the resolver, which fails closed.
func (v *HTTPValidator) ValidatePromo(ctx context.Context, code string) (*Validation, error) {
	body, err := json.Marshal(map[string]string{"code": code})
	if err != nil {
		return nil, fmt.Errorf("failed to encode promo request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, v.baseURL+"/validate-promo", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("failed to build promo request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if v.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+v.apiKey)
	}

	resp, err := v.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("promo validation request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("promo validation returned status %d", resp.StatusCode)
	}

	var verdict Validation
	if err := json.NewDecoder(resp.Body).Decode(&verdict); err != nil {
		return nil, fmt.Errorf("failed to decode promo response: %w", err)
	}

	return &verdict, nil
}
