// internal/domain/account/client.go
package account

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/sirupsen/logrus"
	"github.com/your-org/storefront-core/internal/config"
	"github.com/your-org/storefront-core/internal/domain/session"
	"github.com/your-org/storefront-core/internal/pkg/auth"
)

// Client talks to the account endpoints of the commerce gateway. It is the
// primary authentication path; the inline checkout login and registration
// reuse it rather than growing a parallel one.
type Client struct {
	baseURL   string
	apiKey    string
	http      *http.Client
	passwords *auth.PasswordManager
	tokens    *auth.JWTManager
	logger    *logrus.Logger
}

// NewClient creates an account client from the gateway configuration
func NewClient(cfg *config.Config, logger *logrus.Logger) *Client {
	return &Client{
		baseURL:   cfg.External.Gateway.BaseURL,
		apiKey:    cfg.External.Gateway.APIKey,
		http:      &http.Client{Timeout: cfg.External.Gateway.Timeout},
		passwords: auth.NewPasswordManager(cfg),
		tokens:    auth.NewJWTManager(cfg),
		logger:    logger,
	}
}

type credentialsRequest struct {
	Email     string `json:"email"`
	Password  string `json:"password"`
	FirstName string `json:"first_name,omitempty"`
	LastName  string `json:"last_name,omitempty"`
}

type accountResponse struct {
	UserID    string            `json:"user_id"`
	Email     string            `json:"email"`
	FirstName string            `json:"first_name"`
	LastName  string            `json:"last_name"`
	Token     string            `json:"token"`
	Addresses []session.Address `json:"addresses"`
	Error     string            `json:"error,omitempty"`
}

// Login authenticates against the gateway and returns a fresh session
func (c *Client) Login(ctx context.Context, email, password string) (*session.Session, error) {
	resp, err := c.post(ctx, "/login", credentialsRequest{Email: email, Password: password})
	if err != nil {
		return nil, fmt.Errorf("login failed: %w", err)
	}
	return c.sessionFrom(resp), nil
}

// Register creates an account and returns the signed-in session. The
// password-strength gate runs here, before the credentials leave the process.
func (c *Client) Register(ctx context.Context, email, password string, profile session.Profile) (*session.Session, error) {
	if err := c.passwords.ValidatePassword(password); err != nil {
		return nil, err
	}

	resp, err := c.post(ctx, "/register", credentialsRequest{
		Email:     email,
		Password:  password,
		FirstName: profile.FirstName,
		LastName:  profile.LastName,
	})
	if err != nil {
		return nil, fmt.Errorf("registration failed: %w", err)
	}
	return c.sessionFrom(resp), nil
}

// UpdateUserAddresses pushes the full saved-address list to the account.
// Called after a checkout saves a new address; the server state mirrors the
// session state rather than merging.
func (c *Client) UpdateUserAddresses(ctx context.Context, userID string, addresses []session.Address) error {
	_, err := c.post(ctx, "/update-user-addresses", map[string]interface{}{
		"user_id":   userID,
		"addresses": addresses,
	})
	if err != nil {
		return fmt.Errorf("address sync failed: %w", err)
	}
	return nil
}

func (c *Client) post(ctx context.Context, path string, payload interface{}) (*accountResponse, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("failed to serialize request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if c.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	var decoded accountResponse
	if err := json.NewDecoder(resp.Body).Decode(&decoded); err != nil {
		return nil, fmt.Errorf("failed to decode response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		if decoded.Error != "" {
			return nil, fmt.Errorf("account service returned %d: %s", resp.StatusCode, decoded.Error)
		}
		return nil, fmt.Errorf("account service returned %d", resp.StatusCode)
	}
	return &decoded, nil
}

// sessionFrom builds the session, minting our own auth token. The gateway's
// token is kept alongside for upstream calls but is never the credential a
// storefront client presents back to us.
func (c *Client) sessionFrom(resp *accountResponse) *session.Session {
	token, err := c.tokens.GenerateToken(resp.UserID, resp.Email)
	if err != nil {
		// Session still works via the encrypted cookie path; only the
		// bearer-header path is lost.
		c.logger.WithError(err).Warn("failed to mint session auth token")
	}

	return &session.Session{
		UserID: resp.UserID,
		Profile: session.Profile{
			FirstName: resp.FirstName,
			LastName:  resp.LastName,
			Email:     resp.Email,
		},
		AuthToken:    token,
		GatewayToken: resp.Token,
		Addresses:    resp.Addresses,
	}
}
