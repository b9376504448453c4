// internal/domain/account/client_test.go
package account

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/your-org/storefront-core/internal/config"
	"github.com/your-org/storefront-core/internal/domain/session"
	"github.com/your-org/storefront-core/internal/pkg/auth"
)

func testConfig(gatewayURL string) *config.Config {
	return &config.Config{
		App: config.AppConfig{Name: "storefront-test"},
		JWT: config.JWTConfig{
			Secret:            "account-client-test-secret-32chars!",
			AccessTokenExpiry: time.Hour,
		},
		External: config.ExternalConfig{
			Gateway: config.GatewayConfig{
				BaseURL: gatewayURL,
				APIKey:  "test-key",
				Timeout: 2 * time.Second,
			},
		},
	}
}

func newTestClient(t *testing.T, handler http.HandlerFunc) (*Client, *httptest.Server) {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	logger := logrus.New()
	logger.SetOutput(io.Discard)
	return NewClient(testConfig(server.URL), logger), server
}

func TestLoginMintsLocalSessionToken(t *testing.T) {
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/login", r.URL.Path)
		json.NewEncoder(w).Encode(accountResponse{
			UserID:    "u-77",
			Email:     "member@example.com",
			FirstName: "Ada",
			Token:     "gw-opaque-token",
		})
	})

	sess, err := client.Login(context.Background(), "member@example.com", "Password1")
	require.NoError(t, err)

	// The gateway's token is carried but is not the client-facing credential.
	assert.Equal(t, "gw-opaque-token", sess.GatewayToken)
	require.NotEmpty(t, sess.AuthToken)
	assert.NotEqual(t, sess.GatewayToken, sess.AuthToken)

	// Our own manager accepts the minted token back.
	claims, err := auth.NewJWTManager(testConfig("")).ValidateToken(sess.AuthToken)
	require.NoError(t, err)
	assert.Equal(t, "u-77", claims.UserID)
	assert.Equal(t, "member@example.com", claims.Email)
}

func TestRegisterEnforcesPasswordStrength(t *testing.T) {
	var calls int32
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		json.NewEncoder(w).Encode(accountResponse{UserID: "u-1"})
	})

	_, err := client.Register(context.Background(), "new@example.com", "weak", session.Profile{})
	require.Error(t, err)
	assert.Equal(t, int32(0), atomic.LoadInt32(&calls), "weak credentials never leave the process")

	sess, err := client.Register(context.Background(), "new@example.com", "Str0ngEnough", session.Profile{FirstName: "Ada"})
	require.NoError(t, err)
	assert.Equal(t, int32(1), atomic.LoadInt32(&calls))
	assert.NotEmpty(t, sess.AuthToken)
}

func TestLoginSurfacesGatewayError(t *testing.T) {
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		json.NewEncoder(w).Encode(accountResponse{Error: "invalid credentials"})
	})

	_, err := client.Login(context.Background(), "member@example.com", "Wrong1pass")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid credentials")
}

func TestUpdateUserAddressesPostsFullList(t *testing.T) {
	var got struct {
		UserID    string            `json:"user_id"`
		Addresses []session.Address `json:"addresses"`
	}
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/update-user-addresses", r.URL.Path)
		assert.Equal(t, "Bearer test-key", r.Header.Get("Authorization"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		json.NewEncoder(w).Encode(accountResponse{})
	})

	addrs := []session.Address{{Street: "1 Main St", PostalCode: "97201"}}
	require.NoError(t, client.UpdateUserAddresses(context.Background(), "u-77", addrs))
	assert.Equal(t, "u-77", got.UserID)
	require.Len(t, got.Addresses, 1)
	assert.Equal(t, "1 Main St", got.Addresses[0].Street)
}
