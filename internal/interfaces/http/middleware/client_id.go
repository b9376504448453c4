// internal/interfaces/http/middleware/client_id.go
package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/your-org/storefront-core/internal/config"
	"github.com/your-org/storefront-core/internal/pkg/auth"
)

const clientCookie = "storefront_client"

// cookie lifetime, matches the long session tier
const clientCookieMaxAge = 30 * 24 * 60 * 60

// ClientID identifies the storefront client across requests. The id keys the
// cart, the session tiers, and the checkout flow, so the cookie carries it as
// a signed token rather than a bare value. A first-time visitor gets a fresh
// id; a bad signature is treated as no id at all.
func ClientID(cfg *config.Config) gin.HandlerFunc {
	jwtManager := auth.NewJWTManager(cfg)

	return func(c *gin.Context) {
		clientID := ""

		if token, err := c.Cookie(clientCookie); err == nil && token != "" {
			if claims, err := jwtManager.ValidateToken(token); err == nil {
				clientID = claims.UserID
			}
		}
		if clientID == "" {
			// Non-browser clients present the same token as a bearer header.
			if token := auth.ExtractTokenFromHeader(c.GetHeader("Authorization")); token != "" {
				if claims, err := jwtManager.ValidateToken(token); err == nil {
					clientID = claims.UserID
				}
			}
		}

		if clientID == "" {
			clientID = uuid.New().String()
			if token, err := jwtManager.GenerateClientToken(clientID); err == nil {
				c.SetSameSite(http.SameSiteLaxMode)
				c.SetCookie(clientCookie, token, clientCookieMaxAge, "/", "", false, true)
			}
		}

		c.Set("client_id", clientID)
		c.Next()
	}
}

// GetClientID reads the client id set by ClientID
func GetClientID(c *gin.Context) string {
	return c.GetString("client_id")
}
