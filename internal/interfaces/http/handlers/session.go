// internal/interfaces/http/handlers/session.go
package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/your-org/storefront-core/internal/config"
	"github.com/your-org/storefront-core/internal/domain/session"
	"github.com/your-org/storefront-core/internal/interfaces/http/middleware"
)

// SessionHandler handles session endpoints
type SessionHandler struct {
	store  *session.Store
	config *config.Config
}

// NewSessionHandler creates a new session handler
func NewSessionHandler(store *session.Store, cfg *config.Config) *SessionHandler {
	return &SessionHandler{
		store:  store,
		config: cfg,
	}
}

// GetSession handles GET /session. The locally minted auth token is returned
// so non-browser clients can present it as a bearer header; the upstream
// gateway token never leaves the server.
func (h *SessionHandler) GetSession(c *gin.Context) {
	sess, tier := h.store.Load(c.Request.Context(), middleware.GetClientID(c))
	if sess == nil {
		c.JSON(http.StatusOK, gin.H{"authenticated": false})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"authenticated": true,
		"tier":          tier,
		"profile":       sess.Profile,
		"auth_token":    sess.AuthToken,
		"addresses":     sess.Addresses,
		"order_history": sess.OrderHistory,
	})
}

// DestroySession handles DELETE /session, signing the client out
func (h *SessionHandler) DestroySession(c *gin.Context) {
	h.store.Destroy(c.Request.Context(), middleware.GetClientID(c))
	c.JSON(http.StatusOK, gin.H{"message": "Signed out"})
}

// GetGuestStash handles GET /session/stash, the guest checkout prefill
func (h *SessionHandler) GetGuestStash(c *gin.Context) {
	stash := h.store.GuestStash(c.Request.Context(), middleware.GetClientID(c))
	c.JSON(http.StatusOK, gin.H{"stash": stash})
}
