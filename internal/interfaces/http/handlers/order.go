// internal/interfaces/http/handlers/order.go
package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/your-org/storefront-core/internal/config"
	"github.com/your-org/storefront-core/internal/domain/order"
	"github.com/your-org/storefront-core/internal/domain/session"
	"github.com/your-org/storefront-core/internal/interfaces/http/middleware"
	"github.com/your-org/storefront-core/internal/pkg/auth"
)

// OrderHandler handles order lookup endpoints
type OrderHandler struct {
	orders   *order.Store
	sessions *session.Store
	tokens   *auth.JWTManager
	config   *config.Config
}

// NewOrderHandler creates a new order handler
func NewOrderHandler(orders *order.Store, sessions *session.Store, cfg *config.Config) *OrderHandler {
	return &OrderHandler{
		orders:   orders,
		sessions: sessions,
		tokens:   auth.NewJWTManager(cfg),
		config:   cfg,
	}
}

// currentUserID resolves the caller's user id from the encrypted session, or
// from the session auth token presented as a bearer header by non-browser
// clients. Empty for guests.
func (h *OrderHandler) currentUserID(c *gin.Context) string {
	sess, _ := h.sessions.Load(c.Request.Context(), middleware.GetClientID(c))
	if sess != nil {
		return sess.UserID
	}

	if token := auth.ExtractTokenFromHeader(c.GetHeader("Authorization")); token != "" {
		if claims, err := h.tokens.ValidateToken(token); err == nil {
			return claims.UserID
		}
	}
	return ""
}

// GetOrder handles GET /orders/:id. Members see their own orders; a guest
// order is visible to the client that placed it via the session stash.
func (h *OrderHandler) GetOrder(c *gin.Context) {
	o, err := h.orders.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Order not found"})
		return
	}

	if o.UserID != "" && h.currentUserID(c) != o.UserID {
		c.JSON(http.StatusNotFound, gin.H{"error": "Order not found"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": o})
}

// ListOrders handles GET /orders for the signed-in user
func (h *OrderHandler) ListOrders(c *gin.Context) {
	userID := h.currentUserID(c)
	if userID == "" {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Sign in to view orders"})
		return
	}

	orders, err := h.orders.ListByUser(c.Request.Context(), userID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to list orders"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": orders})
}
