// internal/interfaces/http/handlers/checkout.go
package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/your-org/storefront-core/internal/config"
	"github.com/your-org/storefront-core/internal/domain/checkout"
	"github.com/your-org/storefront-core/internal/domain/payment"
	"github.com/your-org/storefront-core/internal/domain/session"
	"github.com/your-org/storefront-core/internal/interfaces/http/middleware"
)

// CheckoutHandler handles the checkout flow endpoints
type CheckoutHandler struct {
	manager *checkout.Manager
	config  *config.Config
}

// NewCheckoutHandler creates a new checkout handler
func NewCheckoutHandler(manager *checkout.Manager, cfg *config.Config) *CheckoutHandler {
	return &CheckoutHandler{
		manager: manager,
		config:  cfg,
	}
}

// respondCheckoutError maps domain errors to HTTP responses
func respondCheckoutError(c *gin.Context, err error) {
	var validationErr *checkout.ValidationError
	if errors.As(err, &validationErr) {
		c.JSON(http.StatusUnprocessableEntity, gin.H{
			"error": validationErr.Message,
			"field": validationErr.Field,
		})
		return
	}

	var stateErr *checkout.InvalidStateError
	if errors.As(err, &stateErr) {
		c.JSON(http.StatusConflict, gin.H{
			"error": stateErr.Error(),
		})
		return
	}

	if errors.Is(err, checkout.ErrSubmissionInFlight) {
		c.JSON(http.StatusConflict, gin.H{
			"error": "A submission is already being processed",
		})
		return
	}

	var tokenErr *payment.TokenizationError
	var chargeErr *payment.ChargeError
	if errors.As(err, &tokenErr) || errors.As(err, &chargeErr) {
		c.JSON(http.StatusPaymentRequired, gin.H{
			"error": err.Error(),
		})
		return
	}

	c.JSON(http.StatusInternalServerError, gin.H{
		"error": err.Error(),
	})
}

// GetState handles GET /checkout
func (h *CheckoutHandler) GetState(c *gin.Context) {
	orch := h.manager.Orchestrator(c.Request.Context(), middleware.GetClientID(c))
	c.JSON(http.StatusOK, gin.H{
		"state":          orch.State(),
		"authenticated":  orch.Authenticated(),
		"order_complete": orch.OrderComplete(),
	})
}

// CheckEmailRequest asks whether an email already has an account
type CheckEmailRequest struct {
	Email string `json:"email" binding:"required"`
}

// CheckEmail handles POST /checkout/email-check
func (h *CheckoutHandler) CheckEmail(c *gin.Context) {
	var req CheckEmailRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request data"})
		return
	}

	orch := h.manager.Orchestrator(c.Request.Context(), middleware.GetClientID(c))
	c.JSON(http.StatusOK, gin.H{
		"available": orch.CheckEmail(c.Request.Context(), req.Email),
	})
}

// ContactInfoRequest is the first checkout step
type ContactInfoRequest struct {
	Email string `json:"email" binding:"required"`
}

// SubmitContactInfo handles POST /checkout/contact
func (h *CheckoutHandler) SubmitContactInfo(c *gin.Context) {
	var req ContactInfoRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request data"})
		return
	}

	orch := h.manager.Orchestrator(c.Request.Context(), middleware.GetClientID(c))
	if err := orch.SubmitContactInfo(c.Request.Context(), req.Email); err != nil {
		respondCheckoutError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"state": orch.State()})
}

// InlineAuthRequest signs in or registers mid-checkout
type InlineAuthRequest struct {
	Email     string `json:"email" binding:"required"`
	Password  string `json:"password" binding:"required"`
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
	Remember  bool   `json:"remember"`
}

// InlineLogin handles POST /checkout/login
func (h *CheckoutHandler) InlineLogin(c *gin.Context) {
	var req InlineAuthRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request data"})
		return
	}

	orch := h.manager.Orchestrator(c.Request.Context(), middleware.GetClientID(c))
	if err := orch.InlineLogin(c.Request.Context(), req.Email, req.Password, req.Remember); err != nil {
		var stateErr *checkout.InvalidStateError
		if errors.As(err, &stateErr) {
			respondCheckoutError(c, err)
			return
		}
		c.JSON(http.StatusUnauthorized, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Signed in"})
}

// InlineRegister handles POST /checkout/register
func (h *CheckoutHandler) InlineRegister(c *gin.Context) {
	var req InlineAuthRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request data"})
		return
	}

	orch := h.manager.Orchestrator(c.Request.Context(), middleware.GetClientID(c))
	profile := session.Profile{FirstName: req.FirstName, LastName: req.LastName, Email: req.Email}
	if err := orch.InlineRegister(c.Request.Context(), req.Email, req.Password, profile, req.Remember); err != nil {
		var stateErr *checkout.InvalidStateError
		if errors.As(err, &stateErr) {
			respondCheckoutError(c, err)
			return
		}
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusCreated, gin.H{"message": "Account created"})
}

// PrefillAddress handles GET /checkout/address/prefill
func (h *CheckoutHandler) PrefillAddress(c *gin.Context) {
	orch := h.manager.Orchestrator(c.Request.Context(), middleware.GetClientID(c))
	c.JSON(http.StatusOK, gin.H{
		"address": orch.PrefillAddress(),
	})
}

// ShippingAddressRequest is the second checkout step
type ShippingAddressRequest struct {
	Address session.Address `json:"address" binding:"required"`
	Save    bool            `json:"save"`
}

// SubmitShippingAddress handles POST /checkout/address
func (h *CheckoutHandler) SubmitShippingAddress(c *gin.Context) {
	var req ShippingAddressRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request data"})
		return
	}

	orch := h.manager.Orchestrator(c.Request.Context(), middleware.GetClientID(c))
	if err := orch.SubmitShippingAddress(c.Request.Context(), req.Address, req.Save); err != nil {
		respondCheckoutError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"state": orch.State()})
}

// ApplyPromoRequest applies a promo code for display
type ApplyPromoRequest struct {
	Code string `json:"code" binding:"required"`
}

// ApplyPromo handles POST /checkout/promo
func (h *CheckoutHandler) ApplyPromo(c *gin.Context) {
	var req ApplyPromoRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request data"})
		return
	}

	orch := h.manager.Orchestrator(c.Request.Context(), middleware.GetClientID(c))
	app := orch.ApplyPromo(c.Request.Context(), req.Code)

	status := http.StatusOK
	if !app.Applied {
		status = http.StatusUnprocessableEntity
	}
	c.JSON(status, gin.H{"promo": app})
}

// RemovePromo handles DELETE /checkout/promo
func (h *CheckoutHandler) RemovePromo(c *gin.Context) {
	orch := h.manager.Orchestrator(c.Request.Context(), middleware.GetClientID(c))
	orch.RemovePromo(c.Request.Context())
	c.JSON(http.StatusOK, gin.H{"message": "Promo removed"})
}

// GetSummary handles GET /checkout/summary
func (h *CheckoutHandler) GetSummary(c *gin.Context) {
	orch := h.manager.Orchestrator(c.Request.Context(), middleware.GetClientID(c))
	c.JSON(http.StatusOK, gin.H{
		"data": orch.Summary(),
	})
}

// SubmitPayment handles POST /checkout/submit, the manual card path
func (h *CheckoutHandler) SubmitPayment(c *gin.Context) {
	var form checkout.ManualPaymentForm
	if err := c.ShouldBindJSON(&form); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request data"})
		return
	}

	clientID := middleware.GetClientID(c)
	orch := h.manager.Orchestrator(c.Request.Context(), clientID)
	receipt, err := orch.SubmitPayment(c.Request.Context(), form)
	if err != nil {
		respondCheckoutError(c, err)
		return
	}

	// The flow is done; the next request starts fresh.
	h.manager.Release(clientID)

	c.JSON(http.StatusOK, gin.H{
		"message": "Order placed",
		"receipt": receipt,
	})
}

// SubmitExpress handles POST /checkout/express, the wallet path
func (h *CheckoutHandler) SubmitExpress(c *gin.Context) {
	var wallet payment.WalletConfirmation
	if err := c.ShouldBindJSON(&wallet); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request data"})
		return
	}

	clientID := middleware.GetClientID(c)
	orch := h.manager.Orchestrator(c.Request.Context(), clientID)
	receipt, err := orch.SubmitExpress(c.Request.Context(), &wallet)
	if err != nil {
		respondCheckoutError(c, err)
		return
	}

	h.manager.Release(clientID)

	c.JSON(http.StatusOK, gin.H{
		"message": "Order placed",
		"receipt": receipt,
	})
}
