// internal/interfaces/http/handlers/cart.go
package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/your-org/storefront-core/internal/config"
	"github.com/your-org/storefront-core/internal/domain/cart"
	"github.com/your-org/storefront-core/internal/domain/checkout"
	"github.com/your-org/storefront-core/internal/interfaces/http/middleware"
)

// CartHandler handles cart endpoints
type CartHandler struct {
	manager *checkout.Manager
	config  *config.Config
}

// NewCartHandler creates a new cart handler
func NewCartHandler(manager *checkout.Manager, cfg *config.Config) *CartHandler {
	return &CartHandler{
		manager: manager,
		config:  cfg,
	}
}

type cartResponse struct {
	Lines     []cart.Line `json:"lines"`
	Subtotal  int64       `json:"subtotal"`
	ItemCount int         `json:"item_count"`
}

func buildCartResponse(ledger *cart.Ledger) cartResponse {
	return cartResponse{
		Lines:     ledger.Lines(),
		Subtotal:  ledger.Subtotal(),
		ItemCount: ledger.ItemCount(),
	}
}

// GetCart handles GET /cart. The open_drawer hint is consumed here: it fires
// once after an add and the storefront animates the drawer on that fetch.
func (h *CartHandler) GetCart(c *gin.Context) {
	ctx := c.Request.Context()
	clientID := middleware.GetClientID(c)
	ledger := h.manager.Ledger(ctx, clientID)
	drawer := h.manager.Drawer(ctx, clientID)

	c.JSON(http.StatusOK, gin.H{
		"data":        buildCartResponse(ledger),
		"open_drawer": drawer.Consume(ctx),
	})
}

// AddToCartRequest carries the product being added. The storefront sends the
// product snapshot with the request; there is no catalog lookup here.
type AddToCartRequest struct {
	Product  cart.Product `json:"product" binding:"required"`
	Quantity int          `json:"quantity" binding:"required"`
	Size     string       `json:"size"`
	Color    string       `json:"color"`
	Silent   bool         `json:"silent"`
}

// AddToCart handles POST /cart/items
func (h *CartHandler) AddToCart(c *gin.Context) {
	var req AddToCartRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "Invalid request data",
			"details": err.Error(),
		})
		return
	}

	ctx := c.Request.Context()
	ledger := h.manager.Ledger(ctx, middleware.GetClientID(c))
	variant := cart.Variant{Size: req.Size, Color: req.Color}

	var (
		line cart.Line
		err  error
	)
	if req.Silent {
		line, err = ledger.AddLineSilent(ctx, req.Product, req.Quantity, variant)
	} else {
		line, err = ledger.AddLine(ctx, req.Product, req.Quantity, variant)
	}
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error": err.Error(),
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "Item added to cart",
		"line":    line,
		"data":    buildCartResponse(ledger),
	})
}

// UpdateCartItemRequest adjusts a line quantity by a signed delta
type UpdateCartItemRequest struct {
	Delta int `json:"delta" binding:"required"`
}

// UpdateCartItem handles PUT /cart/items/:lineID
func (h *CartHandler) UpdateCartItem(c *gin.Context) {
	var req UpdateCartItemRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "Invalid request data",
			"details": err.Error(),
		})
		return
	}

	ctx := c.Request.Context()
	ledger := h.manager.Ledger(ctx, middleware.GetClientID(c))

	if err := ledger.UpdateQuantity(ctx, c.Param("lineID"), req.Delta); err != nil {
		c.JSON(http.StatusNotFound, gin.H{
			"error": err.Error(),
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"data": buildCartResponse(ledger),
	})
}

// RemoveCartItem handles DELETE /cart/items/:lineID
func (h *CartHandler) RemoveCartItem(c *gin.Context) {
	ctx := c.Request.Context()
	ledger := h.manager.Ledger(ctx, middleware.GetClientID(c))

	if err := ledger.RemoveLine(ctx, c.Param("lineID")); err != nil {
		c.JSON(http.StatusNotFound, gin.H{
			"error": err.Error(),
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"data": buildCartResponse(ledger),
	})
}

// ClearCart handles DELETE /cart
func (h *CartHandler) ClearCart(c *gin.Context) {
	ctx := c.Request.Context()
	ledger := h.manager.Ledger(ctx, middleware.GetClientID(c))
	ledger.Clear(ctx)

	c.JSON(http.StatusOK, gin.H{
		"message": "Cart cleared",
		"data":    buildCartResponse(ledger),
	})
}
