// internal/interfaces/http/routes/routes.go
package routes

import (
	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"github.com/your-org/storefront-core/internal/config"
	"github.com/your-org/storefront-core/internal/domain/account"
	"github.com/your-org/storefront-core/internal/domain/checkout"
	"github.com/your-org/storefront-core/internal/domain/order"
	"github.com/your-org/storefront-core/internal/domain/payment"
	"github.com/your-org/storefront-core/internal/domain/promo"
	"github.com/your-org/storefront-core/internal/domain/session"
	"github.com/your-org/storefront-core/internal/interfaces/http/handlers"
	"github.com/your-org/storefront-core/internal/interfaces/http/middleware"
	"github.com/your-org/storefront-core/internal/pkg/analytics"
	"github.com/your-org/storefront-core/internal/pkg/email"
	"github.com/your-org/storefront-core/internal/pkg/logger"
	"github.com/your-org/storefront-core/internal/pkg/storage"
	"github.com/your-org/storefront-core/internal/pkg/vault"
	"gorm.io/gorm"
)

// SetupRoutes wires the domain services and mounts all storefront routes
func SetupRoutes(rg *gin.RouterGroup, db *gorm.DB, redisClient *redis.Client, cfg *config.Config) {
	log := logger.New(cfg)

	kv := storage.NewRedisKV(redisClient)
	sessionVault := vault.New(cfg, log)
	sessions := session.NewStore(
		storage.NewPrefixedKV(kv, "tier:remember:"),
		storage.NewPrefixedKV(kv, "tier:ephemeral:"),
		sessionVault,
		log,
	)

	accountClient := account.NewClient(cfg, log)
	gateway := payment.NewClient(cfg, log)
	resolver := promo.NewResolver(promo.NewHTTPValidator(cfg), kv, log)
	orderStore := order.NewStore(db)

	manager := checkout.NewManager(kv, checkout.Deps{
		Resolver: resolver,
		Gateway:  gateway,
		Orders:   orderStore,
		Sessions: sessions,
		Auth:     accountClient,
		Syncer:   accountClient,
		Mailer:   email.NewService(cfg, log),
		Tracker:  analytics.NewTracker(log),
	}, cfg.Shipping, log)

	rg.Use(middleware.ClientID(cfg))

	cartHandler := handlers.NewCartHandler(manager, cfg)
	cart := rg.Group("/cart")
	{
		cart.GET("", cartHandler.GetCart)
		cart.DELETE("", cartHandler.ClearCart)
		cart.POST("/items", cartHandler.AddToCart)
		cart.PUT("/items/:lineID", cartHandler.UpdateCartItem)
		cart.DELETE("/items/:lineID", cartHandler.RemoveCartItem)
	}

	checkoutHandler := handlers.NewCheckoutHandler(manager, cfg)
	flow := rg.Group("/checkout")
	{
		flow.GET("", checkoutHandler.GetState)
		flow.POST("/email-check", checkoutHandler.CheckEmail)
		flow.POST("/contact", checkoutHandler.SubmitContactInfo)
		flow.POST("/login", checkoutHandler.InlineLogin)
		flow.POST("/register", checkoutHandler.InlineRegister)
		flow.GET("/address/prefill", checkoutHandler.PrefillAddress)
		flow.POST("/address", checkoutHandler.SubmitShippingAddress)
		flow.POST("/promo", checkoutHandler.ApplyPromo)
		flow.DELETE("/promo", checkoutHandler.RemovePromo)
		flow.GET("/summary", checkoutHandler.GetSummary)
		flow.POST("/submit", checkoutHandler.SubmitPayment)
		flow.POST("/express", checkoutHandler.SubmitExpress)
	}

	sessionHandler := handlers.NewSessionHandler(sessions, cfg)
	sess := rg.Group("/session")
	{
		sess.GET("", sessionHandler.GetSession)
		sess.DELETE("", sessionHandler.DestroySession)
		sess.GET("/stash", sessionHandler.GetGuestStash)
	}

	orderHandler := handlers.NewOrderHandler(orderStore, sessions, cfg)
	orders := rg.Group("/orders")
	{
		orders.GET("", orderHandler.ListOrders)
		orders.GET("/:id", orderHandler.GetOrder)
	}
}
