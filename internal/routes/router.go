package routes

import (
	"context"
	"net/http"
	"time"

	"storefront/internal/config"
	"storefront/internal/delivery/http/handler"
	"storefront/internal/logger"
	"storefront/internal/middleware"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

const healthTimeout = 2 * time.Second

// Probe reports whether a backing service is reachable.
type Probe func(ctx context.Context) error

// Handlers groups the HTTP handlers mounted under /api/v1.
type Handlers struct {
	User     *handler.UserHandler
	Catalog  *handler.CatalogHandler
	Cart     *handler.CartHandler
	Checkout *handler.CheckoutHandler
	Order    *handler.OrderHandler
	Admin    *handler.AdminHandler
}

// Probes are checked by /health. Database is required, the rest are optional.
type Probes struct {
	Database Probe
	Cache    Probe
}

func SetupRoutes(cfg *config.Config, h Handlers, probes Probes) *gin.Engine {
	if cfg.Server.Environment == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.New()

	// Order matters: recovery, request ID, logging, security headers, CORS, request size limit, rate limit
	router.Use(gin.Recovery())
	router.Use(middleware.RequestIDMiddleware())
	router.Use(middleware.LoggingMiddleware())
	router.Use(middleware.SecurityHeadersMiddleware())
	router.Use(middleware.CORSMiddleware(&cfg.CORS))
	router.Use(middleware.RequestSizeLimitMiddleware(middleware.DefaultMaxRequestSize))
	router.Use(middleware.RateLimitMiddleware(cfg.RateLimit.GeneralRPS, cfg.RateLimit.GeneralBurst))

	router.GET("/health", healthHandler(probes))

	v1 := router.Group("/api/v1")
	{
		v1.GET("/health", healthHandler(probes))

		h.User.RegisterRoutes(v1)
		h.Catalog.RegisterRoutes(v1)
		h.Checkout.RegisterPaymentRoutes(v1)

		protected := v1.Group("")
		protected.Use(middleware.AuthMiddleware(cfg))
		{
			h.User.RegisterProfileRoutes(protected)
			h.Cart.RegisterRoutes(protected)
			h.Checkout.RegisterRoutes(protected)
			h.Order.RegisterRoutes(protected)

			admin := protected.Group("/admin")
			admin.Use(middleware.AdminOnly())
			{
				h.Admin.RegisterRoutes(admin)
			}
		}
	}

	logger.Info("All routes initialized")
	return router
}

func healthHandler(probes Probes) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx, cancel := context.WithTimeout(c.Request.Context(), healthTimeout)
		defer cancel()

		if probes.Database != nil {
			if err := probes.Database(ctx); err != nil {
				logger.Error("Health check failed", zap.String("component", "database"), zap.Error(err))
				c.JSON(http.StatusServiceUnavailable, gin.H{
					"status":  "unhealthy",
					"message": "Database connection failed",
				})
				return
			}
		}

		cache := "disabled"
		if probes.Cache != nil {
			cache = "healthy"
			if err := probes.Cache(ctx); err != nil {
				logger.Warn("Cache health check failed", zap.Error(err))
				cache = "degraded"
			}
		}

		c.JSON(http.StatusOK, gin.H{
			"status":  "healthy",
			"message": "Service is running",
			"cache":   cache,
		})
	}
}
