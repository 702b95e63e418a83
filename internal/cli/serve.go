package cli

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"os/signal"
	"slices"
	"syscall"
	"time"

	"storefront/internal/config"
	"storefront/internal/delivery/http/handler"
	domainCart "storefront/internal/domain/cart"
	"storefront/internal/infrastructure/database/postgres"
	"storefront/internal/infrastructure/events"
	"storefront/internal/infrastructure/mail"
	"storefront/internal/infrastructure/memory"
	"storefront/internal/infrastructure/payment"
	"storefront/internal/infrastructure/redis"
	"storefront/internal/logger"
	"storefront/internal/routes"
	"storefront/internal/usecase/admin"
	"storefront/internal/usecase/cart"
	"storefront/internal/usecase/catalog"
	"storefront/internal/usecase/checkout"
	"storefront/internal/usecase/order"
	"storefront/internal/usecase/user"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

const (
	shutdownTimeout      = 30 * time.Second
	tokenCleanupInterval = time.Hour
	cartSweepInterval    = 10 * time.Minute
)

var serveOpts struct {
	autoMigrate bool
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the HTTP API",
	RunE:  runServe,
}

func init() {
	serveCmd.Flags().BoolVar(&serveOpts.autoMigrate, "migrate", true, "migrate the schema before serving")
	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg, err := bootstrap()
	if err != nil {
		return err
	}

	logger.Info("Starting application",
		zap.String("environment", cfg.Server.Environment),
	)

	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	db, closeDB, err := openDatabase(cfg)
	if err != nil {
		return err
	}
	defer closeDB()

	if serveOpts.autoMigrate {
		if err := db.Migrate(); err != nil {
			return fmt.Errorf("migration failed: %w", err)
		}
	}

	redisClient, err := redis.NewClient(ctx, cfg.Redis)
	if err != nil {
		return err
	}
	if redisClient != nil {
		defer func() {
			if err := redisClient.Close(); err != nil {
				logger.Error("Failed to close redis connection", zap.Error(err))
			}
		}()
	}

	userRepo := postgres.NewUserRepository(db)
	refreshTokenRepo := postgres.NewRefreshTokenRepository(db)
	productRepo := postgres.NewProductRepository(db)
	orderRepo := postgres.NewOrderRepository(db)

	var (
		cartStore    domainCart.Store
		catalogCache catalog.Cache
		cacheProbe   routes.Probe
	)
	if redisClient != nil {
		cartStore = redis.NewCartStore(redisClient, cfg.Cart.TTL)
		catalogCache = redis.NewCatalogCache(redisClient)
		cacheProbe = func(ctx context.Context) error { return redisClient.Ping(ctx).Err() }
	} else {
		memStore := memory.NewCartStore(cfg.Cart.TTL)
		go memStore.StartSweeper(ctx, cartSweepInterval)
		cartStore = memStore
	}

	hub := events.NewHub(originChecker(cfg.CORS.AllowedOrigins))
	publisher := events.NewFanout(hub)
	if cfg.MQTT.Broker != "" {
		mqttClient, err := events.ConnectMQTT(cfg.MQTT)
		if err != nil {
			logger.Warn("MQTT broker unavailable, order events stay local",
				zap.String("broker", cfg.MQTT.Broker),
				zap.Error(err),
			)
		} else {
			defer mqttClient.Disconnect()
			publisher.Add(events.NewMQTTPublisher(mqttClient, cfg.MQTT.TopicPrefix))
		}
	}

	mailer := mail.New(cfg.SMTP)

	gateway, err := payment.NewGateway(cfg.Payment, webhookSecret(cfg))
	if err != nil {
		return err
	}

	catalogService := catalog.NewService(productRepo, catalogCache, cfg.Redis.CacheTTL)
	cartService := cart.NewService(cartStore, productRepo)
	userService := user.NewService(userRepo, refreshTokenRepo, cartStore, mailer, cfg)
	orderService := order.NewService(orderRepo, publisher)
	adminService := admin.NewService(orderRepo, productRepo, userRepo, catalogService)
	checkoutService := checkout.NewService(checkout.Dependencies{
		CartStore:   cartStore,
		ProductRepo: productRepo,
		OrderRepo:   orderRepo,
		UserRepo:    userRepo,
		Gateway:     gateway,
		Events:      publisher,
		Catalog:     catalogService,
		Mailer:      mailer,
	}, checkout.Config{
		Currency:    cfg.Payment.Currency,
		CallbackURL: cfg.Server.PublicURL + "/api/v1/payments/callback",
	})

	go userService.StartCleanupJob(ctx, tokenCleanupInterval)

	router := routes.SetupRoutes(cfg, routes.Handlers{
		User:     handler.NewUserHandler(userService),
		Catalog:  handler.NewCatalogHandler(catalogService),
		Cart:     handler.NewCartHandler(cartService),
		Checkout: handler.NewCheckoutHandler(checkoutService),
		Order:    handler.NewOrderHandler(orderService, hub),
		Admin:    handler.NewAdminHandler(adminService),
	}, routes.Probes{
		Database: func(context.Context) error { return db.Health() },
		Cache:    cacheProbe,
	})

	addr := net.JoinHostPort(cfg.Server.Host, cfg.Server.Port)
	server := &http.Server{
		Addr:         addr,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	serverErr := make(chan error, 1)
	go func() {
		logger.Info("Server starting",
			zap.String("address", addr),
		)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
	}()

	select {
	case err := <-serverErr:
		return fmt.Errorf("failed to start server: %w", err)
	case <-ctx.Done():
	}
	logger.Info("Shutdown Server ...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("failed to shutdown server: %w", err)
	}

	logger.Info("Server exited properly")
	return nil
}

// webhookSecret is the key webhook signatures are checked against. Paystack signs with the
// secret key. Without one the sandbox gateway falls back to the JWT secret.
func webhookSecret(cfg *config.Config) string {
	if cfg.Payment.SecretKey != "" {
		return cfg.Payment.SecretKey
	}
	return cfg.JWT.Secret
}

// originChecker accepts websocket upgrades from the CORS allow-list, or from anywhere when the list is empty.
func originChecker(allowed []string) func(r *http.Request) bool {
	if len(allowed) == 0 {
		return nil
	}
	return func(r *http.Request) bool {
		origin := r.Header.Get("Origin")
		return origin == "" || slices.Contains(allowed, origin)
	}
}
