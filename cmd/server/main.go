package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/go-chi/cors"
	"github.com/rs/zerolog"
	zlog "github.com/rs/zerolog/log"
	"gorm.io/gorm"

	"github.com/ksred/purchase-orders-api/internal/auth"
	"github.com/ksred/purchase-orders-api/internal/blobstore"
	"github.com/ksred/purchase-orders-api/internal/config"
	"github.com/ksred/purchase-orders-api/internal/database"
	"github.com/ksred/purchase-orders-api/internal/export"
	"github.com/ksred/purchase-orders-api/internal/items"
	"github.com/ksred/purchase-orders-api/internal/orders"
	"github.com/ksred/purchase-orders-api/pkg/middleware"
)

// init configures the application logging based on environment settings
// In development mode, it enables pretty printing with timestamps
// Debug logging can be enabled via DEBUG environment variable
func init() {
	if os.Getenv("ENV") != "production" {
		output := zerolog.ConsoleWriter{
			Out:        os.Stdout,
			TimeFormat: time.RFC3339,
		}
		zlog.Logger = zerolog.New(output).With().Timestamp().Logger()
	}

	zerolog.SetGlobalLevel(zerolog.InfoLevel)
	if os.Getenv("DEBUG") == "true" {
		zerolog.SetGlobalLevel(zerolog.DebugLevel)
	}
}

// main wires storage, services and routes, then serves until SIGINT/SIGTERM
func main() {
	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		zlog.Fatal().Err(err).Msg("Invalid configuration")
	}

	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}

	db, err := database.NewDatabase(cfg.DBDriver, cfg.DatabaseDSN)
	if err != nil {
		zlog.Fatal().Err(err).Msg("Failed to initialize database")
	}
	defer database.Close(db)

	blobs, err := blobstore.FromConfig(context.Background(), cfg)
	if err != nil {
		zlog.Fatal().Err(err).Msg("Failed to initialize blob storage")
	}

	limiter := middleware.NewRateLimiter(cfg.RateLimitPerMinute)
	stopCleanup := make(chan struct{})
	defer close(stopCleanup)
	go limiter.RunCleanup(time.Minute, stopCleanup)

	router, err := newRouter(cfg, db, blobs, limiter)
	if err != nil {
		zlog.Fatal().Err(err).Msg("Failed to initialize routes")
	}

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           withCORS(cfg, router),
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		zlog.Info().
			Str("port", cfg.Port).
			Str("db_driver", cfg.DBDriver).
			Str("blob_backend", cfg.BlobBackend).
			Bool("auth", cfg.AuthEnabled()).
			Msg("Server starting")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			zlog.Fatal().Err(err).Msg("listen")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	zlog.Info().Msg("Shutting down server...")

	// Give outstanding requests 5 seconds to complete
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		zlog.Error().Err(err).Msg("Server forced to shutdown")
	}

	zlog.Info().Msg("Server exiting")
}

// newRouter builds the services and handlers and registers every route
func newRouter(cfg *config.Config, db *gorm.DB, blobs blobstore.Store, limiter *middleware.RateLimiter) (*gin.Engine, error) {
	router := gin.New()
	router.Use(gin.Recovery(), middleware.RequestLogger(), limiter.Handler())

	orderHandlers := orders.NewGinHandlers(orders.NewService(db, blobs))
	itemHandlers := items.NewGinHandlers(items.NewService(db, export.NewWriter(blobs)))

	var authHandlers *auth.GinHandlers
	if cfg.AuthEnabled() {
		authService, err := auth.NewService(cfg.JWTSecret, cfg.APIKey, cfg.APISecret)
		if err != nil {
			return nil, err
		}
		authHandlers = auth.NewGinHandlers(authService)
	}

	setupRoutes(router, cfg, authHandlers, orderHandlers, itemHandlers)
	return router, nil
}

// setupRoutes configures all API endpoints and their handlers.
// Order and item routes require a bearer token only when auth is enabled.
func setupRoutes(
	router *gin.Engine,
	cfg *config.Config,
	authHandlers *auth.GinHandlers,
	orderHandlers *orders.GinHandlers,
	itemHandlers *items.GinHandlers,
) {
	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	api := router.Group("/api")

	if authHandlers != nil {
		api.POST("/auth/token", authHandlers.GenerateTokenHandler())
	}

	o := api.Group("/orders")
	if cfg.AuthEnabled() {
		o.Use(middleware.JWTAuth(cfg.JWTSecret))
	}
	{
		o.POST("", orderHandlers.CreateOrderHandler())
		o.GET("", orderHandlers.ListOrdersHandler())
		o.GET("/search", orderHandlers.SearchOrdersHandler())
		o.GET("/:order_id", orderHandlers.GetOrderHandler())
		o.PATCH("/:order_id/status", orderHandlers.UpdateStatusHandler())

		o.POST("/:order_id/items", itemHandlers.UpsertItemsHandler())
		o.GET("/:order_id/items", itemHandlers.GetItemsHandler())
		o.PATCH("/:order_id/items/matches", itemHandlers.EditItemsHandler())
		o.PATCH("/:order_id/items/:item_id/match", itemHandlers.SetMatchHandler())
		o.GET("/:order_id/export", itemHandlers.ExportHandler())
	}
}

// withCORS lets the configured browser origins call the API
func withCORS(cfg *config.Config, h http.Handler) http.Handler {
	return cors.Handler(cors.Options{
		AllowedOrigins:   cfg.CORSAllowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "PATCH", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-Request-ID"},
		ExposedHeaders:   []string{"X-Request-ID", "Content-Disposition"},
		AllowCredentials: true,
		MaxAge:           300,
	})(h)
}
