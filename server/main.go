package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/itwhiprentals/itwhip-website-sub025/api/routes"
	"github.com/itwhiprentals/itwhip-website-sub025/internal/notifications"
	"github.com/itwhiprentals/itwhip-website-sub025/internal/shared/config"
	"github.com/itwhiprentals/itwhip-website-sub025/internal/shared/database"
	"github.com/itwhiprentals/itwhip-website-sub025/internal/shared/validation"
	"github.com/itwhiprentals/itwhip-website-sub025/pkg/cache"
	"github.com/itwhiprentals/itwhip-website-sub025/pkg/logger"
	"github.com/itwhiprentals/itwhip-website-sub025/pkg/ratelimit"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
)

var (
	Version   = "dev"
	BuildTime = "unknown"
	GitCommit = "unknown"
)

func main() {
	appLogger := logger.GetDefault()

	// Smart environment loading
	if err := godotenv.Load(); err != nil {
		if os.Getenv("GIN_MODE") == "release" || os.Getenv("DOCKER_CONTAINER") == "true" {
			appLogger.Info("Production environment: using container environment variables")
		} else {
			appLogger.Info("No .env file found, using system environment variables")
		}
	} else {
		appLogger.Info("Development environment: loaded .env file")
	}

	// Load config
	cfg := config.Load()

	// Set Gin mode (debug/release)
	gin.SetMode(cfg.GinMode)

	// Initialize DB (runs migrations and the live-claim constraints)
	db, err := database.InitDB(cfg)
	if err != nil {
		appLogger.Error("failed to connect", slog.Any("error", err))
		os.Exit(1)
	}
	defer db.Close()

	// Cache service over the shared Redis client
	cacheService := cache.NewService(db.GetRedisClient())

	// Initialize Rate Limiter
	var rateLimiter *ratelimit.RateLimiter
	if cfg.RateLimit.Enabled {
		rateLimiterConfig := &ratelimit.Config{
			Enabled:               cfg.RateLimit.Enabled,
			WindowDuration:        cfg.RateLimit.WindowDuration,
			DefaultRequests:       cfg.RateLimit.DefaultRequests,
			PublicRequests:        cfg.RateLimit.PublicRequests,
			AuthRequests:          cfg.RateLimit.AuthRequests,
			ClaimRequests:         cfg.RateLimit.ClaimRequests,
			ClaimCriticalRequests: cfg.RateLimit.ClaimCriticalRequests,
			AdminRequests:         cfg.RateLimit.AdminRequests,
			HostRequests:          cfg.RateLimit.HostRequests,
			HealthRequests:        cfg.RateLimit.HealthRequests,
			WhitelistedIPs:        cfg.RateLimit.WhitelistedIPs,
		}

		rateLimiter = ratelimit.NewRateLimiter(db.GetRedisClient(), rateLimiterConfig)
		appLogger.Info("Rate limiter initialized",
			slog.Bool("enabled", cfg.RateLimit.Enabled),
			slog.Duration("window", cfg.RateLimit.WindowDuration),
			slog.Int("claim_requests", cfg.RateLimit.ClaimRequests),
		)
	} else {
		appLogger.Info("Rate limiting disabled")
	}

	// Transition event publishing: Kafka when enabled, no-op otherwise so the
	// claim engine never blocks on a missing broker
	var notifier notifications.EventNotifier
	if cfg.Kafka.Enabled {
		notifier, err = notifications.NewKafkaEventNotifier(
			notifications.DefaultKafkaProducerConfig(cfg.Kafka.Brokers, cfg.Kafka.Topic))
		if err != nil {
			appLogger.Error("Failed to initialize Kafka notifier, continuing with no-op", slog.Any("error", err))
			notifier = notifications.NewNoopNotifier()
		} else {
			appLogger.Info("Kafka transition notifier initialized",
				slog.Any("brokers", cfg.Kafka.Brokers),
				slog.String("topic", cfg.Kafka.Topic),
			)
		}
	} else {
		notifier = notifications.NewNoopNotifier()
		appLogger.Info("Kafka disabled, transition events are logged only")
	}
	defer func() {
		if err := notifier.Close(); err != nil {
			appLogger.Error("Error closing notifier", slog.Any("error", err))
		}
	}()

	// Setup router with rate limiter
	engine, appRouter := setupRouter(cfg, db, cacheService, notifier, rateLimiter)

	// Start the lease sweeper after all routes are wired
	sweeperCtx, sweeperCancel := context.WithCancel(context.Background())
	defer sweeperCancel()

	sweeper := appRouter.Sweeper()
	sweeper.Start(sweeperCtx)
	defer sweeper.Stop()

	// HTTP server
	srv := &http.Server{
		Addr:           cfg.GetServerAddress(),
		Handler:        engine,
		ReadTimeout:    cfg.ReadTimeout,
		WriteTimeout:   cfg.WriteTimeout,
		IdleTimeout:    cfg.IdleTimeout,
		MaxHeaderBytes: cfg.MaxHeaderBytes,
	}

	// Start server in goroutine
	go func() {
		appLogger.Info("Server running",
			slog.String("address", cfg.GetServerAddress()),
			slog.String("health_check", fmt.Sprintf("http://localhost:%s/health", cfg.Port)),
			slog.String("api_status", fmt.Sprintf("http://localhost:%s%s/status", cfg.Port, cfg.GetAPIBasePath())),
			slog.String("version", Version),
			slog.Bool("rate_limiting", cfg.RateLimit.Enabled),
			slog.Bool("kafka", cfg.Kafka.Enabled),
		)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			appLogger.Error("Server failed", slog.Any("error", err))
		}
	}()

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	appLogger.Info("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		appLogger.Error("Forced shutdown", slog.Any("error", err))
	}

	appLogger.Info("Server exited gracefully")
}

func setupRouter(cfg *config.Config, db *database.DB, cacheService cache.Service, notifier notifications.EventNotifier, rateLimiter *ratelimit.RateLimiter) (*gin.Engine, *routes.Router) {
	engine := gin.New()
	appLogger := logger.GetDefault()

	if err := validation.Register(); err != nil {
		appLogger.Error("Failed to register custom validators", slog.Any("error", err))
	}

	// Built-in middleware: logs requests + recovers from panics
	engine.Use(RequestLoggerMiddleware(appLogger), gin.Recovery())

	// CORS configuration
	engine.Use(cors.New(cors.Config{
		AllowOriginFunc: func(origin string) bool {
			return true
		},
		AllowMethods:     []string{"GET", "POST", "PUT", "PATCH", "DELETE", "HEAD", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Length", "Content-Type", "Authorization", "X-RateLimit-*"},
		ExposeHeaders:    []string{"Content-Length", "X-RateLimit-Limit", "X-RateLimit-Remaining", "X-RateLimit-Reset"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}))

	// Global rate limiting middleware (applied to all routes)
	if rateLimiter != nil {
		engine.Use(ratelimit.Middleware(rateLimiter))
		appLogger.Info("Rate limiting middleware applied to all routes")
	}

	// Initialize and setup routes
	appRouter := routes.NewRouter(cfg, db, cacheService, notifier)
	appRouter.SetupRoutes(engine)

	return engine, appRouter
}

func RequestLoggerMiddleware(l *logger.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		duration := time.Since(start)
		l.LogHTTPRequest(c, duration)
	}
}
