package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/hibiken/asynq"
	"github.com/hugh/go-invite/internal/api"
	"github.com/hugh/go-invite/internal/api/handlers"
	"github.com/hugh/go-invite/internal/api/validation"
	"github.com/hugh/go-invite/internal/auth"
	"github.com/hugh/go-invite/internal/database"
	"github.com/hugh/go-invite/internal/sweeper"
	"github.com/hugh/go-invite/pkg/config"
	"github.com/hugh/go-invite/pkg/queue"
	"github.com/hugh/go-invite/pkg/util"
	"github.com/joho/godotenv"
	"github.com/redis/go-redis/v9"
)

func main() {
	// Load .env file
	_ = godotenv.Load()

	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	// Initialize logger
	logger := util.NewLogger(cfg.Server.Env)
	slog.SetDefault(logger)

	logger.Info("starting go-invite server",
		"env", cfg.Server.Env,
		"addr", cfg.Server.Addr(),
		"sweeper", cfg.Lifecycle.SweeperMode,
	)

	// Connect to database
	db, err := database.Connect(&cfg.Database, logger)
	if err != nil {
		logger.Error("failed to connect to database", "error", err)
		os.Exit(1)
	}

	// Production schemas are managed with cmd/migrate
	if cfg.Server.IsDevelopment() || cfg.Database.Driver == "sqlite" {
		if err := database.AutoMigrate(db); err != nil {
			logger.Error("failed to migrate database", "error", err)
			os.Exit(1)
		}
	}

	store := database.NewStore(db)

	// Redis is only needed when sweeps go through the worker
	var redisClient *redis.Client
	var asynqClient *asynq.Client
	if cfg.Lifecycle.SweeperMode == config.SweeperWorker {
		redisClient = redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr(),
			Password: cfg.Redis.Password,
		})
		if err := redisClient.Ping(context.Background()).Err(); err != nil {
			logger.Warn("failed to connect to Redis, admin sweeps will run in-process", "error", err)
			redisClient.Close()
			redisClient = nil
		} else {
			asynqClient = queue.NewClient(&cfg.Redis)
		}
	}

	// Initialize services
	policy := auth.ExpiryPolicy{
		InviteLife:  cfg.Lifecycle.InviteLife,
		SessionLife: cfg.Lifecycle.SessionLife,
	}
	if cfg.Password.Pepper == "" {
		logger.Warn("PASSWORD_PEPPER not set, password digests are only salted")
	}
	hasher := auth.NewPasswordHasher(cfg.Password.Pepper)
	validator := validation.Validator{}
	jwtService := auth.NewJWTService(cfg.JWT.Secret, cfg.JWT.Expiry())

	invites := auth.NewInviteService(store, validator, hasher, policy, auth.WithLogger(logger))
	sessions := auth.NewSessionService(store, hasher, validator, policy, auth.WithLogger(logger))
	profiles := auth.NewProfileService(store, sessions, validator, auth.WithLogger(logger))

	sweep := sweeper.New(store, policy, logger, sweeper.WithInterval(cfg.Lifecycle.SweepInterval))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if cfg.Lifecycle.SweeperMode == config.SweeperEmbedded {
		if err := sweep.Start(ctx); err != nil {
			logger.Error("failed to start sweeper", "error", err)
			os.Exit(1)
		}
	}

	var enqueuer handlers.Enqueuer
	if asynqClient != nil {
		enqueuer = asynqClient
	}

	// Create router
	router := api.NewRouter(api.RouterConfig{
		DB:             store,
		Redis:          redisClient,
		Logger:         logger,
		JWTService:     jwtService,
		Invites:        invites,
		Sessions:       sessions,
		Profiles:       profiles,
		Sweeper:        sweep,
		Queue:          enqueuer,
		SessionLife:    policy.SessionLife,
		SecureCookies:  !cfg.Server.IsDevelopment(),
		AllowedOrigins: cfg.Server.AllowedOrigins,
		RateLimitReqs:  cfg.RateLimit.Requests,
		RateLimitSecs:  cfg.RateLimit.WindowSeconds,
		LoginPerMinute: cfg.RateLimit.LoginPerMinute,
	})

	// Create HTTP server
	server := &http.Server{
		Addr:         cfg.Server.Addr(),
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Start server in goroutine
	go func() {
		logger.Info("server listening", "addr", cfg.Server.Addr())
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("server error", "error", err)
			os.Exit(1)
		}
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("shutting down server...")

	// Graceful shutdown with timeout
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("server shutdown error", "error", err)
	}

	sweep.Stop(shutdownCtx)
	cancel()

	// Close Asynq client
	if asynqClient != nil {
		asynqClient.Close()
	}

	// Close Redis connection
	if redisClient != nil {
		redisClient.Close()
	}

	if err := database.Close(db); err != nil {
		logger.Error("failed to close database", "error", err)
	}

	logger.Info("server stopped")
}
