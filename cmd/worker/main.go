package main

import (
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/hibiken/asynq"
	"github.com/hugh/go-invite/internal/auth"
	"github.com/hugh/go-invite/internal/database"
	"github.com/hugh/go-invite/internal/sweeper"
	"github.com/hugh/go-invite/internal/tasks"
	"github.com/hugh/go-invite/pkg/config"
	"github.com/hugh/go-invite/pkg/queue"
	"github.com/hugh/go-invite/pkg/util"
	"github.com/joho/godotenv"
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

	logger.Info("starting go-invite worker")

	if cfg.Lifecycle.SweeperMode != config.SweeperWorker {
		logger.Warn("SWEEPER_MODE is not worker, the server may sweep as well", "mode", cfg.Lifecycle.SweeperMode)
	}

	// Connect to database
	db, err := database.Connect(&cfg.Database, logger)
	if err != nil {
		logger.Error("failed to connect to database", "error", err)
		os.Exit(1)
	}

	policy := auth.ExpiryPolicy{
		InviteLife:  cfg.Lifecycle.InviteLife,
		SessionLife: cfg.Lifecycle.SessionLife,
	}
	sweep := sweeper.New(database.NewStore(db), policy, logger)

	// Create Asynq server
	srv := queue.NewServer(&cfg.Redis, 2)

	// Create task handler
	handler := tasks.NewHandler(sweep, logger)

	// Register handlers
	mux := asynq.NewServeMux()
	handler.RegisterHandlers(mux)

	// Periodic sweep, deduplicated for one interval so a slow cycle never stacks up
	scheduler := queue.NewScheduler(&cfg.Redis)
	task, err := tasks.NewExpirySweepTask("schedule", cfg.Lifecycle.SweepInterval)
	if err != nil {
		logger.Error("failed to build sweep task", "error", err)
		os.Exit(1)
	}
	spec := util.EverySpec(cfg.Lifecycle.SweepInterval)
	entryID, err := scheduler.Register(spec, task)
	if err != nil {
		logger.Error("failed to register sweep schedule", "spec", spec, "error", err)
		os.Exit(1)
	}
	logger.Info("sweep scheduled", "spec", spec, "entry_id", entryID)

	if err := scheduler.Start(); err != nil {
		logger.Error("failed to start scheduler", "error", err)
		os.Exit(1)
	}

	if err := srv.Start(mux); err != nil {
		logger.Error("failed to start worker", "error", err)
		scheduler.Shutdown()
		os.Exit(1)
	}

	logger.Info("worker started, waiting for tasks...")

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("shutting down worker...")
	scheduler.Shutdown()
	srv.Shutdown()

	if err := database.Close(db); err != nil {
		logger.Error("failed to close database", "error", err)
	}

	logger.Info("worker stopped")
}
