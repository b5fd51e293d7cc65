package main

import (
	"flag"
	"log/slog"
	"os"

	"github.com/hugh/go-invite/internal/database"
	"github.com/hugh/go-invite/pkg/config"
	"github.com/hugh/go-invite/pkg/util"
	"github.com/joho/godotenv"
)

func main() {
	reset := flag.Bool("reset", false, "drop and recreate every table (destroys all data)")
	flag.Parse()

	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	logger := util.NewLogger(cfg.Server.Env)

	db, err := database.Connect(&cfg.Database, logger)
	if err != nil {
		logger.Error("failed to connect to database", "error", err)
		os.Exit(1)
	}
	defer database.Close(db)

	if *reset {
		logger.Warn("rebuilding tables", "driver", cfg.Database.Driver, "database", cfg.Database.Name)
		err = database.Rebuild(db)
	} else {
		err = database.AutoMigrate(db)
	}
	if err != nil {
		logger.Error("migration failed", "error", err)
		os.Exit(1)
	}

	logger.Info("migration complete", "reset", *reset)
}
