//go:build ignore

package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"os"

	"github.com/hugh/go-invite/internal/api/validation"
	"github.com/hugh/go-invite/internal/auth"
	"github.com/hugh/go-invite/internal/database"
	"github.com/hugh/go-invite/pkg/config"
	"github.com/hugh/go-invite/pkg/util"
	"github.com/joho/godotenv"
)

func main() {
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	logger := util.NewLogger(cfg.Server.Env)

	db, err := database.Connect(&cfg.Database, logger)
	if err != nil {
		log.Fatalf("failed to connect to database: %v", err)
	}

	// Run migrations
	if err := database.AutoMigrate(db); err != nil {
		log.Fatalf("failed to run migrations: %v", err)
	}

	policy := auth.ExpiryPolicy{
		InviteLife:  cfg.Lifecycle.InviteLife,
		SessionLife: cfg.Lifecycle.SessionLife,
	}
	invites := auth.NewInviteService(
		database.NewStore(db),
		validation.Validator{},
		auth.NewPasswordHasher(cfg.Password.Pepper),
		policy,
		auth.WithLogger(logger),
	)

	name := os.Getenv("SEED_NAME")
	email := os.Getenv("SEED_EMAIL")
	phone := os.Getenv("SEED_PHONE")

	if name == "" {
		name = "Demo User"
	}
	if email == "" {
		email = "demo@example.com"
	}
	if phone == "" {
		phone = "5550100100"
	}

	orgs, _ := json.Marshal([]map[string]string{{"name": "Demo Org", "role": "Member"}})

	resp, err := invites.Issue(context.Background(), auth.IssueInput{
		Name:          name,
		PhoneNumber:   phone,
		Email:         email,
		Organizations: orgs,
	})
	if err != nil {
		log.Fatalf("failed to issue invite: %v", err)
	}

	fmt.Printf("Invite issued for %s\n", email)
	fmt.Printf("  Code:    %s\n", resp.InviteCode)
	fmt.Printf("  Expires: %s\n", resp.ExpiresAt.Format("2006-01-02 15:04:05 MST"))
}
