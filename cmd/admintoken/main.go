// Command admintoken prints an administrator JWT for the invite endpoints.
package main

import (
	"flag"
	"fmt"
	"log"

	"github.com/hugh/go-invite/internal/auth"
	"github.com/hugh/go-invite/pkg/config"
	"github.com/joho/godotenv"
)

func main() {
	subject := flag.String("subject", "admin", "name recorded as the token subject")
	flag.Parse()

	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	if cfg.JWT.Secret == "change-me-in-production" {
		log.Println("warning: JWT_SECRET is the default value")
	}

	jwtService := auth.NewJWTService(cfg.JWT.Secret, cfg.JWT.Expiry())
	token, err := jwtService.GenerateToken(*subject, auth.RoleAdmin)
	if err != nil {
		log.Fatalf("failed to generate token: %v", err)
	}

	fmt.Println(token)
}
