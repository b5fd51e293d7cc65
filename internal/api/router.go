package api

import (
	"log/slog"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/hugh/go-invite/internal/api/handlers"
	"github.com/hugh/go-invite/internal/api/middleware"
	"github.com/hugh/go-invite/internal/auth"
	"github.com/hugh/go-invite/internal/tasks"
	"github.com/redis/go-redis/v9"
)

type Router struct {
	chi.Router
}

type RouterConfig struct {
	DB             handlers.Pinger
	Redis          *redis.Client
	Logger         *slog.Logger
	JWTService     auth.TokenService
	Invites        *auth.InviteService
	Sessions       *auth.SessionService
	Profiles       *auth.ProfileService
	Sweeper        tasks.Sweeper
	Queue          handlers.Enqueuer // nil runs admin sweeps in-process
	SessionLife    time.Duration
	SecureCookies  bool
	AllowedOrigins []string // CORS allowed origins
	RateLimitReqs  int      // Rate limit requests per window
	RateLimitSecs  int      // Rate limit window in seconds
	LoginPerMinute int      // Stricter limit for login and redeem
}

func NewRouter(cfg RouterConfig) *Router {
	r := chi.NewRouter()

	// Global middleware
	r.Use(chimw.RequestID)
	r.Use(middleware.Recovery(cfg.Logger))
	r.Use(middleware.Logging(cfg.Logger))

	// Rate limiting - applied globally to prevent abuse
	if cfg.RateLimitReqs > 0 {
		r.Use(middleware.RateLimit(cfg.RateLimitReqs, cfg.RateLimitSecs))
	}

	// CORS - restrict to configured origins, or allow local development
	allowedOrigins := cfg.AllowedOrigins
	if len(allowedOrigins) == 0 {
		allowedOrigins = []string{"http://localhost:3000", "http://localhost:8080"}
	}
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   allowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "PATCH", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-Auth-Token", middleware.CSRFHeaderName},
		ExposedHeaders:   []string{"X-RateLimit-Limit", "X-RateLimit-Remaining", "Retry-After"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	// Initialize handlers
	healthHandler := handlers.NewHealthHandler(cfg.DB, cfg.Redis)
	inviteHandler := handlers.NewInviteHandler(cfg.Invites)
	authHandler := handlers.NewAuthHandler(cfg.Sessions, cfg.SessionLife, cfg.SecureCookies)
	profileHandler := handlers.NewProfileHandler(cfg.Profiles)
	adminHandler := handlers.NewAdminHandler(cfg.Queue, cfg.Sweeper)

	// Health endpoints (no auth required)
	r.Get("/health", healthHandler.Health)
	r.Get("/ready", healthHandler.Ready)

	r.Route("/api/v1", func(r chi.Router) {
		// Credential guessing endpoints get their own budget
		r.Group(func(r chi.Router) {
			if cfg.LoginPerMinute > 0 {
				r.Use(middleware.RateLimit(cfg.LoginPerMinute, 60))
			}
			r.Post("/auth/login", authHandler.Login)
			r.Post("/invites/redeem", inviteHandler.Redeem)
		})

		// Session token routes
		r.Group(func(r chi.Router) {
			r.Use(middleware.CSRF())
			r.Post("/auth/logout", authHandler.Logout)
			r.Get("/me", profileHandler.Get)
			r.Patch("/me", profileHandler.Update)
		})

		// Administrator routes
		r.Group(func(r chi.Router) {
			r.Use(middleware.Auth(cfg.JWTService))
			r.Use(middleware.RequireRole(auth.RoleAdmin))
			r.Post("/invites", inviteHandler.Issue)
			r.Post("/admin/sweep", adminHandler.Sweep)
		})
	})

	return &Router{r}
}
