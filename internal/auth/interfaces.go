package auth

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/hugh/go-invite/internal/database"
	"github.com/hugh/go-invite/internal/database/models"
)

// Store is the persistence the invite, session and profile services need.
type Store interface {
	CreatePendingUser(ctx context.Context, user *models.User, orgs []models.Organization) error
	FindPendingUserByInviteCode(ctx context.Context, code string) (*models.User, error)
	FindActiveUserByEmail(ctx context.Context, email string) (*models.User, error)
	GetUser(ctx context.Context, id uuid.UUID) (*models.User, error)
	ActivateUser(ctx context.Context, id uuid.UUID, inviteCode, digest string) error
	DeleteUser(ctx context.Context, id uuid.UUID) error
	CreateSession(ctx context.Context, session *models.Session) error
	FindSessionByToken(ctx context.Context, token string) (*models.Session, error)
	DeleteSession(ctx context.Context, id uuid.UUID) error
	UpdateProfile(ctx context.Context, userID uuid.UUID, fields map[string]interface{}, orgs *[]models.Organization) error
}

// Hasher turns passwords into digests and checks them.
type Hasher interface {
	Hash(secret string) (string, error)
	Verify(secret, digest string) bool
}

// Validator checks field formats and cleans free text before it is stored.
type Validator interface {
	IsValidEmail(email string) bool
	IsValidPhoneNumber(phone string) bool
	IsValidURL(s string) bool
	IsValidCode(s string, length int) bool
	SanitizeName(name string) string
}

// Authenticator resolves a session token to a live session.
type Authenticator interface {
	Authenticate(ctx context.Context, token string) (*models.Session, error)
}

// TokenService defines the interface for administrator JWT operations.
type TokenService interface {
	GenerateToken(subject, role string) (string, error)
	ValidateToken(tokenString string) (*Claims, error)
}

// Compile-time interface satisfaction checks
var (
	_ Store         = (*database.Store)(nil)
	_ Hasher        = (*PasswordHasher)(nil)
	_ Authenticator = (*SessionService)(nil)
	_ TokenService  = (*JWTService)(nil)
)

// Option configures the services in this package.
type Option func(*options)

type options struct {
	now      func() time.Time
	generate func(n int) (string, error)
	logger   *slog.Logger
}

func defaultOptions() options {
	return options{
		now:      func() time.Time { return time.Now().UTC() },
		generate: GenerateCode,
		logger:   slog.Default(),
	}
}

func buildOptions(opts []Option) options {
	o := defaultOptions()
	for _, opt := range opts {
		opt(&o)
	}
	return o
}

// WithClock replaces the wall clock used for timestamps and expiry checks.
func WithClock(now func() time.Time) Option {
	return func(o *options) {
		o.now = now
	}
}

// WithLogger sets the logger used for lifecycle events.
func WithLogger(logger *slog.Logger) Option {
	return func(o *options) {
		if logger != nil {
			o.logger = logger
		}
	}
}

// WithCodeGenerator replaces the random invite code and token generator.
func WithCodeGenerator(generate func(n int) (string, error)) Option {
	return func(o *options) {
		o.generate = generate
	}
}
