package auth

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/hugh/go-invite/internal/database"
	"github.com/hugh/go-invite/internal/database/models"
)

// maxTokenAttempts bounds regeneration when a new token collides with an existing one.
const maxTokenAttempts = 3

// SessionService logs active users in and out and authenticates session tokens.
type SessionService struct {
	store     Store
	hasher    Hasher
	validator Validator
	policy    ExpiryPolicy
	opts      options
}

func NewSessionService(store Store, hasher Hasher, validator Validator, policy ExpiryPolicy, opts ...Option) *SessionService {
	return &SessionService{
		store:     store,
		hasher:    hasher,
		validator: validator,
		policy:    policy,
		opts:      buildOptions(opts),
	}
}

type LoginInput struct {
	Email    string
	Password string
}

type SessionResponse struct {
	Token     string    `json:"token"`
	ExpiresAt time.Time `json:"expires_at"`
}

// Login verifies the credentials of an active user and opens a session.
// Unknown email, missing password and wrong password are indistinguishable.
func (s *SessionService) Login(ctx context.Context, in LoginInput) (*SessionResponse, error) {
	email := strings.TrimSpace(in.Email)
	if email == "" || in.Password == "" {
		return nil, ErrInvalidCredentials
	}

	user, err := s.store.FindActiveUserByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, database.ErrNotFound) {
			return nil, ErrInvalidCredentials
		}
		return nil, fmt.Errorf("finding user: %w", err)
	}

	if user.PasswordDigest == nil || !s.hasher.Verify(in.Password, *user.PasswordDigest) {
		return nil, ErrInvalidCredentials
	}

	session, err := s.createSession(ctx, user)
	if err != nil {
		return nil, err
	}

	s.opts.logger.Info("session created", "user_id", user.ID, "session_id", session.ID)

	return &SessionResponse{
		Token:     session.Token,
		ExpiresAt: s.policy.SessionExpiresAt(session),
	}, nil
}

func (s *SessionService) createSession(ctx context.Context, user *models.User) (*models.Session, error) {
	var lastErr error
	for attempt := 0; attempt < maxTokenAttempts; attempt++ {
		token, err := s.opts.generate(TokenLength)
		if err != nil {
			return nil, fmt.Errorf("generating token: %w", err)
		}

		session := &models.Session{
			Base:   models.Base{CreatedAt: s.opts.now()},
			UserID: user.ID,
			Token:  token,
		}
		err = s.store.CreateSession(ctx, session)
		if err == nil {
			session.User = user
			return session, nil
		}
		lastErr = err

		// Only a token collision is worth another attempt.
		if _, findErr := s.store.FindSessionByToken(ctx, token); findErr != nil {
			break
		}
	}
	return nil, constraintViolation(lastErr)
}

// Authenticate resolves token to its session and owning user. A session past
// its lifetime is deleted and ErrTokenExpired is returned.
func (s *SessionService) Authenticate(ctx context.Context, token string) (*models.Session, error) {
	token = strings.TrimSpace(token)
	if !s.validator.IsValidCode(token, TokenLength) {
		return nil, ErrInvalidToken
	}

	session, err := s.store.FindSessionByToken(ctx, token)
	if err != nil {
		if errors.Is(err, database.ErrNotFound) {
			return nil, ErrInvalidToken
		}
		return nil, fmt.Errorf("finding session: %w", err)
	}

	if s.policy.SessionExpired(session, s.opts.now()) {
		if err := s.store.DeleteSession(ctx, session.ID); err != nil && !errors.Is(err, database.ErrNotFound) {
			s.opts.logger.Error("failed to delete expired session", "session_id", session.ID, "error", err)
		} else {
			s.opts.logger.Info("expired session removed", "session_id", session.ID, "user_id", session.UserID)
		}
		return nil, ErrTokenExpired
	}

	return session, nil
}

// Logout ends the session identified by token.
func (s *SessionService) Logout(ctx context.Context, token string) error {
	session, err := s.Authenticate(ctx, token)
	if err != nil {
		return err
	}

	if err := s.store.DeleteSession(ctx, session.ID); err != nil {
		if errors.Is(err, database.ErrNotFound) {
			return ErrInvalidToken
		}
		return fmt.Errorf("deleting session: %w", err)
	}

	s.opts.logger.Info("session ended", "session_id", session.ID, "user_id", session.UserID)
	return nil
}
