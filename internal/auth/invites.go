package auth

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/hugh/go-invite/internal/database"
	"github.com/hugh/go-invite/internal/database/models"
)

// maxCodeAttempts bounds regeneration when a new invite code is already pending.
const maxCodeAttempts = 5

// InviteService issues invitations and turns them into active accounts.
type InviteService struct {
	store     Store
	validator Validator
	hasher    Hasher
	policy    ExpiryPolicy
	opts      options
}

func NewInviteService(store Store, validator Validator, hasher Hasher, policy ExpiryPolicy, opts ...Option) *InviteService {
	return &InviteService{
		store:     store,
		validator: validator,
		hasher:    hasher,
		policy:    policy,
		opts:      buildOptions(opts),
	}
}

type IssueInput struct {
	Name           string
	PhoneNumber    string
	Email          string
	AlternateEmail *string
	ProfilePic     *string
	Organizations  json.RawMessage
}

type InviteResponse struct {
	InviteCode string    `json:"invite_code"`
	ExpiresAt  time.Time `json:"expires_at"`
}

type RedeemInput struct {
	InviteCode string
	Password   string
}

func (in IssueInput) validate(v Validator) error {
	fields := make(map[string]string)

	if !v.IsValidPhoneNumber(in.PhoneNumber) {
		fields["phone_number"] = "Invalid phone number"
	}
	if !v.IsValidEmail(in.Email) {
		fields["email"] = "Invalid email address"
	}
	if alt := nonEmpty(in.AlternateEmail); alt != nil && !v.IsValidEmail(*alt) {
		fields["alternate_email"] = "Invalid email address"
	}
	if pic := nonEmpty(in.ProfilePic); pic != nil && !v.IsValidURL(*pic) {
		fields["profile_pic"] = "Invalid URL"
	}

	if len(fields) > 0 {
		return &ValidationError{Fields: fields}
	}
	return nil
}

// Issue creates a pending user, plus its organizations when given, and
// returns the invite code the invitee needs to activate the account.
func (s *InviteService) Issue(ctx context.Context, in IssueInput) (*InviteResponse, error) {
	in.PhoneNumber = strings.TrimSpace(in.PhoneNumber)
	in.Email = strings.TrimSpace(in.Email)

	if err := in.validate(s.validator); err != nil {
		return nil, err
	}

	decoded, err := DecodeOrganizations(in.Organizations)
	if err != nil {
		return nil, err
	}

	name := s.validator.SanitizeName(in.Name)
	if name == "" {
		return nil, missingField("name")
	}

	var orgs []models.Organization
	if decoded != nil {
		if orgs, err = organizationModels(*decoded); err != nil {
			return nil, err
		}
	}

	code, err := s.unusedInviteCode(ctx)
	if err != nil {
		return nil, err
	}

	user := &models.User{
		Name:           name,
		PhoneNumber:    in.PhoneNumber,
		Email:          in.Email,
		AlternateEmail: nonEmpty(in.AlternateEmail),
		ProfilePic:     nonEmpty(in.ProfilePic),
		Activated:      false,
		InviteCode:     code,
		InvitedAt:      s.opts.now(),
	}

	if err := s.store.CreatePendingUser(ctx, user, orgs); err != nil {
		return nil, constraintViolation(err)
	}

	expiresAt := s.policy.InviteExpiresAt(user)
	s.opts.logger.Info("invite issued",
		"user_id", user.ID,
		"organizations", len(orgs),
		"expires_at", expiresAt,
	)

	return &InviteResponse{
		InviteCode: code,
		ExpiresAt:  expiresAt,
	}, nil
}

// Redeem activates the pending user holding the invite code. An expired
// invite is deleted together with the user before ErrInviteExpired is returned.
func (s *InviteService) Redeem(ctx context.Context, in RedeemInput) error {
	code := strings.TrimSpace(in.InviteCode)
	if !s.validator.IsValidCode(code, InviteCodeLength) {
		return ErrInviteNotFound
	}

	user, err := s.store.FindPendingUserByInviteCode(ctx, code)
	if err != nil {
		if errors.Is(err, database.ErrNotFound) {
			return ErrInviteNotFound
		}
		return fmt.Errorf("finding invite: %w", err)
	}

	if in.Password == "" {
		return ErrPasswordRequired
	}

	if s.policy.InviteExpired(user, s.opts.now()) {
		if err := s.store.DeleteUser(ctx, user.ID); err != nil && !errors.Is(err, database.ErrNotFound) {
			s.opts.logger.Error("failed to delete expired invite", "user_id", user.ID, "error", err)
		} else {
			s.opts.logger.Info("expired invite removed", "user_id", user.ID)
		}
		return ErrInviteExpired
	}

	digest, err := s.hasher.Hash(in.Password)
	if err != nil {
		return fmt.Errorf("hashing password: %w", err)
	}

	if err := s.store.ActivateUser(ctx, user.ID, user.InviteCode, digest); err != nil {
		if errors.Is(err, database.ErrNotFound) {
			// redeemed or swept since the lookup
			return ErrInviteNotFound
		}
		return constraintViolation(err)
	}

	s.opts.logger.Info("invite redeemed", "user_id", user.ID)
	return nil
}

// unusedInviteCode generates codes until one is not held by a pending user.
func (s *InviteService) unusedInviteCode(ctx context.Context) (string, error) {
	for attempt := 0; attempt < maxCodeAttempts; attempt++ {
		code, err := s.opts.generate(InviteCodeLength)
		if err != nil {
			return "", fmt.Errorf("generating invite code: %w", err)
		}

		_, err = s.store.FindPendingUserByInviteCode(ctx, code)
		if errors.Is(err, database.ErrNotFound) {
			return code, nil
		}
		if err != nil {
			return "", fmt.Errorf("checking invite code: %w", err)
		}
		s.opts.logger.Debug("invite code collision, regenerating", "attempt", attempt+1)
	}
	return "", &ConstraintError{Detail: "no unused invite code after retries"}
}

func nonEmpty(s *string) *string {
	if s == nil {
		return nil
	}
	v := strings.TrimSpace(*s)
	if v == "" {
		return nil
	}
	return &v
}
