package auth

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/hugh/go-invite/internal/database"
	"github.com/hugh/go-invite/internal/database/models"
)

// ProfileService edits the profile and organizations of an authenticated user.
type ProfileService struct {
	store     Store
	sessions  Authenticator
	validator Validator
	opts      options
}

func NewProfileService(store Store, sessions Authenticator, validator Validator, opts ...Option) *ProfileService {
	return &ProfileService{
		store:     store,
		sessions:  sessions,
		validator: validator,
		opts:      buildOptions(opts),
	}
}

// EditInput carries the fields to overwrite. Nil fields are left untouched;
// Organizations, when present, replaces every existing organization.
type EditInput struct {
	Name           *string
	Email          *string
	PhoneNumber    *string
	AlternateEmail *string
	ProfilePic     *string
	Organizations  json.RawMessage
}

// columns validates the provided fields and maps them to user columns.
func (in EditInput) columns(v Validator) (map[string]interface{}, error) {
	cols := make(map[string]interface{})
	invalid := make(map[string]string)

	if in.Name != nil {
		name := v.SanitizeName(*in.Name)
		if name == "" {
			return nil, missingField("name")
		}
		cols["name"] = name
	}
	if in.Email != nil {
		email := strings.TrimSpace(*in.Email)
		if !v.IsValidEmail(email) {
			invalid["email"] = "Invalid email address"
		}
		cols["email"] = email
	}
	if in.PhoneNumber != nil {
		phone := strings.TrimSpace(*in.PhoneNumber)
		if !v.IsValidPhoneNumber(phone) {
			invalid["phone_number"] = "Invalid phone number"
		}
		cols["phone_number"] = phone
	}
	if in.AlternateEmail != nil {
		alt := nonEmpty(in.AlternateEmail)
		if alt != nil && !v.IsValidEmail(*alt) {
			invalid["alternate_email"] = "Invalid email address"
		}
		cols["alternate_email"] = alt
	}
	if in.ProfilePic != nil {
		pic := nonEmpty(in.ProfilePic)
		if pic != nil && !v.IsValidURL(*pic) {
			invalid["profile_pic"] = "Invalid URL"
		}
		cols["profile_pic"] = pic
	}

	if len(invalid) > 0 {
		return nil, &ValidationError{Fields: invalid}
	}
	return cols, nil
}

// Edit authenticates token and applies in to the owning user in one atomic
// store call. Malformed input is rejected before anything is written.
func (s *ProfileService) Edit(ctx context.Context, token string, in EditInput) error {
	session, err := s.sessions.Authenticate(ctx, token)
	if err != nil {
		return err
	}

	decoded, err := DecodeOrganizations(in.Organizations)
	if err != nil {
		return err
	}

	cols, err := in.columns(s.validator)
	if err != nil {
		return err
	}

	var orgs *[]models.Organization
	if decoded != nil {
		rows, err := organizationModels(*decoded)
		if err != nil {
			return err
		}
		orgs = &rows
	}

	if len(cols) == 0 && orgs == nil {
		return nil
	}

	if err := s.store.UpdateProfile(ctx, session.UserID, cols, orgs); err != nil {
		return constraintViolation(err)
	}

	replaced := -1
	if orgs != nil {
		replaced = len(*orgs)
	}
	s.opts.logger.Info("profile updated",
		"user_id", session.UserID,
		"fields", len(cols),
		"organizations", replaced,
	)
	return nil
}

// Profile returns the authenticated user with their organizations.
func (s *ProfileService) Profile(ctx context.Context, token string) (*models.User, error) {
	session, err := s.sessions.Authenticate(ctx, token)
	if err != nil {
		return nil, err
	}

	user, err := s.store.GetUser(ctx, session.UserID)
	if err != nil {
		if errors.Is(err, database.ErrNotFound) {
			return nil, ErrInvalidToken
		}
		return nil, fmt.Errorf("loading profile: %w", err)
	}
	return user, nil
}
