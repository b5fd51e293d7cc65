package dto

import (
	"encoding/json"
	"time"

	"github.com/hugh/go-invite/internal/auth"
	"github.com/hugh/go-invite/internal/database/models"
)

// Organizations stays raw so the service can tell omitted, null, empty and
// malformed apart.
type IssueInviteRequest struct {
	Name           string          `json:"name"`
	PhoneNumber    string          `json:"phone_number"`
	Email          string          `json:"email"`
	AlternateEmail *string         `json:"alternate_email,omitempty"`
	ProfilePic     *string         `json:"profile_pic,omitempty"`
	Organizations  json.RawMessage `json:"organizations,omitempty"`
}

func (r IssueInviteRequest) Input() auth.IssueInput {
	return auth.IssueInput{
		Name:           r.Name,
		PhoneNumber:    r.PhoneNumber,
		Email:          r.Email,
		AlternateEmail: r.AlternateEmail,
		ProfilePic:     r.ProfilePic,
		Organizations:  r.Organizations,
	}
}

type RedeemInviteRequest struct {
	InviteCode string `json:"invite_code"`
	Password   string `json:"password"`
}

type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// UpdateProfileRequest leaves absent fields untouched.
type UpdateProfileRequest struct {
	Name           *string         `json:"name,omitempty"`
	Email          *string         `json:"email,omitempty"`
	PhoneNumber    *string         `json:"phone_number,omitempty"`
	AlternateEmail *string         `json:"alternate_email,omitempty"`
	ProfilePic     *string         `json:"profile_pic,omitempty"`
	Organizations  json.RawMessage `json:"organizations,omitempty"`
}

func (r UpdateProfileRequest) Input() auth.EditInput {
	return auth.EditInput{
		Name:           r.Name,
		Email:          r.Email,
		PhoneNumber:    r.PhoneNumber,
		AlternateEmail: r.AlternateEmail,
		ProfilePic:     r.ProfilePic,
		Organizations:  r.Organizations,
	}
}

type OrganizationDTO struct {
	ID        string     `json:"id"`
	Name      string     `json:"name"`
	Role      string     `json:"role"`
	ValidTill *time.Time `json:"valid_till,omitempty"`
}

type UserDTO struct {
	ID             string            `json:"id"`
	Name           string            `json:"name"`
	Email          string            `json:"email"`
	PhoneNumber    string            `json:"phone_number"`
	AlternateEmail *string           `json:"alternate_email,omitempty"`
	ProfilePic     *string           `json:"profile_pic,omitempty"`
	InvitedAt      time.Time         `json:"invited_at"`
	Organizations  []OrganizationDTO `json:"organizations"`
}

func NewUserDTO(u *models.User) UserDTO {
	orgs := make([]OrganizationDTO, 0, len(u.Organizations))
	for _, o := range u.Organizations {
		orgs = append(orgs, OrganizationDTO{
			ID:        o.ID.String(),
			Name:      o.Name,
			Role:      o.Role,
			ValidTill: o.ValidTill,
		})
	}

	return UserDTO{
		ID:             u.ID.String(),
		Name:           u.Name,
		Email:          u.Email,
		PhoneNumber:    u.PhoneNumber,
		AlternateEmail: u.AlternateEmail,
		ProfilePic:     u.ProfilePic,
		InvitedAt:      u.InvitedAt,
		Organizations:  orgs,
	}
}

type SweepQueuedResponse struct {
	TaskID  string `json:"task_id,omitempty"`
	Message string `json:"message"`
}
