package models

import "time"

// User is either Pending (invited, not yet activated) or Active.
//
// Pending: Activated=false, InviteCode non-empty, PasswordDigest nil.
// Active:  Activated=true, InviteCode empty, PasswordDigest set.
type User struct {
	Base
	Name           string  `gorm:"size:100;not null" json:"name"`
	PhoneNumber    string  `gorm:"size:20;uniqueIndex;not null" json:"phone_number"`
	Email          string  `gorm:"size:100;uniqueIndex;not null" json:"email"`
	AlternateEmail *string `gorm:"size:100" json:"alternate_email,omitempty"`
	ProfilePic     *string `gorm:"size:255" json:"profile_pic,omitempty"`

	Activated      bool      `gorm:"not null;default:false;index" json:"activated"`
	PasswordDigest *string   `gorm:"size:255" json:"-"`
	InviteCode     string    `gorm:"size:10;index;not null" json:"-"`
	InvitedAt      time.Time `gorm:"not null;index" json:"invited_at"`

	// Relationships
	Organizations []Organization `gorm:"foreignKey:UserID;constraint:OnDelete:CASCADE" json:"organizations,omitempty"`
	Sessions      []Session      `gorm:"foreignKey:UserID;constraint:OnDelete:CASCADE" json:"-"`
}

func (User) TableName() string {
	return "users"
}

// IsPending reports whether the user still holds an unredeemed invite.
func (u *User) IsPending() bool {
	return !u.Activated && u.InviteCode != "" && u.PasswordDigest == nil
}

// IsActive reports whether the user has redeemed their invite.
func (u *User) IsActive() bool {
	return u.Activated && u.InviteCode == "" && u.PasswordDigest != nil
}
