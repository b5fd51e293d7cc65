package models

import (
	"time"

	"github.com/google/uuid"
)

// Organization is an affiliation owned by exactly one user.
type Organization struct {
	Base
	UserID    uuid.UUID  `gorm:"type:char(36);index;not null" json:"-"`
	Name      string     `gorm:"size:100;not null" json:"name"`
	Role      string     `gorm:"size:100;not null" json:"role"`
	ValidTill *time.Time `json:"valid_till,omitempty"`

	// Relationships
	User *User `gorm:"foreignKey:UserID" json:"-"`
}

func (Organization) TableName() string {
	return "organizations"
}
