package models

import "github.com/google/uuid"

// Session proves a user logged in. Its lifetime is measured from Base.CreatedAt.
type Session struct {
	Base
	UserID uuid.UUID `gorm:"type:char(36);index;not null" json:"-"`
	Token  string    `gorm:"size:16;uniqueIndex;not null" json:"-"`

	// Relationships
	User *User `gorm:"foreignKey:UserID" json:"-"`
}

func (Session) TableName() string {
	return "sessions"
}
