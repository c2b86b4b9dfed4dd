package auth

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// UserAccount is the login identity. Password holds a bcrypt hash.
type UserAccount struct {
	ID          uuid.UUID      `gorm:"type:uuid;primaryKey" json:"id"`
	Email       string         `gorm:"uniqueIndex;not null;column:email" json:"email"`
	Password    string         `gorm:"not null;column:password" json:"-"`
	BannedUntil *time.Time     `gorm:"column:banned_until" json:"banned_until,omitempty"`
	CreatedAt   time.Time      `gorm:"not null;autoCreateTime" json:"created_at"`
	UpdatedAt   time.Time      `gorm:"not null;autoUpdateTime" json:"updated_at"`
	DeletedAt   gorm.DeletedAt `gorm:"index" json:"deleted_at,omitempty"`
}

func (UserAccount) TableName() string { return "user_account" }

func (u *UserAccount) BeforeCreate(tx *gorm.DB) error {
	if u.ID == uuid.Nil {
		u.ID = uuid.New()
	}
	return nil
}

// IsBanned reports whether the ban window covers now.
func (u *UserAccount) IsBanned(now time.Time) bool {
	return u != nil && u.BannedUntil != nil && u.BannedUntil.After(now)
}
