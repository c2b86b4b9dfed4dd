package user

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

const (
	RoleUser  = "user"
	RoleAdmin = "admin"

	StatusActive   = "active"
	StatusDisabled = "disabled"
)

// Profile is the public face of an account. ID equals the owning UserAccount ID.
type Profile struct {
	ID        uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	Username  string    `gorm:"column:username;not null;index" json:"username"`
	AvatarURL string    `gorm:"column:avatar_url" json:"avatar_url"`
	AvatarKey string    `gorm:"column:avatar_key" json:"-"`
	// AvatarColor is the background of the generated initials avatar, #RRGGBB.
	AvatarColor string `gorm:"column:avatar_color" json:"avatar_color,omitempty"`
	Role        string `gorm:"column:role;not null;index" json:"role"`
	Status      string `gorm:"column:status;not null;index" json:"status"`
	Phone       string `gorm:"column:phone" json:"phone"`

	SecurityQuestion   string `gorm:"column:security_question" json:"security_question,omitempty"`
	SecurityAnswerHash string `gorm:"column:security_answer_hash" json:"-"`

	CreatedAt time.Time `gorm:"not null;autoCreateTime" json:"created_at"`
	UpdatedAt time.Time `gorm:"not null;autoUpdateTime" json:"updated_at"`
}

func (Profile) TableName() string { return "profile" }

func (p *Profile) BeforeCreate(tx *gorm.DB) error {
	if p.Role == "" {
		p.Role = RoleUser
	}
	if p.Status == "" {
		p.Status = StatusActive
	}
	return nil
}

func (p *Profile) IsAdmin() bool { return p != nil && p.Role == RoleAdmin }
