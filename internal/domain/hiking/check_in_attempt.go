package hiking

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

const (
	AttemptInProgress = "in_progress"
	AttemptCompleted  = "completed"
	AttemptFailed     = "failed"
)

// CheckInAttempt makes a client-supplied idempotency key durable. A completed attempt
// stores the serialized result so a retry can replay it.
type CheckInAttempt struct {
	ID             uuid.UUID      `gorm:"type:uuid;primaryKey" json:"id"`
	UserID         uuid.UUID      `gorm:"type:uuid;not null;uniqueIndex:idx_check_in_attempt_user_key,priority:1" json:"user_id"`
	IdempotencyKey string         `gorm:"column:idempotency_key;not null;uniqueIndex:idx_check_in_attempt_user_key,priority:2" json:"idempotency_key"`
	RequestHash    string         `gorm:"column:request_hash;not null" json:"request_hash"`
	Status         string         `gorm:"column:status;not null;index" json:"status"`
	ItineraryID    *uuid.UUID     `gorm:"type:uuid" json:"itinerary_id,omitempty"`
	RecordID       *uuid.UUID     `gorm:"type:uuid" json:"record_id,omitempty"`
	Result         datatypes.JSON `gorm:"column:result" json:"result,omitempty"`
	CreatedAt      time.Time      `gorm:"not null;autoCreateTime" json:"created_at"`
	UpdatedAt      time.Time      `gorm:"not null;autoUpdateTime" json:"updated_at"`
}

func (CheckInAttempt) TableName() string { return "check_in_attempt" }

func (a *CheckInAttempt) BeforeCreate(tx *gorm.DB) error {
	if a.ID == uuid.Nil {
		a.ID = uuid.New()
	}
	return nil
}
