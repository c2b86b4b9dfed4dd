package jobs

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

const (
	SagaRunning      = "running"
	SagaSucceeded    = "succeeded"
	SagaFailed       = "failed"
	SagaCompensating = "compensating"
	SagaCompensated  = "compensated"

	SagaActionPending = "pending"
	SagaActionDone    = "done"
	SagaActionFailed  = "failed"

	SagaActionKindBlobDeleteKey    = "blob_delete_key"
	SagaActionKindBlobDeletePrefix = "blob_delete_prefix"
)

// SagaRun is the ledger header for compensations owed to object storage by one
// database operation (a check-in or a record deletion). RootKey identifies that operation.
type SagaRun struct {
	ID uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`

	OwnerUserID uuid.UUID `gorm:"type:uuid;not null;index" json:"owner_user_id"`
	RootKey     string    `gorm:"column:root_key;not null;uniqueIndex" json:"root_key"`

	// running|succeeded|failed|compensating|compensated
	Status string `gorm:"column:status;not null;index" json:"status"`

	CreatedAt time.Time `gorm:"not null;autoCreateTime;index" json:"created_at"`
	UpdatedAt time.Time `gorm:"not null;autoUpdateTime;index" json:"updated_at"`
}

func (SagaRun) TableName() string { return "saga_run" }

func (s *SagaRun) BeforeCreate(tx *gorm.DB) error {
	if s.ID == uuid.Nil {
		s.ID = uuid.New()
	}
	return nil
}

// SagaAction is one compensation for an external side effect. Actions are appended in
// the same transaction that commits the rows they refer to.
type SagaAction struct {
	ID uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`

	SagaID uuid.UUID `gorm:"type:uuid;not null;index:idx_saga_action_saga_seq,unique,priority:1" json:"saga_id"`
	Seq    int64     `gorm:"column:seq;type:bigint;not null;index:idx_saga_action_saga_seq,unique,priority:2" json:"seq"`

	// blob_delete_key|blob_delete_prefix
	Kind string `gorm:"column:kind;not null;index" json:"kind"`

	Payload datatypes.JSON `gorm:"column:payload" json:"payload"`

	// pending|done|failed
	Status string `gorm:"column:status;not null;index" json:"status"`

	CreatedAt time.Time `gorm:"not null;autoCreateTime;index" json:"created_at"`
	UpdatedAt time.Time `gorm:"not null;autoUpdateTime;index" json:"updated_at"`
}

func (SagaAction) TableName() string { return "saga_action" }

func (a *SagaAction) BeforeCreate(tx *gorm.DB) error {
	if a.ID == uuid.Nil {
		a.ID = uuid.New()
	}
	return nil
}
