package hiking

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/yungbote/trailhead-backend/internal/domain/catalog"
)

const (
	ItineraryPending   = "Pending"
	ItineraryCompleted = "Completed"
)

// Itinerary is a planned or completed visit to a route. DeletedAt is the soft-delete
// flag and is independent of Status.
type Itinerary struct {
	ID          uuid.UUID      `gorm:"type:uuid;primaryKey" json:"id"`
	UserID      uuid.UUID      `gorm:"type:uuid;not null;index:idx_itinerary_user_route,priority:1" json:"user_id"`
	RouteID     uuid.UUID      `gorm:"type:uuid;not null;index:idx_itinerary_user_route,priority:2" json:"route_id"`
	Route       *catalog.Route `gorm:"foreignKey:RouteID;references:ID" json:"route,omitempty"`
	PlannedDate time.Time      `gorm:"column:planned_date;type:date;not null" json:"planned_date"`
	Status      string         `gorm:"column:status;not null;index" json:"status"`
	CreatedAt   time.Time      `gorm:"not null;autoCreateTime" json:"created_at"`
	UpdatedAt   time.Time      `gorm:"not null;autoUpdateTime" json:"updated_at"`
	DeletedAt   gorm.DeletedAt `gorm:"index" json:"deleted_at,omitempty"`
}

func (Itinerary) TableName() string { return "itinerary" }

func (i *Itinerary) BeforeCreate(tx *gorm.DB) error {
	if i.ID == uuid.Nil {
		i.ID = uuid.New()
	}
	if i.Status == "" {
		i.Status = ItineraryPending
	}
	return nil
}
