package hiking

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

const (
	MediaImage = "Image"
	MediaVideo = "Video"
)

type HikingRecord struct {
	ID          uuid.UUID  `gorm:"type:uuid;primaryKey" json:"id"`
	ItineraryID uuid.UUID  `gorm:"type:uuid;not null;index" json:"itinerary_id"`
	Itinerary   *Itinerary `gorm:"foreignKey:ItineraryID;references:ID" json:"itinerary,omitempty"`
	UserID      uuid.UUID  `gorm:"type:uuid;not null;index" json:"user_id"`
	RouteID     uuid.UUID  `gorm:"type:uuid;not null;index" json:"route_id"`
	CompletedAt time.Time  `gorm:"column:completed_at;not null;index" json:"completed_at"`
	Feelings    string     `gorm:"column:feelings;type:varchar(500)" json:"feelings"`
	Distance    float64    `gorm:"column:distance;type:numeric(5,1);not null" json:"distance"`
	Duration    string     `gorm:"column:duration;not null" json:"duration"`
	Media       []Media    `gorm:"foreignKey:RecordID" json:"media"`
	CreatedAt   time.Time  `gorm:"not null;autoCreateTime" json:"created_at"`
}

func (HikingRecord) TableName() string { return "hiking_record" }

func (r *HikingRecord) BeforeCreate(tx *gorm.DB) error {
	if r.ID == uuid.Nil {
		r.ID = uuid.New()
	}
	return nil
}

type Media struct {
	ID         uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	RecordID   uuid.UUID `gorm:"type:uuid;not null;index" json:"record_id"`
	UserID     uuid.UUID `gorm:"type:uuid;not null;index" json:"user_id"`
	Type       string    `gorm:"column:type;not null" json:"type"`
	URL        string    `gorm:"column:url;not null" json:"url"`
	StorageKey string    `gorm:"column:storage_key;not null" json:"-"`
	CreatedAt  time.Time `gorm:"not null;autoCreateTime" json:"created_at"`
}

func (Media) TableName() string { return "media" }

func (m *Media) BeforeCreate(tx *gorm.DB) error {
	if m.ID == uuid.Nil {
		m.ID = uuid.New()
	}
	return nil
}
