package catalog

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

const (
	RouteStatusActive  = "active"
	RouteStatusOffline = "offline"

	MinDifficulty = 1
	MaxDifficulty = 5
)

type City struct {
	ID          uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	Name        string    `gorm:"column:name;not null;index" json:"name"`
	District    string    `gorm:"column:district;index" json:"district"`
	Description string    `gorm:"column:description" json:"description"`
	ImageURL    string    `gorm:"column:image_url" json:"image_url"`
	CreatedAt   time.Time `gorm:"not null;autoCreateTime;index" json:"created_at"`
	UpdatedAt   time.Time `gorm:"not null;autoUpdateTime" json:"updated_at"`
}

func (City) TableName() string { return "city" }

func (c *City) BeforeCreate(tx *gorm.DB) error {
	if c.ID == uuid.Nil {
		c.ID = uuid.New()
	}
	return nil
}

type Route struct {
	ID            uuid.UUID      `gorm:"type:uuid;primaryKey" json:"id"`
	CityID        uuid.UUID      `gorm:"type:uuid;not null;index" json:"city_id"`
	City          *City          `gorm:"foreignKey:CityID;references:ID" json:"cities,omitempty"`
	Name          string         `gorm:"column:name;not null;index" json:"name"`
	Difficulty    int            `gorm:"column:difficulty;not null;index" json:"difficulty"`
	DurationHours float64        `gorm:"column:duration_hours" json:"duration_hours"`
	DistanceKM    float64        `gorm:"column:distance_km" json:"distance_km"`
	CoverImageURL string         `gorm:"column:cover_image_url" json:"cover_image_url"`
	Status        string         `gorm:"column:status;not null;index" json:"status"`
	StartPoint    string         `gorm:"column:start_point" json:"start_point"`
	EndPoint      string         `gorm:"column:end_point" json:"end_point"`
	Waypoints     datatypes.JSON `gorm:"column:waypoints" json:"waypoints"`
	Images        datatypes.JSON `gorm:"column:images" json:"images"`
	Description   string         `gorm:"column:description" json:"description"`
	Tags          []Tag          `gorm:"many2many:route_tag;joinForeignKey:RouteID;joinReferences:TagID" json:"tags,omitempty"`
	Sections      []RouteSection `gorm:"foreignKey:RouteID" json:"sections,omitempty"`
	CreatedAt     time.Time      `gorm:"not null;autoCreateTime" json:"created_at"`
	UpdatedAt     time.Time      `gorm:"not null;autoUpdateTime;index" json:"updated_at"`
}

func (Route) TableName() string { return "route" }

func (r *Route) BeforeCreate(tx *gorm.DB) error {
	if r.ID == uuid.Nil {
		r.ID = uuid.New()
	}
	r.Difficulty = ClampDifficulty(r.Difficulty)
	if r.Status == "" {
		r.Status = RouteStatusActive
	}
	return nil
}

// ClampDifficulty forces d into [MinDifficulty, MaxDifficulty].
func ClampDifficulty(d int) int {
	if d < MinDifficulty {
		return MinDifficulty
	}
	if d > MaxDifficulty {
		return MaxDifficulty
	}
	return d
}

type Tag struct {
	ID        uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	Name      string    `gorm:"column:name;not null;uniqueIndex" json:"name"`
	CreatedAt time.Time `gorm:"not null;autoCreateTime;index" json:"created_at"`
	UpdatedAt time.Time `gorm:"not null;autoUpdateTime" json:"updated_at"`
}

func (Tag) TableName() string { return "tag" }

func (t *Tag) BeforeCreate(tx *gorm.DB) error {
	if t.ID == uuid.Nil {
		t.ID = uuid.New()
	}
	return nil
}

type RouteTag struct {
	RouteID uuid.UUID `gorm:"type:uuid;primaryKey" json:"route_id"`
	TagID   uuid.UUID `gorm:"type:uuid;primaryKey;index" json:"tag_id"`
}

func (RouteTag) TableName() string { return "route_tag" }

type RouteSection struct {
	ID        uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	RouteID   uuid.UUID `gorm:"type:uuid;not null;index" json:"route_id"`
	SortOrder int       `gorm:"column:sort_order;not null" json:"sort_order"`
	Title     string    `gorm:"column:title" json:"title"`
	Content   string    `gorm:"column:content" json:"content"`
	ImageURL  string    `gorm:"column:image_url" json:"image_url"`
}

func (RouteSection) TableName() string { return "route_section" }

func (s *RouteSection) BeforeCreate(tx *gorm.DB) error {
	if s.ID == uuid.Nil {
		s.ID = uuid.New()
	}
	return nil
}
