package hiking

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/yungbote/trailhead-backend/internal/domain/catalog"
)

type Favorite struct {
	ID        uuid.UUID      `gorm:"type:uuid;primaryKey" json:"id"`
	UserID    uuid.UUID      `gorm:"type:uuid;not null;uniqueIndex:idx_favorite_user_route,priority:1" json:"user_id"`
	RouteID   uuid.UUID      `gorm:"type:uuid;not null;uniqueIndex:idx_favorite_user_route,priority:2" json:"route_id"`
	Route     *catalog.Route `gorm:"foreignKey:RouteID;references:ID" json:"route,omitempty"`
	CreatedAt time.Time      `gorm:"not null;autoCreateTime" json:"created_at"`
}

func (Favorite) TableName() string { return "favorite" }

func (f *Favorite) BeforeCreate(tx *gorm.DB) error {
	if f.ID == uuid.Nil {
		f.ID = uuid.New()
	}
	return nil
}
