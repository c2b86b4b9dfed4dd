package hiking

import (
	"github.com/google/uuid"
	"gorm.io/gorm"

	types "github.com/yungbote/trailhead-backend/internal/domain"
	"github.com/yungbote/trailhead-backend/internal/platform/dbctx"
	"github.com/yungbote/trailhead-backend/internal/platform/logger"
)

// RecordStats aggregates a user's completed hikes.
type RecordStats struct {
	Completed      int64   `json:"completed_hikes"`
	TotalDistance  float64 `json:"total_distance_km"`
	DistinctRoutes int64   `json:"distinct_routes"`
}

type HikingRecordRepo interface {
	Create(dbc dbctx.Context, rec *types.HikingRecord) (*types.HikingRecord, error)
	GetByID(dbc dbctx.Context, id uuid.UUID) (*types.HikingRecord, error)
	ListByUser(dbc dbctx.Context, userID uuid.UUID) ([]*types.HikingRecord, error)
	CountByItinerary(dbc dbctx.Context, itineraryID uuid.UUID) (int64, error)
	Delete(dbc dbctx.Context, id uuid.UUID) error
	StatsByUser(dbc dbctx.Context, userID uuid.UUID) (RecordStats, error)
}

type hikingRecordRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewHikingRecordRepo(db *gorm.DB, baseLog *logger.Logger) HikingRecordRepo {
	return &hikingRecordRepo{db: db, log: baseLog.With("repo", "HikingRecordRepo")}
}

func (r *hikingRecordRepo) Create(dbc dbctx.Context, rec *types.HikingRecord) (*types.HikingRecord, error) {
	if err := dbc.DB(r.db).Omit("Itinerary", "Media").Create(rec).Error; err != nil {
		return nil, err
	}
	return rec, nil
}

// GetByID preloads media in upload order and the itinerary even when it was soft deleted.
func (r *hikingRecordRepo) GetByID(dbc dbctx.Context, id uuid.UUID) (*types.HikingRecord, error) {
	var row types.HikingRecord
	err := dbc.DB(r.db).
		Preload("Media", func(db *gorm.DB) *gorm.DB { return db.Order("created_at ASC, id ASC") }).
		Preload("Itinerary", func(db *gorm.DB) *gorm.DB { return db.Unscoped() }).
		Preload("Itinerary.Route").
		Where("id = ?", id).
		First(&row).Error
	if err != nil {
		return nil, err
	}
	return &row, nil
}

func (r *hikingRecordRepo) ListByUser(dbc dbctx.Context, userID uuid.UUID) ([]*types.HikingRecord, error) {
	var out []*types.HikingRecord
	err := dbc.DB(r.db).
		Preload("Media", func(db *gorm.DB) *gorm.DB { return db.Order("created_at ASC, id ASC") }).
		Preload("Itinerary", func(db *gorm.DB) *gorm.DB { return db.Unscoped() }).
		Preload("Itinerary.Route").
		Where("user_id = ?", userID).
		Order("completed_at DESC, created_at DESC").
		Find(&out).Error
	if err != nil {
		return nil, err
	}
	return out, nil
}

func (r *hikingRecordRepo) CountByItinerary(dbc dbctx.Context, itineraryID uuid.UUID) (int64, error) {
	var n int64
	err := dbc.DB(r.db).Model(&types.HikingRecord{}).Where("itinerary_id = ?", itineraryID).Count(&n).Error
	return n, err
}

func (r *hikingRecordRepo) Delete(dbc dbctx.Context, id uuid.UUID) error {
	res := dbc.DB(r.db).Where("id = ?", id).Delete(&types.HikingRecord{})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

func (r *hikingRecordRepo) StatsByUser(dbc dbctx.Context, userID uuid.UUID) (RecordStats, error) {
	var out RecordStats
	err := dbc.DB(r.db).
		Model(&types.HikingRecord{}).
		Select("COUNT(*) AS completed, COALESCE(SUM(distance), 0) AS total_distance, COUNT(DISTINCT route_id) AS distinct_routes").
		Where("user_id = ?", userID).
		Scan(&out).Error
	return out, err
}
