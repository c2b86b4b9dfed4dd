package hiking

import (
	"errors"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	types "github.com/yungbote/trailhead-backend/internal/domain"
	"github.com/yungbote/trailhead-backend/internal/platform/dbctx"
	"github.com/yungbote/trailhead-backend/internal/platform/logger"
)

type ItineraryRepo interface {
	Create(dbc dbctx.Context, it *types.Itinerary) (*types.Itinerary, error)
	// GetByID excludes soft-deleted rows.
	GetByID(dbc dbctx.Context, id uuid.UUID) (*types.Itinerary, error)
	GetByIDUnscoped(dbc dbctx.Context, id uuid.UUID) (*types.Itinerary, error)
	// LockByID is GetByID with a row lock when the dialect has one.
	LockByID(dbc dbctx.Context, id uuid.UUID) (*types.Itinerary, error)
	// ListByUser returns the user's visible itineraries in insertion order, route joined.
	ListByUser(dbc dbctx.Context, userID uuid.UUID) ([]*types.Itinerary, error)
	// FindPendingForRoute returns the oldest visible Pending itinerary, or nil.
	FindPendingForRoute(dbc dbctx.Context, userID, routeID uuid.UUID) (*types.Itinerary, error)
	// UpdateStatus moves id from one status to another; gorm.ErrRecordNotFound when no
	// visible row is in the from status.
	UpdateStatus(dbc dbctx.Context, id uuid.UUID, from, to string) error
	SoftDelete(dbc dbctx.Context, id uuid.UUID) error
	SoftDeleteByUser(dbc dbctx.Context, userID uuid.UUID) (int64, error)
	HardDelete(dbc dbctx.Context, id uuid.UUID) error
	CountPendingByUser(dbc dbctx.Context, userID uuid.UUID) (int64, error)
}

type itineraryRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewItineraryRepo(db *gorm.DB, baseLog *logger.Logger) ItineraryRepo {
	return &itineraryRepo{db: db, log: baseLog.With("repo", "ItineraryRepo")}
}

func (r *itineraryRepo) Create(dbc dbctx.Context, it *types.Itinerary) (*types.Itinerary, error) {
	if err := dbc.DB(r.db).Omit("Route").Create(it).Error; err != nil {
		return nil, err
	}
	return it, nil
}

func (r *itineraryRepo) GetByID(dbc dbctx.Context, id uuid.UUID) (*types.Itinerary, error) {
	var row types.Itinerary
	if err := dbc.DB(r.db).Preload("Route").Where("id = ?", id).First(&row).Error; err != nil {
		return nil, err
	}
	return &row, nil
}

func (r *itineraryRepo) GetByIDUnscoped(dbc dbctx.Context, id uuid.UUID) (*types.Itinerary, error) {
	var row types.Itinerary
	if err := dbc.DB(r.db).Unscoped().Where("id = ?", id).First(&row).Error; err != nil {
		return nil, err
	}
	return &row, nil
}

func (r *itineraryRepo) LockByID(dbc dbctx.Context, id uuid.UUID) (*types.Itinerary, error) {
	var row types.Itinerary
	err := dbc.DB(r.db).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("id = ?", id).
		First(&row).Error
	if err != nil {
		return nil, err
	}
	return &row, nil
}

func (r *itineraryRepo) ListByUser(dbc dbctx.Context, userID uuid.UUID) ([]*types.Itinerary, error) {
	var out []*types.Itinerary
	err := dbc.DB(r.db).
		Preload("Route").
		Where("user_id = ? AND deleted_at IS NULL", userID).
		Order("created_at ASC, id ASC").
		Find(&out).Error
	if err != nil {
		return nil, err
	}
	return out, nil
}

func (r *itineraryRepo) FindPendingForRoute(dbc dbctx.Context, userID, routeID uuid.UUID) (*types.Itinerary, error) {
	var row types.Itinerary
	err := dbc.DB(r.db).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("user_id = ? AND route_id = ? AND status = ?", userID, routeID, types.ItineraryPending).
		Order("created_at ASC, id ASC").
		First(&row).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &row, nil
}

func (r *itineraryRepo) UpdateStatus(dbc dbctx.Context, id uuid.UUID, from, to string) error {
	res := dbc.DB(r.db).
		Model(&types.Itinerary{}).
		Where("id = ? AND status = ?", id, from).
		Update("status", to)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

func (r *itineraryRepo) SoftDelete(dbc dbctx.Context, id uuid.UUID) error {
	res := dbc.DB(r.db).Where("id = ?", id).Delete(&types.Itinerary{})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

func (r *itineraryRepo) SoftDeleteByUser(dbc dbctx.Context, userID uuid.UUID) (int64, error) {
	res := dbc.DB(r.db).
		Model(&types.Itinerary{}).
		Where("user_id = ? AND deleted_at IS NULL", userID).
		Update("deleted_at", time.Now().UTC())
	return res.RowsAffected, res.Error
}

func (r *itineraryRepo) HardDelete(dbc dbctx.Context, id uuid.UUID) error {
	res := dbc.DB(r.db).Unscoped().Where("id = ?", id).Delete(&types.Itinerary{})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

func (r *itineraryRepo) CountPendingByUser(dbc dbctx.Context, userID uuid.UUID) (int64, error) {
	var n int64
	err := dbc.DB(r.db).
		Model(&types.Itinerary{}).
		Where("user_id = ? AND status = ?", userID, types.ItineraryPending).
		Count(&n).Error
	return n, err
}
