package catalog

import (
	"strconv"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/yungbote/trailhead-backend/internal/data/repos/paging"
	types "github.com/yungbote/trailhead-backend/internal/domain"
	"github.com/yungbote/trailhead-backend/internal/platform/dbctx"
	"github.com/yungbote/trailhead-backend/internal/platform/logger"
)

type RouteRepo interface {
	Create(dbc dbctx.Context, r *types.Route) (*types.Route, error)
	GetByID(dbc dbctx.Context, id uuid.UUID) (*types.Route, error)
	// GetDetail preloads city, tags and sections (ordered by sort_order).
	GetDetail(dbc dbctx.Context, id uuid.UUID) (*types.Route, error)
	ListByCity(dbc dbctx.Context, cityID uuid.UUID, activeOnly bool) ([]*types.Route, error)
	List(dbc dbctx.Context, q paging.ListQuery) ([]*types.Route, int64, error)
	UpdateFields(dbc dbctx.Context, id uuid.UUID, updates map[string]interface{}) (*types.Route, error)
	Delete(dbc dbctx.Context, id uuid.UUID) error
}

type routeRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewRouteRepo(db *gorm.DB, baseLog *logger.Logger) RouteRepo {
	return &routeRepo{db: db, log: baseLog.With("repo", "RouteRepo")}
}

func (r *routeRepo) Create(dbc dbctx.Context, row *types.Route) (*types.Route, error) {
	if err := dbc.DB(r.db).Omit("Tags", "Sections", "City").Create(row).Error; err != nil {
		return nil, err
	}
	return row, nil
}

func (r *routeRepo) GetByID(dbc dbctx.Context, id uuid.UUID) (*types.Route, error) {
	var row types.Route
	if err := dbc.DB(r.db).Preload("City").Where("id = ?", id).First(&row).Error; err != nil {
		return nil, err
	}
	return &row, nil
}

func (r *routeRepo) GetDetail(dbc dbctx.Context, id uuid.UUID) (*types.Route, error) {
	var row types.Route
	err := dbc.DB(r.db).
		Preload("City").
		Preload("Tags", func(db *gorm.DB) *gorm.DB { return db.Order("tag.name ASC") }).
		Preload("Sections", func(db *gorm.DB) *gorm.DB { return db.Order("sort_order ASC") }).
		Where("id = ?", id).
		First(&row).Error
	if err != nil {
		return nil, err
	}
	return &row, nil
}

func (r *routeRepo) ListByCity(dbc dbctx.Context, cityID uuid.UUID, activeOnly bool) ([]*types.Route, error) {
	q := dbc.DB(r.db).Preload("Tags").Where("city_id = ?", cityID)
	if activeOnly {
		q = q.Where("status = ?", types.RouteStatusActive)
	}
	var out []*types.Route
	if err := q.Order("difficulty ASC, name ASC").Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

func (r *routeRepo) List(dbc dbctx.Context, q paging.ListQuery) ([]*types.Route, int64, error) {
	q = q.Normalize()
	base := dbc.DB(r.db).Model(&types.Route{})
	if q.Search != "" {
		where, arg := paging.Contains("name", q.Search)
		base = base.Where(where, arg)
	}
	if v := q.Filter("status"); v != "" {
		base = base.Where("status = ?", v)
	}
	if v := q.Filter("difficulty"); v != "" {
		if d, err := strconv.Atoi(v); err == nil {
			base = base.Where("difficulty = ?", d)
		}
	}
	if v := q.Filter("city_id"); v != "" {
		if id, err := uuid.Parse(v); err == nil {
			base = base.Where("city_id = ?", id)
		}
	}
	var out []*types.Route
	total, err := paging.CountAndFind(dbc.Ctx, base, dbc.Tx != nil, q, "updated_at DESC", &out, "City")
	if err != nil {
		return nil, 0, err
	}
	return out, total, nil
}

func (r *routeRepo) UpdateFields(dbc dbctx.Context, id uuid.UUID, updates map[string]interface{}) (*types.Route, error) {
	if d, ok := updates["difficulty"].(int); ok {
		updates["difficulty"] = types.ClampDifficulty(d)
	}
	if len(updates) > 0 {
		res := dbc.DB(r.db).Model(&types.Route{}).Where("id = ?", id).Updates(updates)
		if res.Error != nil {
			return nil, res.Error
		}
		if res.RowsAffected == 0 {
			return nil, gorm.ErrRecordNotFound
		}
	}
	return r.GetByID(dbc, id)
}

func (r *routeRepo) Delete(dbc dbctx.Context, id uuid.UUID) error {
	res := dbc.DB(r.db).Where("id = ?", id).Delete(&types.Route{})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}
