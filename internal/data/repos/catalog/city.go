package catalog

import (
	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/yungbote/trailhead-backend/internal/data/repos/paging"
	types "github.com/yungbote/trailhead-backend/internal/domain"
	"github.com/yungbote/trailhead-backend/internal/platform/dbctx"
	"github.com/yungbote/trailhead-backend/internal/platform/logger"
)

type CityRepo interface {
	Create(dbc dbctx.Context, c *types.City) (*types.City, error)
	GetByID(dbc dbctx.Context, id uuid.UUID) (*types.City, error)
	ListAll(dbc dbctx.Context) ([]*types.City, error)
	List(dbc dbctx.Context, q paging.ListQuery) ([]*types.City, int64, error)
	UpdateFields(dbc dbctx.Context, id uuid.UUID, updates map[string]interface{}) (*types.City, error)
	Delete(dbc dbctx.Context, id uuid.UUID) error
}

type cityRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewCityRepo(db *gorm.DB, baseLog *logger.Logger) CityRepo {
	return &cityRepo{db: db, log: baseLog.With("repo", "CityRepo")}
}

func (r *cityRepo) Create(dbc dbctx.Context, c *types.City) (*types.City, error) {
	if err := dbc.DB(r.db).Create(c).Error; err != nil {
		return nil, err
	}
	return c, nil
}

func (r *cityRepo) GetByID(dbc dbctx.Context, id uuid.UUID) (*types.City, error) {
	var row types.City
	if err := dbc.DB(r.db).Where("id = ?", id).First(&row).Error; err != nil {
		return nil, err
	}
	return &row, nil
}

func (r *cityRepo) ListAll(dbc dbctx.Context) ([]*types.City, error) {
	var out []*types.City
	if err := dbc.DB(r.db).Order("name ASC").Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

func (r *cityRepo) List(dbc dbctx.Context, q paging.ListQuery) ([]*types.City, int64, error) {
	q = q.Normalize()
	base := dbc.DB(r.db).Model(&types.City{})
	if q.Search != "" {
		where, arg := paging.Contains("name", q.Search)
		base = base.Where(where, arg)
	}
	if v := q.Filter("district"); v != "" {
		where, arg := paging.Contains("district", v)
		base = base.Where(where, arg)
	}
	var out []*types.City
	total, err := paging.CountAndFind(dbc.Ctx, base, dbc.Tx != nil, q, "created_at DESC", &out)
	if err != nil {
		return nil, 0, err
	}
	return out, total, nil
}

func (r *cityRepo) UpdateFields(dbc dbctx.Context, id uuid.UUID, updates map[string]interface{}) (*types.City, error) {
	if len(updates) > 0 {
		res := dbc.DB(r.db).Model(&types.City{}).Where("id = ?", id).Updates(updates)
		if res.Error != nil {
			return nil, res.Error
		}
		if res.RowsAffected == 0 {
			return nil, gorm.ErrRecordNotFound
		}
	}
	return r.GetByID(dbc, id)
}

func (r *cityRepo) Delete(dbc dbctx.Context, id uuid.UUID) error {
	res := dbc.DB(r.db).Where("id = ?", id).Delete(&types.City{})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}
