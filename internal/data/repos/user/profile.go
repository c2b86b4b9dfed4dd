package user

import (
	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/yungbote/trailhead-backend/internal/data/repos/paging"
	types "github.com/yungbote/trailhead-backend/internal/domain"
	"github.com/yungbote/trailhead-backend/internal/platform/dbctx"
	"github.com/yungbote/trailhead-backend/internal/platform/logger"
)

type ProfileRepo interface {
	Upsert(dbc dbctx.Context, p *types.Profile) (*types.Profile, error)
	GetByID(dbc dbctx.Context, id uuid.UUID) (*types.Profile, error)
	GetByIDs(dbc dbctx.Context, ids []uuid.UUID) ([]*types.Profile, error)
	UpdateFields(dbc dbctx.Context, id uuid.UUID, updates map[string]interface{}) (*types.Profile, error)
	List(dbc dbctx.Context, q paging.ListQuery) ([]*types.Profile, int64, error)
	Delete(dbc dbctx.Context, id uuid.UUID) error
}

type profileRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewProfileRepo(db *gorm.DB, baseLog *logger.Logger) ProfileRepo {
	return &profileRepo{db: db, log: baseLog.With("repo", "ProfileRepo")}
}

// Upsert inserts p or, when a profile with the same id exists, overwrites its editable columns.
func (r *profileRepo) Upsert(dbc dbctx.Context, p *types.Profile) (*types.Profile, error) {
	err := dbc.DB(r.db).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "id"}},
		DoUpdates: clause.AssignmentColumns([]string{"username", "role", "status", "phone", "updated_at"}),
	}).Create(p).Error
	if err != nil {
		return nil, err
	}
	return p, nil
}

func (r *profileRepo) GetByID(dbc dbctx.Context, id uuid.UUID) (*types.Profile, error) {
	var row types.Profile
	if err := dbc.DB(r.db).Where("id = ?", id).First(&row).Error; err != nil {
		return nil, err
	}
	return &row, nil
}

func (r *profileRepo) GetByIDs(dbc dbctx.Context, ids []uuid.UUID) ([]*types.Profile, error) {
	var out []*types.Profile
	if len(ids) == 0 {
		return out, nil
	}
	if err := dbc.DB(r.db).Where("id IN ?", ids).Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

// UpdateFields applies a partial update and returns the fresh row.
func (r *profileRepo) UpdateFields(dbc dbctx.Context, id uuid.UUID, updates map[string]interface{}) (*types.Profile, error) {
	if len(updates) > 0 {
		res := dbc.DB(r.db).Model(&types.Profile{}).Where("id = ?", id).Updates(updates)
		if res.Error != nil {
			return nil, res.Error
		}
		if res.RowsAffected == 0 {
			return nil, gorm.ErrRecordNotFound
		}
	}
	return r.GetByID(dbc, id)
}

func (r *profileRepo) List(dbc dbctx.Context, q paging.ListQuery) ([]*types.Profile, int64, error) {
	q = q.Normalize()
	base := dbc.DB(r.db).Model(&types.Profile{})
	if q.Search != "" {
		where, arg := paging.Contains("username", q.Search)
		base = base.Where(where, arg)
	}
	if v := q.Filter("status"); v != "" {
		base = base.Where("status = ?", v)
	}
	if v := q.Filter("role"); v != "" {
		base = base.Where("role = ?", v)
	}
	var out []*types.Profile
	total, err := paging.CountAndFind(dbc.Ctx, base, dbc.Tx != nil, q, "created_at DESC", &out)
	if err != nil {
		return nil, 0, err
	}
	return out, total, nil
}

func (r *profileRepo) Delete(dbc dbctx.Context, id uuid.UUID) error {
	return dbc.DB(r.db).Where("id = ?", id).Delete(&types.Profile{}).Error
}
