package catalog

import (
	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/yungbote/trailhead-backend/internal/data/repos/paging"
	types "github.com/yungbote/trailhead-backend/internal/domain"
	"github.com/yungbote/trailhead-backend/internal/platform/dbctx"
	"github.com/yungbote/trailhead-backend/internal/platform/logger"
)

type TagRepo interface {
	Create(dbc dbctx.Context, t *types.Tag) (*types.Tag, error)
	GetByID(dbc dbctx.Context, id uuid.UUID) (*types.Tag, error)
	GetByIDs(dbc dbctx.Context, ids []uuid.UUID) ([]*types.Tag, error)
	ListAll(dbc dbctx.Context) ([]*types.Tag, error)
	List(dbc dbctx.Context, q paging.ListQuery) ([]*types.Tag, int64, error)
	UpdateFields(dbc dbctx.Context, id uuid.UUID, updates map[string]interface{}) (*types.Tag, error)
	Delete(dbc dbctx.Context, id uuid.UUID) error
}

type tagRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewTagRepo(db *gorm.DB, baseLog *logger.Logger) TagRepo {
	return &tagRepo{db: db, log: baseLog.With("repo", "TagRepo")}
}

func (r *tagRepo) Create(dbc dbctx.Context, t *types.Tag) (*types.Tag, error) {
	if err := dbc.DB(r.db).Create(t).Error; err != nil {
		return nil, err
	}
	return t, nil
}

func (r *tagRepo) GetByID(dbc dbctx.Context, id uuid.UUID) (*types.Tag, error) {
	var row types.Tag
	if err := dbc.DB(r.db).Where("id = ?", id).First(&row).Error; err != nil {
		return nil, err
	}
	return &row, nil
}

func (r *tagRepo) GetByIDs(dbc dbctx.Context, ids []uuid.UUID) ([]*types.Tag, error) {
	var out []*types.Tag
	if len(ids) == 0 {
		return out, nil
	}
	if err := dbc.DB(r.db).Where("id IN ?", ids).Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

func (r *tagRepo) ListAll(dbc dbctx.Context) ([]*types.Tag, error) {
	var out []*types.Tag
	if err := dbc.DB(r.db).Order("name ASC").Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

func (r *tagRepo) List(dbc dbctx.Context, q paging.ListQuery) ([]*types.Tag, int64, error) {
	q = q.Normalize()
	base := dbc.DB(r.db).Model(&types.Tag{})
	if q.Search != "" {
		where, arg := paging.Contains("name", q.Search)
		base = base.Where(where, arg)
	}
	var out []*types.Tag
	total, err := paging.CountAndFind(dbc.Ctx, base, dbc.Tx != nil, q, "created_at DESC", &out)
	if err != nil {
		return nil, 0, err
	}
	return out, total, nil
}

func (r *tagRepo) UpdateFields(dbc dbctx.Context, id uuid.UUID, updates map[string]interface{}) (*types.Tag, error) {
	if len(updates) > 0 {
		res := dbc.DB(r.db).Model(&types.Tag{}).Where("id = ?", id).Updates(updates)
		if res.Error != nil {
			return nil, res.Error
		}
		if res.RowsAffected == 0 {
			return nil, gorm.ErrRecordNotFound
		}
	}
	return r.GetByID(dbc, id)
}

// Delete removes only the tag row; callers clear route_tag first.
func (r *tagRepo) Delete(dbc dbctx.Context, id uuid.UUID) error {
	res := dbc.DB(r.db).Where("id = ?", id).Delete(&types.Tag{})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}
