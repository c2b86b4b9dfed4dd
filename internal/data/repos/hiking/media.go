package hiking

import (
	"github.com/google/uuid"
	"gorm.io/gorm"

	types "github.com/yungbote/trailhead-backend/internal/domain"
	"github.com/yungbote/trailhead-backend/internal/platform/dbctx"
	"github.com/yungbote/trailhead-backend/internal/platform/logger"
)

type MediaRepo interface {
	Create(dbc dbctx.Context, m *types.Media) (*types.Media, error)
	ListByRecord(dbc dbctx.Context, recordID uuid.UUID) ([]*types.Media, error)
	DeleteByRecord(dbc dbctx.Context, recordID uuid.UUID) (int64, error)
}

type mediaRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewMediaRepo(db *gorm.DB, baseLog *logger.Logger) MediaRepo {
	return &mediaRepo{db: db, log: baseLog.With("repo", "MediaRepo")}
}

func (r *mediaRepo) Create(dbc dbctx.Context, m *types.Media) (*types.Media, error) {
	if err := dbc.DB(r.db).Create(m).Error; err != nil {
		return nil, err
	}
	return m, nil
}

func (r *mediaRepo) ListByRecord(dbc dbctx.Context, recordID uuid.UUID) ([]*types.Media, error) {
	var out []*types.Media
	if err := dbc.DB(r.db).Where("record_id = ?", recordID).Order("created_at ASC, id ASC").Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

func (r *mediaRepo) DeleteByRecord(dbc dbctx.Context, recordID uuid.UUID) (int64, error) {
	res := dbc.DB(r.db).Where("record_id = ?", recordID).Delete(&types.Media{})
	return res.RowsAffected, res.Error
}
