package jobs

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	types "github.com/yungbote/trailhead-backend/internal/domain"
	"github.com/yungbote/trailhead-backend/internal/platform/dbctx"
	"github.com/yungbote/trailhead-backend/internal/platform/logger"
)

type SagaRunRepo interface {
	Create(dbc dbctx.Context, rows []*types.SagaRun) ([]*types.SagaRun, error)

	GetByID(dbc dbctx.Context, id uuid.UUID) (*types.SagaRun, error)
	GetByRootKey(dbc dbctx.Context, rootKey string) (*types.SagaRun, error)

	LockByID(dbc dbctx.Context, id uuid.UUID) (*types.SagaRun, error)

	UpdateFields(dbc dbctx.Context, id uuid.UUID, updates map[string]interface{}) error

	ListByStatusBefore(dbc dbctx.Context, statuses []string, before time.Time, limit int) ([]*types.SagaRun, error)
}

type sagaRunRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewSagaRunRepo(db *gorm.DB, baseLog *logger.Logger) SagaRunRepo {
	return &sagaRunRepo{db: db, log: baseLog.With("repo", "SagaRunRepo")}
}

func (r *sagaRunRepo) Create(dbc dbctx.Context, rows []*types.SagaRun) ([]*types.SagaRun, error) {
	if len(rows) == 0 {
		return []*types.SagaRun{}, nil
	}
	if err := dbc.DB(r.db).Create(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}

func (r *sagaRunRepo) GetByID(dbc dbctx.Context, id uuid.UUID) (*types.SagaRun, error) {
	if id == uuid.Nil {
		return nil, nil
	}
	var row types.SagaRun
	if err := dbc.DB(r.db).Where("id = ?", id).Limit(1).Find(&row).Error; err != nil {
		return nil, err
	}
	if row.ID == uuid.Nil {
		return nil, nil
	}
	return &row, nil
}

func (r *sagaRunRepo) GetByRootKey(dbc dbctx.Context, rootKey string) (*types.SagaRun, error) {
	if rootKey == "" {
		return nil, nil
	}
	var row types.SagaRun
	if err := dbc.DB(r.db).Where("root_key = ?", rootKey).Limit(1).Find(&row).Error; err != nil {
		return nil, err
	}
	if row.ID == uuid.Nil {
		return nil, nil
	}
	return &row, nil
}

func (r *sagaRunRepo) LockByID(dbc dbctx.Context, id uuid.UUID) (*types.SagaRun, error) {
	if id == uuid.Nil {
		return nil, nil
	}
	var row types.SagaRun
	err := dbc.DB(r.db).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("id = ?", id).
		Limit(1).
		Find(&row).Error
	if err != nil {
		return nil, err
	}
	if row.ID == uuid.Nil {
		return nil, nil
	}
	return &row, nil
}

func (r *sagaRunRepo) UpdateFields(dbc dbctx.Context, id uuid.UUID, updates map[string]interface{}) error {
	if id == uuid.Nil {
		return nil
	}
	if updates == nil {
		updates = map[string]interface{}{}
	}
	if _, ok := updates["updated_at"]; !ok {
		updates["updated_at"] = time.Now().UTC()
	}
	return dbc.DB(r.db).
		Model(&types.SagaRun{}).
		Where("id = ?", id).
		Updates(updates).Error
}

func (r *sagaRunRepo) ListByStatusBefore(dbc dbctx.Context, statuses []string, before time.Time, limit int) ([]*types.SagaRun, error) {
	var out []*types.SagaRun
	if len(statuses) == 0 {
		return out, nil
	}
	q := dbc.DB(r.db).Where("status IN ? AND updated_at < ?", statuses, before).Order("updated_at ASC")
	if limit > 0 {
		q = q.Limit(limit)
	}
	if err := q.Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}
