package hiking

import (
	"errors"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	types "github.com/yungbote/trailhead-backend/internal/domain"
	"github.com/yungbote/trailhead-backend/internal/platform/dbctx"
	"github.com/yungbote/trailhead-backend/internal/platform/logger"
)

type CheckInAttemptRepo interface {
	// Create returns gorm.ErrDuplicatedKey when (user, key) is taken.
	Create(dbc dbctx.Context, a *types.CheckInAttempt) (*types.CheckInAttempt, error)
	// GetByKey returns nil when no attempt exists.
	GetByKey(dbc dbctx.Context, userID uuid.UUID, key string) (*types.CheckInAttempt, error)
	UpdateFields(dbc dbctx.Context, id uuid.UUID, updates map[string]interface{}) error
	// Reclaim flips a failed attempt back to in_progress under a new request hash. It reports
	// false when another request reclaimed it first.
	Reclaim(dbc dbctx.Context, id uuid.UUID, requestHash string) (bool, error)
	// ReclaimStale takes over an in_progress attempt last touched before staleBefore,
	// bumping updated_at so a concurrent reclaim loses.
	ReclaimStale(dbc dbctx.Context, id uuid.UUID, staleBefore time.Time) (bool, error)
}

type checkInAttemptRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewCheckInAttemptRepo(db *gorm.DB, baseLog *logger.Logger) CheckInAttemptRepo {
	return &checkInAttemptRepo{db: db, log: baseLog.With("repo", "CheckInAttemptRepo")}
}

func (r *checkInAttemptRepo) Create(dbc dbctx.Context, a *types.CheckInAttempt) (*types.CheckInAttempt, error) {
	if err := dbc.DB(r.db).Create(a).Error; err != nil {
		return nil, err
	}
	return a, nil
}

func (r *checkInAttemptRepo) GetByKey(dbc dbctx.Context, userID uuid.UUID, key string) (*types.CheckInAttempt, error) {
	var row types.CheckInAttempt
	err := dbc.DB(r.db).Where("user_id = ? AND idempotency_key = ?", userID, key).First(&row).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &row, nil
}

func (r *checkInAttemptRepo) UpdateFields(dbc dbctx.Context, id uuid.UUID, updates map[string]interface{}) error {
	if id == uuid.Nil || len(updates) == 0 {
		return nil
	}
	return dbc.DB(r.db).Model(&types.CheckInAttempt{}).Where("id = ?", id).Updates(updates).Error
}

func (r *checkInAttemptRepo) Reclaim(dbc dbctx.Context, id uuid.UUID, requestHash string) (bool, error) {
	res := dbc.DB(r.db).
		Model(&types.CheckInAttempt{}).
		Where("id = ? AND status = ?", id, types.AttemptFailed).
		Updates(map[string]interface{}{"status": types.AttemptInProgress, "request_hash": requestHash})
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected == 1, nil
}

func (r *checkInAttemptRepo) ReclaimStale(dbc dbctx.Context, id uuid.UUID, staleBefore time.Time) (bool, error) {
	res := dbc.DB(r.db).
		Model(&types.CheckInAttempt{}).
		Where("id = ? AND status = ? AND updated_at < ?", id, types.AttemptInProgress, staleBefore).
		Updates(map[string]interface{}{"status": types.AttemptInProgress, "updated_at": time.Now()})
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected == 1, nil
}
