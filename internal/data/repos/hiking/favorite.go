package hiking

import (
	"github.com/google/uuid"
	"gorm.io/gorm"

	types "github.com/yungbote/trailhead-backend/internal/domain"
	"github.com/yungbote/trailhead-backend/internal/platform/dbctx"
	"github.com/yungbote/trailhead-backend/internal/platform/logger"
)

type FavoriteRepo interface {
	// Create returns gorm.ErrDuplicatedKey when the pair already exists.
	Create(dbc dbctx.Context, f *types.Favorite) (*types.Favorite, error)
	Delete(dbc dbctx.Context, userID, routeID uuid.UUID) error
	ListByUser(dbc dbctx.Context, userID uuid.UUID) ([]*types.Favorite, error)
	Exists(dbc dbctx.Context, userID, routeID uuid.UUID) (bool, error)
	CountByUser(dbc dbctx.Context, userID uuid.UUID) (int64, error)
}

type favoriteRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewFavoriteRepo(db *gorm.DB, baseLog *logger.Logger) FavoriteRepo {
	return &favoriteRepo{db: db, log: baseLog.With("repo", "FavoriteRepo")}
}

func (r *favoriteRepo) Create(dbc dbctx.Context, f *types.Favorite) (*types.Favorite, error) {
	if err := dbc.DB(r.db).Omit("Route").Create(f).Error; err != nil {
		return nil, err
	}
	return f, nil
}

func (r *favoriteRepo) Delete(dbc dbctx.Context, userID, routeID uuid.UUID) error {
	res := dbc.DB(r.db).Where("user_id = ? AND route_id = ?", userID, routeID).Delete(&types.Favorite{})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

func (r *favoriteRepo) ListByUser(dbc dbctx.Context, userID uuid.UUID) ([]*types.Favorite, error) {
	var out []*types.Favorite
	err := dbc.DB(r.db).
		Preload("Route").
		Where("user_id = ?", userID).
		Order("created_at DESC").
		Find(&out).Error
	if err != nil {
		return nil, err
	}
	return out, nil
}

func (r *favoriteRepo) Exists(dbc dbctx.Context, userID, routeID uuid.UUID) (bool, error) {
	var n int64
	err := dbc.DB(r.db).Model(&types.Favorite{}).Where("user_id = ? AND route_id = ?", userID, routeID).Count(&n).Error
	return n > 0, err
}

func (r *favoriteRepo) CountByUser(dbc dbctx.Context, userID uuid.UUID) (int64, error) {
	var n int64
	err := dbc.DB(r.db).Model(&types.Favorite{}).Where("user_id = ?", userID).Count(&n).Error
	return n, err
}
