package auth

import (
	"github.com/google/uuid"
	"gorm.io/gorm"

	types "github.com/yungbote/trailhead-backend/internal/domain"
	"github.com/yungbote/trailhead-backend/internal/platform/dbctx"
	"github.com/yungbote/trailhead-backend/internal/platform/logger"
)

type UserTokenRepo interface {
	Create(dbc dbctx.Context, userTokens []*types.UserToken) ([]*types.UserToken, error)
	GetByAccessTokens(dbc dbctx.Context, accessTokens []string) ([]*types.UserToken, error)
	GetByRefreshTokens(dbc dbctx.Context, refreshTokens []string) ([]*types.UserToken, error)
	GetByUserIDs(dbc dbctx.Context, userIDs []uuid.UUID) ([]*types.UserToken, error)
	DeleteByAccessTokens(dbc dbctx.Context, accessTokens []string) error
	DeleteByUserIDs(dbc dbctx.Context, userIDs []uuid.UUID) error
}

type userTokenRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewUserTokenRepo(db *gorm.DB, baseLog *logger.Logger) UserTokenRepo {
	repoLog := baseLog.With("repo", "UserTokenRepo")
	return &userTokenRepo{db: db, log: repoLog}
}

func (utr *userTokenRepo) Create(dbc dbctx.Context, userTokens []*types.UserToken) ([]*types.UserToken, error) {
	if len(userTokens) == 0 {
		return []*types.UserToken{}, nil
	}
	if err := dbc.DB(utr.db).Create(&userTokens).Error; err != nil {
		return nil, err
	}
	return userTokens, nil
}

func (utr *userTokenRepo) GetByAccessTokens(dbc dbctx.Context, accessTokens []string) ([]*types.UserToken, error) {
	var results []*types.UserToken
	if len(accessTokens) == 0 {
		return results, nil
	}
	if err := dbc.DB(utr.db).Where("access_token IN ?", accessTokens).Find(&results).Error; err != nil {
		return nil, err
	}
	return results, nil
}

func (utr *userTokenRepo) GetByRefreshTokens(dbc dbctx.Context, refreshTokens []string) ([]*types.UserToken, error) {
	var results []*types.UserToken
	if len(refreshTokens) == 0 {
		return results, nil
	}
	if err := dbc.DB(utr.db).Where("refresh_token IN ?", refreshTokens).Find(&results).Error; err != nil {
		return nil, err
	}
	return results, nil
}

func (utr *userTokenRepo) GetByUserIDs(dbc dbctx.Context, userIDs []uuid.UUID) ([]*types.UserToken, error) {
	var results []*types.UserToken
	if len(userIDs) == 0 {
		return results, nil
	}
	if err := dbc.DB(utr.db).Where("user_id IN ?", userIDs).Find(&results).Error; err != nil {
		return nil, err
	}
	return results, nil
}

func (utr *userTokenRepo) DeleteByAccessTokens(dbc dbctx.Context, accessTokens []string) error {
	if len(accessTokens) == 0 {
		return nil
	}
	return dbc.DB(utr.db).Where("access_token IN ?", accessTokens).Delete(&types.UserToken{}).Error
}

func (utr *userTokenRepo) DeleteByUserIDs(dbc dbctx.Context, userIDs []uuid.UUID) error {
	if len(userIDs) == 0 {
		return nil
	}
	return dbc.DB(utr.db).Where("user_id IN ?", userIDs).Delete(&types.UserToken{}).Error
}
