package auth

import (
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	types "github.com/yungbote/trailhead-backend/internal/domain"
	"github.com/yungbote/trailhead-backend/internal/platform/dbctx"
	"github.com/yungbote/trailhead-backend/internal/platform/logger"
)

type UserAccountRepo interface {
	Create(dbc dbctx.Context, account *types.UserAccount) (*types.UserAccount, error)
	GetByID(dbc dbctx.Context, id uuid.UUID) (*types.UserAccount, error)
	GetByIDs(dbc dbctx.Context, ids []uuid.UUID) ([]*types.UserAccount, error)
	GetByEmail(dbc dbctx.Context, email string) (*types.UserAccount, error)
	EmailExists(dbc dbctx.Context, email string) (bool, error)
	UpdatePassword(dbc dbctx.Context, id uuid.UUID, passwordHash string) error
	SetBannedUntil(dbc dbctx.Context, id uuid.UUID, until *time.Time) error
	HardDelete(dbc dbctx.Context, id uuid.UUID) error
}

type userAccountRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewUserAccountRepo(db *gorm.DB, baseLog *logger.Logger) UserAccountRepo {
	return &userAccountRepo{db: db, log: baseLog.With("repo", "UserAccountRepo")}
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func (r *userAccountRepo) Create(dbc dbctx.Context, account *types.UserAccount) (*types.UserAccount, error) {
	account.Email = normalizeEmail(account.Email)
	if err := dbc.DB(r.db).Create(account).Error; err != nil {
		return nil, err
	}
	return account, nil
}

func (r *userAccountRepo) GetByID(dbc dbctx.Context, id uuid.UUID) (*types.UserAccount, error) {
	var row types.UserAccount
	if err := dbc.DB(r.db).Where("id = ?", id).First(&row).Error; err != nil {
		return nil, err
	}
	return &row, nil
}

func (r *userAccountRepo) GetByIDs(dbc dbctx.Context, ids []uuid.UUID) ([]*types.UserAccount, error) {
	var out []*types.UserAccount
	if len(ids) == 0 {
		return out, nil
	}
	if err := dbc.DB(r.db).Where("id IN ?", ids).Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

func (r *userAccountRepo) GetByEmail(dbc dbctx.Context, email string) (*types.UserAccount, error) {
	var row types.UserAccount
	if err := dbc.DB(r.db).Where("email = ?", normalizeEmail(email)).First(&row).Error; err != nil {
		return nil, err
	}
	return &row, nil
}

func (r *userAccountRepo) EmailExists(dbc dbctx.Context, email string) (bool, error) {
	_, err := r.GetByEmail(dbc, email)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

func (r *userAccountRepo) UpdatePassword(dbc dbctx.Context, id uuid.UUID, passwordHash string) error {
	res := dbc.DB(r.db).Model(&types.UserAccount{}).Where("id = ?", id).Update("password", passwordHash)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

// SetBannedUntil sets or clears (nil) the ban window.
func (r *userAccountRepo) SetBannedUntil(dbc dbctx.Context, id uuid.UUID, until *time.Time) error {
	res := dbc.DB(r.db).Model(&types.UserAccount{}).Where("id = ?", id).Update("banned_until", until)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

func (r *userAccountRepo) HardDelete(dbc dbctx.Context, id uuid.UUID) error {
	res := dbc.DB(r.db).Unscoped().Where("id = ?", id).Delete(&types.UserAccount{})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}
