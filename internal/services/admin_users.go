package services

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/yungbote/trailhead-backend/internal/data/repos"
	types "github.com/yungbote/trailhead-backend/internal/domain"
	"github.com/yungbote/trailhead-backend/internal/observability"
	"github.com/yungbote/trailhead-backend/internal/platform/dbctx"
	"github.com/yungbote/trailhead-backend/internal/platform/logger"
)

// BanDuration is how long a disabled account stays banned; effectively forever.
const BanDuration = 876000 * time.Hour

type AdminUser struct {
	*types.Profile
	Email       string     `json:"email"`
	BannedUntil *time.Time `json:"banned_until,omitempty"`
}

type AdminUserInput struct {
	Email    string `json:"email"`
	Password string `json:"password"`
	Username string `json:"username"`
	Role     string `json:"role"`
	Status   string `json:"status"`
	Phone    string `json:"phone"`
}

type AdminUserUpdate struct {
	Username *string `json:"username"`
	Role     *string `json:"role"`
	Status   *string `json:"status"`
	Phone    *string `json:"phone"`
	Password *string `json:"password"`
}

type AdminUserService interface {
	List(ctx context.Context, q repos.ListQuery) (*Page[*AdminUser], error)
	Create(ctx context.Context, in AdminUserInput) (*AdminUser, error)
	Update(ctx context.Context, id uuid.UUID, in AdminUserUpdate) (*AdminUser, error)
	Delete(ctx context.Context, id uuid.UUID) error
}

type adminUserService struct {
	db          *gorm.DB
	log         *logger.Logger
	accounts    repos.UserAccountRepo
	profiles    repos.ProfileRepo
	tokens      repos.UserTokenRepo
	itineraries repos.ItineraryRepo
	avatars     AvatarService
	metrics     *observability.Metrics
	now         func() time.Time
}

func NewAdminUserService(
	db *gorm.DB,
	baseLog *logger.Logger,
	accounts repos.UserAccountRepo,
	profiles repos.ProfileRepo,
	tokens repos.UserTokenRepo,
	itineraries repos.ItineraryRepo,
	avatars AvatarService,
	metrics *observability.Metrics,
) AdminUserService {
	return &adminUserService{
		db:          db,
		log:         baseLog.With("service", "AdminUserService"),
		accounts:    accounts,
		profiles:    profiles,
		tokens:      tokens,
		itineraries: itineraries,
		avatars:     avatars,
		metrics:     metrics,
		now:         time.Now,
	}
}

func validRole(role string) bool {
	return role == types.RoleUser || role == types.RoleAdmin
}

func validStatus(status string) bool {
	return status == types.ProfileStatusActive || status == types.ProfileStatusDisabled
}

// banWindow maps a profile status to the account ban: disabled bans for BanDuration,
// active lifts the ban.
func (s *adminUserService) banWindow(status string) *time.Time {
	if status != types.ProfileStatusDisabled {
		return nil
	}
	until := s.now().Add(BanDuration)
	return &until
}

func (s *adminUserService) List(ctx context.Context, q repos.ListQuery) (*Page[*AdminUser], error) {
	dbc := dbctx.Context{Ctx: ctx}
	profiles, total, err := s.profiles.List(dbc, q)
	if err != nil {
		return nil, storeError("users", err)
	}
	ids := make([]uuid.UUID, 0, len(profiles))
	for _, p := range profiles {
		ids = append(ids, p.ID)
	}
	accounts, err := s.accounts.GetByIDs(dbc, ids)
	if err != nil {
		return nil, storeError("accounts", err)
	}
	byID := make(map[uuid.UUID]*types.UserAccount, len(accounts))
	for _, a := range accounts {
		byID[a.ID] = a
	}
	rows := make([]*AdminUser, 0, len(profiles))
	for _, p := range profiles {
		row := &AdminUser{Profile: p}
		if a := byID[p.ID]; a != nil {
			row.Email = a.Email
			row.BannedUntil = a.BannedUntil
		}
		rows = append(rows, row)
	}
	return newPage(rows, total, q), nil
}

func (s *adminUserService) Create(ctx context.Context, in AdminUserInput) (*AdminUser, error) {
	email, err := normalizeEmail(in.Email)
	if err != nil {
		return nil, err
	}
	hashed, err := HashPassword(in.Password)
	if err != nil {
		return nil, err
	}
	username := strings.TrimSpace(in.Username)
	if username == "" {
		username = strings.Split(email, "@")[0]
	}
	role := strings.TrimSpace(in.Role)
	if role == "" {
		role = types.RoleUser
	}
	status := strings.TrimSpace(in.Status)
	if status == "" {
		status = types.ProfileStatusActive
	}
	if !validRole(role) {
		return nil, ValidationError("role must be user or admin")
	}
	if !validStatus(status) {
		return nil, ValidationError("status must be active or disabled")
	}

	account := &types.UserAccount{ID: uuid.New(), Email: email, Password: hashed, BannedUntil: s.banWindow(status)}
	profile := &types.Profile{
		ID:       account.ID,
		Username: username,
		Role:     role,
		Status:   status,
		Phone:    strings.TrimSpace(in.Phone),
	}
	if s.avatars != nil {
		if err := s.avatars.GenerateInitials(ctx, profile); err != nil {
			s.log.Warn("initials avatar failed, continuing without one", "user_id", profile.ID, "error", err)
		}
	}

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		dbc := dbctx.Context{Ctx: ctx, Tx: tx}
		if _, err := s.accounts.Create(dbc, account); err != nil {
			if errors.Is(err, gorm.ErrDuplicatedKey) {
				return ConflictError(CodeEmailTaken, "email is already registered")
			}
			return storeError("account", err)
		}
		if _, err := s.profiles.Upsert(dbc, profile); err != nil {
			return storeError("profile", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	s.metrics.IncAdminAction("users", "create")
	s.log.Info("admin created user", "user_id", account.ID, "role", role)
	return &AdminUser{Profile: profile, Email: account.Email, BannedUntil: account.BannedUntil}, nil
}

func (s *adminUserService) Update(ctx context.Context, id uuid.UUID, in AdminUserUpdate) (*AdminUser, error) {
	updates := map[string]interface{}{}
	if in.Username != nil {
		name := strings.TrimSpace(*in.Username)
		if name == "" {
			return nil, ValidationError("username must not be empty")
		}
		updates["username"] = name
	}
	if in.Role != nil {
		if !validRole(*in.Role) {
			return nil, ValidationError("role must be user or admin")
		}
		updates["role"] = *in.Role
	}
	if in.Status != nil {
		if !validStatus(*in.Status) {
			return nil, ValidationError("status must be active or disabled")
		}
		updates["status"] = *in.Status
	}
	if in.Phone != nil {
		updates["phone"] = strings.TrimSpace(*in.Phone)
	}
	var hashed string
	if in.Password != nil && *in.Password != "" {
		h, err := HashPassword(*in.Password)
		if err != nil {
			return nil, err
		}
		hashed = h
	}

	var out *AdminUser
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		dbc := dbctx.Context{Ctx: ctx, Tx: tx}
		account, err := s.accounts.GetByID(dbc, id)
		if err != nil {
			return storeError("user", err)
		}
		var profile *types.Profile
		if len(updates) > 0 {
			profile, err = s.profiles.UpdateFields(dbc, id, updates)
		} else {
			profile, err = s.profiles.GetByID(dbc, id)
		}
		if err != nil {
			return storeError("profile", err)
		}
		if hashed != "" {
			if err := s.accounts.UpdatePassword(dbc, id, hashed); err != nil {
				return storeError("account", err)
			}
		}
		if in.Status != nil {
			until := s.banWindow(*in.Status)
			if err := s.accounts.SetBannedUntil(dbc, id, until); err != nil {
				return storeError("account", err)
			}
			account.BannedUntil = until
		}
		if hashed != "" || account.BannedUntil != nil {
			if err := s.tokens.DeleteByUserIDs(dbc, []uuid.UUID{id}); err != nil {
				return storeError("token", err)
			}
		}
		out = &AdminUser{Profile: profile, Email: account.Email, BannedUntil: account.BannedUntil}
		return nil
	})
	if err != nil {
		return nil, err
	}
	action := "update"
	if in.Status != nil {
		action = map[bool]string{true: "ban", false: "unban"}[*in.Status == types.ProfileStatusDisabled]
	}
	s.metrics.IncAdminAction("users", action)
	s.log.Info("admin updated user", "user_id", id, "action", action)
	return out, nil
}

// Delete removes the login identity, its sessions and the profile. The user's
// itineraries are soft deleted; hiking records stay for aggregate statistics.
func (s *adminUserService) Delete(ctx context.Context, id uuid.UUID) error {
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		dbc := dbctx.Context{Ctx: ctx, Tx: tx}
		if err := s.tokens.DeleteByUserIDs(dbc, []uuid.UUID{id}); err != nil {
			return storeError("token", err)
		}
		if _, err := s.itineraries.SoftDeleteByUser(dbc, id); err != nil {
			return storeError("itineraries", err)
		}
		if err := s.profiles.Delete(dbc, id); err != nil {
			return storeError("profile", err)
		}
		if err := s.accounts.HardDelete(dbc, id); err != nil {
			return storeError("user", err)
		}
		return nil
	})
	if err != nil {
		return err
	}
	s.metrics.IncAdminAction("users", "delete")
	s.log.Info("admin deleted user", "user_id", id)
	return nil
}
