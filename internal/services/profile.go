package services

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/yungbote/trailhead-backend/internal/data/repos"
	types "github.com/yungbote/trailhead-backend/internal/domain"
	"github.com/yungbote/trailhead-backend/internal/platform/apierr"
	"github.com/yungbote/trailhead-backend/internal/platform/dbctx"
	"github.com/yungbote/trailhead-backend/internal/platform/logger"
)

type Me struct {
	*types.Profile
	Email       string     `json:"email"`
	BannedUntil *time.Time `json:"banned_until,omitempty"`
}

type ProfileUpdate struct {
	Username  *string `json:"username"`
	AvatarURL *string `json:"avatar_url"`
	Phone     *string `json:"phone"`
}

type ProfileService interface {
	GetMe(ctx context.Context, userID uuid.UUID) (*Me, error)
	// UpdateProfile gives the store ProfileUpdateTimeout to answer; past that the caller
	// gets a 504 even if the write later lands.
	UpdateProfile(ctx context.Context, userID uuid.UUID, in ProfileUpdate) (*types.Profile, error)
	SetSecurity(ctx context.Context, userID uuid.UUID, question, answer string) error
	UploadAvatar(ctx context.Context, userID uuid.UUID, raw []byte) (*types.Profile, error)
}

type ProfileConfig struct {
	UpdateTimeout        time.Duration
	SecurityAnswerPepper string
}

type profileService struct {
	log      *logger.Logger
	accounts repos.UserAccountRepo
	profiles repos.ProfileRepo
	avatars  AvatarService
	notifier HikingNotifier
	cfg      ProfileConfig
}

func NewProfileService(
	baseLog *logger.Logger,
	accounts repos.UserAccountRepo,
	profiles repos.ProfileRepo,
	avatars AvatarService,
	notifier HikingNotifier,
	cfg ProfileConfig,
) ProfileService {
	if cfg.UpdateTimeout <= 0 {
		cfg.UpdateTimeout = 10 * time.Second
	}
	if notifier == nil {
		notifier = NewHikingNotifier(nil)
	}
	return &profileService{
		log:      baseLog.With("service", "ProfileService"),
		accounts: accounts,
		profiles: profiles,
		avatars:  avatars,
		notifier: notifier,
		cfg:      cfg,
	}
}

func (s *profileService) GetMe(ctx context.Context, userID uuid.UUID) (*Me, error) {
	dbc := dbctx.Context{Ctx: ctx}
	profile, err := s.profiles.GetByID(dbc, userID)
	if err != nil {
		return nil, storeError("profile", err)
	}
	account, err := s.accounts.GetByID(dbc, userID)
	if err != nil {
		return nil, storeError("account", err)
	}
	return &Me{Profile: profile, Email: account.Email, BannedUntil: account.BannedUntil}, nil
}

func (s *profileService) UpdateProfile(ctx context.Context, userID uuid.UUID, in ProfileUpdate) (*types.Profile, error) {
	updates := map[string]interface{}{}
	if in.Username != nil {
		name := strings.TrimSpace(*in.Username)
		if name == "" {
			return nil, ValidationError("username must not be empty")
		}
		updates["username"] = name
	}
	if in.AvatarURL != nil {
		updates["avatar_url"] = strings.TrimSpace(*in.AvatarURL)
	}
	if in.Phone != nil {
		updates["phone"] = strings.TrimSpace(*in.Phone)
	}
	if len(updates) == 0 {
		return nil, ValidationError("nothing to update")
	}

	tctx, cancel := context.WithTimeout(ctx, s.cfg.UpdateTimeout)
	defer cancel()

	type result struct {
		profile *types.Profile
		err     error
	}
	done := make(chan result, 1)
	go func() {
		p, err := s.profiles.UpdateFields(dbctx.Context{Ctx: tctx}, userID, updates)
		done <- result{profile: p, err: err}
	}()

	select {
	case <-tctx.Done():
		if errors.Is(tctx.Err(), context.DeadlineExceeded) {
			s.log.Warn("profile update timed out", "user_id", userID, "timeout", s.cfg.UpdateTimeout)
			return nil, apierr.Newf(http.StatusGatewayTimeout, CodeTimeout, "profile update timed out after %s", s.cfg.UpdateTimeout)
		}
		return nil, tctx.Err()
	case r := <-done:
		if r.err != nil {
			return nil, storeError("profile", r.err)
		}
		s.notifier.ProfileUpdated(ctx, userID, r.profile)
		return r.profile, nil
	}
}

func (s *profileService) SetSecurity(ctx context.Context, userID uuid.UUID, question, answer string) error {
	question = strings.TrimSpace(question)
	if question == "" {
		return ValidationError("security question is required")
	}
	hash, err := HashSecurityAnswer(answer, s.cfg.SecurityAnswerPepper)
	if err != nil {
		return err
	}
	if _, err := s.profiles.UpdateFields(dbctx.Context{Ctx: ctx}, userID, map[string]interface{}{
		"security_question":    question,
		"security_answer_hash": hash,
	}); err != nil {
		return storeError("profile", err)
	}
	s.log.Info("security question updated", "user_id", userID)
	return nil
}

func (s *profileService) UploadAvatar(ctx context.Context, userID uuid.UUID, raw []byte) (*types.Profile, error) {
	if s.avatars == nil {
		return nil, apierr.Newf(http.StatusServiceUnavailable, "avatar_unavailable", "avatar uploads are not configured")
	}
	dbc := dbctx.Context{Ctx: ctx}
	profile, err := s.profiles.GetByID(dbc, userID)
	if err != nil {
		return nil, storeError("profile", err)
	}
	if err := s.avatars.ReplaceFromImage(ctx, profile, raw); err != nil {
		return nil, err
	}
	updated, err := s.profiles.UpdateFields(dbc, userID, map[string]interface{}{
		"avatar_url": profile.AvatarURL,
		"avatar_key": profile.AvatarKey,
	})
	if err != nil {
		return nil, storeError("profile", err)
	}
	s.notifier.ProfileUpdated(ctx, userID, updated)
	return updated, nil
}
