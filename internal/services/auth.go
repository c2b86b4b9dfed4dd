package services

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/mail"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	"github.com/yungbote/trailhead-backend/internal/data/repos"
	types "github.com/yungbote/trailhead-backend/internal/domain"
	"github.com/yungbote/trailhead-backend/internal/platform/apierr"
	"github.com/yungbote/trailhead-backend/internal/platform/ctxutil"
	"github.com/yungbote/trailhead-backend/internal/platform/dbctx"
	"github.com/yungbote/trailhead-backend/internal/platform/logger"
)

const (
	tokenUseAccess = "access"
	tokenUseReset  = "reset"

	CodeAccountBanned = "account_banned"
	CodeEmailTaken    = "email_taken"
)

type JWTClaims struct {
	Role string `json:"role,omitempty"`
	Use  string `json:"use"`
	jwt.RegisteredClaims
}

type AuthConfig struct {
	JWTSecretKey         string
	AccessTTL            time.Duration
	RefreshTTL           time.Duration
	ResetTTL             time.Duration
	SecurityAnswerPepper string
}

type TokenPair struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
	ExpiresIn    int64  `json:"expires_in"`
}

type RegisterInput struct {
	Email    string `json:"email"`
	Password string `json:"password"`
	Username string `json:"username"`
	Phone    string `json:"phone"`
}

type AuthService interface {
	Register(ctx context.Context, in RegisterInput) (*types.Profile, error)
	Login(ctx context.Context, email, password string) (*TokenPair, error)
	Refresh(ctx context.Context, refreshToken string) (*TokenPair, error)
	// Logout revokes the access token carried in the request data.
	Logout(ctx context.Context) error
	SetContextFromToken(ctx context.Context, tokenString string) (context.Context, error)
	EmailExists(ctx context.Context, email string) (bool, error)

	PasswordQuestion(ctx context.Context, email string) (string, error)
	// VerifySecurityAnswer trades a correct answer for a short-lived reset token.
	VerifySecurityAnswer(ctx context.Context, email, answer string) (string, error)
	ResetPassword(ctx context.Context, resetToken, newPassword string) error

	AccessTTL() time.Duration
}

type authService struct {
	db       *gorm.DB
	log      *logger.Logger
	accounts repos.UserAccountRepo
	profiles repos.ProfileRepo
	tokens   repos.UserTokenRepo
	avatars  AvatarService
	cfg      AuthConfig
	now      func() time.Time
}

func NewAuthService(
	db *gorm.DB,
	baseLog *logger.Logger,
	accounts repos.UserAccountRepo,
	profiles repos.ProfileRepo,
	tokens repos.UserTokenRepo,
	avatars AvatarService,
	cfg AuthConfig,
) AuthService {
	if cfg.AccessTTL <= 0 {
		cfg.AccessTTL = time.Hour
	}
	if cfg.RefreshTTL <= 0 {
		cfg.RefreshTTL = 24 * time.Hour
	}
	if cfg.ResetTTL <= 0 {
		cfg.ResetTTL = 10 * time.Minute
	}
	return &authService{
		db:       db,
		log:      baseLog.With("service", "AuthService"),
		accounts: accounts,
		profiles: profiles,
		tokens:   tokens,
		avatars:  avatars,
		cfg:      cfg,
		now:      time.Now,
	}
}

func (as *authService) AccessTTL() time.Duration { return as.cfg.AccessTTL }

func normalizeEmail(email string) (string, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	if email == "" {
		return "", ValidationError("email is required")
	}
	addr, err := mail.ParseAddress(email)
	if err != nil || addr.Address != email {
		return "", ValidationError("email %q is not valid", email)
	}
	return email, nil
}

func (as *authService) Register(ctx context.Context, in RegisterInput) (*types.Profile, error) {
	email, err := normalizeEmail(in.Email)
	if err != nil {
		return nil, err
	}
	username := strings.TrimSpace(in.Username)
	if username == "" {
		return nil, ValidationError("username is required")
	}
	hashed, err := HashPassword(in.Password)
	if err != nil {
		return nil, err
	}

	profile := &types.Profile{
		ID:       uuid.New(),
		Username: username,
		Phone:    strings.TrimSpace(in.Phone),
		Role:     types.RoleUser,
		Status:   types.ProfileStatusActive,
	}
	if as.avatars != nil {
		if err := as.avatars.GenerateInitials(ctx, profile); err != nil {
			as.log.Warn("initials avatar failed, continuing without one", "user_id", profile.ID, "error", err)
		}
	}

	err = as.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		dbc := dbctx.Context{Ctx: ctx, Tx: tx}
		if _, err := as.accounts.Create(dbc, &types.UserAccount{ID: profile.ID, Email: email, Password: hashed}); err != nil {
			if errors.Is(err, gorm.ErrDuplicatedKey) {
				return ConflictError(CodeEmailTaken, "email is already registered")
			}
			return storeError("account", err)
		}
		if _, err := as.profiles.Upsert(dbc, profile); err != nil {
			return storeError("profile", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	as.log.Info("user registered", "user_id", profile.ID)
	return profile, nil
}

func (as *authService) Login(ctx context.Context, email, password string) (*TokenPair, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	if email == "" || password == "" {
		return nil, ValidationError("email and password are required")
	}
	dbc := dbctx.Context{Ctx: ctx}
	account, err := as.accounts.GetByEmail(dbc, email)
	if isNotFound(err) {
		return nil, UnauthorizedError("invalid email or password")
	}
	if err != nil {
		return nil, storeError("account", err)
	}
	if bcrypt.CompareHashAndPassword([]byte(account.Password), []byte(password)) != nil {
		return nil, UnauthorizedError("invalid email or password")
	}
	if account.IsBanned(as.now()) {
		return nil, apierr.Newf(http.StatusForbidden, CodeAccountBanned, "account is banned")
	}

	role := types.RoleUser
	if p, err := as.profiles.GetByID(dbc, account.ID); err == nil {
		role = p.Role
	}

	var pair *TokenPair
	err = as.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var err error
		pair, err = as.issueTokens(dbctx.Context{Ctx: ctx, Tx: tx}, account.ID, role)
		return err
	})
	if err != nil {
		return nil, err
	}
	as.log.Info("user logged in", "user_id", account.ID)
	return pair, nil
}

func (as *authService) Refresh(ctx context.Context, refreshToken string) (*TokenPair, error) {
	refreshToken = strings.TrimSpace(refreshToken)
	if refreshToken == "" {
		return nil, ValidationError("refresh_token is required")
	}
	dbc := dbctx.Context{Ctx: ctx}
	found, err := as.tokens.GetByRefreshTokens(dbc, []string{refreshToken})
	if err != nil {
		return nil, storeError("token", err)
	}
	if len(found) == 0 {
		return nil, UnauthorizedError("unknown refresh token")
	}
	existing := found[0]
	if existing.ExpiresAt.Before(as.now()) {
		if err := as.tokens.DeleteByAccessTokens(dbc, []string{existing.AccessToken}); err != nil {
			as.log.Warn("expired token cleanup failed", "user_id", existing.UserID, "error", err)
		}
		return nil, UnauthorizedError("refresh token expired")
	}

	var pair *TokenPair
	err = as.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		dbc := dbctx.Context{Ctx: ctx, Tx: tx}
		account, err := as.accounts.GetByID(dbc, existing.UserID)
		if err != nil {
			return UnauthorizedError("account no longer exists")
		}
		if account.IsBanned(as.now()) {
			return apierr.Newf(http.StatusForbidden, CodeAccountBanned, "account is banned")
		}
		role := types.RoleUser
		if p, err := as.profiles.GetByID(dbc, account.ID); err == nil {
			role = p.Role
		}
		if pair, err = as.issueTokens(dbc, account.ID, role); err != nil {
			return err
		}
		if err := as.tokens.DeleteByAccessTokens(dbc, []string{existing.AccessToken}); err != nil {
			return storeError("token", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return pair, nil
}

func (as *authService) Logout(ctx context.Context) error {
	rd := ctxutil.GetRequestData(ctx)
	if rd == nil || rd.TokenString == "" {
		return UnauthorizedError("not logged in")
	}
	if err := as.tokens.DeleteByAccessTokens(dbctx.Context{Ctx: ctx}, []string{rd.TokenString}); err != nil {
		return storeError("token", err)
	}
	as.log.Info("user logged out", "user_id", rd.UserID)
	return nil
}

func (as *authService) issueTokens(dbc dbctx.Context, userID uuid.UUID, role string) (*TokenPair, error) {
	access, err := as.signToken(userID, role, tokenUseAccess, as.cfg.AccessTTL)
	if err != nil {
		return nil, fmt.Errorf("generate access token: %w", err)
	}
	row := &types.UserToken{
		UserID:       userID,
		AccessToken:  access,
		RefreshToken: uuid.NewString(),
		ExpiresAt:    as.now().Add(as.cfg.RefreshTTL),
	}
	if _, err := as.tokens.Create(dbc, []*types.UserToken{row}); err != nil {
		return nil, storeError("token", err)
	}
	return &TokenPair{
		AccessToken:  row.AccessToken,
		RefreshToken: row.RefreshToken,
		ExpiresIn:    int64(as.cfg.AccessTTL / time.Second),
	}, nil
}

func (as *authService) signToken(userID uuid.UUID, role, use string, ttl time.Duration) (string, error) {
	now := as.now()
	claims := JWTClaims{
		Role: role,
		Use:  use,
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.NewString(),
			Subject:   userID.String(),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
			IssuedAt:  jwt.NewNumericDate(now),
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(as.cfg.JWTSecretKey))
}

func (as *authService) parseToken(tokenString, use string) (*JWTClaims, uuid.UUID, error) {
	parsed, err := jwt.ParseWithClaims(tokenString, &JWTClaims{}, func(token *jwt.Token) (interface{}, error) {
		return []byte(as.cfg.JWTSecretKey), nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}), jwt.WithTimeFunc(as.now))
	if err != nil {
		return nil, uuid.Nil, UnauthorizedError("invalid token: %v", err)
	}
	claims, ok := parsed.Claims.(*JWTClaims)
	if !ok || !parsed.Valid || claims.Use != use {
		return nil, uuid.Nil, UnauthorizedError("invalid or expired token")
	}
	userID, err := uuid.Parse(claims.Subject)
	if err != nil {
		return nil, uuid.Nil, UnauthorizedError("invalid user id in token")
	}
	return claims, userID, nil
}

// SetContextFromToken validates the JWT, checks it was not revoked by logout and that
// the account is not banned, then attaches the caller to ctx.
func (as *authService) SetContextFromToken(ctx context.Context, tokenString string) (context.Context, error) {
	if tokenString == "" {
		return ctx, UnauthorizedError("missing token")
	}
	claims, userID, err := as.parseToken(tokenString, tokenUseAccess)
	if err != nil {
		return ctx, err
	}
	dbc := dbctx.Context{Ctx: ctx}
	found, err := as.tokens.GetByAccessTokens(dbc, []string{tokenString})
	if err != nil {
		return ctx, storeError("token", err)
	}
	if len(found) == 0 {
		return ctx, UnauthorizedError("session has been revoked")
	}
	account, err := as.accounts.GetByID(dbc, userID)
	if err != nil {
		return ctx, UnauthorizedError("account no longer exists")
	}
	if account.IsBanned(as.now()) {
		return ctx, apierr.Newf(http.StatusForbidden, CodeAccountBanned, "account is banned")
	}
	return ctxutil.WithRequestData(ctx, &ctxutil.RequestData{
		TokenString: tokenString,
		UserID:      userID,
		Role:        claims.Role,
	}), nil
}

func (as *authService) EmailExists(ctx context.Context, email string) (bool, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	if email == "" {
		return false, ValidationError("email is required")
	}
	ok, err := as.accounts.EmailExists(dbctx.Context{Ctx: ctx}, email)
	if err != nil {
		return false, storeError("account", err)
	}
	return ok, nil
}

func (as *authService) profileByEmail(ctx context.Context, email string) (*types.Profile, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	if email == "" {
		return nil, ValidationError("email is required")
	}
	dbc := dbctx.Context{Ctx: ctx}
	account, err := as.accounts.GetByEmail(dbc, email)
	if err != nil {
		return nil, storeError("account", err)
	}
	profile, err := as.profiles.GetByID(dbc, account.ID)
	if err != nil {
		return nil, storeError("profile", err)
	}
	if profile.SecurityQuestion == "" || profile.SecurityAnswerHash == "" {
		return nil, apierr.Newf(http.StatusNotFound, "no_security_question", "no security question is set for this account")
	}
	return profile, nil
}

func (as *authService) PasswordQuestion(ctx context.Context, email string) (string, error) {
	profile, err := as.profileByEmail(ctx, email)
	if err != nil {
		return "", err
	}
	return profile.SecurityQuestion, nil
}

func (as *authService) VerifySecurityAnswer(ctx context.Context, email, answer string) (string, error) {
	profile, err := as.profileByEmail(ctx, email)
	if err != nil {
		return "", err
	}
	if !VerifySecurityAnswer(profile.SecurityAnswerHash, answer, as.cfg.SecurityAnswerPepper) {
		as.log.Warn("security answer rejected", "user_id", profile.ID)
		return "", UnauthorizedError("security answer is incorrect")
	}
	token, err := as.signToken(profile.ID, "", tokenUseReset, as.cfg.ResetTTL)
	if err != nil {
		return "", fmt.Errorf("generate reset token: %w", err)
	}
	return token, nil
}

// ResetPassword also revokes every session of the account.
func (as *authService) ResetPassword(ctx context.Context, resetToken, newPassword string) error {
	_, userID, err := as.parseToken(strings.TrimSpace(resetToken), tokenUseReset)
	if err != nil {
		return err
	}
	hashed, err := HashPassword(newPassword)
	if err != nil {
		return err
	}
	err = as.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		dbc := dbctx.Context{Ctx: ctx, Tx: tx}
		if err := as.accounts.UpdatePassword(dbc, userID, hashed); err != nil {
			return storeError("account", err)
		}
		if err := as.tokens.DeleteByUserIDs(dbc, []uuid.UUID{userID}); err != nil {
			return storeError("token", err)
		}
		return nil
	})
	if err != nil {
		return err
	}
	as.log.Info("password reset", "user_id", userID)
	return nil
}
