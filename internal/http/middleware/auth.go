package middleware

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/yungbote/trailhead-backend/internal/data/repos"
	"github.com/yungbote/trailhead-backend/internal/http/response"
	"github.com/yungbote/trailhead-backend/internal/platform/apierr"
	"github.com/yungbote/trailhead-backend/internal/platform/ctxutil"
	"github.com/yungbote/trailhead-backend/internal/platform/dbctx"
	"github.com/yungbote/trailhead-backend/internal/platform/logger"
	"github.com/yungbote/trailhead-backend/internal/services"
)

const adminProfileKey = "admin_profile"

type AuthMiddleware struct {
	log         *logger.Logger
	authService services.AuthService
	profiles    repos.ProfileRepo
}

func NewAuthMiddleware(log *logger.Logger, authService services.AuthService, profiles repos.ProfileRepo) *AuthMiddleware {
	middlewareLogger := log.With("middleware", "AuthMiddleware")
	return &AuthMiddleware{log: middlewareLogger, authService: authService, profiles: profiles}
}

// RequireAuth accepts a bearer token or a ?token= query parameter; the latter is for
// EventSource clients that cannot set headers.
func (am *AuthMiddleware) RequireAuth() gin.HandlerFunc {
	return func(c *gin.Context) {
		tokenString := extractTokenFromAll(c)
		if tokenString == "" {
			response.RespondError(c, http.StatusUnauthorized, services.CodeUnauthorized, errMissingToken)
			c.Abort()
			return
		}
		ctx, err := am.authService.SetContextFromToken(c.Request.Context(), tokenString)
		if err != nil {
			response.Error(c, err)
			c.Abort()
			return
		}
		rd := ctxutil.GetRequestData(ctx)
		if rd == nil || rd.UserID == uuid.Nil {
			response.RespondError(c, http.StatusForbidden, services.CodeForbidden, errForbidden)
			c.Abort()
			return
		}
		c.Request = c.Request.WithContext(ctx)
		c.Next()
	}
}

// RequireAdmin guards the admin API: bearer token only, 401 when it is missing or
// invalid, 403 unless the caller's profile has the admin role.
func (am *AuthMiddleware) RequireAdmin() gin.HandlerFunc {
	return func(c *gin.Context) {
		tokenString := extractBearer(c)
		if tokenString == "" {
			response.AdminError(c, http.StatusUnauthorized, errMissingToken)
			c.Abort()
			return
		}
		ctx, err := am.authService.SetContextFromToken(c.Request.Context(), tokenString)
		if err != nil {
			status := apierr.StatusOf(err)
			if status != http.StatusForbidden {
				status = http.StatusUnauthorized
			}
			response.AdminError(c, status, err)
			c.Abort()
			return
		}
		userID := ctxutil.UserID(ctx)
		profile, err := am.profiles.GetByID(dbctx.Context{Ctx: ctx}, userID)
		if err != nil || !profile.IsAdmin() {
			am.log.Warn("admin access denied", "user_id", userID)
			response.AdminError(c, http.StatusForbidden, errAdminOnly)
			c.Abort()
			return
		}
		c.Set(adminProfileKey, profile)
		c.Request = c.Request.WithContext(ctx)
		c.Next()
	}
}

func extractTokenFromAll(c *gin.Context) string {
	if qToken := c.Query("token"); qToken != "" {
		return qToken
	}
	return extractBearer(c)
}

func extractBearer(c *gin.Context) string {
	authHeader := c.GetHeader("Authorization")
	if len(authHeader) > 7 && strings.EqualFold(authHeader[:7], "Bearer ") {
		return strings.TrimSpace(authHeader[7:])
	}
	return ""
}
