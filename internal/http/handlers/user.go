package handlers

import (
	"fmt"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/yungbote/trailhead-backend/internal/http/response"
	"github.com/yungbote/trailhead-backend/internal/services"
)

type UserHandler struct {
	profiles services.ProfileService
	stats    services.StatsService
}

func NewUserHandler(profiles services.ProfileService, stats services.StatsService) *UserHandler {
	return &UserHandler{profiles: profiles, stats: stats}
}

// GET /api/me
func (uh *UserHandler) GetMe(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}
	me, err := uh.profiles.GetMe(c.Request.Context(), userID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.RespondOK(c, gin.H{"me": me})
}

// PUT /api/me/profile
func (uh *UserHandler) UpdateProfile(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}
	var req services.ProfileUpdate
	if !bindJSON(c, &req) {
		return
	}
	p, err := uh.profiles.UpdateProfile(c.Request.Context(), userID, req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.RespondOK(c, gin.H{"profile": p})
}

// PUT /api/me/security
func (uh *UserHandler) UpdateSecurity(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}
	var req struct {
		Question string `json:"security_question"`
		Answer   string `json:"security_answer"`
	}
	if !bindJSON(c, &req) {
		return
	}
	if err := uh.profiles.SetSecurity(c.Request.Context(), userID, req.Question, req.Answer); err != nil {
		response.Error(c, err)
		return
	}
	response.RespondOK(c, gin.H{"ok": true})
}

// PUT /api/me/avatar, multipart field "file"
func (uh *UserHandler) UploadAvatar(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}
	fh, err := c.FormFile("file")
	if err != nil {
		response.RespondError(c, http.StatusBadRequest, services.CodeValidation, fmt.Errorf("missing file: %w", err))
		return
	}
	if fh.Size > services.MaxAvatarUploadMB<<20 {
		response.RespondError(c, http.StatusBadRequest, services.CodeValidation, fmt.Errorf("avatar exceeds %d MB", services.MaxAvatarUploadMB))
		return
	}
	f, err := fh.Open()
	if err != nil {
		response.RespondError(c, http.StatusBadRequest, services.CodeValidation, err)
		return
	}
	defer f.Close()
	raw, err := io.ReadAll(io.LimitReader(f, services.MaxAvatarUploadMB<<20+1))
	if err != nil {
		response.RespondError(c, http.StatusBadRequest, services.CodeValidation, err)
		return
	}
	p, err := uh.profiles.UploadAvatar(c.Request.Context(), userID, raw)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.RespondOK(c, gin.H{"profile": p})
}

// GET /api/me/stats
func (uh *UserHandler) Stats(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}
	st, err := uh.stats.ForUser(c.Request.Context(), userID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.RespondOK(c, gin.H{"stats": st})
}
