package handlers

import (
	"github.com/gin-gonic/gin"

	"github.com/yungbote/trailhead-backend/internal/http/response"
	"github.com/yungbote/trailhead-backend/internal/services"
)

type AuthHandler struct {
	authService services.AuthService
}

func NewAuthHandler(authService services.AuthService) *AuthHandler {
	return &AuthHandler{authService: authService}
}

func (ah *AuthHandler) Register(c *gin.Context) {
	var req services.RegisterInput
	if !bindJSON(c, &req) {
		return
	}
	profile, err := ah.authService.Register(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.RespondCreated(c, gin.H{"ok": true, "profile": profile})
}

func (ah *AuthHandler) Login(c *gin.Context) {
	var req struct {
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	if !bindJSON(c, &req) {
		return
	}
	pair, err := ah.authService.Login(c.Request.Context(), req.Email, req.Password)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.RespondOK(c, pair)
}

func (ah *AuthHandler) Refresh(c *gin.Context) {
	var req struct {
		RefreshToken string `json:"refresh_token"`
	}
	if !bindJSON(c, &req) {
		return
	}
	pair, err := ah.authService.Refresh(c.Request.Context(), req.RefreshToken)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.RespondOK(c, pair)
}

func (ah *AuthHandler) Logout(c *gin.Context) {
	if err := ah.authService.Logout(c.Request.Context()); err != nil {
		response.Error(c, err)
		return
	}
	response.RespondOK(c, gin.H{"ok": true})
}

// POST /api/password/question
func (ah *AuthHandler) PasswordQuestion(c *gin.Context) {
	var req struct {
		Email string `json:"email"`
	}
	if !bindJSON(c, &req) {
		return
	}
	q, err := ah.authService.PasswordQuestion(c.Request.Context(), req.Email)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.RespondOK(c, gin.H{"security_question": q})
}

// POST /api/password/verify
func (ah *AuthHandler) PasswordVerify(c *gin.Context) {
	var req struct {
		Email  string `json:"email"`
		Answer string `json:"answer"`
	}
	if !bindJSON(c, &req) {
		return
	}
	token, err := ah.authService.VerifySecurityAnswer(c.Request.Context(), req.Email, req.Answer)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.RespondOK(c, gin.H{"reset_token": token})
}

// POST /api/password/reset
func (ah *AuthHandler) PasswordReset(c *gin.Context) {
	var req struct {
		ResetToken  string `json:"reset_token"`
		NewPassword string `json:"new_password"`
	}
	if !bindJSON(c, &req) {
		return
	}
	if err := ah.authService.ResetPassword(c.Request.Context(), req.ResetToken, req.NewPassword); err != nil {
		response.Error(c, err)
		return
	}
	response.RespondOK(c, gin.H{"ok": true})
}
