package public

import (
	"time"

	handlershared "github.com/shelfwise/bookstore/internal/http/handlers/shared"
	"github.com/shelfwise/bookstore/internal/http/response"
	"github.com/shelfwise/bookstore/internal/service"

	"github.com/gin-gonic/gin"
)

var userAuthErrorRules = []handlershared.MappedError{
	{Target: service.ErrInvalidEmail, Code: response.CodeBadRequest, Key: "error.email_invalid"},
	{Target: service.ErrWeakPassword, Code: response.CodeBadRequest, Key: "error.password_weak"},
	{Target: service.ErrEmailExists, Code: response.CodeBadRequest, Key: "error.email_exists"},
	{Target: service.ErrInvalidCredentials, Code: response.CodeUnauthorized, Key: "error.login_invalid"},
	{Target: service.ErrUserDisabled, Code: response.CodeUnauthorized, Key: "error.user_disabled"},
}

// UserRegisterRequest 注册请求
type UserRegisterRequest struct {
	Email       string `json:"email" binding:"required"`
	Password    string `json:"password" binding:"required"`
	DisplayName string `json:"display_name"`
}

// UserLoginRequest 登录请求
type UserLoginRequest struct {
	Email    string `json:"email" binding:"required"`
	Password string `json:"password" binding:"required"`
}

// UserRegister 用户注册，成功后直接签发 Token
func (h *Handler) UserRegister(c *gin.Context) {
	var req UserRegisterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, response.CodeBadRequest, "error.bad_request", err)
		return
	}
	ctx := c.Request.Context()
	user, err := h.UserAuthService.Register(ctx, req.Email, req.Password, req.DisplayName)
	if err != nil {
		handlershared.RespondMapped(c, err, userAuthErrorRules, response.CodeInternal, "error.register_failed")
		return
	}
	token, expiresAt, err := h.UserAuthService.GenerateUserJWT(user)
	if err != nil {
		respondError(c, response.CodeInternal, "error.register_failed", err)
		return
	}
	response.Success(c, gin.H{
		"user":       user,
		"token":      token,
		"expires_at": expiresAt.Format(time.RFC3339),
	})
}

// UserLogin 用户登录
func (h *Handler) UserLogin(c *gin.Context) {
	var req UserLoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, response.CodeBadRequest, "error.bad_request", err)
		return
	}
	user, token, expiresAt, err := h.UserAuthService.Login(c.Request.Context(), req.Email, req.Password)
	if err != nil {
		handlershared.RespondMapped(c, err, userAuthErrorRules, response.CodeInternal, "error.login_failed")
		return
	}
	response.Success(c, gin.H{
		"user":       user,
		"token":      token,
		"expires_at": expiresAt.Format(time.RFC3339),
	})
}

// GetCurrentUser 当前登录用户
func (h *Handler) GetCurrentUser(c *gin.Context) {
	uid, ok := getUserID(c)
	if !ok {
		return
	}
	user, err := h.UserRepo.WithContext(c.Request.Context()).GetByID(uid)
	if err != nil {
		respondError(c, response.CodeInternal, "error.user_fetch_failed", err)
		return
	}
	if user == nil {
		respondError(c, response.CodeUnauthorized, "error.token_invalid", nil)
		return
	}
	response.Success(c, user)
}
