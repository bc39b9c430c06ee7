package admin

import (
	"errors"
	"time"

	"github.com/shelfwise/bookstore/internal/http/response"
	"github.com/shelfwise/bookstore/internal/service"

	"github.com/gin-gonic/gin"
)

// LoginRequest 管理员登录请求
type LoginRequest struct {
	Username string `json:"username" binding:"required"`
	Password string `json:"password" binding:"required"`
}

// AdminLogin 管理员登录
func (h *Handler) AdminLogin(c *gin.Context) {
	var req LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, response.CodeBadRequest, "error.bad_request", err)
		return
	}

	admin, token, expiresAt, err := h.AuthService.Login(c.Request.Context(), req.Username, req.Password)
	if err != nil {
		if errors.Is(err, service.ErrInvalidCredentials) {
			respondError(c, response.CodeUnauthorized, "error.login_invalid", nil)
			return
		}
		respondError(c, response.CodeInternal, "error.login_failed", err)
		return
	}
	requestLog(c).Infow("admin_login", "admin_id", admin.ID, "username", admin.Username)

	response.Success(c, gin.H{
		"token":      token,
		"expires_at": expiresAt.Format(time.RFC3339),
		"user": gin.H{
			"id":       admin.ID,
			"username": admin.Username,
			"is_super": admin.IsSuper,
		},
	})
}

// GetAdminMe 当前管理员及其角色
func (h *Handler) GetAdminMe(c *gin.Context) {
	adminID, ok := getAdminID(c)
	if !ok {
		return
	}
	state, err := h.AuthService.GetAdmin(c.Request.Context(), adminID)
	if err != nil {
		respondError(c, response.CodeUnauthorized, "error.token_invalid", err)
		return
	}
	roles, err := h.AuthzService.GetAdminRoles(adminID)
	if err != nil {
		respondError(c, response.CodeInternal, "error.role_fetch_failed", err)
		return
	}
	response.Success(c, gin.H{
		"id":       state.AdminID,
		"username": state.Username,
		"is_super": state.IsSuper,
		"roles":    roles,
	})
}
