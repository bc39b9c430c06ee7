package admin

import (
	"errors"

	"github.com/shelfwise/bookstore/internal/authz"
	handlershared "github.com/shelfwise/bookstore/internal/http/handlers/shared"
	"github.com/shelfwise/bookstore/internal/http/response"

	"github.com/gin-gonic/gin"
)

// AdminRolesRequest 设置管理员角色请求
type AdminRolesRequest struct {
	Roles []string `json:"roles"`
}

// AdminListRoles 角色列表
func (h *Handler) AdminListRoles(c *gin.Context) {
	roles, err := h.AuthzService.ListRoles()
	if err != nil {
		respondError(c, response.CodeInternal, "error.role_fetch_failed", err)
		return
	}
	response.Success(c, roles)
}

// AdminGetAdminRoles 查询管理员角色
func (h *Handler) AdminGetAdminRoles(c *gin.Context) {
	adminID, ok := handlershared.ParamUint(c, "id")
	if !ok {
		return
	}
	roles, err := h.AuthzService.GetAdminRoles(adminID)
	if err != nil {
		respondError(c, response.CodeInternal, "error.role_fetch_failed", err)
		return
	}
	response.Success(c, gin.H{"admin_id": adminID, "roles": roles})
}

// AdminSetAdminRoles 覆盖设置管理员角色
func (h *Handler) AdminSetAdminRoles(c *gin.Context) {
	adminID, ok := handlershared.ParamUint(c, "id")
	if !ok {
		return
	}
	var req AdminRolesRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, response.CodeBadRequest, "error.bad_request", err)
		return
	}
	admin, err := h.AdminRepo.WithContext(c.Request.Context()).GetByID(adminID)
	if err != nil {
		respondError(c, response.CodeInternal, "error.role_save_failed", err)
		return
	}
	if admin == nil {
		respondError(c, response.CodeNotFound, "error.not_found", nil)
		return
	}
	if err := h.AuthzService.SetAdminRoles(adminID, req.Roles); err != nil {
		if errors.Is(err, authz.ErrUnknownRole) || errors.Is(err, authz.ErrRoleRequired) {
			respondError(c, response.CodeBadRequest, "error.role_invalid", nil)
			return
		}
		respondError(c, response.CodeInternal, "error.role_save_failed", err)
		return
	}
	requestLog(c).Infow("admin_roles_updated", "operator_id", c.GetUint("admin_id"), "admin_id", adminID, "roles", req.Roles)
	roles, err := h.AuthzService.GetAdminRoles(adminID)
	if err != nil {
		respondError(c, response.CodeInternal, "error.role_fetch_failed", err)
		return
	}
	response.Success(c, gin.H{"admin_id": adminID, "roles": roles})
}
