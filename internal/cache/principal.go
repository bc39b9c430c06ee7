package cache

import (
	"context"
	"strconv"
	"time"

	"github.com/shelfwise/bookstore/internal/models"
)

// 登录态快照的有效期，账号状态变更时主动覆盖
const principalTTL = 10 * time.Minute

// UserAuthState 鉴权中间件使用的用户状态
type UserAuthState struct {
	UserID uint   `json:"user_id"`
	Email  string `json:"email"`
	Status string `json:"status"`
}

// AdminAuthState 鉴权中间件使用的管理员状态
type AdminAuthState struct {
	AdminID  uint   `json:"admin_id"`
	Username string `json:"username"`
	IsSuper  bool   `json:"is_super"`
}

// UserStateOf 由用户记录生成快照
func UserStateOf(user *models.User) *UserAuthState {
	if user == nil {
		return nil
	}
	return &UserAuthState{UserID: user.ID, Email: user.Email, Status: user.Status}
}

// AdminStateOf 由管理员记录生成快照
func AdminStateOf(admin *models.Admin) *AdminAuthState {
	if admin == nil {
		return nil
	}
	return &AdminAuthState{AdminID: admin.ID, Username: admin.Username, IsSuper: admin.IsSuper}
}

// GetUserAuthState 读取用户快照
func GetUserAuthState(ctx context.Context, userID uint) (*UserAuthState, bool, error) {
	if userID == 0 {
		return nil, false, nil
	}
	return getJSON[UserAuthState](ctx, "auth", "user", strconv.FormatUint(uint64(userID), 10))
}

// SetUserAuthState 写入用户快照
func SetUserAuthState(ctx context.Context, state *UserAuthState) error {
	if state == nil || state.UserID == 0 {
		return nil
	}
	return setJSON(ctx, state, principalTTL, "auth", "user", strconv.FormatUint(uint64(state.UserID), 10))
}

// DelUserAuthState 账号停用后删除快照
func DelUserAuthState(ctx context.Context, userID uint) error {
	return del(ctx, "auth", "user", strconv.FormatUint(uint64(userID), 10))
}

// GetAdminAuthState 读取管理员快照
func GetAdminAuthState(ctx context.Context, adminID uint) (*AdminAuthState, bool, error) {
	if adminID == 0 {
		return nil, false, nil
	}
	return getJSON[AdminAuthState](ctx, "auth", "admin", strconv.FormatUint(uint64(adminID), 10))
}

// SetAdminAuthState 写入管理员快照
func SetAdminAuthState(ctx context.Context, state *AdminAuthState) error {
	if state == nil || state.AdminID == 0 {
		return nil
	}
	return setJSON(ctx, state, principalTTL, "auth", "admin", strconv.FormatUint(uint64(state.AdminID), 10))
}
