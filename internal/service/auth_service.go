package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/shelfwise/bookstore/internal/cache"
	"github.com/shelfwise/bookstore/internal/config"
	"github.com/shelfwise/bookstore/internal/logger"
	"github.com/shelfwise/bookstore/internal/models"
	"github.com/shelfwise/bookstore/internal/repository"

	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/crypto/bcrypt"
)

// AuthService 管理员认证服务
type AuthService struct {
	cfg       config.JWTConfig
	adminRepo repository.AdminRepository
}

// NewAuthService 创建管理员认证服务
func NewAuthService(cfg config.JWTConfig, adminRepo repository.AdminRepository) *AuthService {
	return &AuthService{
		cfg:       cfg,
		adminRepo: adminRepo,
	}
}

// HashPassword 使用 bcrypt 加密密码
func HashPassword(password string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", err
	}
	return string(hash), nil
}

// VerifyPassword 验证密码
func VerifyPassword(hashedPassword, password string) error {
	return bcrypt.CompareHashAndPassword([]byte(hashedPassword), []byte(password))
}

// JWTClaims 管理员 JWT 声明
type JWTClaims struct {
	AdminID  uint   `json:"admin_id"`
	Username string `json:"username"`
	jwt.RegisteredClaims
}

// GenerateJWT 生成管理员 JWT Token
func (s *AuthService) GenerateJWT(admin *models.Admin) (string, time.Time, error) {
	now := time.Now()
	expiresAt := now.Add(time.Duration(resolveExpireHours(s.cfg.ExpireHours, 12)) * time.Hour)
	claims := JWTClaims{
		AdminID:  admin.ID,
		Username: admin.Username,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(expiresAt),
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	tokenString, err := token.SignedString([]byte(s.cfg.SecretKey))
	if err != nil {
		return "", time.Time{}, err
	}
	return tokenString, expiresAt, nil
}

// ParseJWT 解析管理员 JWT Token
func (s *AuthService) ParseJWT(tokenString string) (*JWTClaims, error) {
	parser := jwt.NewParser(jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	token, err := parser.ParseWithClaims(tokenString, &JWTClaims{}, func(token *jwt.Token) (interface{}, error) {
		return []byte(s.cfg.SecretKey), nil
	})
	if err != nil {
		return nil, errors.Join(ErrInvalidToken, err)
	}
	if claims, ok := token.Claims.(*JWTClaims); ok && token.Valid {
		return claims, nil
	}
	return nil, ErrInvalidToken
}

// Login 管理员登录
func (s *AuthService) Login(ctx context.Context, username, password string) (*models.Admin, string, time.Time, error) {
	repo := s.adminRepo.WithContext(ctx)
	admin, err := repo.GetByUsername(strings.TrimSpace(username))
	if err != nil {
		return nil, "", time.Time{}, wrapStorage(err)
	}
	if admin == nil {
		return nil, "", time.Time{}, ErrInvalidCredentials
	}
	if err := VerifyPassword(admin.PasswordHash, password); err != nil {
		return nil, "", time.Time{}, ErrInvalidCredentials
	}

	token, expiresAt, err := s.GenerateJWT(admin)
	if err != nil {
		return nil, "", time.Time{}, err
	}

	now := time.Now()
	if err := repo.TouchLastLogin(admin.ID, now); err != nil {
		logger.Warnw("admin_touch_last_login_failed", "admin_id", admin.ID, "error", err)
	}
	admin.LastLoginAt = &now
	if err := cache.SetAdminAuthState(ctx, cache.AdminStateOf(admin)); err != nil {
		logger.Warnw("admin_auth_state_cache_failed", "admin_id", admin.ID, "error", err)
	}
	return admin, token, expiresAt, nil
}

// GetAdmin 获取管理员，优先读取认证状态缓存
func (s *AuthService) GetAdmin(ctx context.Context, adminID uint) (*cache.AdminAuthState, error) {
	if state, hit, err := cache.GetAdminAuthState(ctx, adminID); err == nil && hit {
		return state, nil
	}
	admin, err := s.adminRepo.WithContext(ctx).GetByID(adminID)
	if err != nil {
		return nil, wrapStorage(err)
	}
	if admin == nil {
		return nil, ErrInvalidToken
	}
	state := cache.AdminStateOf(admin)
	if err := cache.SetAdminAuthState(ctx, state); err != nil {
		logger.Warnw("admin_auth_state_cache_failed", "admin_id", admin.ID, "error", err)
	}
	return state, nil
}

func resolveExpireHours(hours, fallback int) int {
	if hours <= 0 {
		return fallback
	}
	return hours
}
