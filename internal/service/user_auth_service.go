package service

import (
	"context"
	"errors"
	"net/mail"
	"strings"
	"time"

	"github.com/shelfwise/bookstore/internal/cache"
	"github.com/shelfwise/bookstore/internal/config"
	"github.com/shelfwise/bookstore/internal/constants"
	"github.com/shelfwise/bookstore/internal/logger"
	"github.com/shelfwise/bookstore/internal/models"
	"github.com/shelfwise/bookstore/internal/repository"

	"github.com/golang-jwt/jwt/v5"
)

const minPasswordLength = 8

// UserAuthService 用户认证服务
type UserAuthService struct {
	cfg      config.JWTConfig
	userRepo repository.UserRepository
}

// NewUserAuthService 创建用户认证服务
func NewUserAuthService(cfg config.JWTConfig, userRepo repository.UserRepository) *UserAuthService {
	return &UserAuthService{
		cfg:      cfg,
		userRepo: userRepo,
	}
}

// UserJWTClaims 用户 JWT 声明
type UserJWTClaims struct {
	UserID uint   `json:"user_id"`
	Email  string `json:"email"`
	jwt.RegisteredClaims
}

// GenerateUserJWT 生成用户 JWT Token
func (s *UserAuthService) GenerateUserJWT(user *models.User) (string, time.Time, error) {
	now := time.Now()
	expiresAt := now.Add(time.Duration(resolveExpireHours(s.cfg.ExpireHours, 72)) * time.Hour)
	claims := UserJWTClaims{
		UserID: user.ID,
		Email:  user.Email,
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

// ParseUserJWT 解析用户 JWT Token
func (s *UserAuthService) ParseUserJWT(tokenString string) (*UserJWTClaims, error) {
	parser := jwt.NewParser(jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	claims := &UserJWTClaims{}
	token, err := parser.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (interface{}, error) {
		return []byte(s.cfg.SecretKey), nil
	})
	if err != nil {
		return nil, errors.Join(ErrInvalidToken, err)
	}
	if !token.Valid {
		return nil, ErrInvalidToken
	}
	return claims, nil
}

// Register 注册用户
func (s *UserAuthService) Register(ctx context.Context, email, password, displayName string) (*models.User, error) {
	normalized, err := normalizeEmail(email)
	if err != nil {
		return nil, err
	}
	if len(password) < minPasswordLength {
		return nil, ErrWeakPassword
	}
	repo := s.userRepo.WithContext(ctx)
	exist, err := repo.GetByEmail(normalized)
	if err != nil {
		return nil, wrapStorage(err)
	}
	if exist != nil {
		return nil, ErrEmailExists
	}
	hash, err := HashPassword(password)
	if err != nil {
		return nil, err
	}
	user := &models.User{
		Email:        normalized,
		PasswordHash: hash,
		DisplayName:  strings.TrimSpace(displayName),
		Status:       constants.UserStatusActive,
	}
	if err := repo.Create(user); err != nil {
		return nil, wrapStorage(err)
	}
	return user, nil
}

// Login 用户登录
func (s *UserAuthService) Login(ctx context.Context, email, password string) (*models.User, string, time.Time, error) {
	normalized, err := normalizeEmail(email)
	if err != nil {
		return nil, "", time.Time{}, ErrInvalidCredentials
	}
	repo := s.userRepo.WithContext(ctx)
	user, err := repo.GetByEmail(normalized)
	if err != nil {
		return nil, "", time.Time{}, wrapStorage(err)
	}
	if user == nil || VerifyPassword(user.PasswordHash, password) != nil {
		return nil, "", time.Time{}, ErrInvalidCredentials
	}
	if user.Status != constants.UserStatusActive {
		return nil, "", time.Time{}, ErrUserDisabled
	}

	token, expiresAt, err := s.GenerateUserJWT(user)
	if err != nil {
		return nil, "", time.Time{}, err
	}
	now := time.Now()
	if err := repo.TouchLastLogin(user.ID, now); err != nil {
		logger.Warnw("user_touch_last_login_failed", "user_id", user.ID, "error", err)
	}
	user.LastLoginAt = &now
	if err := cache.SetUserAuthState(ctx, cache.UserStateOf(user)); err != nil {
		logger.Warnw("user_auth_state_cache_failed", "user_id", user.ID, "error", err)
	}
	return user, token, expiresAt, nil
}

// ResolveUserState 获取用户认证状态，优先读取缓存
func (s *UserAuthService) ResolveUserState(ctx context.Context, userID uint) (*cache.UserAuthState, error) {
	if state, hit, err := cache.GetUserAuthState(ctx, userID); err == nil && hit {
		return state, nil
	}
	user, err := s.userRepo.WithContext(ctx).GetByID(userID)
	if err != nil {
		return nil, wrapStorage(err)
	}
	if user == nil {
		return nil, ErrInvalidToken
	}
	state := cache.UserStateOf(user)
	if err := cache.SetUserAuthState(ctx, state); err != nil {
		logger.Warnw("user_auth_state_cache_failed", "user_id", user.ID, "error", err)
	}
	return state, nil
}

func normalizeEmail(email string) (string, error) {
	normalized := strings.ToLower(strings.TrimSpace(email))
	if normalized == "" {
		return "", ErrInvalidEmail
	}
	if _, err := mail.ParseAddress(normalized); err != nil {
		return "", ErrInvalidEmail
	}
	return normalized, nil
}
