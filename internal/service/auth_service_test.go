package service

import (
	"context"
	"errors"
	"testing"

	"github.com/shelfwise/bookstore/internal/config"
	"github.com/shelfwise/bookstore/internal/constants"
	"github.com/shelfwise/bookstore/internal/models"
	"github.com/shelfwise/bookstore/internal/repository"
)

func TestUserRegisterAndLogin(t *testing.T) {
	db := setupServiceTestDB(t, "user_auth")
	svc := NewUserAuthService(config.JWTConfig{SecretKey: "user-secret", ExpireHours: 1}, repository.NewUserRepository(db))
	ctx := context.Background()

	user, err := svc.Register(ctx, " Reader@Example.com ", "correct-horse", " Reader ")
	if err != nil {
		t.Fatalf("register failed: %v", err)
	}
	if user.Email != "reader@example.com" || user.DisplayName != "Reader" || user.PasswordHash == "correct-horse" {
		t.Fatalf("unexpected registered user: %+v", user)
	}
	if _, err := svc.Register(ctx, "reader@example.com", "another-pass", ""); !errors.Is(err, ErrEmailExists) {
		t.Fatalf("duplicate email want ErrEmailExists got %v", err)
	}
	if _, err := svc.Register(ctx, "not-an-email", "correct-horse", ""); !errors.Is(err, ErrInvalidEmail) {
		t.Fatalf("bad email want ErrInvalidEmail got %v", err)
	}
	if _, err := svc.Register(ctx, "short@example.com", "short", ""); !errors.Is(err, ErrWeakPassword) {
		t.Fatalf("short password want ErrWeakPassword got %v", err)
	}

	if _, _, _, err := svc.Login(ctx, "reader@example.com", "wrong-password"); !errors.Is(err, ErrInvalidCredentials) {
		t.Fatalf("wrong password want ErrInvalidCredentials got %v", err)
	}
	logged, token, expiresAt, err := svc.Login(ctx, "READER@example.com", "correct-horse")
	if err != nil {
		t.Fatalf("login failed: %v", err)
	}
	if logged.LastLoginAt == nil || expiresAt.IsZero() {
		t.Fatalf("login should stamp last login and expiry")
	}
	claims, err := svc.ParseUserJWT(token)
	if err != nil {
		t.Fatalf("parse token failed: %v", err)
	}
	if claims.UserID != user.ID || claims.Email != "reader@example.com" {
		t.Fatalf("unexpected claims: %+v", claims)
	}

	if err := db.Model(&models.User{}).Where("id = ?", user.ID).Update("status", constants.UserStatusDisabled).Error; err != nil {
		t.Fatalf("disable user failed: %v", err)
	}
	if _, _, _, err := svc.Login(ctx, "reader@example.com", "correct-horse"); !errors.Is(err, ErrUserDisabled) {
		t.Fatalf("disabled user want ErrUserDisabled got %v", err)
	}
	state, err := svc.ResolveUserState(ctx, user.ID)
	if err != nil {
		t.Fatalf("resolve state failed: %v", err)
	}
	if state.Status != constants.UserStatusDisabled {
		t.Fatalf("state should reflect disabled status, got %s", state.Status)
	}
	if _, err := svc.ResolveUserState(ctx, 9999); !errors.Is(err, ErrInvalidToken) {
		t.Fatalf("missing user want ErrInvalidToken got %v", err)
	}
}

func TestUserTokenRejectsOtherSecret(t *testing.T) {
	signer := NewUserAuthService(config.JWTConfig{SecretKey: "one"}, nil)
	verifier := NewUserAuthService(config.JWTConfig{SecretKey: "two"}, nil)
	token, _, err := signer.GenerateUserJWT(&models.User{ID: 1, Email: "a@example.com"})
	if err != nil {
		t.Fatalf("generate failed: %v", err)
	}
	if _, err := verifier.ParseUserJWT(token); !errors.Is(err, ErrInvalidToken) {
		t.Fatalf("foreign token want ErrInvalidToken got %v", err)
	}
	if _, err := verifier.ParseUserJWT("garbage"); !errors.Is(err, ErrInvalidToken) {
		t.Fatalf("garbage token want ErrInvalidToken got %v", err)
	}
}

func TestAdminLoginAndToken(t *testing.T) {
	db := setupServiceTestDB(t, "admin_auth")
	hash, err := HashPassword("admin-pass")
	if err != nil {
		t.Fatalf("hash failed: %v", err)
	}
	admin := &models.Admin{Username: "root", PasswordHash: hash, IsSuper: true}
	if err := db.Create(admin).Error; err != nil {
		t.Fatalf("create admin failed: %v", err)
	}
	svc := NewAuthService(config.JWTConfig{SecretKey: "admin-secret"}, repository.NewAdminRepository(db))
	ctx := context.Background()

	if _, _, _, err := svc.Login(ctx, "root", "nope"); !errors.Is(err, ErrInvalidCredentials) {
		t.Fatalf("wrong password want ErrInvalidCredentials got %v", err)
	}
	if _, _, _, err := svc.Login(ctx, "ghost", "admin-pass"); !errors.Is(err, ErrInvalidCredentials) {
		t.Fatalf("unknown admin want ErrInvalidCredentials got %v", err)
	}
	_, token, _, err := svc.Login(ctx, " root ", "admin-pass")
	if err != nil {
		t.Fatalf("login failed: %v", err)
	}
	claims, err := svc.ParseJWT(token)
	if err != nil {
		t.Fatalf("parse failed: %v", err)
	}
	if claims.AdminID != admin.ID || claims.Username != "root" {
		t.Fatalf("unexpected claims: %+v", claims)
	}
	state, err := svc.GetAdmin(ctx, admin.ID)
	if err != nil {
		t.Fatalf("get admin failed: %v", err)
	}
	if !state.IsSuper || state.Username != "root" {
		t.Fatalf("unexpected admin state: %+v", state)
	}
}
