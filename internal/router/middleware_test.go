package router

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/shelfwise/bookstore/internal/authz"
	"github.com/shelfwise/bookstore/internal/config"
	"github.com/shelfwise/bookstore/internal/constants"
	"github.com/shelfwise/bookstore/internal/models"
	"github.com/shelfwise/bookstore/internal/repository"
	"github.com/shelfwise/bookstore/internal/service"

	"github.com/gin-gonic/gin"
	"github.com/glebarez/sqlite"
	"gorm.io/gorm"
)

func setupRouterTestDB(t *testing.T, name string) *gorm.DB {
	t.Helper()
	dsn := fmt.Sprintf("file:%s_%d?mode=memory&cache=shared", name, time.Now().UnixNano())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	if err != nil {
		t.Fatalf("open sqlite failed: %v", err)
	}
	sqlDB, err := db.DB()
	if err != nil {
		t.Fatalf("get sql db failed: %v", err)
	}
	sqlDB.SetMaxOpenConns(1)
	if err := db.AutoMigrate(&models.Admin{}, &models.User{}); err != nil {
		t.Fatalf("auto migrate failed: %v", err)
	}
	t.Cleanup(func() { _ = sqlDB.Close() })
	return db
}

func decodeStatusCode(t *testing.T, w *httptest.ResponseRecorder) int {
	t.Helper()
	var resp struct {
		StatusCode int `json:"status_code"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("unmarshal response failed: %v", err)
	}
	return resp.StatusCode
}

func TestResolveAllowedOrigin(t *testing.T) {
	if got := resolveAllowedOrigin("https://example.com", []string{"*"}, false); got != "*" {
		t.Fatalf("wildcard without credentials should return *, got %s", got)
	}
	if got := resolveAllowedOrigin("https://example.com", []string{"*"}, true); got != "https://example.com" {
		t.Fatalf("wildcard with credentials should echo origin, got %s", got)
	}
	if got := resolveAllowedOrigin("https://A.example.com", []string{"https://a.example.com"}, false); got != "https://A.example.com" {
		t.Fatalf("allow-list should match case-insensitively, got %s", got)
	}
	if got := resolveAllowedOrigin("https://x.example.com", []string{"https://a.example.com"}, false); got != "" {
		t.Fatalf("unmatched origin should be empty, got %s", got)
	}
}

func TestCORSMiddlewarePreflight(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(CORSMiddleware(config.CORSConfig{AllowedOrigins: []string{"https://shop.example.com"}, MaxAge: 600}))
	r.GET("/ping", func(c *gin.Context) { c.Status(http.StatusOK) })

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodOptions, "/ping", nil)
	req.Header.Set("Origin", "https://shop.example.com")
	r.ServeHTTP(w, req)

	if w.Code != http.StatusNoContent {
		t.Fatalf("preflight want 204 got %d", w.Code)
	}
	if w.Header().Get("Access-Control-Allow-Origin") != "https://shop.example.com" {
		t.Fatalf("unexpected allow origin %q", w.Header().Get("Access-Control-Allow-Origin"))
	}
	if w.Header().Get("Access-Control-Max-Age") != "600" {
		t.Fatalf("max age header missing")
	}
}

func TestRequestIDMiddleware(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(RequestIDMiddleware())
	r.GET("/ping", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"request_id": getRequestID(c)})
	})

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/ping", nil)
	req.Header.Set(requestIDHeader, "req-123")
	r.ServeHTTP(w, req)

	if w.Header().Get(requestIDHeader) != "req-123" {
		t.Fatalf("response request id want req-123 got %s", w.Header().Get(requestIDHeader))
	}
	var resp map[string]string
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("unmarshal response failed: %v", err)
	}
	if resp["request_id"] != "req-123" {
		t.Fatalf("context request id want req-123 got %s", resp["request_id"])
	}

	w2 := httptest.NewRecorder()
	r.ServeHTTP(w2, httptest.NewRequest(http.MethodGet, "/ping", nil))
	if w2.Header().Get(requestIDHeader) == "" {
		t.Fatalf("generated request id should not be empty")
	}
}

func TestUserJWTAuthMiddlewareMissingSecret(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(UserJWTAuthMiddleware("", nil))
	r.GET("/me", func(c *gin.Context) { c.JSON(http.StatusOK, gin.H{"ok": true}) })

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/me", nil))
	if code := decodeStatusCode(t, w); code != 401 {
		t.Fatalf("status_code want 401 got %d", code)
	}
}

func TestUserJWTAuthMiddleware(t *testing.T) {
	gin.SetMode(gin.TestMode)
	db := setupRouterTestDB(t, "router_user_jwt")
	jwtCfg := config.JWTConfig{SecretKey: "user-secret", ExpireHours: 1}
	userAuth := service.NewUserAuthService(jwtCfg, repository.NewUserRepository(db))

	active := &models.User{Email: "active@example.com", PasswordHash: "x", Status: constants.UserStatusActive}
	disabled := &models.User{Email: "disabled@example.com", PasswordHash: "x", Status: constants.UserStatusDisabled}
	for _, user := range []*models.User{active, disabled} {
		if err := db.Create(user).Error; err != nil {
			t.Fatalf("create user failed: %v", err)
		}
	}

	r := gin.New()
	r.Use(UserJWTAuthMiddleware(jwtCfg.SecretKey, userAuth))
	r.GET("/me", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status_code": 0, "user_id": c.GetUint(userIDContextKey)})
	})

	call := func(header string) *httptest.ResponseRecorder {
		w := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodGet, "/me", nil)
		if header != "" {
			req.Header.Set("Authorization", header)
		}
		r.ServeHTTP(w, req)
		return w
	}

	activeToken, _, err := userAuth.GenerateUserJWT(active)
	if err != nil {
		t.Fatalf("generate token failed: %v", err)
	}
	w := call("Bearer " + activeToken)
	var resp struct {
		StatusCode int  `json:"status_code"`
		UserID     uint `json:"user_id"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("unmarshal response failed: %v", err)
	}
	if resp.StatusCode != 0 || resp.UserID != active.ID {
		t.Fatalf("active user should pass, got %+v", resp)
	}

	disabledToken, _, err := userAuth.GenerateUserJWT(disabled)
	if err != nil {
		t.Fatalf("generate token failed: %v", err)
	}
	cases := map[string]string{
		"missing header": "",
		"not bearer":     "Token " + activeToken,
		"garbage token":  "Bearer not-a-jwt",
		"disabled user":  "Bearer " + disabledToken,
	}
	for name, header := range cases {
		if code := decodeStatusCode(t, call(header)); code != 401 {
			t.Fatalf("%s: status_code want 401 got %d", name, code)
		}
	}
}

func TestAdminRBACMiddleware(t *testing.T) {
	gin.SetMode(gin.TestMode)
	db := setupRouterTestDB(t, "router_admin_rbac")
	authzService, err := authz.NewService(db)
	if err != nil {
		t.Fatalf("init authz failed: %v", err)
	}
	if err := authzService.BootstrapBuiltinRoles(); err != nil {
		t.Fatalf("bootstrap roles failed: %v", err)
	}
	if err := authzService.SetAdminRoles(2, []string{"finance"}); err != nil {
		t.Fatalf("assign role failed: %v", err)
	}

	newEngine := func(adminID uint, isSuper bool) *gin.Engine {
		r := gin.New()
		r.Use(func(c *gin.Context) {
			c.Set(adminIDContextKey, adminID)
			c.Set(adminIsSuperContextKey, isSuper)
			c.Next()
		})
		r.Use(AdminRBACMiddleware(authzService))
		r.POST("/api/v1/admin/orders/:id/confirm-payment", func(c *gin.Context) {
			c.JSON(http.StatusOK, gin.H{"status_code": 0})
		})
		r.PATCH("/api/v1/admin/orders/:id/shipping", func(c *gin.Context) {
			c.JSON(http.StatusOK, gin.H{"status_code": 0})
		})
		return r
	}
	call := func(r *gin.Engine, method, path string) int {
		w := httptest.NewRecorder()
		r.ServeHTTP(w, httptest.NewRequest(method, path, nil))
		return decodeStatusCode(t, w)
	}

	finance := newEngine(2, false)
	if code := call(finance, http.MethodPost, "/api/v1/admin/orders/7/confirm-payment"); code != 0 {
		t.Fatalf("finance should confirm payments, got %d", code)
	}
	if code := call(finance, http.MethodPatch, "/api/v1/admin/orders/7/shipping"); code != 403 {
		t.Fatalf("finance should not update shipping, got %d", code)
	}

	noRoles := newEngine(3, false)
	if code := call(noRoles, http.MethodPost, "/api/v1/admin/orders/7/confirm-payment"); code != 403 {
		t.Fatalf("admin without roles want 403 got %d", code)
	}

	super := newEngine(1, true)
	if code := call(super, http.MethodPatch, "/api/v1/admin/orders/7/shipping"); code != 0 {
		t.Fatalf("super admin should bypass rbac, got %d", code)
	}
}

func TestDeriveAdminPermissionModule(t *testing.T) {
	cases := map[string]string{
		"/admin/orders/:id/cancel": "orders",
		"/admin/authz/roles":       "authz",
		"/admin":                   "admin",
		"/":                        "system",
	}
	for object, want := range cases {
		if got := deriveAdminPermissionModule(object); got != want {
			t.Fatalf("%s: want %s got %s", object, want, got)
		}
	}
}
