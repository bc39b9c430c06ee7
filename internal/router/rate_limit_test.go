package router

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/shelfwise/bookstore/internal/config"

	"github.com/alicebob/miniredis/v2"
	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
)

func newTestRedis(t *testing.T) (*miniredis.Miniredis, *redis.Client) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return mr, client
}

func TestKeyByBodyFieldRestoresBody(t *testing.T) {
	gin.SetMode(gin.TestMode)
	c, _ := gin.CreateTestContext(httptest.NewRecorder())
	c.Request = httptest.NewRequest(http.MethodPost, "/auth/login", strings.NewReader(`{"email":" Reader@Example.com ","password":"x"}`))
	c.Request.Header.Set("Content-Type", "application/json")
	c.Request.RemoteAddr = "1.2.3.4:5678"

	if key := KeyByBodyField("email")(c); key != "reader@example.com|1.2.3.4" {
		t.Fatalf("key want reader@example.com|1.2.3.4 got %s", key)
	}
	body, err := io.ReadAll(c.Request.Body)
	if err != nil {
		t.Fatalf("read restored body failed: %v", err)
	}
	if !strings.Contains(string(body), "Reader@Example.com") {
		t.Fatalf("request body should be restored, got %s", body)
	}
	if key := KeyByBodyField("username")(c); key != "1.2.3.4" {
		t.Fatalf("missing field should fall back to ip, got %s", key)
	}
}

func TestRateLimiterDisabled(t *testing.T) {
	gin.SetMode(gin.TestMode)
	_, client := newTestRedis(t)
	for name, limiter := range map[string]*RateLimiter{
		"no client": NewRateLimiter(nil, "bk:rate:login", config.RateLimitConfig{WindowSeconds: 60, MaxRequests: 1}),
		"no limit":  NewRateLimiter(client, "bk:rate:login", config.RateLimitConfig{WindowSeconds: 60}),
	} {
		r := gin.New()
		r.GET("/ping", limiter.Middleware(KeyByIP, ""), func(c *gin.Context) {
			c.JSON(http.StatusOK, gin.H{"status_code": 0})
		})
		for i := 0; i < 3; i++ {
			w := httptest.NewRecorder()
			r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/ping", nil))
			if code := decodeStatusCode(t, w); code != 0 {
				t.Fatalf("%s: request %d should pass, got %d", name, i, code)
			}
		}
	}
}

func TestRateLimiterBlocksAfterLimit(t *testing.T) {
	gin.SetMode(gin.TestMode)
	mr, client := newTestRedis(t)
	limiter := NewRateLimiter(client, "bk:rate:checkout", config.RateLimitConfig{WindowSeconds: 60, MaxRequests: 2})

	r := gin.New()
	r.Use(func(c *gin.Context) {
		c.Set(userIDContextKey, uint(42))
		c.Next()
	})
	r.POST("/checkout", limiter.Middleware(KeyByUserID, "error.checkout_too_many"), func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status_code": 0})
	})

	codes := make([]int, 0, 3)
	var last *httptest.ResponseRecorder
	for i := 0; i < 3; i++ {
		last = httptest.NewRecorder()
		r.ServeHTTP(last, httptest.NewRequest(http.MethodPost, "/checkout", nil))
		codes = append(codes, decodeStatusCode(t, last))
	}
	if codes[0] != 0 || codes[1] != 0 || codes[2] != 429 {
		t.Fatalf("want [0 0 429] got %v", codes)
	}
	if last.Header().Get("Retry-After") == "" {
		t.Fatalf("blocked response should carry Retry-After")
	}
	if ttl := mr.TTL("bk:rate:checkout:user:42"); ttl <= 0 {
		t.Fatalf("counter should be scoped to the user and expire, ttl %v", ttl)
	}

	mr.FastForward(61 * time.Second)
	allowed, _, err := limiter.Allow(context.Background(), "user:42")
	if err != nil || !allowed {
		t.Fatalf("new window should allow again, got %v %v", allowed, err)
	}
}

func TestRateLimiterFailsOpenWhenRedisDown(t *testing.T) {
	gin.SetMode(gin.TestMode)
	mr, client := newTestRedis(t)
	limiter := NewRateLimiter(client, "bk:rate:login", config.RateLimitConfig{WindowSeconds: 60, MaxRequests: 1})
	mr.Close()

	r := gin.New()
	r.GET("/ping", limiter.Middleware(KeyByIP, ""), func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status_code": 0})
	})
	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/ping", nil))
	if code := decodeStatusCode(t, w); code != 0 {
		t.Fatalf("redis outage should not block requests, got %d", code)
	}
}

func TestKeyByUserIDFallsBackToIP(t *testing.T) {
	gin.SetMode(gin.TestMode)
	c, _ := gin.CreateTestContext(httptest.NewRecorder())
	c.Request = httptest.NewRequest(http.MethodPost, "/checkout", nil)
	c.Request.RemoteAddr = "5.6.7.8:1234"
	if got := KeyByUserID(c); got != "5.6.7.8" {
		t.Fatalf("anonymous key want ip got %s", got)
	}
	c.Set(userIDContextKey, uint(9))
	if got := KeyByUserID(c); got != "user:9" {
		t.Fatalf("user key want user:9 got %s", got)
	}
}
