package router

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/shelfwise/bookstore/internal/config"
	"github.com/shelfwise/bookstore/internal/http/response"
	"github.com/shelfwise/bookstore/internal/i18n"
	"github.com/shelfwise/bookstore/internal/logger"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
)

// 固定窗口计数：首次命中时设置过期，返回 {当前计数, 剩余秒数}
var fixedWindowScript = redis.NewScript(`
local current = redis.call("INCR", KEYS[1])
if current == 1 then
	redis.call("EXPIRE", KEYS[1], ARGV[1])
end
return {current, redis.call("TTL", KEYS[1])}
`)

// RateLimitKeyFunc 从请求中提取限流维度
type RateLimitKeyFunc func(*gin.Context) string

// RateLimiter Redis 固定窗口限流器
type RateLimiter struct {
	client *redis.Client
	prefix string
	window int
	limit  int
}

// NewRateLimiter window 或 limit 非正时限流关闭
func NewRateLimiter(client *redis.Client, prefix string, cfg config.RateLimitConfig) *RateLimiter {
	return &RateLimiter{
		client: client,
		prefix: strings.TrimSuffix(prefix, ":"),
		window: cfg.WindowSeconds,
		limit:  cfg.MaxRequests,
	}
}

func (l *RateLimiter) enabled() bool {
	return l != nil && l.client != nil && l.window > 0 && l.limit > 0
}

// Allow 计数一次，超过上限时返回需要等待的时长
func (l *RateLimiter) Allow(ctx context.Context, key string) (bool, time.Duration, error) {
	if !l.enabled() {
		return true, 0, nil
	}
	if l.prefix != "" {
		key = l.prefix + ":" + key
	}
	values, err := fixedWindowScript.Run(ctx, l.client, []string{key}, l.window).Int64Slice()
	if err != nil {
		return true, 0, fmt.Errorf("rate limit %s: %w", key, err)
	}
	if len(values) < 2 {
		return true, 0, fmt.Errorf("rate limit %s: unexpected reply %v", key, values)
	}
	if values[0] <= int64(l.limit) {
		return true, 0, nil
	}
	wait := values[1]
	if wait < 1 {
		wait = int64(l.window)
	}
	return false, time.Duration(wait) * time.Second, nil
}

// Middleware 超限时返回 429，Redis 不可用时放行并记录日志
func (l *RateLimiter) Middleware(keyFunc RateLimitKeyFunc, messageKey string) gin.HandlerFunc {
	return func(c *gin.Context) {
		if !l.enabled() {
			c.Next()
			return
		}
		key := ""
		if keyFunc != nil {
			key = strings.TrimSpace(keyFunc(c))
		}
		if key == "" {
			key = c.ClientIP()
		}

		allowed, wait, err := l.Allow(c.Request.Context(), key)
		if err != nil {
			logger.Warnw("rate_limit_unavailable", "prefix", l.prefix, "error", err)
			c.Next()
			return
		}
		if !allowed {
			if messageKey == "" {
				messageKey = "error.rate_limited"
			}
			seconds := int(wait / time.Second)
			c.Header("Retry-After", fmt.Sprint(seconds))
			response.Error(c, response.CodeTooManyRequests, i18n.Sprintf(i18n.ResolveLocale(c), messageKey, seconds))
			c.Abort()
			return
		}
		c.Next()
	}
}

// KeyByIP 按客户端 IP
func KeyByIP(c *gin.Context) string {
	return c.ClientIP()
}

// KeyByUserID 按登录用户，未登录时按 IP
func KeyByUserID(c *gin.Context) string {
	if userID := c.GetUint(userIDContextKey); userID > 0 {
		return fmt.Sprintf("user:%d", userID)
	}
	return c.ClientIP()
}

// KeyByBodyField 按 JSON 请求体中的字段（小写）加 IP，读取后还原请求体
func KeyByBodyField(field string) RateLimitKeyFunc {
	return func(c *gin.Context) string {
		value := strings.ToLower(bodyStringField(c, field))
		if value == "" {
			return c.ClientIP()
		}
		return value + "|" + c.ClientIP()
	}
}

func bodyStringField(c *gin.Context, field string) string {
	if c.Request == nil || c.Request.Body == nil {
		return ""
	}
	body, err := io.ReadAll(c.Request.Body)
	c.Request.Body = io.NopCloser(bytes.NewReader(body))
	if err != nil || len(body) == 0 {
		return ""
	}
	var payload map[string]json.RawMessage
	if err := json.Unmarshal(body, &payload); err != nil {
		return ""
	}
	var value string
	if err := json.Unmarshal(payload[field], &value); err != nil {
		return ""
	}
	return strings.TrimSpace(value)
}
