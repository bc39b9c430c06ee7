package cache

import (
	"context"
	"encoding/json"
	"errors"
	"net"
	"strconv"
	"strings"
	"sync/atomic"
	"time"

	"github.com/shelfwise/bookstore/internal/config"

	"github.com/redis/go-redis/v9"
)

const defaultPrefix = "bk"

// store 当前 Redis 连接与键前缀，未启用时为 nil
type store struct {
	client *redis.Client
	prefix string
}

var active atomic.Pointer[store]

// InitRedis 按配置连接 Redis；redis.enabled=false 时所有缓存操作变为空操作
func InitRedis(cfg *config.RedisConfig) error {
	if cfg == nil || !cfg.Enabled {
		swap(nil)
		return nil
	}
	host := strings.TrimSpace(cfg.Host)
	if host == "" {
		host = "127.0.0.1"
	}
	port := cfg.Port
	if port <= 0 {
		port = 6379
	}
	prefix := strings.TrimSpace(cfg.Prefix)
	if prefix == "" {
		prefix = defaultPrefix
	}
	swap(&store{
		client: redis.NewClient(&redis.Options{
			Addr:     net.JoinHostPort(host, strconv.Itoa(port)),
			Password: cfg.Password,
			DB:       cfg.DB,
		}),
		prefix: prefix,
	})
	return nil
}

func swap(next *store) {
	if prev := active.Swap(next); prev != nil {
		_ = prev.client.Close()
	}
}

// Enabled Redis 是否可用
func Enabled() bool {
	return active.Load() != nil
}

// Client 原始客户端，供限流等需要脚本的场景使用；未启用时为 nil
func Client() *redis.Client {
	if s := active.Load(); s != nil {
		return s.client
	}
	return nil
}

// Close 关闭连接并停用缓存
func Close() error {
	prev := active.Swap(nil)
	if prev == nil {
		return nil
	}
	return prev.client.Close()
}

func (s *store) key(parts ...string) string {
	return s.prefix + ":" + strings.Join(parts, ":")
}

// getJSON 读取并反序列化，未命中返回 (nil, false, nil)
func getJSON[T any](ctx context.Context, parts ...string) (*T, bool, error) {
	s := active.Load()
	if s == nil {
		return nil, false, nil
	}
	raw, err := s.client.Get(ctx, s.key(parts...)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	var value T
	if err := json.Unmarshal(raw, &value); err != nil {
		return nil, false, err
	}
	return &value, true, nil
}

func setJSON(ctx context.Context, value interface{}, ttl time.Duration, parts ...string) error {
	s := active.Load()
	if s == nil {
		return nil
	}
	payload, err := json.Marshal(value)
	if err != nil {
		return err
	}
	return s.client.Set(ctx, s.key(parts...), payload, ttl).Err()
}

func del(ctx context.Context, parts ...string) error {
	s := active.Load()
	if s == nil {
		return nil
	}
	return s.client.Del(ctx, s.key(parts...)).Err()
}
