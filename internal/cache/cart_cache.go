package cache

import (
	"context"
	"encoding/json"
	"strconv"
	"time"
)

const defaultCartViewTTL = 10 * time.Minute

func cartViewKey(userID uint) []string {
	return []string{"cart", "view", strconv.FormatUint(uint64(userID), 10)}
}

// GetCartView 读取购物车视图到 dest，未命中返回 false
func GetCartView(ctx context.Context, userID uint, dest interface{}) (bool, error) {
	if userID == 0 {
		return false, nil
	}
	raw, hit, err := getJSON[json.RawMessage](ctx, cartViewKey(userID)...)
	if err != nil || !hit {
		return false, err
	}
	return true, json.Unmarshal(*raw, dest)
}

// SetCartView 写入购物车视图，ttl 非正时使用默认值
func SetCartView(ctx context.Context, userID uint, view interface{}, ttl time.Duration) error {
	if userID == 0 || view == nil {
		return nil
	}
	if ttl <= 0 {
		ttl = defaultCartViewTTL
	}
	return setJSON(ctx, view, ttl, cartViewKey(userID)...)
}

// DelCartView 购物车或库存变更后失效视图
func DelCartView(ctx context.Context, userID uint) error {
	if userID == 0 {
		return nil
	}
	return del(ctx, cartViewKey(userID)...)
}
