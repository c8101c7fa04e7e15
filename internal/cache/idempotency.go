package cache

import (
	"context"
	"fmt"
	"strings"
	"time"
)

const idempotencyDefaultTTL = 10 * time.Minute

// AcquireIdempotency 以幂等键抢占执行权
// 同一 (scope, token) 在 TTL 内只有第一次调用返回 true。
// 缓存未启用时直接放行，由数据库条件更新兜底。
func AcquireIdempotency(ctx context.Context, scope, token string, ttl time.Duration) (bool, error) {
	scope = strings.TrimSpace(scope)
	token = strings.TrimSpace(token)
	if scope == "" || token == "" {
		return true, nil
	}
	if ttl <= 0 {
		ttl = idempotencyDefaultTTL
	}
	key := fmt.Sprintf("idempotency:%s:%s", scope, token)
	return SetNX(ctx, key, "1", ttl)
}

// ReleaseIdempotency 释放幂等键（操作失败后允许重试）
func ReleaseIdempotency(ctx context.Context, scope, token string) error {
	scope = strings.TrimSpace(scope)
	token = strings.TrimSpace(token)
	if scope == "" || token == "" {
		return nil
	}
	key := fmt.Sprintf("idempotency:%s:%s", scope, token)
	return Del(ctx, key)
}
