package api

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"
)

// redisCounter 抽出限流用到的最小 redis 接口, 方便测试替身。
type redisCounter interface {
	Incr(ctx context.Context, key string) *redis.IntCmd
	Expire(ctx context.Context, key string, expiration time.Duration) *redis.BoolCmd
	Del(ctx context.Context, keys ...string) *redis.IntCmd
}

// incrWithTTL 自增计数器; 首次创建时设置过期, 这样窗口随第一次命中滚动。
func incrWithTTL(ctx context.Context, client redisCounter, key string, ttl time.Duration) (int64, error) {
	count, err := client.Incr(ctx, key).Result()
	if err != nil {
		return 0, err
	}
	if count == 1 {
		// 过期设置失败只会导致计数器长存, 不影响正确性。
		_ = client.Expire(ctx, key, ttl).Err()
	}
	return count, nil
}

// resetCounter 清除计数器, 登录成功后解除失败锁用。
func resetCounter(ctx context.Context, client redisCounter, key string) {
	_ = client.Del(ctx, key).Err()
}
