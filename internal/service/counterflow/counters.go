package counterflow

import (
	"context"

	"github.com/redis/go-redis/v9"
)

// RedisCounters backs CounterStore with the cache store's native atomic
// increments, so concurrent deliveries never lose an update.
type RedisCounters struct {
	rdb redis.Cmdable
}

func NewRedisCounters(rdb redis.Cmdable) *RedisCounters {
	return &RedisCounters{rdb: rdb}
}

func (c *RedisCounters) Incr(ctx context.Context, key string) (int64, error) {
	return c.rdb.Incr(ctx, key).Result()
}

func (c *RedisCounters) IncrByFloat(ctx context.Context, key string, value float64) (float64, error) {
	return c.rdb.IncrByFloat(ctx, key, value).Result()
}
