package numbering

import (
	"context"

	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

// RedisCounter keeps counters in Redis with INCR.
// Numbers taken by a rolled back transaction are not reused.
type RedisCounter struct {
	client *redis.Client
	prefix string
}

// NewRedisCounter returns a counter storing keys under prefix.
func NewRedisCounter(client *redis.Client, prefix string) *RedisCounter {
	return &RedisCounter{client: client, prefix: prefix}
}

// Increment ignores tx.
func (c *RedisCounter) Increment(ctx context.Context, _ *gorm.DB, key string) (int64, error) {
	return c.client.Incr(ctx, c.prefix+key).Result()
}
