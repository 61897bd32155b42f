// Package lock provides advisory locks that reduce contention on hot rows.
// Correctness never depends on them; the database guards every write.
package lock

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/bsm/redislock"
	"github.com/redis/go-redis/v9"
)

// ErrNotObtained is returned when another holder owns the key.
var ErrNotObtained = errors.New("lock not obtained")

// Locker obtains a lock for key. The returned release func must be called.
type Locker interface {
	Obtain(ctx context.Context, key string) (release func(), err error)
}

// Noop never blocks and never fails.
type Noop struct{}

// Obtain implements Locker.
func (Noop) Obtain(context.Context, string) (func(), error) {
	return func() {}, nil
}

// Redis is a Locker backed by bsm/redislock.
type Redis struct {
	client *redislock.Client
	ttl    time.Duration
	prefix string
}

// NewRedis returns a Redis locker holding locks for at most ttl.
func NewRedis(rdb *redis.Client, ttl time.Duration) *Redis {
	return &Redis{client: redislock.New(rdb), ttl: ttl, prefix: "pos:lock:"}
}

// Obtain tries once to take key.
func (r *Redis) Obtain(ctx context.Context, key string) (func(), error) {
	l, err := r.client.Obtain(ctx, r.prefix+key, r.ttl, nil)
	if errors.Is(err, redislock.ErrNotObtained) {
		return nil, ErrNotObtained
	}
	if err != nil {
		return nil, fmt.Errorf("obtain lock %s: %w", key, err)
	}
	return func() {
		// Background context: the caller's ctx may already be cancelled.
		_ = l.Release(context.Background())
	}, nil
}

// QuoteKey is the lock key of a quote conversion.
func QuoteKey(quoteID uint) string {
	return fmt.Sprintf("quote:%d", quoteID)
}
