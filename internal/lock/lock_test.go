package lock

import (
	"context"
	"errors"
	"os"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
)

func TestNoop(t *testing.T) {
	var l Locker = Noop{}
	release, err := l.Obtain(context.Background(), QuoteKey(1))
	if err != nil {
		t.Fatal(err)
	}
	release()
	if _, err := l.Obtain(context.Background(), QuoteKey(1)); err != nil {
		t.Fatalf("noop must never contend: %v", err)
	}
}

func TestQuoteKey(t *testing.T) {
	if got := QuoteKey(42); got != "quote:42" {
		t.Errorf("QuoteKey(42) = %q", got)
	}
}

func TestRedis_Contention(t *testing.T) {
	addr := os.Getenv("REDIS_ADDRESS")
	if addr == "" {
		t.Skip("REDIS_ADDRESS not set")
	}
	rdb := redis.NewClient(&redis.Options{Addr: addr})
	defer rdb.Close()
	l := NewRedis(rdb, 5*time.Second)
	ctx := context.Background()
	key := "test:" + t.Name()

	release, err := l.Obtain(ctx, key)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := l.Obtain(ctx, key); !errors.Is(err, ErrNotObtained) {
		t.Fatalf("second obtain err = %v, want ErrNotObtained", err)
	}
	release()
	release2, err := l.Obtain(ctx, key)
	if err != nil {
		t.Fatalf("obtain after release: %v", err)
	}
	release2()
}
