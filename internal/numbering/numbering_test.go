package numbering

import (
	"context"
	"errors"
	"os"
	"testing"
	"time"

	"github.com/diewo77/go-pos/internal/db/dbtest"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

func TestFormat(t *testing.T) {
	tests := []struct {
		name   string
		scheme Scheme
		year   int
		n      int64
		want   string
	}{
		{"invoice", Scheme{Prefix: "INV", Yearly: true, Width: 4}, 2026, 1, "INV-2026-0001"},
		{"invoice wide", Scheme{Prefix: "INV", Yearly: true, Width: 4}, 2026, 12345, "INV-2026-12345"},
		{"quote", Scheme{Prefix: "Q", Offset: 1000}, 2026, 1, "Q-1001"},
		{"plain", Scheme{Prefix: "X"}, 2026, 7, "X-7"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Format(tt.scheme, tt.year, tt.n); got != tt.want {
				t.Errorf("Format() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestGenerator_DBCounter(t *testing.T) {
	d := dbtest.Open(t)
	year := 2026
	gen := NewGenerator(NewDBCounter(d), DefaultSchemes("INV", "Q", 4)).
		WithClock(func() time.Time { return time.Date(year, 3, 1, 0, 0, 0, 0, time.UTC) })
	ctx := context.Background()

	for _, want := range []string{"INV-2026-0001", "INV-2026-0002"} {
		got, err := gen.Next(ctx, nil, ScopeInvoice)
		if err != nil {
			t.Fatal(err)
		}
		if got != want {
			t.Errorf("Next() = %q, want %q", got, want)
		}
	}

	year = 2027
	if got, _ := gen.Next(ctx, nil, ScopeInvoice); got != "INV-2027-0001" {
		t.Errorf("new year should restart, got %q", got)
	}
	if got, _ := gen.Next(ctx, nil, ScopeQuote); got != "Q-1001" {
		t.Errorf("first quote = %q, want Q-1001", got)
	}
	if _, err := gen.Next(ctx, nil, "unknown"); err == nil {
		t.Error("unknown scope should fail")
	}
}

func TestGenerator_RollbackReleasesNumber(t *testing.T) {
	d := dbtest.Open(t)
	gen := NewGenerator(NewDBCounter(d), DefaultSchemes("INV", "Q", 4)).
		WithClock(func() time.Time { return time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC) })
	ctx := context.Background()
	rollback := errors.New("rollback")

	err := d.Transaction(func(tx *gorm.DB) error {
		if _, err := gen.Next(ctx, tx, ScopeInvoice); err != nil {
			return err
		}
		return rollback
	})
	if !errors.Is(err, rollback) {
		t.Fatal(err)
	}
	got, err := gen.Next(ctx, nil, ScopeInvoice)
	if err != nil {
		t.Fatal(err)
	}
	if got != "INV-2026-0001" {
		t.Errorf("number after rollback = %q, want INV-2026-0001", got)
	}
}

func TestRedisCounter(t *testing.T) {
	addr := os.Getenv("REDIS_ADDRESS")
	if addr == "" {
		t.Skip("REDIS_ADDRESS not set")
	}
	client := redis.NewClient(&redis.Options{Addr: addr})
	defer client.Close()
	ctx := context.Background()
	prefix := "pos:test:" + t.Name() + ":"
	t.Cleanup(func() { client.Del(ctx, prefix+"quote") })

	counter := NewRedisCounter(client, prefix)
	first, err := counter.Increment(ctx, nil, "quote")
	if err != nil {
		t.Fatal(err)
	}
	second, err := counter.Increment(ctx, nil, "quote")
	if err != nil {
		t.Fatal(err)
	}
	if second != first+1 {
		t.Errorf("Increment() = %d then %d, want consecutive", first, second)
	}
}
