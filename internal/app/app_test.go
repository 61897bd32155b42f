package app

import (
	"bytes"
	"context"
	"strings"
	"testing"

	"github.com/diewo77/go-pos/internal/config"
	"github.com/diewo77/go-pos/internal/db/dbtest"
	"github.com/diewo77/go-pos/internal/lock"
	"github.com/diewo77/go-pos/internal/logging"
	"github.com/diewo77/go-pos/internal/numbering"
)

func testConfig(t *testing.T) *config.Config {
	t.Helper()
	t.Setenv("REDIS_ADDRESS", "")
	t.Setenv("NUMBERING_BACKEND", "")
	return config.Load()
}

func TestNewWithoutRedis(t *testing.T) {
	cfg := testConfig(t)
	c, err := New(cfg, dbtest.OpenSeeded(t), logging.Discard())
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	defer c.Close()

	if _, ok := c.Locker.(lock.Noop); !ok {
		t.Fatalf("expected no-op locker without redis, got %T", c.Locker)
	}
	n, err := c.Sequence.Next(context.Background(), nil, numbering.ScopeQuote)
	if err != nil {
		t.Fatalf("Next() error = %v", err)
	}
	if n != "Q-1002" {
		t.Fatalf("expected Q-1002 after the seeded quote, got %s", n)
	}
	if c.QuoteHandler == nil || c.InvoiceHandler == nil || c.StockHandler == nil {
		t.Fatal("handlers not wired")
	}
}

func TestNewRedisNumberingRequiresAddress(t *testing.T) {
	cfg := testConfig(t)
	cfg.Billing.NumberingBackend = "redis"
	if _, err := New(cfg, dbtest.Open(t), logging.Discard()); err == nil {
		t.Fatal("expected an error without REDIS_ADDRESS")
	}
}

func TestUserExists(t *testing.T) {
	c, err := New(testConfig(t), dbtest.OpenSeeded(t), logging.Discard())
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	if !c.UserExists(context.Background(), 1) {
		t.Error("seeded admin should exist")
	}
	if c.UserExists(context.Background(), 9999) {
		t.Error("unknown user should not exist")
	}
}

func TestUserExistsLogsLookupFailure(t *testing.T) {
	var buf bytes.Buffer
	logger := logging.NewWithOutput(config.LogConfig{Level: "info", Format: "json"}, &buf)
	d := dbtest.Open(t)
	c, err := New(testConfig(t), d, logger)
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	defer c.Close()
	if err := d.Migrator().DropTable("users"); err != nil {
		t.Fatalf("drop users: %v", err)
	}

	if c.UserExists(context.Background(), 1) {
		t.Fatal("a failed lookup must not authenticate")
	}
	if !strings.Contains(buf.String(), `"funcName":"UserExists"`) {
		t.Fatalf("lookup failure not logged: %q", buf.String())
	}
}
