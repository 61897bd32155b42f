// Package dbtest opens throwaway SQLite databases for tests.
package dbtest

import (
	"path/filepath"
	"testing"

	"github.com/diewo77/go-pos/internal/db"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

// Open returns a migrated SQLite database stored in the test's temp dir.
// A single connection is used so concurrent transactions queue instead of
// failing with "database is locked".
func Open(t testing.TB) *gorm.DB {
	t.Helper()
	path := filepath.Join(t.TempDir(), "pos.db")
	conn, err := gorm.Open(sqlite.Open("file:"+path+"?_busy_timeout=5000"), db.GormConfig(false))
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	sqlDB, err := conn.DB()
	if err != nil {
		t.Fatalf("sql db: %v", err)
	}
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })
	if err := db.Migrate(conn); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	return conn
}

// OpenSeeded is Open followed by db.Seed.
func OpenSeeded(t testing.TB) *gorm.DB {
	t.Helper()
	conn := Open(t)
	if err := db.Seed(conn); err != nil {
		t.Fatalf("seed: %v", err)
	}
	return conn
}
