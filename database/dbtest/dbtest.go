// Package dbtest provides a migrated in-memory sqlite database for tests.
package dbtest

import (
	"testing"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"rbac-center/config"
	"rbac-center/database"
)

// New returns an isolated database. A single connection keeps the in-memory
// database alive for the lifetime of the test.
func New(t testing.TB) *gorm.DB {
	t.Helper()

	db, err := database.Open(config.DatabaseConfig{Driver: "sqlite", URL: "file::memory:"}, zap.NewNop())
	if err != nil {
		t.Fatalf("open test database: %v", err)
	}
	sqlDB, err := db.DB()
	if err != nil {
		t.Fatalf("test database handle: %v", err)
	}
	sqlDB.SetMaxOpenConns(1)

	if err := database.Migrate(db); err != nil {
		t.Fatalf("migrate test database: %v", err)
	}
	t.Cleanup(func() { _ = sqlDB.Close() })
	return db
}
