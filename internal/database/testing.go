package database

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/yourusername/matchup-engine/internal/config"
)

// SetupTestSQLite opens a migrated SQLite database in a temporary directory
func SetupTestSQLite(t *testing.T) *SQLiteDB {
	t.Helper()

	cfg := DefaultSQLiteConfig(filepath.Join(t.TempDir(), "test.db"))
	cfg.AutoMigrate = true

	db, err := OpenSQLite(cfg)
	if err != nil {
		t.Fatalf("failed to open test database: %v", err)
	}
	t.Cleanup(func() {
		if err := db.Close(); err != nil {
			t.Logf("warning: failed to close test database: %v", err)
		}
	})
	return db
}

// SetupTestDB connects to the PostgreSQL database described by the config file in
// MATCHUP_ENGINE_TEST_CONFIG, skipping the test when the variable is unset
func SetupTestDB(t *testing.T) *DB {
	t.Helper()
	configPath := os.Getenv("MATCHUP_ENGINE_TEST_CONFIG")
	if configPath == "" {
		t.Skip("Integration test - requires database setup")
	}

	cfg, err := config.Load(configPath)
	if err != nil {
		t.Fatalf("failed to load test config: %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	db, err := Initialize(ctx, cfg)
	if err != nil {
		t.Fatalf("failed to create test database connection: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })

	return db
}
