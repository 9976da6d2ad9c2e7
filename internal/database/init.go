package database

import (
	"context"
	"fmt"

	"github.com/yourusername/matchup-engine/internal/config"
)

// Initialize creates a PostgreSQL connection pool and ensures the schema exists
func Initialize(ctx context.Context, cfg *config.Config) (*DB, error) {
	db, err := NewDB(ctx, &cfg.Database)
	if err != nil {
		return nil, err
	}

	if err := db.EnsureSchema(ctx); err != nil {
		if closeErr := db.Close(); closeErr != nil {
			return nil, fmt.Errorf("schema setup failed and close failed: close=%w, schema=%w", closeErr, err)
		}
		return nil, err
	}

	return db, nil
}

// InitializeSQLite opens the SQLite store and applies pending migrations
func InitializeSQLite(cfg *config.Config) (*SQLiteDB, error) {
	sqliteCfg := DefaultSQLiteConfig(cfg.SQLite.Path)
	sqliteCfg.AutoMigrate = true
	return OpenSQLite(sqliteCfg)
}
