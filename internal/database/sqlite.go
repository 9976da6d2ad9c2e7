package database

import (
	"context"
	"database/sql"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite" // SQLite driver
)

// SQLiteDB wraps a database/sql connection to an SQLite file
type SQLiteDB struct {
	conn *sql.DB
	path string
}

// SQLiteConfig holds SQLite connection settings
type SQLiteConfig struct {
	// Path is the database file. ":memory:" is not supported with AutoMigrate.
	Path string

	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration

	// BusyTimeout sets how long to wait when the database is locked
	BusyTimeout time.Duration

	// JournalMode is one of DELETE, TRUNCATE, PERSIST, MEMORY, WAL, OFF
	JournalMode string

	// AutoMigrate runs pending migrations on open
	AutoMigrate bool
}

// DefaultSQLiteConfig returns an SQLiteConfig with sensible default values
func DefaultSQLiteConfig(path string) *SQLiteConfig {
	return &SQLiteConfig{
		Path:            path,
		MaxOpenConns:    4,
		MaxIdleConns:    2,
		ConnMaxLifetime: 5 * time.Minute,
		BusyTimeout:     5 * time.Second,
		JournalMode:     "WAL",
	}
}

func (c *SQLiteConfig) dsn() string {
	params := url.Values{}
	params.Add("_pragma", fmt.Sprintf("busy_timeout(%d)", c.BusyTimeout.Milliseconds()))
	params.Add("_pragma", fmt.Sprintf("journal_mode(%s)", c.JournalMode))
	params.Add("_pragma", "foreign_keys(1)")
	return "file:" + c.Path + "?" + params.Encode()
}

// OpenSQLite opens the database file, creating its directory when needed
func OpenSQLite(cfg *SQLiteConfig) (*SQLiteDB, error) {
	if cfg == nil {
		return nil, fmt.Errorf("config cannot be nil")
	}

	if cfg.Path != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(cfg.Path), 0o755); err != nil {
			return nil, fmt.Errorf("failed to create database directory: %w", err)
		}
	}

	if cfg.AutoMigrate {
		if err := migrateUp(cfg.Path); err != nil {
			return nil, err
		}
	}

	conn, err := sql.Open("sqlite", cfg.dsn())
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	conn.SetMaxOpenConns(cfg.MaxOpenConns)
	conn.SetMaxIdleConns(cfg.MaxIdleConns)
	conn.SetConnMaxLifetime(cfg.ConnMaxLifetime)

	if err := conn.Ping(); err != nil {
		if closeErr := conn.Close(); closeErr != nil {
			return nil, fmt.Errorf("failed to close database after ping error: %w (original error: %v)", closeErr, err)
		}
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return &SQLiteDB{conn: conn, path: cfg.Path}, nil
}

func migrateUp(path string) error {
	mgr, err := NewMigrationManager(path)
	if err != nil {
		return fmt.Errorf("failed to create migration manager: %w", err)
	}

	if err := mgr.Up(); err != nil {
		if closeErr := mgr.Close(); closeErr != nil {
			return fmt.Errorf("failed to close migration manager after error: %w (original error: %v)", closeErr, err)
		}
		return fmt.Errorf("failed to run migrations: %w", err)
	}

	return mgr.Close()
}

// Conn returns the underlying sql.DB connection
func (db *SQLiteDB) Conn() *sql.DB {
	return db.conn
}

// Path returns the database file path
func (db *SQLiteDB) Path() string {
	return db.path
}

// Ping verifies the database connection is alive
func (db *SQLiteDB) Ping(ctx context.Context) error {
	return db.conn.PingContext(ctx)
}

// Close closes the database connection
func (db *SQLiteDB) Close() error {
	if db.conn == nil {
		return nil
	}
	return db.conn.Close()
}

// WithTransaction runs fn inside a transaction, rolling back on error
func (db *SQLiteDB) WithTransaction(ctx context.Context, fn func(*sql.Tx) error) error {
	tx, err := db.conn.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}

	if err := fn(tx); err != nil {
		if rollbackErr := tx.Rollback(); rollbackErr != nil {
			return fmt.Errorf("transaction failed: %w, rollback failed: %w", err, rollbackErr)
		}
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}
