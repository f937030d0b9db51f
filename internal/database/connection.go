package database

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
	_ "github.com/mattn/go-sqlite3"
)

const (
	DriverSQLite   = "sqlite3"
	DriverPostgres = "postgres"
)

// Config selects the database driver and data source
type Config struct {
	Driver string // "sqlite3" or "postgres"
	DSN    string // File path for sqlite3, connection string for postgres
}

// Connect opens the database and makes sure the schema exists
func Connect(cfg Config) (*sqlx.DB, error) {
	switch cfg.Driver {
	case DriverSQLite:
		return connectSQLite(cfg.DSN)
	case DriverPostgres:
		return connectPostgres(cfg.DSN)
	default:
		return nil, fmt.Errorf("unsupported database driver %q", cfg.Driver)
	}
}

func connectSQLite(dsn string) (*sqlx.DB, error) {
	// Create data directory if it doesn't exist
	if dir := filepath.Dir(dsn); dir != "." && !strings.HasPrefix(dsn, ":memory:") && !strings.HasPrefix(dsn, "file:") {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("failed to create data directory: %w", err)
		}
	}

	db, err := sqlx.Connect(DriverSQLite, dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	// Enable foreign keys
	if _, err := db.Exec("PRAGMA foreign_keys = ON"); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to enable foreign keys: %w", err)
	}

	// SQLite doesn't support multiple writers
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	if err := InitializeSchema(db); err != nil {
		db.Close()
		return nil, err
	}
	return db, nil
}

func connectPostgres(dsn string) (*sqlx.DB, error) {
	db, err := sqlx.Connect(DriverPostgres, dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	db.SetMaxOpenConns(10)
	db.SetMaxIdleConns(5)

	if err := InitializeSchema(db); err != nil {
		db.Close()
		return nil, err
	}
	return db, nil
}

// schema is written in the subset of SQL shared by SQLite and PostgreSQL
var schema = []struct {
	name string
	ddl  string
}{
	{"memory_states", `
		CREATE TABLE IF NOT EXISTS memory_states (
			id TEXT PRIMARY KEY,
			user_id TEXT NOT NULL,
			concept_id TEXT NOT NULL,
			concept_title TEXT NOT NULL DEFAULT '',
			repetitions INTEGER NOT NULL DEFAULT 0,
			interval_days INTEGER NOT NULL DEFAULT 0,
			ease_factor DOUBLE PRECISION NOT NULL DEFAULT 2.5,
			last_quality INTEGER NOT NULL DEFAULT 0,
			last_reviewed TIMESTAMP NULL,
			next_review TIMESTAMP NOT NULL,
			version BIGINT NOT NULL DEFAULT 1,
			created_at TIMESTAMP NOT NULL,
			updated_at TIMESTAMP NOT NULL,
			UNIQUE(user_id, concept_id)
		)
	`},
	{"memory_states_next_review index", `
		CREATE INDEX IF NOT EXISTS idx_memory_states_due ON memory_states (user_id, next_review)
	`},
	{"review_logs", `
		CREATE TABLE IF NOT EXISTS review_logs (
			id TEXT PRIMARY KEY,
			user_id TEXT NOT NULL,
			state_id TEXT NOT NULL,
			concept_id TEXT NOT NULL,
			activity_type TEXT NOT NULL,
			quality INTEGER NOT NULL,
			correctness DOUBLE PRECISION NOT NULL,
			time_taken_minutes DOUBLE PRECISION NULL,
			confidence DOUBLE PRECISION NULL,
			previous_ease_factor DOUBLE PRECISION NOT NULL,
			previous_interval_days INTEGER NOT NULL,
			created_at TIMESTAMP NOT NULL
		)
	`},
	{"reminder_subscriptions", `
		CREATE TABLE IF NOT EXISTS reminder_subscriptions (
			user_id TEXT PRIMARY KEY,
			chat_id BIGINT NOT NULL,
			notification_hour INTEGER NOT NULL DEFAULT 9,
			enabled BOOLEAN NOT NULL DEFAULT TRUE
		)
	`},
}

// InitializeSchema creates necessary tables if they don't exist
func InitializeSchema(db *sqlx.DB) error {
	for _, stmt := range schema {
		if _, err := db.Exec(stmt.ddl); err != nil {
			return fmt.Errorf("failed to create %s: %w", stmt.name, err)
		}
	}
	return nil
}
