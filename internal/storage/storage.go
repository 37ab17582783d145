// Package storage provides a local operator-audit cache using SQLite.
//
// It is deliberately independent of the graph-backed resumability queue in
// internal/queue: the queue is the source of truth for "has this archive
// chunk been ingested," replicated across any number of loader processes
// pointed at the same graph. This package instead gives a single operator
// a fast local log of what their own process has tried, so `warehouse
// status` can answer "what did my last run actually do" without a round
// trip to the graph.
package storage

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	_ "github.com/mattn/go-sqlite3"
)

// Storage provides the local audit cache for one warehouse operator.
type Storage struct {
	db     *sql.DB
	dbPath string
	mu     sync.RWMutex
}

// Config holds storage configuration.
type Config struct {
	DataDir string
}

// New creates a new Storage instance.
func New(cfg *Config) (*Storage, error) {
	dataDir := expandPath(cfg.DataDir)

	if err := os.MkdirAll(dataDir, 0700); err != nil {
		return nil, fmt.Errorf("failed to create data directory: %w", err)
	}

	dbPath := filepath.Join(dataDir, "warehouse-audit.db")

	db, err := sql.Open("sqlite3", dbPath+"?_journal_mode=WAL&_synchronous=NORMAL&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	db.SetMaxOpenConns(1) // SQLite only supports one writer
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(time.Hour)

	s := &Storage{
		db:     db,
		dbPath: dbPath,
	}

	if err := s.initSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}

	return s, nil
}

// Close closes the database connection.
func (s *Storage) Close() error {
	return s.db.Close()
}

// DB returns the underlying database connection.
func (s *Storage) DB() *sql.DB {
	return s.db
}

// initSchema creates all database tables.
func (s *Storage) initSchema() error {
	schema := `
	-- Settings/config table, for small bits of operator-local state that
	-- don't belong in warehouse.yaml (e.g. "last config migration applied").
	CREATE TABLE IF NOT EXISTS settings (
		key TEXT PRIMARY KEY,
		value TEXT,
		updated_at INTEGER
	);

	-- One row per archive directory this process has attempted to load.
	-- This is an audit trail, not a resumability mechanism: actual
	-- resumability lives in the graph-backed queue, which is shared across
	-- every loader process pointed at the same database.
	CREATE TABLE IF NOT EXISTS archive_runs (
		archive_path TEXT PRIMARY KEY,
		status TEXT NOT NULL DEFAULT 'pending',

		first_attempt_at INTEGER NOT NULL,
		last_attempt_at INTEGER NOT NULL,
		completed_at INTEGER,

		attempt_count INTEGER NOT NULL DEFAULT 0,
		records_written INTEGER NOT NULL DEFAULT 0,

		last_error TEXT
	);

	CREATE INDEX IF NOT EXISTS idx_archive_runs_status ON archive_runs(status);
	CREATE INDEX IF NOT EXISTS idx_archive_runs_last_attempt ON archive_runs(last_attempt_at);
	`

	_, err := s.db.Exec(schema)
	return err
}

// expandPath expands ~ to home directory.
func expandPath(path string) string {
	if len(path) > 0 && path[0] == '~' {
		home, _ := os.UserHomeDir()
		return filepath.Join(home, path[1:])
	}
	return path
}
