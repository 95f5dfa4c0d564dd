package storage

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"

	_ "modernc.org/sqlite" // Pure Go SQLite driver
)

// InitSQLite opens the archive database and creates the schemas for runs,
// hunter results and the event stream.
func InitSQLite(dbPath string) (*sql.DB, error) {
	// Ensure directory exists
	dir := filepath.Dir(dbPath)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create database directory: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open sqlite database: %w", err)
	}
	// SQLite has a single writer.
	db.SetMaxOpenConns(1)

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping sqlite database: %w", err)
	}

	if err := createSchemas(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to create schemas: %w", err)
	}

	return db, nil
}

func createSchemas(db *sql.DB) error {
	schemas := []string{
		`CREATE TABLE IF NOT EXISTS runs (
			run_id TEXT PRIMARY KEY,
			house_id TEXT NOT NULL,
			ghost_id INTEGER NOT NULL,
			ghost_type TEXT NOT NULL,
			collected INTEGER NOT NULL DEFAULT 0,
			evidence TEXT NOT NULL DEFAULT '',
			solved BOOLEAN NOT NULL DEFAULT 0,
			identified BOOLEAN NOT NULL DEFAULT 0,
			evidence_exits INTEGER NOT NULL DEFAULT 0,
			hunters_won BOOLEAN NOT NULL DEFAULT 0,
			started_at INTEGER NOT NULL,
			finished_at INTEGER NOT NULL
		);`,
		`CREATE TABLE IF NOT EXISTS hunter_results (
			run_id TEXT NOT NULL,
			position INTEGER NOT NULL,
			name TEXT NOT NULL,
			hunter_id INTEGER NOT NULL,
			device TEXT NOT NULL,
			reason TEXT NOT NULL,
			fear INTEGER NOT NULL,
			boredom INTEGER NOT NULL,
			room TEXT NOT NULL,
			PRIMARY KEY (run_id, position),
			FOREIGN KEY (run_id) REFERENCES runs(run_id)
		);`,
		`CREATE TABLE IF NOT EXISTS events (
			id TEXT PRIMARY KEY,
			run_id TEXT NOT NULL,
			seq INTEGER NOT NULL,
			timestamp INTEGER NOT NULL,
			event_type TEXT NOT NULL,
			actor_id TEXT NOT NULL,
			room TEXT NOT NULL,
			payload TEXT NOT NULL
		);`,
		`CREATE INDEX IF NOT EXISTS idx_events_run_id ON events(run_id, seq);`,
		`CREATE INDEX IF NOT EXISTS idx_events_actor_id ON events(actor_id);`,
		`CREATE INDEX IF NOT EXISTS idx_runs_started_at ON runs(started_at);`,
	}

	for _, query := range schemas {
		if _, err := db.Exec(query); err != nil {
			return err
		}
	}

	return nil
}
