package storage

import (
	"database/sql"
	"fmt"
	"time"
)

type migration struct {
	version int
	name    string
	up      string
}

var schema = []migration{
	{
		version: 1,
		name:    "initial_schema",
		up: `
			-- Locations table (monitored rooms)
			CREATE TABLE IF NOT EXISTS locations (
				id TEXT PRIMARY KEY,
				name TEXT UNIQUE NOT NULL,
				threshold REAL NOT NULL,
				chosen INTEGER NOT NULL DEFAULT 0,
				created_at DATETIME NOT NULL,
				updated_at DATETIME NOT NULL
			);

			-- Samples table (raw sound-level readings)
			CREATE TABLE IF NOT EXISTS samples (
				id TEXT PRIMARY KEY,
				device_id TEXT NOT NULL,
				room TEXT NOT NULL,
				sound_level REAL NOT NULL,
				measured_at DATETIME NOT NULL,
				description TEXT
			);

			CREATE INDEX IF NOT EXISTS idx_samples_room_time
				ON samples(room, measured_at);

			-- Monitor state (single-row key/value)
			CREATE TABLE IF NOT EXISTS monitor_state (
				key TEXT PRIMARY KEY,
				value TEXT NOT NULL
			);
		`,
	},
}

// runMigrations applies every migration above the recorded schema version,
// each in its own transaction.
func runMigrations(db *sql.DB) error {
	if _, err := db.Exec(`
		CREATE TABLE IF NOT EXISTS schema_migrations (
			version INTEGER PRIMARY KEY,
			name TEXT NOT NULL,
			applied_at DATETIME NOT NULL
		)
	`); err != nil {
		return fmt.Errorf("create schema_migrations: %w", err)
	}

	var current int
	if err := db.QueryRow("SELECT COALESCE(MAX(version), 0) FROM schema_migrations").Scan(&current); err != nil {
		return fmt.Errorf("read schema version: %w", err)
	}

	for _, m := range schema {
		if m.version <= current {
			continue
		}
		if err := applyMigration(db, m); err != nil {
			return fmt.Errorf("migration %d (%s): %w", m.version, m.name, err)
		}
	}
	return nil
}

func applyMigration(db *sql.DB, m migration) error {
	tx, err := db.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if _, err := tx.Exec(m.up); err != nil {
		return err
	}
	if _, err := tx.Exec(
		"INSERT INTO schema_migrations (version, name, applied_at) VALUES (?, ?, ?)",
		m.version, m.name, time.Now(),
	); err != nil {
		return err
	}
	return tx.Commit()
}
