package storage

import (
	"context"
	"database/sql"
	"fmt"
	"log"

	"github.com/google/uuid"
	// Pure-Go SQLite driver.
	_ "modernc.org/sqlite"

	"github.com/quiet-rooms/noisewatch/internal/models"
)

// SQLiteStorage implements Storage using SQLite.
type SQLiteStorage struct {
	path string
	db   *sql.DB

	samples      *sqliteSampleRepo
	locations    *sqliteLocationRepo
	monitorState *sqliteMonitorStateRepo
}

// NewSQLiteStorage creates a new SQLite storage.
func NewSQLiteStorage(path string) *SQLiteStorage {
	return &SQLiteStorage{path: path}
}

// Open initializes the database connection.
func (s *SQLiteStorage) Open() error {
	ctx := context.Background()

	db, err := sql.Open("sqlite", s.path)
	if err != nil {
		return fmt.Errorf("open database: %w", err)
	}

	// SQLite is single-writer
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(0)

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return fmt.Errorf("ping database: %w", err)
	}

	pragmas := []string{
		"PRAGMA foreign_keys = ON",
		"PRAGMA journal_mode = WAL",
		"PRAGMA busy_timeout = 5000",
	}
	for _, pragma := range pragmas {
		if _, err := db.ExecContext(ctx, pragma); err != nil {
			db.Close()
			return fmt.Errorf("execute %s: %w", pragma, err)
		}
	}

	s.db = db

	s.samples = &sqliteSampleRepo{db: db}
	s.locations = &sqliteLocationRepo{db: db}
	s.monitorState = &sqliteMonitorStateRepo{db: db}

	return nil
}

// Close closes the database connection.
func (s *SQLiteStorage) Close() error {
	if s.db == nil {
		return nil
	}
	return s.db.Close()
}

// DB returns the underlying database connection for health checks.
func (s *SQLiteStorage) DB() *sql.DB {
	return s.db
}

// Migrate runs database migrations.
func (s *SQLiteStorage) Migrate() error {
	return runMigrations(s.db)
}

// EnsureDefaultLocation creates a default chosen location if no locations
// exist, so the monitor has a room to watch on first run.
func (s *SQLiteStorage) EnsureDefaultLocation() error {
	ctx := context.Background()

	locs, err := s.Locations().List(ctx)
	if err != nil {
		return fmt.Errorf("list locations: %w", err)
	}
	if len(locs) > 0 {
		return nil
	}

	loc := models.NewLocation("Main Room")
	loc.ID = uuid.New().String()
	loc.Chosen = true
	if err := s.Locations().Create(ctx, loc); err != nil {
		return fmt.Errorf("create default location: %w", err)
	}

	log.Printf("created default location %q (threshold %.0f dB)", loc.Name, loc.Threshold)
	return nil
}

// Samples returns the sample repository.
func (s *SQLiteStorage) Samples() SampleRepository {
	return s.samples
}

// Locations returns the location repository.
func (s *SQLiteStorage) Locations() LocationRepository {
	return s.locations
}

// MonitorState returns the monitor state repository.
func (s *SQLiteStorage) MonitorState() MonitorStateRepository {
	return s.monitorState
}
