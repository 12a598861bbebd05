// Package storage provides database storage interfaces and implementations.
package storage

import (
	"context"
	"time"

	"github.com/quiet-rooms/noisewatch/internal/models"
)

// Storage is the main interface for database operations.
type Storage interface {
	// Open initializes the database connection.
	Open() error
	// Close closes the database connection.
	Close() error
	// Migrate runs database migrations.
	Migrate() error
	// EnsureDefaultLocation creates a default chosen location if none exist.
	EnsureDefaultLocation() error

	// Repository accessors
	Samples() SampleRepository
	Locations() LocationRepository
	MonitorState() MonitorStateRepository
}

// SampleRepository is the measurement store: it owns raw samples and hands
// out windows of them for aggregation.
type SampleRepository interface {
	Insert(ctx context.Context, sample *models.Sample) error
	// Latest returns the most recent sample for a room, or nil if the room
	// has no samples.
	Latest(ctx context.Context, room string) (*models.Sample, error)
	// DailyWindow returns samples for the 24 hours starting at the UTC
	// midnight of the given date, ordered by measurement time.
	DailyWindow(ctx context.Context, room string, date time.Time) ([]*models.Sample, error)
	// RecentWindow returns samples measured on or after since, ordered by
	// measurement time. The weekly views fetch a broad multi-week window
	// and filter in the aggregation engine.
	RecentWindow(ctx context.Context, room string, since time.Time) ([]*models.Sample, error)
	// DeleteBefore removes samples older than the cutoff and returns the
	// number of rows deleted.
	DeleteBefore(ctx context.Context, cutoff time.Time) (int64, error)
}

// LocationRepository is the location directory: room identity, names and
// configured thresholds.
type LocationRepository interface {
	Create(ctx context.Context, loc *models.Location) error
	GetByID(ctx context.Context, id string) (*models.Location, error)
	List(ctx context.Context) ([]*models.Location, error)
	// Chosen returns the currently chosen location, or nil if none is set.
	Chosen(ctx context.Context) (*models.Location, error)
	// SetChosen marks one location as chosen and unmarks all others in a
	// single transaction.
	SetChosen(ctx context.Context, id string) error
	UpdateThreshold(ctx context.Context, id string, threshold float64) error
	Delete(ctx context.Context, id string) error
}

// MonitorStateRepository persists the small amount of monitor state that must
// survive restarts, currently the calendar date of the last history reset.
type MonitorStateRepository interface {
	// LastResetDate returns the stored local date string (2006-01-02), or
	// empty if never set.
	LastResetDate(ctx context.Context) (string, error)
	SetLastResetDate(ctx context.Context, date string) error
}
