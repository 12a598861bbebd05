package models

import (
	"fmt"
	"time"
)

// Threshold bounds in decibels for a monitored room.
const (
	MinThreshold = 0
	MaxThreshold = 120
)

// DefaultThreshold is assigned to newly created locations.
const DefaultThreshold = 75

// Location is a monitored room with its configured alert threshold.
// At most one location is chosen at any time; the chosen location is the
// room the alert monitor watches.
type Location struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Threshold float64   `json:"threshold"` // decibels
	Chosen    bool      `json:"chosen"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// NewLocation creates a location with the default threshold.
func NewLocation(name string) *Location {
	now := time.Now()
	return &Location{
		Name:      name,
		Threshold: DefaultThreshold,
		CreatedAt: now,
		UpdatedAt: now,
	}
}

// Validate checks the location fields.
func (l *Location) Validate() error {
	if l.Name == "" {
		return fmt.Errorf("name is required")
	}
	return ValidateThreshold(l.Threshold)
}

// ValidateThreshold checks that a threshold value is within bounds.
func ValidateThreshold(v float64) error {
	if v < MinThreshold || v > MaxThreshold {
		return fmt.Errorf("threshold must be between %d and %d dB", MinThreshold, MaxThreshold)
	}
	return nil
}
