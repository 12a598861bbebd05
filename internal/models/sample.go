// Package models defines domain models for NoiseWatch.
package models

import (
	"fmt"
	"time"
)

// Sample is one timestamped decibel reading for a room. Samples are produced
// by sensor devices and are immutable once stored.
type Sample struct {
	ID          string    `json:"id"`
	DeviceID    string    `json:"device_id"`
	Room        string    `json:"room"`
	SoundLevel  float64   `json:"sound_level"` // decibels
	MeasuredAt  time.Time `json:"measured_at"`
	Description string    `json:"description,omitempty"`
}

// MaxSoundLevel is the upper bound accepted on ingest. Readings above it are
// treated as sensor faults rather than valid measurements.
const MaxSoundLevel = 200

// Validate checks a sample before it is stored.
func (s *Sample) Validate() error {
	if s.Room == "" {
		return fmt.Errorf("room is required")
	}
	if s.DeviceID == "" {
		return fmt.Errorf("device id is required")
	}
	if s.SoundLevel < 0 || s.SoundLevel > MaxSoundLevel {
		return fmt.Errorf("sound level out of range: %.1f", s.SoundLevel)
	}
	if s.MeasuredAt.IsZero() {
		return fmt.Errorf("measurement time is required")
	}
	return nil
}
