package models

import "time"

// Alert records one threshold crossing for a room. Alerts are immutable after
// creation; the monitor keeps them in a day-scoped history, most recent first.
type Alert struct {
	ID          string    `json:"id"`
	RoomName    string    `json:"room_name"`
	SoundLevel  float64   `json:"sound_level"` // decibels at the time of firing
	Threshold   float64   `json:"threshold"`   // configured threshold that was exceeded
	FiredAt     time.Time `json:"fired_at"`
	DisplayTime string    `json:"display_time"` // local wall-clock time, HH:MM:SS
}

// NewAlert creates an alert fired at the given instant.
func NewAlert(id, roomName string, level, threshold float64, firedAt time.Time) *Alert {
	return &Alert{
		ID:          id,
		RoomName:    roomName,
		SoundLevel:  level,
		Threshold:   threshold,
		FiredAt:     firedAt,
		DisplayTime: firedAt.Format("15:04:05"),
	}
}
