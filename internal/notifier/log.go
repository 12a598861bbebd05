package notifier

import (
	"context"
	"log"

	"github.com/quiet-rooms/noisewatch/internal/models"
)

// LogNotifier writes fired alerts to the process log. Always registered so
// every alert leaves a trace even with no external channel configured.
type LogNotifier struct{}

// NewLogNotifier creates a log notifier.
func NewLogNotifier() *LogNotifier {
	return &LogNotifier{}
}

// Name returns "log".
func (n *LogNotifier) Name() string {
	return "log"
}

// Send writes the alert to the log.
func (n *LogNotifier) Send(_ context.Context, alert *models.Alert) error {
	log.Printf("ALERT %s: %.1f dB exceeds threshold %.1f dB at %s",
		alert.RoomName, alert.SoundLevel, alert.Threshold, alert.DisplayTime)
	return nil
}

// Close is a no-op.
func (n *LogNotifier) Close() error {
	return nil
}
