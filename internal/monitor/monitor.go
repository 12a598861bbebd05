// Package monitor implements the threshold alert state machine: a debounced
// comparator over the live sample stream with a day-scoped alert history.
package monitor

import (
	"context"
	"log"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"github.com/quiet-rooms/noisewatch/internal/models"
	"github.com/quiet-rooms/noisewatch/internal/storage"
)

// DefaultCooldown is the minimum wall-clock gap between consecutive alerts
// for the watched room.
const DefaultCooldown = 180 * time.Second

// Options configures the monitor.
type Options struct {
	// Cooldown between alerts. Zero means DefaultCooldown.
	Cooldown time.Duration
	// Location is the zone used to resolve "today" for the history reset.
	// Nil means the host local zone.
	Location *time.Location
	// AlertBufferSize is the size of the alert channel buffer.
	AlertBufferSize int
}

func (o *Options) setDefaults() {
	if o.Cooldown <= 0 {
		o.Cooldown = DefaultCooldown
	}
	if o.Location == nil {
		o.Location = time.Local
	}
	if o.AlertBufferSize <= 0 {
		o.AlertBufferSize = 100
	}
}

// Stats tracks monitor counters using atomics for lock-free reads.
type Stats struct {
	Evaluated  atomic.Int64
	Fired      atomic.Int64
	Suppressed atomic.Int64
	Resets     atomic.Int64
	Dropped    atomic.Int64
}

// Monitor watches one room at a time. History appends and the daily reset are
// serialized under one mutex so a reset can never race an in-flight append.
type Monitor struct {
	mu sync.Mutex

	cooldown time.Duration
	loc      *time.Location

	lastFired     time.Time
	hasFired      bool
	lastResetDate string // 2006-01-02 in loc
	history       []*models.Alert
	current       *models.Alert

	state storage.MonitorStateRepository

	alerts chan *models.Alert
	closed atomic.Bool

	stats *Stats
}

// New creates a monitor. state may be nil, in which case the last reset date
// is not persisted across restarts.
func New(state storage.MonitorStateRepository, opts Options) *Monitor {
	opts.setDefaults()
	return &Monitor{
		cooldown: opts.Cooldown,
		loc:      opts.Location,
		state:    state,
		alerts:   make(chan *models.Alert, opts.AlertBufferSize),
		stats:    &Stats{},
	}
}

// Restore loads persisted state. History always starts empty: if the stored
// reset date is stale the date is advanced, which is exactly what a midnight
// reset would have done.
func (m *Monitor) Restore(ctx context.Context) error {
	if m.state == nil {
		return nil
	}

	stored, err := m.state.LastResetDate(ctx)
	if err != nil {
		return err
	}

	today := time.Now().In(m.loc).Format("2006-01-02")

	m.mu.Lock()
	defer m.mu.Unlock()

	if stored == "" || stored != today {
		if err := m.state.SetLastResetDate(ctx, today); err != nil {
			return err
		}
		stored = today
	}
	m.lastResetDate = stored
	return nil
}

// Alerts returns the channel where fired alerts are delivered.
func (m *Monitor) Alerts() <-chan *models.Alert {
	return m.alerts
}

// Evaluate compares one sample against the room's current threshold. It
// returns the fired alert, or nil when the level is under the threshold or
// the cooldown is still running. The threshold is whatever the location
// directory holds at evaluation time; past alerts are never rewritten.
func (m *Monitor) Evaluate(roomName string, level, threshold float64, now time.Time) *models.Alert {
	m.stats.Evaluated.Add(1)

	if level <= threshold {
		return nil
	}

	m.mu.Lock()
	if m.hasFired && now.Sub(m.lastFired) < m.cooldown {
		m.mu.Unlock()
		m.stats.Suppressed.Add(1)
		return nil
	}

	alert := models.NewAlert(uuid.New().String(), roomName, level, threshold, now.In(m.loc))
	m.lastFired = now
	m.hasFired = true
	// Most recent first.
	m.history = append([]*models.Alert{alert}, m.history...)
	m.current = alert
	m.mu.Unlock()

	m.stats.Fired.Add(1)

	if !m.closed.Load() {
		select {
		case m.alerts <- alert:
		default:
			dropped := m.stats.Dropped.Add(1)
			if dropped == 1 || dropped%100 == 0 {
				log.Printf("warning: alert channel full, dropped %d alerts total", dropped)
			}
		}
	}

	return alert
}

// CheckDailyReset clears the history when the local calendar date has moved
// past the last reset. It is polled at coarse granularity; the only
// requirement is that it runs before a new day's alerts accumulate onto the
// old day's history. Returns true when a reset happened.
func (m *Monitor) CheckDailyReset(ctx context.Context, now time.Time) bool {
	today := now.In(m.loc).Format("2006-01-02")

	m.mu.Lock()
	if m.lastResetDate == today {
		m.mu.Unlock()
		return false
	}
	m.history = nil
	m.current = nil
	m.lastResetDate = today
	m.mu.Unlock()

	m.stats.Resets.Add(1)

	if m.state != nil {
		if err := m.state.SetLastResetDate(ctx, today); err != nil {
			// Non-fatal: the in-memory reset already happened; the date is
			// re-persisted on the next check.
			log.Printf("[monitor] persist reset date: %v", err)
		}
	}
	return true
}

// History returns a copy of today's alerts, most recent first.
func (m *Monitor) History() []*models.Alert {
	m.mu.Lock()
	defer m.mu.Unlock()

	out := make([]*models.Alert, len(m.history))
	copy(out, m.history)
	return out
}

// Current returns the most recently fired alert of the current day, or nil.
func (m *Monitor) Current() *models.Alert {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.current
}

// StatsSnapshot is a point-in-time copy of the monitor counters.
type StatsSnapshot struct {
	Evaluated  int64
	Fired      int64
	Suppressed int64
	Resets     int64
	Dropped    int64
}

// Stats returns a snapshot of monitor counters.
func (m *Monitor) Stats() StatsSnapshot {
	return StatsSnapshot{
		Evaluated:  m.stats.Evaluated.Load(),
		Fired:      m.stats.Fired.Load(),
		Suppressed: m.stats.Suppressed.Load(),
		Resets:     m.stats.Resets.Load(),
		Dropped:    m.stats.Dropped.Load(),
	}
}

// Close closes the alert channel. Safe to call concurrently with Evaluate.
func (m *Monitor) Close() {
	if m.closed.Swap(true) {
		return
	}
	close(m.alerts)
}
