// Package view holds the server-side view state for the analytics surface:
// the active tab, selected date, selected room and week offset, plus the
// memoized summaries the selectors resolve to.
package view

import (
	"context"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/quiet-rooms/noisewatch/internal/analytics"
	"github.com/quiet-rooms/noisewatch/internal/metrics"
	"github.com/quiet-rooms/noisewatch/internal/storage"
)

// Tab identifies which summary the presentation layer is showing.
type Tab string

const (
	TabDaily  Tab = "daily"
	TabWeekly Tab = "weekly"
)

// weeklyFetchSpan is the window pulled from the measurement store for weekly
// views. It is deliberately broad (covers the whole navigable offset range);
// the engine filters to the selected week.
const weeklyFetchSpan = 35 * 24 * time.Hour

// State is a snapshot of the current selectors.
type State struct {
	ActiveTab    Tab       `json:"active_tab"`
	SelectedDate time.Time `json:"selected_date"`
	SelectedRoom string    `json:"selected_room"`
	WeekOffset   int       `json:"week_offset"`
}

// RollingStats carries the session-scoped rolling scalars. Nil means the stat
// has no data yet; it is never reported as zero.
type RollingStats struct {
	DailyPeak     *float64 `json:"daily_peak"`
	WeeklyAverage *float64 `json:"weekly_average"`
}

// Coordinator resolves view selectors to computed summaries. Summaries are
// memoized by selector identity, so setting a selector to its current value
// does not hit the measurement store.
type Coordinator struct {
	mu sync.Mutex

	engine  *analytics.Engine
	samples storage.SampleRepository
	now     func() time.Time

	activeTab    Tab
	selectedDate time.Time
	selectedRoom string
	weekOffset   int

	dailyKey  string
	daily     analytics.DailyResult
	weeklyKey string
	weekly    analytics.WeeklyResult

	dailyPeak    float64
	hasDailyPeak bool
	weeklyAvg    float64
	hasWeeklyAvg bool
}

// New creates a coordinator for the given room. The clock defaults to
// time.Now; tests inject a synthetic one.
func New(engine *analytics.Engine, samples storage.SampleRepository, room string, now func() time.Time) *Coordinator {
	if now == nil {
		now = time.Now
	}
	return &Coordinator{
		engine:       engine,
		samples:      samples,
		now:          now,
		activeTab:    TabDaily,
		selectedDate: now().In(engine.Location()),
		selectedRoom: room,
	}
}

// State returns the current selectors.
func (c *Coordinator) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return State{
		ActiveTab:    c.activeTab,
		SelectedDate: c.selectedDate,
		SelectedRoom: c.selectedRoom,
		WeekOffset:   c.weekOffset,
	}
}

// SetTab switches the active tab and ensures that tab's summary is current.
func (c *Coordinator) SetTab(ctx context.Context, tab Tab) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if tab != TabDaily && tab != TabWeekly {
		return fmt.Errorf("unknown tab %q", tab)
	}
	c.activeTab = tab
	if tab == TabDaily {
		return c.refreshDaily(ctx)
	}
	return c.refreshWeekly(ctx)
}

// SetDate selects a calendar date for the daily view. A zero date is ignored,
// matching a cleared date picker.
func (c *Coordinator) SetDate(ctx context.Context, date time.Time) error {
	if date.IsZero() {
		return nil
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	c.selectedDate = date.In(c.engine.Location())
	return c.refreshDaily(ctx)
}

// SelectWeekday maps a weekday name from the weekly chart onto the matching
// date of the current real-world week (regardless of the viewed offset) and
// switches to the daily tab.
func (c *Coordinator) SelectWeekday(ctx context.Context, day string) error {
	idx := -1
	for i, name := range []string{"Monday", "Tuesday", "Wednesday", "Thursday", "Friday"} {
		if name == day {
			idx = i
			break
		}
	}
	if idx < 0 {
		return fmt.Errorf("unknown weekday %q", day)
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	monday := c.engine.MondayOf(c.now())
	c.selectedDate = monday.AddDate(0, 0, idx)
	c.activeTab = TabDaily
	return c.refreshDaily(ctx)
}

// ShiftWeek moves the weekly view by delta weeks. A shift that would leave
// the navigable range is a no-op: state is unchanged and nothing is fetched.
func (c *Coordinator) ShiftWeek(ctx context.Context, delta int) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	next := c.weekOffset + delta
	if next < analytics.MinWeekOffset || next > analytics.MaxWeekOffset {
		return nil
	}
	c.weekOffset = next
	return c.refreshWeekly(ctx)
}

// SetWeekOffset jumps the weekly view to an absolute offset, clamped to the
// navigable range.
func (c *Coordinator) SetWeekOffset(ctx context.Context, offset int) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.weekOffset = analytics.ClampWeekOffset(offset)
	return c.refreshWeekly(ctx)
}

// SetRoom switches the watched room and recomputes both summaries.
func (c *Coordinator) SetRoom(ctx context.Context, room string) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.selectedRoom = room
	if err := c.refreshDaily(ctx); err != nil {
		return err
	}
	return c.refreshWeekly(ctx)
}

// Daily returns the daily summary for the current selectors, computing it if
// the selectors changed since the last computation.
func (c *Coordinator) Daily(ctx context.Context) (analytics.DailyResult, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if err := c.refreshDaily(ctx); err != nil {
		return analytics.DailyResult{}, err
	}
	return c.daily, nil
}

// Weekly returns the weekly summary for the current selectors.
func (c *Coordinator) Weekly(ctx context.Context) (analytics.WeeklyResult, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if err := c.refreshWeekly(ctx); err != nil {
		return analytics.WeeklyResult{}, err
	}
	return c.weekly, nil
}

// Stats returns the rolling scalars.
func (c *Coordinator) Stats() RollingStats {
	c.mu.Lock()
	defer c.mu.Unlock()

	var stats RollingStats
	if c.hasDailyPeak {
		v := c.dailyPeak
		stats.DailyPeak = &v
	}
	if c.hasWeeklyAvg {
		v := c.weeklyAvg
		stats.WeeklyAverage = &v
	}
	return stats
}

// Invalidate drops the memoized summaries so the next read recomputes. Called
// when new samples arrive for the watched room.
func (c *Coordinator) Invalidate() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.dailyKey = ""
	c.weeklyKey = ""
}

// refreshDaily recomputes the daily summary when the selector changed.
// Callers hold c.mu.
func (c *Coordinator) refreshDaily(ctx context.Context) error {
	key := fmt.Sprintf("%s|%s", c.selectedRoom, c.selectedDate.Format("2006-01-02"))
	if key == c.dailyKey {
		return nil
	}

	samples, err := c.samples.DailyWindow(ctx, c.selectedRoom, c.selectedDate)
	if err != nil {
		return fmt.Errorf("fetching daily window: %w", err)
	}

	start := time.Now()
	result := c.engine.ComputeDaily(samples, c.selectedDate, c.now())
	metrics.AggregationDuration.WithLabelValues("daily").Observe(time.Since(start).Seconds())

	switch result.Update {
	case analytics.PeakSet:
		c.dailyPeak = result.Peak
		c.hasDailyPeak = true
	case analytics.PeakUnavailable:
		c.hasDailyPeak = false
		log.Printf("[view] no samples in today's working-hours window for %s", c.selectedRoom)
	}
	if result.Empty() {
		metrics.EmptyWindows.WithLabelValues("daily").Inc()
	}

	c.daily = result
	c.dailyKey = key
	return nil
}

// refreshWeekly recomputes the weekly summary and the rolling weekly average
// when the selector changed. Callers hold c.mu.
func (c *Coordinator) refreshWeekly(ctx context.Context) error {
	key := fmt.Sprintf("%s|%d", c.selectedRoom, c.weekOffset)
	if key == c.weeklyKey {
		return nil
	}

	now := c.now()
	samples, err := c.samples.RecentWindow(ctx, c.selectedRoom, now.Add(-weeklyFetchSpan))
	if err != nil {
		return fmt.Errorf("fetching weekly window: %w", err)
	}

	start := time.Now()
	result := c.engine.ComputeWeekly(samples, c.weekOffset, now)
	metrics.AggregationDuration.WithLabelValues("weekly").Observe(time.Since(start).Seconds())

	if result.Empty() {
		metrics.EmptyWindows.WithLabelValues("weekly").Inc()
	}

	// The rolling average always tracks the current week, whatever week the
	// chart is showing.
	if avg, ok := c.engine.WeeklyAverage(samples, now); ok {
		c.weeklyAvg = avg
		c.hasWeeklyAvg = true
	}

	c.weekly = result
	c.weeklyKey = key
	return nil
}
