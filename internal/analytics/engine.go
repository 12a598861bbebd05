// Package analytics computes time-bucketed noise statistics: daily hourly
// summaries, weekly weekday summaries, quiet-time estimates and rolling
// averages. All computations are pure functions over a materialized sample
// window; nothing here holds state between calls.
package analytics

import (
	"fmt"
	"math"
	"time"

	"github.com/quiet-rooms/noisewatch/internal/models"
)

// Working-hours window. Samples measured outside these local hours are
// excluded from every summary.
const (
	WindowStartHour = 6
	WindowEndHour   = 17
)

// Quiet-time estimation constants. The estimate counts samples below the
// fixed quiet threshold and assumes a uniform sampling interval; it does not
// inspect actual inter-sample gaps.
const (
	QuietThresholdDb    = 60
	QuietSampleInterval = 10 * time.Minute
)

// Week navigation bounds: 0 is the current week, negative values are prior
// weeks.
const (
	MinWeekOffset = -4
	MaxWeekOffset = 0
)

// Weekdays covered by the weekly views, Monday first. Saturday and Sunday
// samples are always excluded.
var weekdayNames = []string{"Monday", "Tuesday", "Wednesday", "Thursday", "Friday"}

// DailyPoint is one hourly bucket of a daily summary. Avg and peak are nil
// when the hour had no samples; nil is distinct from a valid 0 dB reading.
type DailyPoint struct {
	Hour      int      `json:"hour"`
	Label     string   `json:"label"` // "8:00"
	AvgLevel  *float64 `json:"avg_level"`
	PeakLevel *float64 `json:"peak_level"`
}

// PeakUpdate says what a daily computation implies for the rolling
// daily-peak stat. The stat is only ever touched when the computed date is
// the current day.
type PeakUpdate int

const (
	// PeakKeep leaves the rolling stat untouched (date is not today).
	PeakKeep PeakUpdate = iota
	// PeakUnavailable marks the stat as having no data (today, empty window).
	PeakUnavailable
	// PeakSet replaces the stat with the computed value.
	PeakSet
)

// DailyResult is the outcome of a daily computation.
type DailyResult struct {
	Points []DailyPoint
	// Peak is the highest hourly peak; meaningful only when Update is PeakSet.
	Peak   float64
	Update PeakUpdate
}

// Empty reports whether the window held no in-window samples.
func (r DailyResult) Empty() bool {
	return len(r.Points) == 0
}

// WeeklyPoint is one weekday bucket of a weekly summary.
type WeeklyPoint struct {
	Day       string   `json:"day"`
	AvgNoise  *float64 `json:"avg_noise"`
	PeakNoise *float64 `json:"peak_noise"`
}

// QuietTimePoint is the estimated quiet minutes for one weekday.
type QuietTimePoint struct {
	Day             string `json:"day"`
	DurationMinutes int    `json:"duration_minutes"`
}

// WeeklyResult is the outcome of a weekly computation. Points and QuietTime
// are empty when no weekday bucket received a sample.
type WeeklyResult struct {
	Points    []WeeklyPoint
	QuietTime []QuietTimePoint
}

// Empty reports whether every weekday bucket was empty.
func (r WeeklyResult) Empty() bool {
	return len(r.Points) == 0
}

// Engine computes summaries in a fixed time zone. The zone is the canonical
// "local" time for hour bucketing and for deciding what "today" means; it
// defaults to the host zone.
type Engine struct {
	loc *time.Location
}

// NewEngine creates an engine for the given zone. A nil zone means the host
// local zone.
func NewEngine(loc *time.Location) *Engine {
	if loc == nil {
		loc = time.Local
	}
	return &Engine{loc: loc}
}

// Location returns the engine's canonical zone.
func (e *Engine) Location() *time.Location {
	return e.loc
}

// ClampWeekOffset bounds a week offset to the navigable range.
func ClampWeekOffset(offset int) int {
	if offset < MinWeekOffset {
		return MinWeekOffset
	}
	if offset > MaxWeekOffset {
		return MaxWeekOffset
	}
	return offset
}

// hourOf returns the sample's hour of day in the engine zone.
func (e *Engine) hourOf(s *models.Sample) int {
	return s.MeasuredAt.In(e.loc).Hour()
}

// inWindow reports whether the sample falls inside working hours.
func (e *Engine) inWindow(s *models.Sample) bool {
	h := e.hourOf(s)
	return h >= WindowStartHour && h <= WindowEndHour
}

// sameDay reports whether two instants fall on the same calendar day in the
// engine zone.
func (e *Engine) sameDay(a, b time.Time) bool {
	ay, am, ad := a.In(e.loc).Date()
	by, bm, bd := b.In(e.loc).Date()
	return ay == by && am == bm && ad == bd
}

// MondayOf returns midnight of the Monday of the week containing t.
func (e *Engine) MondayOf(t time.Time) time.Time {
	t = t.In(e.loc)
	back := (int(t.Weekday()) + 6) % 7 // Monday=0 .. Sunday=6
	monday := t.AddDate(0, 0, -back)
	y, m, d := monday.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, e.loc)
}

// WeekRange returns the Monday (inclusive) and Saturday midnight (exclusive)
// of the week offset weeks from the week containing now. The offset is
// clamped to the navigable range.
func (e *Engine) WeekRange(now time.Time, offset int) (time.Time, time.Time) {
	monday := e.MondayOf(now).AddDate(0, 0, ClampWeekOffset(offset)*7)
	return monday, monday.AddDate(0, 0, 5)
}

// ComputeDaily builds the hourly summary for one calendar day. Buckets cover
// the contiguous [minHour, maxHour] range actually observed within working
// hours; hours outside the observed span are trimmed, gaps inside it remain
// as empty buckets. The rolling daily-peak directive in the result only
// mutates the stat when selectedDate falls on the same day as now.
func (e *Engine) ComputeDaily(samples []*models.Sample, selectedDate, now time.Time) DailyResult {
	isToday := e.sameDay(selectedDate, now)

	minHour, maxHour := -1, -1
	for _, s := range samples {
		if !e.inWindow(s) {
			continue
		}
		h := e.hourOf(s)
		if minHour < 0 || h < minHour {
			minHour = h
		}
		if h > maxHour {
			maxHour = h
		}
	}

	if minHour < 0 {
		// No sample inside working hours. Absence of data is never zero.
		if isToday {
			return DailyResult{Update: PeakUnavailable}
		}
		return DailyResult{Update: PeakKeep}
	}

	type bucket struct {
		count int
		sum   float64
		max   float64
	}
	buckets := make([]bucket, maxHour-minHour+1)

	for _, s := range samples {
		if !e.inWindow(s) {
			continue
		}
		h := e.hourOf(s)
		b := &buckets[h-minHour]
		b.count++
		b.sum += s.SoundLevel
		if b.count == 1 || s.SoundLevel > b.max {
			b.max = s.SoundLevel
		}
	}

	points := make([]DailyPoint, 0, len(buckets))
	highestPeak := 0.0
	for i, b := range buckets {
		h := minHour + i
		p := DailyPoint{Hour: h, Label: fmt.Sprintf("%d:00", h)}
		if b.count > 0 {
			avg := math.Round(b.sum / float64(b.count))
			peak := b.max
			p.AvgLevel = &avg
			p.PeakLevel = &peak
			if peak > highestPeak {
				highestPeak = peak
			}
		}
		points = append(points, p)
	}

	result := DailyResult{Points: points}
	if isToday {
		result.Peak = highestPeak
		result.Update = PeakSet
	}
	return result
}

// ComputeWeekly builds the Monday-Friday summary for the week selected by
// weekOffset, including the quiet-time estimate per weekday.
func (e *Engine) ComputeWeekly(samples []*models.Sample, weekOffset int, now time.Time) WeeklyResult {
	monday, end := e.WeekRange(now, weekOffset)

	levels := make([][]float64, len(weekdayNames))
	seen := false

	for _, s := range samples {
		if !e.inWindow(s) {
			continue
		}
		t := s.MeasuredAt.In(e.loc)
		if t.Before(monday) || !t.Before(end) {
			continue
		}
		wd := int(t.Weekday())
		if wd < 1 || wd > 5 { // weekend samples never reach the weekly chart
			continue
		}
		levels[wd-1] = append(levels[wd-1], s.SoundLevel)
		seen = true
	}

	if !seen {
		return WeeklyResult{}
	}

	result := WeeklyResult{
		Points:    make([]WeeklyPoint, 0, len(weekdayNames)),
		QuietTime: make([]QuietTimePoint, 0, len(weekdayNames)),
	}

	for i, day := range weekdayNames {
		dayLevels := levels[i]
		p := WeeklyPoint{Day: day}
		quiet := 0
		if len(dayLevels) > 0 {
			sum, max := 0.0, dayLevels[0]
			for _, v := range dayLevels {
				sum += v
				if v > max {
					max = v
				}
				if v < QuietThresholdDb {
					quiet++
				}
			}
			avg := math.Round(sum / float64(len(dayLevels)))
			p.AvgNoise = &avg
			p.PeakNoise = &max
		}
		result.Points = append(result.Points, p)
		result.QuietTime = append(result.QuietTime, QuietTimePoint{
			Day:             day,
			DurationMinutes: quiet * int(QuietSampleInterval.Minutes()),
		})
	}

	return result
}

// WeeklyAverage computes the rounded mean over in-window samples from the
// Monday of the current week through now, independent of any week offset.
// The second return is false when the window is empty, in which case callers
// leave the rolling stat unchanged.
func (e *Engine) WeeklyAverage(samples []*models.Sample, now time.Time) (float64, bool) {
	monday := e.MondayOf(now)

	sum, count := 0.0, 0
	for _, s := range samples {
		if !e.inWindow(s) {
			continue
		}
		t := s.MeasuredAt.In(e.loc)
		if t.Before(monday) || t.After(now) {
			continue
		}
		sum += s.SoundLevel
		count++
	}

	if count == 0 {
		return 0, false
	}
	return math.Round(sum / float64(count)), true
}
