package view

import (
	"context"
	"testing"
	"time"

	"github.com/quiet-rooms/noisewatch/internal/analytics"
	"github.com/quiet-rooms/noisewatch/internal/models"
)

// fakeSampleRepo serves canned samples and counts fetches so memoization is
// observable.
type fakeSampleRepo struct {
	samples     []*models.Sample
	dailyCalls  int
	recentCalls int
}

func (f *fakeSampleRepo) Insert(ctx context.Context, sample *models.Sample) error {
	f.samples = append(f.samples, sample)
	return nil
}

func (f *fakeSampleRepo) Latest(ctx context.Context, room string) (*models.Sample, error) {
	if len(f.samples) == 0 {
		return nil, nil
	}
	return f.samples[len(f.samples)-1], nil
}

func (f *fakeSampleRepo) DailyWindow(ctx context.Context, room string, date time.Time) ([]*models.Sample, error) {
	f.dailyCalls++
	year, month, day := date.Date()
	start := time.Date(year, month, day, 0, 0, 0, 0, time.UTC)
	end := start.Add(24 * time.Hour)

	var out []*models.Sample
	for _, s := range f.samples {
		if s.Room == room && !s.MeasuredAt.Before(start) && s.MeasuredAt.Before(end) {
			out = append(out, s)
		}
	}
	return out, nil
}

func (f *fakeSampleRepo) RecentWindow(ctx context.Context, room string, since time.Time) ([]*models.Sample, error) {
	f.recentCalls++
	var out []*models.Sample
	for _, s := range f.samples {
		if s.Room == room && !s.MeasuredAt.Before(since) {
			out = append(out, s)
		}
	}
	return out, nil
}

func (f *fakeSampleRepo) DeleteBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	return 0, nil
}

// Monday 2026-08-24; "now" is Wednesday noon.
var (
	testMonday = time.Date(2026, 8, 24, 0, 0, 0, 0, time.UTC)
	testNow    = testMonday.AddDate(0, 0, 2).Add(12 * time.Hour)
)

func roomSample(room string, level float64, at time.Time) *models.Sample {
	return &models.Sample{ID: at.Format("150405.000"), Room: room, SoundLevel: level, MeasuredAt: at}
}

func newTestCoordinator(repo *fakeSampleRepo) *Coordinator {
	engine := analytics.NewEngine(time.UTC)
	return New(engine, repo, "Main Room", func() time.Time { return testNow })
}

func TestCoordinator_DailyMemoized(t *testing.T) {
	repo := &fakeSampleRepo{samples: []*models.Sample{
		roomSample("Main Room", 60, testNow.Add(-2*time.Hour)),
	}}
	c := newTestCoordinator(repo)
	ctx := context.Background()

	if _, err := c.Daily(ctx); err != nil {
		t.Fatalf("daily: %v", err)
	}
	if _, err := c.Daily(ctx); err != nil {
		t.Fatalf("daily again: %v", err)
	}
	if repo.dailyCalls != 1 {
		t.Errorf("daily fetches = %d, want 1 (memoized)", repo.dailyCalls)
	}

	// A new sample invalidates the memo.
	c.Invalidate()
	if _, err := c.Daily(ctx); err != nil {
		t.Fatalf("daily after invalidate: %v", err)
	}
	if repo.dailyCalls != 2 {
		t.Errorf("daily fetches = %d after invalidate, want 2", repo.dailyCalls)
	}
}

func TestCoordinator_SetDate(t *testing.T) {
	repo := &fakeSampleRepo{samples: []*models.Sample{
		roomSample("Main Room", 62, testMonday.Add(9*time.Hour)),
	}}
	c := newTestCoordinator(repo)
	ctx := context.Background()

	if err := c.SetDate(ctx, testMonday); err != nil {
		t.Fatalf("set date: %v", err)
	}
	result, err := c.Daily(ctx)
	if err != nil {
		t.Fatalf("daily: %v", err)
	}
	if result.Empty() {
		t.Fatal("expected Monday's samples")
	}

	// A zero date is ignored: selectors and memo stay put.
	before := repo.dailyCalls
	if err := c.SetDate(ctx, time.Time{}); err != nil {
		t.Fatalf("set zero date: %v", err)
	}
	if got := c.State().SelectedDate; !got.Equal(testMonday) {
		t.Errorf("selected date = %v, want %v", got, testMonday)
	}
	if repo.dailyCalls != before {
		t.Error("zero date should not trigger a fetch")
	}
}

func TestCoordinator_SelectWeekday(t *testing.T) {
	repo := &fakeSampleRepo{}
	c := newTestCoordinator(repo)
	ctx := context.Background()

	if err := c.SetTab(ctx, TabWeekly); err != nil {
		t.Fatalf("set tab: %v", err)
	}

	if err := c.SelectWeekday(ctx, "Tuesday"); err != nil {
		t.Fatalf("select weekday: %v", err)
	}

	state := c.State()
	if state.ActiveTab != TabDaily {
		t.Error("selecting a weekday should switch to the daily tab")
	}
	wantDate := testMonday.AddDate(0, 0, 1)
	if !state.SelectedDate.Equal(wantDate) {
		t.Errorf("selected date = %v, want %v", state.SelectedDate, wantDate)
	}

	if err := c.SelectWeekday(ctx, "Caturday"); err == nil {
		t.Error("unknown weekday should be rejected")
	}
}

func TestCoordinator_ShiftWeekBounds(t *testing.T) {
	repo := &fakeSampleRepo{}
	c := newTestCoordinator(repo)
	ctx := context.Background()

	// Walk back to the boundary.
	for i := 0; i < 4; i++ {
		if err := c.ShiftWeek(ctx, -1); err != nil {
			t.Fatalf("shift -1: %v", err)
		}
	}
	if got := c.State().WeekOffset; got != -4 {
		t.Fatalf("offset = %d, want -4", got)
	}

	// Out-of-range shift: state unchanged, no fetch.
	before := repo.recentCalls
	if err := c.ShiftWeek(ctx, -1); err != nil {
		t.Fatalf("shift past bound: %v", err)
	}
	if got := c.State().WeekOffset; got != -4 {
		t.Errorf("offset = %d after out-of-range shift, want -4", got)
	}
	if repo.recentCalls != before {
		t.Error("out-of-range shift should not fetch")
	}

	// Round trip back to the current week.
	for i := 0; i < 4; i++ {
		if err := c.ShiftWeek(ctx, 1); err != nil {
			t.Fatalf("shift +1: %v", err)
		}
	}
	if got := c.State().WeekOffset; got != 0 {
		t.Errorf("offset = %d after round trip, want 0", got)
	}

	if err := c.ShiftWeek(ctx, 1); err != nil {
		t.Fatalf("shift above bound: %v", err)
	}
	if got := c.State().WeekOffset; got != 0 {
		t.Errorf("offset = %d, want 0 (forward shift blocked)", got)
	}
}

func TestCoordinator_SetRoomRecomputesBoth(t *testing.T) {
	repo := &fakeSampleRepo{samples: []*models.Sample{
		roomSample("Main Room", 60, testNow.Add(-time.Hour)),
		roomSample("Library", 40, testNow.Add(-time.Hour)),
	}}
	c := newTestCoordinator(repo)
	ctx := context.Background()

	if _, err := c.Daily(ctx); err != nil {
		t.Fatalf("daily: %v", err)
	}
	if _, err := c.Weekly(ctx); err != nil {
		t.Fatalf("weekly: %v", err)
	}

	dailyBefore, recentBefore := repo.dailyCalls, repo.recentCalls
	if err := c.SetRoom(ctx, "Library"); err != nil {
		t.Fatalf("set room: %v", err)
	}

	if repo.dailyCalls != dailyBefore+1 {
		t.Error("room switch should recompute the daily view")
	}
	if repo.recentCalls != recentBefore+1 {
		t.Error("room switch should recompute the weekly view")
	}
	if got := c.State().SelectedRoom; got != "Library" {
		t.Errorf("room = %q, want Library", got)
	}
}

func TestCoordinator_RollingStats(t *testing.T) {
	repo := &fakeSampleRepo{samples: []*models.Sample{
		roomSample("Main Room", 50, testNow.Add(-3*time.Hour)),
		roomSample("Main Room", 71, testNow.Add(-2*time.Hour)),
	}}
	c := newTestCoordinator(repo)
	ctx := context.Background()

	if _, err := c.Daily(ctx); err != nil {
		t.Fatalf("daily: %v", err)
	}
	if _, err := c.Weekly(ctx); err != nil {
		t.Fatalf("weekly: %v", err)
	}

	stats := c.Stats()
	if stats.DailyPeak == nil || *stats.DailyPeak != 71 {
		t.Errorf("daily peak = %v, want 71", stats.DailyPeak)
	}
	// mean(50, 71) = 60.5 -> 61
	if stats.WeeklyAverage == nil || *stats.WeeklyAverage != 61 {
		t.Errorf("weekly average = %v, want 61", stats.WeeklyAverage)
	}
}

func TestCoordinator_EmptyTodayMarksPeakUnavailable(t *testing.T) {
	repo := &fakeSampleRepo{}
	c := newTestCoordinator(repo)
	ctx := context.Background()

	result, err := c.Daily(ctx)
	if err != nil {
		t.Fatalf("daily: %v", err)
	}
	if !result.Empty() {
		t.Fatal("expected empty summary")
	}
	if got := c.Stats().DailyPeak; got != nil {
		t.Errorf("daily peak = %v, want nil (unavailable, not zero)", got)
	}
}
