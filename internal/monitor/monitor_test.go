package monitor

import (
	"context"
	"testing"
	"time"
)

// fakeStateRepo is an in-memory MonitorStateRepository.
type fakeStateRepo struct {
	date string
	sets int
}

func (f *fakeStateRepo) LastResetDate(ctx context.Context) (string, error) {
	return f.date, nil
}

func (f *fakeStateRepo) SetLastResetDate(ctx context.Context, date string) error {
	f.date = date
	f.sets++
	return nil
}

func newTestMonitor(t *testing.T) *Monitor {
	t.Helper()
	m := New(nil, Options{Location: time.UTC})
	t.Cleanup(m.Close)
	return m
}

func TestMonitor_Evaluate_BelowThreshold(t *testing.T) {
	m := newTestMonitor(t)
	now := time.Date(2026, 8, 24, 10, 0, 0, 0, time.UTC)

	if alert := m.Evaluate("Main Room", 70, 75, now); alert != nil {
		t.Error("level below threshold should not fire")
	}
	// Equal to the threshold is not a crossing.
	if alert := m.Evaluate("Main Room", 75, 75, now); alert != nil {
		t.Error("level equal to threshold should not fire")
	}
	if len(m.History()) != 0 {
		t.Error("history should stay empty")
	}
}

func TestMonitor_Evaluate_FiresAboveThreshold(t *testing.T) {
	m := newTestMonitor(t)
	now := time.Date(2026, 8, 24, 10, 0, 0, 0, time.UTC)

	alert := m.Evaluate("Main Room", 82.5, 75, now)
	if alert == nil {
		t.Fatal("expected an alert")
	}
	if alert.RoomName != "Main Room" {
		t.Errorf("room = %q, want Main Room", alert.RoomName)
	}
	if alert.SoundLevel != 82.5 {
		t.Errorf("level = %v, want 82.5", alert.SoundLevel)
	}
	if alert.Threshold != 75 {
		t.Errorf("threshold = %v, want 75", alert.Threshold)
	}
	if alert.DisplayTime != "10:00:00" {
		t.Errorf("display time = %q, want 10:00:00", alert.DisplayTime)
	}
	if alert.ID == "" {
		t.Error("alert should carry an ID")
	}

	// The fired alert is delivered on the channel.
	select {
	case got := <-m.Alerts():
		if got != alert {
			t.Error("channel delivered a different alert")
		}
	default:
		t.Error("alert not delivered on channel")
	}
}

func TestMonitor_Evaluate_CooldownSuppresses(t *testing.T) {
	m := newTestMonitor(t)
	start := time.Date(2026, 8, 24, 10, 0, 0, 0, time.UTC)

	// 3s poll cadence over 10 minutes with the level pinned above the
	// threshold: the 180s cooldown admits exactly 4 alerts.
	fired := 0
	for tick := time.Duration(0); tick < 10*time.Minute; tick += 3 * time.Second {
		if alert := m.Evaluate("Main Room", 90, 75, start.Add(tick)); alert != nil {
			fired++
		}
	}

	if fired != 4 {
		t.Errorf("fired = %d alerts over 10 min, want 4", fired)
	}
	if got := len(m.History()); got != 4 {
		t.Errorf("history length = %d, want 4", got)
	}

	stats := m.Stats()
	if stats.Fired != 4 {
		t.Errorf("stats.Fired = %d, want 4", stats.Fired)
	}
	if stats.Suppressed == 0 {
		t.Error("expected suppressed evaluations")
	}
}

func TestMonitor_History_MostRecentFirst(t *testing.T) {
	m := New(nil, Options{Location: time.UTC, Cooldown: time.Second})
	defer m.Close()

	start := time.Date(2026, 8, 24, 10, 0, 0, 0, time.UTC)
	m.Evaluate("Main Room", 90, 75, start)
	m.Evaluate("Main Room", 85, 75, start.Add(2*time.Second))
	m.Evaluate("Main Room", 95, 75, start.Add(4*time.Second))

	history := m.History()
	if len(history) != 3 {
		t.Fatalf("history length = %d, want 3", len(history))
	}
	if history[0].SoundLevel != 95 || history[2].SoundLevel != 90 {
		t.Error("history should be most recent first")
	}
	if cur := m.Current(); cur == nil || cur.SoundLevel != 95 {
		t.Error("current should be the most recent alert")
	}
}

func TestMonitor_CheckDailyReset(t *testing.T) {
	state := &fakeStateRepo{}
	m := New(state, Options{Location: time.UTC})
	defer m.Close()

	ctx := context.Background()
	lateEvening := time.Date(2026, 8, 24, 23, 59, 50, 0, time.UTC)
	justPastMidnight := time.Date(2026, 8, 25, 0, 0, 10, 0, time.UTC)

	m.CheckDailyReset(ctx, lateEvening)
	m.Evaluate("Main Room", 90, 75, lateEvening)
	if len(m.History()) != 1 {
		t.Fatal("expected one alert before midnight")
	}

	// Same date: no reset.
	if m.CheckDailyReset(ctx, lateEvening.Add(5*time.Second)) {
		t.Error("reset should not fire within the same date")
	}
	if len(m.History()) != 1 {
		t.Error("history should survive a same-date check")
	}

	// Past midnight: history clears and the new date persists.
	if !m.CheckDailyReset(ctx, justPastMidnight) {
		t.Error("reset should fire on a new date")
	}
	if len(m.History()) != 0 {
		t.Error("history should be empty after the reset")
	}
	if m.Current() != nil {
		t.Error("current alert should clear on reset")
	}
	if state.date != "2026-08-25" {
		t.Errorf("persisted date = %q, want 2026-08-25", state.date)
	}

	if got := m.Stats().Resets; got != 2 {
		t.Errorf("stats.Resets = %d, want 2", got)
	}
}

func TestMonitor_CooldownSurvivesReset(t *testing.T) {
	m := newTestMonitor(t)
	ctx := context.Background()

	beforeMidnight := time.Date(2026, 8, 24, 23, 59, 0, 0, time.UTC)
	afterMidnight := time.Date(2026, 8, 25, 0, 1, 0, 0, time.UTC)

	if m.Evaluate("Main Room", 90, 75, beforeMidnight) == nil {
		t.Fatal("expected first alert")
	}
	m.CheckDailyReset(ctx, afterMidnight)

	// Two minutes after the last firing the cooldown still runs. The reset
	// clears the history, not the debounce.
	if m.Evaluate("Main Room", 90, 75, afterMidnight) != nil {
		t.Error("cooldown should survive the daily reset")
	}
}

func TestMonitor_Restore(t *testing.T) {
	ctx := context.Background()
	today := time.Now().UTC().Format("2006-01-02")

	t.Run("stale date advances", func(t *testing.T) {
		state := &fakeStateRepo{date: "2020-01-01"}
		m := New(state, Options{Location: time.UTC})
		defer m.Close()

		if err := m.Restore(ctx); err != nil {
			t.Fatalf("restore: %v", err)
		}
		if state.date != today {
			t.Errorf("persisted date = %q, want %q", state.date, today)
		}
	})

	t.Run("current date kept", func(t *testing.T) {
		state := &fakeStateRepo{date: today}
		m := New(state, Options{Location: time.UTC})
		defer m.Close()

		if err := m.Restore(ctx); err != nil {
			t.Fatalf("restore: %v", err)
		}
		if state.sets != 0 {
			t.Error("restore should not rewrite a current date")
		}
	})

	t.Run("nil state is fine", func(t *testing.T) {
		m := New(nil, Options{Location: time.UTC})
		defer m.Close()
		if err := m.Restore(ctx); err != nil {
			t.Fatalf("restore: %v", err)
		}
	})
}

func TestMonitor_EvaluateAfterClose(t *testing.T) {
	m := New(nil, Options{Location: time.UTC})
	m.Close()

	now := time.Date(2026, 8, 24, 10, 0, 0, 0, time.UTC)
	// Must not panic on the closed channel; the alert still lands in history.
	if alert := m.Evaluate("Main Room", 90, 75, now); alert == nil {
		t.Fatal("expected an alert")
	}
	if len(m.History()) != 1 {
		t.Error("history should record the alert")
	}
}

func TestOptions_Defaults(t *testing.T) {
	opts := Options{}
	opts.setDefaults()

	if opts.Cooldown != DefaultCooldown {
		t.Errorf("cooldown = %v, want %v", opts.Cooldown, DefaultCooldown)
	}
	if opts.Location == nil {
		t.Error("location should default")
	}
	if opts.AlertBufferSize <= 0 {
		t.Error("buffer size should default")
	}
}
