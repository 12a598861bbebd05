package storage

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/quiet-rooms/noisewatch/internal/models"
)

func setupTestDB(t *testing.T) (*SQLiteStorage, func()) {
	t.Helper()

	// Create temp directory for test database
	tmpDir, err := os.MkdirTemp("", "noisewatch-test-*")
	if err != nil {
		t.Fatalf("create temp dir: %v", err)
	}

	dbPath := filepath.Join(tmpDir, "test.db")

	store := NewSQLiteStorage(dbPath)
	if err := store.Open(); err != nil {
		os.RemoveAll(tmpDir)
		t.Fatalf("open database: %v", err)
	}

	if err := store.Migrate(); err != nil {
		store.Close()
		os.RemoveAll(tmpDir)
		t.Fatalf("migrate database: %v", err)
	}

	cleanup := func() {
		store.Close()
		os.RemoveAll(tmpDir)
	}

	return store, cleanup
}

func insertTestSample(t *testing.T, store *SQLiteStorage, room string, level float64, at time.Time) *models.Sample {
	t.Helper()

	sample := &models.Sample{
		ID:         uuid.New().String(),
		DeviceID:   "dev-1",
		Room:       room,
		SoundLevel: level,
		MeasuredAt: at,
	}
	if err := store.Samples().Insert(context.Background(), sample); err != nil {
		t.Fatalf("insert sample: %v", err)
	}
	return sample
}

func insertTestLocation(t *testing.T, store *SQLiteStorage, name string, chosen bool) *models.Location {
	t.Helper()

	loc := models.NewLocation(name)
	loc.ID = uuid.New().String()
	loc.Chosen = chosen
	if err := store.Locations().Create(context.Background(), loc); err != nil {
		t.Fatalf("create location: %v", err)
	}
	return loc
}

func TestSQLiteStorage_OpenClose(t *testing.T) {
	store, cleanup := setupTestDB(t)
	defer cleanup()

	if store.db == nil {
		t.Fatal("database should be open")
	}
}

func TestSQLiteStorage_EnsureDefaultLocation(t *testing.T) {
	store, cleanup := setupTestDB(t)
	defer cleanup()

	if err := store.EnsureDefaultLocation(); err != nil {
		t.Fatalf("ensure default location: %v", err)
	}

	chosen, err := store.Locations().Chosen(context.Background())
	if err != nil {
		t.Fatalf("chosen: %v", err)
	}
	if chosen == nil {
		t.Fatal("expected a chosen location after seeding")
	}
	if chosen.Threshold != models.DefaultThreshold {
		t.Errorf("threshold = %v, want %v", chosen.Threshold, models.DefaultThreshold)
	}

	// Seeding again must not create a second location.
	if err := store.EnsureDefaultLocation(); err != nil {
		t.Fatalf("ensure default location again: %v", err)
	}
	locs, err := store.Locations().List(context.Background())
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(locs) != 1 {
		t.Errorf("location count = %d, want 1", len(locs))
	}
}

func TestSampleRepository_InsertAndLatest(t *testing.T) {
	store, cleanup := setupTestDB(t)
	defer cleanup()

	ctx := context.Background()
	base := time.Date(2026, 8, 24, 10, 0, 0, 0, time.UTC)

	insertTestSample(t, store, "Main Room", 55, base)
	want := insertTestSample(t, store, "Main Room", 72, base.Add(time.Minute))
	insertTestSample(t, store, "Other Room", 99, base.Add(2*time.Minute))

	got, err := store.Samples().Latest(ctx, "Main Room")
	if err != nil {
		t.Fatalf("latest: %v", err)
	}
	if got == nil {
		t.Fatal("expected a sample")
	}
	if got.ID != want.ID {
		t.Errorf("latest ID = %s, want %s", got.ID, want.ID)
	}
	if !got.MeasuredAt.Equal(want.MeasuredAt) {
		t.Errorf("measured at = %v, want %v", got.MeasuredAt, want.MeasuredAt)
	}

	if missing, err := store.Samples().Latest(ctx, "Empty Room"); err != nil || missing != nil {
		t.Errorf("latest for empty room = (%v, %v), want (nil, nil)", missing, err)
	}
}

func TestSampleRepository_DailyWindow(t *testing.T) {
	store, cleanup := setupTestDB(t)
	defer cleanup()

	ctx := context.Background()
	day := time.Date(2026, 8, 24, 0, 0, 0, 0, time.UTC)

	insertTestSample(t, store, "Main Room", 50, day.Add(-time.Minute)) // previous day
	insertTestSample(t, store, "Main Room", 60, day.Add(8*time.Hour))
	insertTestSample(t, store, "Main Room", 65, day.Add(15*time.Hour))
	insertTestSample(t, store, "Main Room", 70, day.Add(24*time.Hour)) // next day

	samples, err := store.Samples().DailyWindow(ctx, "Main Room", day.Add(12*time.Hour))
	if err != nil {
		t.Fatalf("daily window: %v", err)
	}
	if len(samples) != 2 {
		t.Fatalf("sample count = %d, want 2", len(samples))
	}
	if samples[0].SoundLevel != 60 || samples[1].SoundLevel != 65 {
		t.Error("samples should be ordered by measurement time")
	}
}

func TestSampleRepository_RecentWindow(t *testing.T) {
	store, cleanup := setupTestDB(t)
	defer cleanup()

	ctx := context.Background()
	now := time.Date(2026, 8, 24, 12, 0, 0, 0, time.UTC)

	insertTestSample(t, store, "Main Room", 50, now.AddDate(0, 0, -40))
	insertTestSample(t, store, "Main Room", 60, now.AddDate(0, 0, -10))
	insertTestSample(t, store, "Main Room", 65, now)

	samples, err := store.Samples().RecentWindow(ctx, "Main Room", now.AddDate(0, 0, -35))
	if err != nil {
		t.Fatalf("recent window: %v", err)
	}
	if len(samples) != 2 {
		t.Errorf("sample count = %d, want 2", len(samples))
	}
}

func TestSampleRepository_DeleteBefore(t *testing.T) {
	store, cleanup := setupTestDB(t)
	defer cleanup()

	ctx := context.Background()
	now := time.Date(2026, 8, 24, 12, 0, 0, 0, time.UTC)

	insertTestSample(t, store, "Main Room", 50, now.AddDate(0, -7, 0))
	insertTestSample(t, store, "Main Room", 60, now.AddDate(0, -1, 0))

	deleted, err := store.Samples().DeleteBefore(ctx, now.AddDate(0, -6, 0))
	if err != nil {
		t.Fatalf("delete before: %v", err)
	}
	if deleted != 1 {
		t.Errorf("deleted = %d, want 1", deleted)
	}

	remaining, err := store.Samples().RecentWindow(ctx, "Main Room", now.AddDate(-1, 0, 0))
	if err != nil {
		t.Fatalf("recent window: %v", err)
	}
	if len(remaining) != 1 {
		t.Errorf("remaining = %d, want 1", len(remaining))
	}
}

func TestLocationRepository_SetChosen(t *testing.T) {
	store, cleanup := setupTestDB(t)
	defer cleanup()

	ctx := context.Background()
	first := insertTestLocation(t, store, "First", true)
	second := insertTestLocation(t, store, "Second", false)

	if err := store.Locations().SetChosen(ctx, second.ID); err != nil {
		t.Fatalf("set chosen: %v", err)
	}

	chosen, err := store.Locations().Chosen(ctx)
	if err != nil {
		t.Fatalf("chosen: %v", err)
	}
	if chosen == nil || chosen.ID != second.ID {
		t.Fatal("second location should be chosen")
	}

	// The previous choice must be cleared.
	old, err := store.Locations().GetByID(ctx, first.ID)
	if err != nil {
		t.Fatalf("get first: %v", err)
	}
	if old.Chosen {
		t.Error("first location should no longer be chosen")
	}

	if err := store.Locations().SetChosen(ctx, "missing"); err == nil {
		t.Error("choosing a missing location should fail")
	}
}

func TestLocationRepository_DeletePromotesChosen(t *testing.T) {
	store, cleanup := setupTestDB(t)
	defer cleanup()

	ctx := context.Background()
	chosen := insertTestLocation(t, store, "Alpha", true)
	insertTestLocation(t, store, "Beta", false)

	if err := store.Locations().Delete(ctx, chosen.ID); err != nil {
		t.Fatalf("delete: %v", err)
	}

	promoted, err := store.Locations().Chosen(ctx)
	if err != nil {
		t.Fatalf("chosen: %v", err)
	}
	if promoted == nil {
		t.Fatal("a remaining location should be promoted")
	}
	if promoted.Name != "Beta" {
		t.Errorf("promoted = %q, want Beta", promoted.Name)
	}
}

func TestLocationRepository_UpdateThreshold(t *testing.T) {
	store, cleanup := setupTestDB(t)
	defer cleanup()

	ctx := context.Background()
	loc := insertTestLocation(t, store, "Main Room", true)

	if err := store.Locations().UpdateThreshold(ctx, loc.ID, 85); err != nil {
		t.Fatalf("update threshold: %v", err)
	}

	updated, err := store.Locations().GetByID(ctx, loc.ID)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if updated.Threshold != 85 {
		t.Errorf("threshold = %v, want 85", updated.Threshold)
	}

	// Out-of-range values are rejected before touching the row.
	if err := store.Locations().UpdateThreshold(ctx, loc.ID, 500); err == nil {
		t.Error("threshold above the bound should be rejected")
	}
}

func TestMonitorStateRepository_ResetDate(t *testing.T) {
	store, cleanup := setupTestDB(t)
	defer cleanup()

	ctx := context.Background()
	repo := store.MonitorState()

	date, err := repo.LastResetDate(ctx)
	if err != nil {
		t.Fatalf("last reset date: %v", err)
	}
	if date != "" {
		t.Errorf("initial date = %q, want empty", date)
	}

	if err := repo.SetLastResetDate(ctx, "2026-08-24"); err != nil {
		t.Fatalf("set reset date: %v", err)
	}
	// Upsert overwrites.
	if err := repo.SetLastResetDate(ctx, "2026-08-25"); err != nil {
		t.Fatalf("set reset date again: %v", err)
	}

	date, err = repo.LastResetDate(ctx)
	if err != nil {
		t.Fatalf("last reset date: %v", err)
	}
	if date != "2026-08-25" {
		t.Errorf("date = %q, want 2026-08-25", date)
	}
}
