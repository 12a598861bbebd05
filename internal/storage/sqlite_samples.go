package storage

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/quiet-rooms/noisewatch/internal/models"
)

type sqliteSampleRepo struct {
	db *sql.DB
}

func (r *sqliteSampleRepo) Insert(ctx context.Context, sample *models.Sample) error {
	query := `
		INSERT INTO samples (id, device_id, room, sound_level, measured_at, description)
		VALUES (?, ?, ?, ?, ?, ?)
	`
	_, err := r.db.ExecContext(ctx, query,
		sample.ID, sample.DeviceID, sample.Room, sample.SoundLevel,
		sample.MeasuredAt.UTC().Format(time.RFC3339), nullString(sample.Description),
	)
	if err != nil {
		return fmt.Errorf("insert sample: %w", err)
	}
	return nil
}

func (r *sqliteSampleRepo) Latest(ctx context.Context, room string) (*models.Sample, error) {
	query := `
		SELECT id, device_id, room, sound_level, measured_at, description
		FROM samples WHERE room = ?
		ORDER BY measured_at DESC LIMIT 1
	`
	sample, err := scanSample(r.db.QueryRowContext(ctx, query, room))
	if err != nil {
		return nil, fmt.Errorf("latest sample: %w", err)
	}
	return sample, nil
}

func (r *sqliteSampleRepo) DailyWindow(ctx context.Context, room string, date time.Time) ([]*models.Sample, error) {
	year, month, day := date.Date()
	start := time.Date(year, month, day, 0, 0, 0, 0, time.UTC)
	end := start.Add(24 * time.Hour)

	query := `
		SELECT id, device_id, room, sound_level, measured_at, description
		FROM samples
		WHERE room = ? AND measured_at >= ? AND measured_at < ?
		ORDER BY measured_at ASC
	`
	return r.querySamples(ctx, query, room,
		start.Format(time.RFC3339), end.Format(time.RFC3339))
}

func (r *sqliteSampleRepo) RecentWindow(ctx context.Context, room string, since time.Time) ([]*models.Sample, error) {
	query := `
		SELECT id, device_id, room, sound_level, measured_at, description
		FROM samples
		WHERE room = ? AND measured_at >= ?
		ORDER BY measured_at ASC
	`
	return r.querySamples(ctx, query, room, since.UTC().Format(time.RFC3339))
}

func (r *sqliteSampleRepo) DeleteBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	result, err := r.db.ExecContext(ctx,
		"DELETE FROM samples WHERE measured_at < ?", cutoff.UTC().Format(time.RFC3339))
	if err != nil {
		return 0, fmt.Errorf("delete samples: %w", err)
	}
	return result.RowsAffected()
}

func (r *sqliteSampleRepo) querySamples(ctx context.Context, query string, args ...any) ([]*models.Sample, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query samples: %w", err)
	}
	defer rows.Close()

	var samples []*models.Sample
	for rows.Next() {
		sample, err := scanSampleRow(rows)
		if err != nil {
			return nil, err
		}
		samples = append(samples, sample)
	}
	return samples, rows.Err()
}

func scanSample(row *sql.Row) (*models.Sample, error) {
	sample := &models.Sample{}
	var measuredAt string
	var description sql.NullString

	err := row.Scan(&sample.ID, &sample.DeviceID, &sample.Room,
		&sample.SoundLevel, &measuredAt, &description)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("scan sample: %w", err)
	}

	return finishSample(sample, measuredAt, description)
}

func scanSampleRow(rows *sql.Rows) (*models.Sample, error) {
	sample := &models.Sample{}
	var measuredAt string
	var description sql.NullString

	err := rows.Scan(&sample.ID, &sample.DeviceID, &sample.Room,
		&sample.SoundLevel, &measuredAt, &description)
	if err != nil {
		return nil, fmt.Errorf("scan sample: %w", err)
	}

	return finishSample(sample, measuredAt, description)
}

func finishSample(sample *models.Sample, measuredAt string, description sql.NullString) (*models.Sample, error) {
	t, err := time.Parse(time.RFC3339, measuredAt)
	if err != nil {
		return nil, fmt.Errorf("parse measured_at: %w", err)
	}
	sample.MeasuredAt = t
	sample.Description = description.String
	return sample, nil
}

func nullString(s string) sql.NullString {
	if s == "" {
		return sql.NullString{}
	}
	return sql.NullString{String: s, Valid: true}
}
