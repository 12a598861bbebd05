package storage

import (
	"context"
	"database/sql"
	"fmt"
)

const keyLastResetDate = "last_reset_date"

type sqliteMonitorStateRepo struct {
	db *sql.DB
}

func (r *sqliteMonitorStateRepo) LastResetDate(ctx context.Context) (string, error) {
	var value string
	err := r.db.QueryRowContext(ctx,
		"SELECT value FROM monitor_state WHERE key = ?", keyLastResetDate).Scan(&value)
	if err == sql.ErrNoRows {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("get last reset date: %w", err)
	}
	return value, nil
}

func (r *sqliteMonitorStateRepo) SetLastResetDate(ctx context.Context, date string) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO monitor_state (key, value) VALUES (?, ?)
		ON CONFLICT(key) DO UPDATE SET value = excluded.value
	`, keyLastResetDate, date)
	if err != nil {
		return fmt.Errorf("set last reset date: %w", err)
	}
	return nil
}
