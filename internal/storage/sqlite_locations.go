package storage

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/quiet-rooms/noisewatch/internal/models"
)

type sqliteLocationRepo struct {
	db *sql.DB
}

func (r *sqliteLocationRepo) Create(ctx context.Context, loc *models.Location) error {
	query := `
		INSERT INTO locations (id, name, threshold, chosen, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?)
	`
	_, err := r.db.ExecContext(ctx, query,
		loc.ID, loc.Name, loc.Threshold, boolToInt(loc.Chosen),
		loc.CreatedAt, loc.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert location: %w", err)
	}
	return nil
}

func (r *sqliteLocationRepo) GetByID(ctx context.Context, id string) (*models.Location, error) {
	query := `
		SELECT id, name, threshold, chosen, created_at, updated_at
		FROM locations WHERE id = ?
	`
	return scanLocation(r.db.QueryRowContext(ctx, query, id))
}

func (r *sqliteLocationRepo) List(ctx context.Context) ([]*models.Location, error) {
	query := `
		SELECT id, name, threshold, chosen, created_at, updated_at
		FROM locations ORDER BY name
	`
	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("query locations: %w", err)
	}
	defer rows.Close()

	var locs []*models.Location
	for rows.Next() {
		loc := &models.Location{}
		var chosen int
		if err := rows.Scan(&loc.ID, &loc.Name, &loc.Threshold, &chosen,
			&loc.CreatedAt, &loc.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scan location: %w", err)
		}
		loc.Chosen = chosen != 0
		locs = append(locs, loc)
	}
	return locs, rows.Err()
}

func (r *sqliteLocationRepo) Chosen(ctx context.Context) (*models.Location, error) {
	query := `
		SELECT id, name, threshold, chosen, created_at, updated_at
		FROM locations WHERE chosen = 1 LIMIT 1
	`
	return scanLocation(r.db.QueryRowContext(ctx, query))
}

// SetChosen marks one location as chosen and unmarks the rest atomically, so
// the at-most-one-chosen invariant holds even across a crash mid-update.
func (r *sqliteLocationRepo) SetChosen(ctx context.Context, id string) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin set chosen: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, "UPDATE locations SET chosen = 0 WHERE chosen = 1"); err != nil {
		return fmt.Errorf("clear chosen: %w", err)
	}

	result, err := tx.ExecContext(ctx,
		"UPDATE locations SET chosen = 1, updated_at = ? WHERE id = ?", time.Now(), id)
	if err != nil {
		return fmt.Errorf("set chosen: %w", err)
	}
	rows, _ := result.RowsAffected()
	if rows == 0 {
		return fmt.Errorf("location not found: %s", id)
	}

	return tx.Commit()
}

func (r *sqliteLocationRepo) UpdateThreshold(ctx context.Context, id string, threshold float64) error {
	if err := models.ValidateThreshold(threshold); err != nil {
		return err
	}

	result, err := r.db.ExecContext(ctx,
		"UPDATE locations SET threshold = ?, updated_at = ? WHERE id = ?",
		threshold, time.Now(), id)
	if err != nil {
		return fmt.Errorf("update threshold: %w", err)
	}
	rows, _ := result.RowsAffected()
	if rows == 0 {
		return fmt.Errorf("location not found: %s", id)
	}
	return nil
}

// Delete removes a location. If the deleted location was chosen, another
// location (if any remain) is promoted so the monitor keeps a room to watch.
func (r *sqliteLocationRepo) Delete(ctx context.Context, id string) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin delete: %w", err)
	}
	defer tx.Rollback()

	var chosen int
	err = tx.QueryRowContext(ctx, "SELECT chosen FROM locations WHERE id = ?", id).Scan(&chosen)
	if err == sql.ErrNoRows {
		return fmt.Errorf("location not found: %s", id)
	}
	if err != nil {
		return fmt.Errorf("lookup location: %w", err)
	}

	if _, err := tx.ExecContext(ctx, "DELETE FROM locations WHERE id = ?", id); err != nil {
		return fmt.Errorf("delete location: %w", err)
	}

	if chosen != 0 {
		_, err := tx.ExecContext(ctx, `
			UPDATE locations SET chosen = 1, updated_at = ?
			WHERE id = (SELECT id FROM locations ORDER BY name LIMIT 1)
		`, time.Now())
		if err != nil {
			return fmt.Errorf("promote location: %w", err)
		}
	}

	return tx.Commit()
}

func scanLocation(row *sql.Row) (*models.Location, error) {
	loc := &models.Location{}
	var chosen int

	err := row.Scan(&loc.ID, &loc.Name, &loc.Threshold, &chosen,
		&loc.CreatedAt, &loc.UpdatedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("scan location: %w", err)
	}

	loc.Chosen = chosen != 0
	return loc, nil
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
