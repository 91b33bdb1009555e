package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
)

// CreateLight inserts a new light and returns it with generated ID and
// timestamps.
func (s *Store) CreateLight(ctx context.Context, p LightParams) (*Light, error) {
	light := Light{
		ID:          uuid.NewString(),
		Location:    p.Location,
		Latitude:    p.Latitude,
		Longitude:   p.Longitude,
		Notes:       p.Notes,
		LastUpdated: now(),
	}
	light.CreatedAt = light.LastUpdated

	_, err := s.db.ExecContext(ctx,
		`INSERT INTO lights (id, location, latitude, longitude, notes, last_updated, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		light.ID, light.Location, light.Latitude, light.Longitude, light.Notes,
		light.LastUpdated, light.CreatedAt)
	if err != nil {
		return nil, fmt.Errorf("insert light: %w", err)
	}

	s.logger.Debug("Light created", "light_id", light.ID, "location", light.Location)
	return &light, nil
}

// Light fetches one light by ID.
func (s *Store) Light(ctx context.Context, id string) (*Light, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT id, location, latitude, longitude, notes, last_updated, created_at
		 FROM lights WHERE id = ?`, id)
	return scanLight(row)
}

// Lights lists every light, newest first.
func (s *Store) Lights(ctx context.Context) ([]Light, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, location, latitude, longitude, notes, last_updated, created_at
		 FROM lights ORDER BY created_at DESC, rowid DESC`)
	if err != nil {
		return nil, fmt.Errorf("query lights: %w", err)
	}
	defer rows.Close()

	lights := []Light{}
	for rows.Next() {
		var l Light
		if err := rows.Scan(&l.ID, &l.Location, &l.Latitude, &l.Longitude, &l.Notes,
			&l.LastUpdated, &l.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan light: %w", err)
		}
		lights = append(lights, l)
	}
	return lights, rows.Err()
}

// UpdateLight applies the non-nil fields of patch and returns the updated
// light. An empty patch still succeeds and returns the light unchanged.
func (s *Store) UpdateLight(ctx context.Context, id string, patch LightPatch) (*Light, error) {
	var sets []string
	var args []any
	if patch.Location != nil {
		sets = append(sets, "location = ?")
		args = append(args, *patch.Location)
	}
	if patch.Latitude != nil {
		sets = append(sets, "latitude = ?")
		args = append(args, *patch.Latitude)
	}
	if patch.Longitude != nil {
		sets = append(sets, "longitude = ?")
		args = append(args, *patch.Longitude)
	}
	if patch.Notes != nil {
		sets = append(sets, "notes = ?")
		args = append(args, *patch.Notes)
	}

	if len(sets) > 0 {
		sets = append(sets, "last_updated = ?")
		args = append(args, now(), id)
		res, err := s.db.ExecContext(ctx,
			"UPDATE lights SET "+strings.Join(sets, ", ")+" WHERE id = ?", args...)
		if err != nil {
			return nil, fmt.Errorf("update light: %w", err)
		}
		if n, err := res.RowsAffected(); err != nil {
			return nil, fmt.Errorf("update light: %w", err)
		} else if n == 0 {
			return nil, ErrNotFound
		}
	}

	return s.Light(ctx, id)
}

// DeleteLight removes a light; its captures cascade away with it.
func (s *Store) DeleteLight(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM lights WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete light: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("delete light: %w", err)
	}
	if n == 0 {
		return ErrNotFound
	}

	s.logger.Debug("Light deleted", "light_id", id)
	return nil
}

// DeleteAllLights clears the lights table (and every capture via cascade),
// reporting how many lights were removed.
func (s *Store) DeleteAllLights(ctx context.Context) (int64, error) {
	res, err := s.db.ExecContext(ctx, `DELETE FROM lights`)
	if err != nil {
		return 0, fmt.Errorf("delete lights: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("delete lights: %w", err)
	}

	s.logger.Debug("All lights deleted", "count", n)
	return n, nil
}

func scanLight(row *sql.Row) (*Light, error) {
	var l Light
	err := row.Scan(&l.ID, &l.Location, &l.Latitude, &l.Longitude, &l.Notes,
		&l.LastUpdated, &l.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("scan light: %w", err)
	}
	return &l, nil
}
