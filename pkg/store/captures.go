package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// CreateCapture records one observed green phase for a light. The duration
// is derived here, at the ingestion boundary, and non-positive intervals are
// refused with ErrInvalidInterval. Timestamps are normalized to UTC before
// storage. Returns ErrNotFound when the light does not exist.
func (s *Store) CreateCapture(ctx context.Context, lightID string, greenStart, greenEnd time.Time) (*Capture, error) {
	durationMS := greenEnd.Sub(greenStart).Milliseconds()
	if durationMS <= 0 {
		return nil, ErrInvalidInterval
	}

	var exists bool
	err := s.db.QueryRowContext(ctx,
		`SELECT EXISTS(SELECT 1 FROM lights WHERE id = ?)`, lightID).Scan(&exists)
	if err != nil {
		return nil, fmt.Errorf("check light: %w", err)
	}
	if !exists {
		return nil, ErrNotFound
	}

	capture := Capture{
		ID:         uuid.NewString(),
		LightID:    lightID,
		GreenStart: greenStart.UTC().Format(timeLayout),
		GreenEnd:   greenEnd.UTC().Format(timeLayout),
		DurationMS: durationMS,
		CreatedAt:  now(),
	}
	_, err = s.db.ExecContext(ctx,
		`INSERT INTO captures (id, light_id, green_start, green_end, duration_ms, created_at)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		capture.ID, capture.LightID, capture.GreenStart, capture.GreenEnd,
		capture.DurationMS, capture.CreatedAt)
	if err != nil {
		return nil, fmt.Errorf("insert capture: %w", err)
	}

	s.logger.Debug("Capture recorded",
		"capture_id", capture.ID,
		"light_id", lightID,
		"duration_ms", durationMS)
	return &capture, nil
}

// Captures lists a light's captures newest first (presentation order). An
// unknown light yields an empty list, not an error.
func (s *Store) Captures(ctx context.Context, lightID string) ([]Capture, error) {
	return s.queryCaptures(ctx,
		`SELECT id, light_id, green_start, green_end, duration_ms, created_at
		 FROM captures WHERE light_id = ? ORDER BY created_at DESC, rowid DESC`, lightID)
}

// CapturesChrono lists a light's captures oldest green_start first, the
// order the analysis engine consumes, bounded to limit rows.
func (s *Store) CapturesChrono(ctx context.Context, lightID string, limit int) ([]Capture, error) {
	return s.queryCaptures(ctx,
		`SELECT id, light_id, green_start, green_end, duration_ms, created_at
		 FROM captures WHERE light_id = ? ORDER BY green_start ASC, rowid ASC LIMIT ?`, lightID, limit)
}

// DeleteCapture removes one capture and reports which light owned it, so
// callers can invalidate that light's cached analysis.
func (s *Store) DeleteCapture(ctx context.Context, id string) (string, error) {
	var lightID string
	err := s.db.QueryRowContext(ctx,
		`DELETE FROM captures WHERE id = ? RETURNING light_id`, id).Scan(&lightID)
	if errors.Is(err, sql.ErrNoRows) {
		return "", ErrNotFound
	}
	if err != nil {
		return "", fmt.Errorf("delete capture: %w", err)
	}

	s.logger.Debug("Capture deleted", "capture_id", id, "light_id", lightID)
	return lightID, nil
}

func (s *Store) queryCaptures(ctx context.Context, query string, args ...any) ([]Capture, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query captures: %w", err)
	}
	defer rows.Close()

	captures := []Capture{}
	for rows.Next() {
		var c Capture
		if err := rows.Scan(&c.ID, &c.LightID, &c.GreenStart, &c.GreenEnd,
			&c.DurationMS, &c.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan capture: %w", err)
		}
		captures = append(captures, c)
	}
	return captures, rows.Err()
}
