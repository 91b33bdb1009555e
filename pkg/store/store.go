// Package store persists traffic lights and their green-phase captures in an
// embedded SQLite database. It is plain CRUD: every analysis happens upstream
// in pkg/pattern, the store only hands back rows in the order the engine or
// the API wants them.
package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"time"

	_ "modernc.org/sqlite"
)

// timeLayout is how instants are stored in TEXT columns: UTC, fixed width,
// so lexicographic ordering matches time ordering.
const timeLayout = "2006-01-02T15:04:05.000000000Z07:00"

// ErrNotFound reports that the requested light or capture does not exist.
var ErrNotFound = errors.New("store: not found")

// ErrInvalidInterval reports a capture whose green_end is not after its
// green_start. Such rows would poison the gap analysis, so they are refused
// at ingestion.
var ErrInvalidInterval = errors.New("store: green_end must be after green_start")

// Light is one monitored traffic light. Latitude, longitude and notes are
// optional and render as JSON null when unset.
type Light struct {
	ID          string   `json:"id"`
	Location    string   `json:"location"`
	Latitude    *float64 `json:"latitude"`
	Longitude   *float64 `json:"longitude"`
	Notes       *string  `json:"notes"`
	LastUpdated string   `json:"last_updated"`
	CreatedAt   string   `json:"created_at"`
}

// LightParams carries the caller-supplied fields for creating a light.
type LightParams struct {
	Location  string   `json:"location"`
	Latitude  *float64 `json:"latitude"`
	Longitude *float64 `json:"longitude"`
	Notes     *string  `json:"notes"`
}

// LightPatch carries a partial update; nil fields are left untouched.
type LightPatch struct {
	Location  *string  `json:"location"`
	Latitude  *float64 `json:"latitude"`
	Longitude *float64 `json:"longitude"`
	Notes     *string  `json:"notes"`
}

// Capture is one observed green phase. Timestamps are stored and returned
// normalized to UTC.
type Capture struct {
	ID         string `json:"id"`
	LightID    string `json:"light_id"`
	GreenStart string `json:"green_start"`
	GreenEnd   string `json:"green_end"`
	DurationMS int64  `json:"duration_ms"`
	CreatedAt  string `json:"created_at"`
}

// Store wraps the SQLite handle.
type Store struct {
	db     *sql.DB
	logger *slog.Logger
}

const schema = `
CREATE TABLE IF NOT EXISTS lights (
	id           TEXT PRIMARY KEY,
	location     TEXT NOT NULL,
	latitude     REAL,
	longitude    REAL,
	notes        TEXT,
	last_updated TEXT NOT NULL,
	created_at   TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS captures (
	id          TEXT PRIMARY KEY,
	light_id    TEXT NOT NULL REFERENCES lights(id) ON DELETE CASCADE,
	green_start TEXT NOT NULL,
	green_end   TEXT NOT NULL,
	duration_ms INTEGER NOT NULL,
	created_at  TEXT NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_captures_light_start ON captures(light_id, green_start);
`

// Open opens (creating if needed) the SQLite database at path and ensures
// the schema exists. Foreign keys are enabled so deleting a light cascades
// to its captures.
func Open(ctx context.Context, path string, logger *slog.Logger) (*Store, error) {
	dsn := fmt.Sprintf("file:%s?_pragma=foreign_keys(1)&_pragma=busy_timeout(5000)", path)
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}
	if _, err := db.ExecContext(ctx, schema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("initialize schema: %w", err)
	}

	logger.Debug("Store opened", "path", path)
	return &Store{db: db, logger: logger}, nil
}

// Close releases the database handle.
func (s *Store) Close() error {
	return s.db.Close()
}

// now returns the current instant in storage form.
func now() string {
	return time.Now().UTC().Format(timeLayout)
}
