package hub

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	. "github.com/elijahnyp/room_node/util"
	"github.com/google/uuid"
	_ "github.com/mattn/go-sqlite3"
)

const schema = `
CREATE TABLE IF NOT EXISTS settings (
  id             TEXT PRIMARY KEY,
  user_temp      REAL NOT NULL,
  user_light     TEXT NOT NULL,
  light_duration TEXT NOT NULL,
  light_time_off TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS readings (
  id          TEXT PRIMARY KEY,
  temperature REAL    NOT NULL,
  presence    INTEGER NOT NULL,
  taken_at    INTEGER NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_readings_taken_at ON readings(taken_at);
`

// Reading is a stored sensor report. Datetime is set by the hub on receipt.
type Reading struct {
	Datetime    time.Time `json:"datetime"`
	ID          string    `json:"_id"`
	Temperature float64   `json:"temperature"`
	Presence    bool      `json:"presence"`
}

type Store struct {
	db *sql.DB
}

func buildDSN(path string) (string, error) {
	if path == ":memory:" {
		return path, nil
	}
	dir := filepath.Dir(path)
	if dir != "." && !strings.HasPrefix(path, "file:") {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return "", fmt.Errorf("mkdir %s: %w", dir, err)
		}
	}
	params := "_foreign_keys=on&_busy_timeout=5000&_journal_mode=WAL"
	if strings.HasPrefix(path, "file:") {
		sep := "?"
		if strings.Contains(path, "?") {
			sep = "&"
		}
		return path + sep + params, nil
	}
	return fmt.Sprintf("file:%s?%s", path, params), nil
}

// OpenStore opens (creating if needed) the sqlite database at path.
func OpenStore(path string) (*Store, error) {
	dsn, err := buildDSN(path)
	if err != nil {
		return nil, err
	}
	db, err := sql.Open("sqlite3", dsn)
	if err != nil {
		return nil, fmt.Errorf("db open: %w", err)
	}
	// one connection keeps :memory: databases shared and writes serialised
	db.SetMaxOpenConns(1)

	if err := db.Ping(); err != nil {
		_ = db.Close() //nolint:errcheck // already failing
		return nil, fmt.Errorf("db ping: %w", err)
	}
	if _, err := db.Exec(schema); err != nil {
		_ = db.Close() //nolint:errcheck // already failing
		return nil, fmt.Errorf("db schema: %w", err)
	}
	return &Store{db: db}, nil
}

func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

// PutSettings replaces the singleton row, keeping its id once assigned.
func (s *Store) PutSettings(ctx context.Context, in Settings) (Settings, error) {
	existing, err := s.GetSettings(ctx)
	switch {
	case errors.Is(err, ErrNotFound):
		in.ID = uuid.NewString()
		_, err = s.db.ExecContext(ctx,
			`INSERT INTO settings (id, user_temp, user_light, light_duration, light_time_off) VALUES (?, ?, ?, ?, ?)`,
			in.ID, in.UserTemp, in.UserLight, in.LightDuration, in.LightTimeOff)
	case err == nil:
		in.ID = existing.ID
		_, err = s.db.ExecContext(ctx,
			`UPDATE settings SET user_temp = ?, user_light = ?, light_duration = ?, light_time_off = ? WHERE id = ?`,
			in.UserTemp, in.UserLight, in.LightDuration, in.LightTimeOff, in.ID)
	}
	if err != nil {
		return Settings{}, fmt.Errorf("store settings: %w", err)
	}
	return in, nil
}

func (s *Store) GetSettings(ctx context.Context) (Settings, error) {
	var out Settings
	err := s.db.QueryRowContext(ctx,
		`SELECT id, user_temp, user_light, light_duration, light_time_off FROM settings LIMIT 1`).
		Scan(&out.ID, &out.UserTemp, &out.UserLight, &out.LightDuration, &out.LightTimeOff)
	if errors.Is(err, sql.ErrNoRows) {
		return Settings{}, ErrNotFound
	}
	if err != nil {
		return Settings{}, fmt.Errorf("load settings: %w", err)
	}
	return out, nil
}

// ListSettings returns every settings row; in practice zero or one.
func (s *Store) ListSettings(ctx context.Context) ([]Settings, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, user_temp, user_light, light_duration, light_time_off FROM settings`)
	if err != nil {
		return nil, fmt.Errorf("list settings: %w", err)
	}
	defer func() {
		if err := rows.Close(); err != nil {
			Logger.Error().Err(err).Msg("close settings rows")
		}
	}()

	out := []Settings{}
	for rows.Next() {
		var st Settings
		if err := rows.Scan(&st.ID, &st.UserTemp, &st.UserLight, &st.LightDuration, &st.LightTimeOff); err != nil {
			return nil, err
		}
		out = append(out, st)
	}
	return out, rows.Err()
}

func (s *Store) AddReading(ctx context.Context, r Reading) (Reading, error) {
	r.ID = uuid.NewString()
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO readings (id, temperature, presence, taken_at) VALUES (?, ?, ?, ?)`,
		r.ID, r.Temperature, r.Presence, r.Datetime.UnixNano())
	if err != nil {
		return Reading{}, fmt.Errorf("store reading: %w", err)
	}
	return r, nil
}

// LatestReading returns the newest reading, times in loc.
func (s *Store) LatestReading(ctx context.Context, loc *time.Location) (Reading, error) {
	readings, err := s.Readings(ctx, 1, loc)
	if err != nil {
		return Reading{}, err
	}
	if len(readings) == 0 {
		return Reading{}, ErrNotFound
	}
	return readings[0], nil
}

// Readings returns up to limit readings, newest first, times in loc.
func (s *Store) Readings(ctx context.Context, limit int, loc *time.Location) ([]Reading, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, temperature, presence, taken_at FROM readings ORDER BY taken_at DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("list readings: %w", err)
	}
	defer func() {
		if err := rows.Close(); err != nil {
			Logger.Error().Err(err).Msg("close readings rows")
		}
	}()

	out := []Reading{}
	for rows.Next() {
		var r Reading
		var nanos int64
		if err := rows.Scan(&r.ID, &r.Temperature, &r.Presence, &nanos); err != nil {
			return nil, err
		}
		r.Datetime = time.Unix(0, nanos).In(loc)
		out = append(out, r)
	}
	return out, rows.Err()
}
