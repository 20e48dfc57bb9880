// Package store persists finished battles as replays in SQLite.
package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	msqlite "modernc.org/sqlite"
	sqlite3lib "modernc.org/sqlite/lib"

	"showdown-battle/game"
	"showdown-battle/store/migrations"
)

var storeLogger = func() *zerolog.Logger {
	logger := log.With().Str("location", "store").Logger()
	return &logger
}

var (
	ErrNotFound      = errors.New("replay not found")
	ErrAlreadyExists = errors.New("replay already exists")
)

// Summary is a replay without its battle state.
type Summary struct {
	ID        string     `json:"id"`
	Teams     [2]string  `json:"teams"`
	Winner    *game.Side `json:"winner,omitempty"`
	Draw      bool       `json:"draw,omitempty"`
	Turns     int        `json:"turns"`
	CreatedAt time.Time  `json:"createdAt"`
}

type Replay struct {
	Summary
	State game.BattleState `json:"state"`
}

// NewReplay summarises a finished state under id.
func NewReplay(id string, state game.BattleState, now time.Time) Replay {
	return Replay{
		Summary: Summary{
			ID:        id,
			Teams:     [2]string{state.Teams[game.SideOne].Name, state.Teams[game.SideTwo].Name},
			Winner:    state.Winner,
			Draw:      state.Draw,
			Turns:     state.Turn,
			CreatedAt: now.UTC(),
		},
		State: state,
	}
}

// Store is safe for concurrent use.
type Store struct {
	db *sql.DB
}

func toMillis(t time.Time) int64 {
	return t.UTC().UnixMilli()
}

func fromMillis(v int64) time.Time {
	return time.UnixMilli(v).UTC()
}

// Open opens the database at path and applies the embedded migrations.
func Open(ctx context.Context, path string) (*Store, error) {
	if strings.TrimSpace(path) == "" {
		return nil, fmt.Errorf("storage path is required")
	}
	dsn := filepath.Clean(path) + "?_journal_mode=WAL&_foreign_keys=ON&_busy_timeout=5000&_synchronous=NORMAL"
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping sqlite db: %w", err)
	}
	if err := applyMigrations(ctx, db, migrations.FS); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}
	storeLogger().Info().Str("path", path).Msg("replay store opened")
	return &Store{db: db}, nil
}

func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

func (s *Store) SaveReplay(ctx context.Context, r Replay) error {
	if strings.TrimSpace(r.ID) == "" {
		return fmt.Errorf("replay id is required")
	}
	state, err := json.Marshal(r.State)
	if err != nil {
		return fmt.Errorf("encode replay state: %w", err)
	}
	var winner sql.NullInt64
	if r.Winner != nil {
		winner = sql.NullInt64{Int64: int64(*r.Winner), Valid: true}
	}
	createdAt := r.CreatedAt
	if createdAt.IsZero() {
		createdAt = time.Now()
	}

	_, err = s.db.ExecContext(ctx,
		`INSERT INTO replays (id, team_one, team_two, winner, draw, turns, state, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		r.ID, r.Teams[0], r.Teams[1], winner, r.Draw, r.Turns, string(state), toMillis(createdAt),
	)
	if err != nil {
		if isUniqueViolation(err) {
			return ErrAlreadyExists
		}
		return fmt.Errorf("save replay: %w", err)
	}
	storeLogger().Debug().Str("replay", r.ID).Int("turns", r.Turns).Msg("replay saved")
	return nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanSummary(row scanner, extra ...any) (Summary, error) {
	var (
		sum       Summary
		winner    sql.NullInt64
		createdAt int64
	)
	dest := append([]any{&sum.ID, &sum.Teams[0], &sum.Teams[1], &winner, &sum.Draw, &sum.Turns, &createdAt}, extra...)
	if err := row.Scan(dest...); err != nil {
		return Summary{}, err
	}
	if winner.Valid {
		w := game.Side(winner.Int64)
		sum.Winner = &w
	}
	sum.CreatedAt = fromMillis(createdAt)
	return sum, nil
}

func (s *Store) GetReplay(ctx context.Context, id string) (Replay, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT id, team_one, team_two, winner, draw, turns, created_at, state
		   FROM replays
		  WHERE id = ?`, id)
	var state string
	sum, err := scanSummary(row, &state)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Replay{}, ErrNotFound
		}
		return Replay{}, fmt.Errorf("get replay: %w", err)
	}
	r := Replay{Summary: sum}
	if err := json.Unmarshal([]byte(state), &r.State); err != nil {
		return Replay{}, fmt.Errorf("decode replay %s: %w", id, err)
	}
	return r, nil
}

// ListReplays returns up to limit summaries, newest first.
func (s *Store) ListReplays(ctx context.Context, limit int) ([]Summary, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, team_one, team_two, winner, draw, turns, created_at
		   FROM replays
		  ORDER BY created_at DESC, id
		  LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("list replays: %w", err)
	}
	defer rows.Close()

	var out []Summary
	for rows.Next() {
		sum, err := scanSummary(rows)
		if err != nil {
			return nil, fmt.Errorf("scan replay: %w", err)
		}
		out = append(out, sum)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list replays: %w", err)
	}
	return out, nil
}

func (s *Store) DeleteReplay(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM replays WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete replay: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return ErrNotFound
	}
	return nil
}

func isUniqueViolation(err error) bool {
	var sqliteErr *msqlite.Error
	if errors.As(err, &sqliteErr) {
		switch sqliteErr.Code() {
		case sqlite3lib.SQLITE_CONSTRAINT_PRIMARYKEY, sqlite3lib.SQLITE_CONSTRAINT_UNIQUE:
			return true
		}
	}
	return strings.Contains(strings.ToLower(err.Error()), "unique constraint failed")
}
