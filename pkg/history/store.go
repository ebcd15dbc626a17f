// Package history journals training runs to SQLite so reward curves can be
// charted after the process that produced them is gone. Sessions are never
// restored from the journal.
package history

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	_ "modernc.org/sqlite"

	"github.com/boristopalov/rlplayground/pkg/core"
)

// SessionRecord is the journal entry for a session
type SessionRecord struct {
	ID          string          `json:"id"`
	Algorithm   string          `json:"algorithm"`
	Environment string          `json:"environment"`
	Parameters  core.Parameters `json:"parameters"`
	Seed        *int64          `json:"seed,omitempty"`
	CreatedAt   time.Time       `json:"created_at"`
}

// EpisodeRecord is one completed training episode
type EpisodeRecord struct {
	SessionID string    `json:"session_id"`
	Episode   int       `json:"episode"`
	Reward    float64   `json:"reward"`
	Steps     int       `json:"steps"`
	At        time.Time `json:"at"`
}

// Store is a SQLite backed training journal
type Store struct {
	db *sql.DB
}

// Open opens or creates a journal at path
func Open(path string) (*Store, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open journal: %w", err)
	}
	// a single connection keeps writes serialized
	db.SetMaxOpenConns(1)
	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("open journal: %w", err)
	}
	return &Store{db: db}, nil
}

// Init creates the schema tables
func (s *Store) Init() error {
	schema := `
	CREATE TABLE IF NOT EXISTS sessions (
		id          TEXT PRIMARY KEY,
		algorithm   TEXT NOT NULL,
		environment TEXT NOT NULL,
		parameters  TEXT NOT NULL DEFAULT '{}',
		seed        INTEGER,
		created_at  DATETIME NOT NULL
	);

	CREATE TABLE IF NOT EXISTS episodes (
		session_id TEXT NOT NULL,
		episode    INTEGER NOT NULL,
		reward     REAL NOT NULL,
		steps      INTEGER NOT NULL,
		at         DATETIME NOT NULL,
		PRIMARY KEY (session_id, episode)
	);
	`
	if _, err := s.db.Exec(schema); err != nil {
		return fmt.Errorf("init journal: %w", err)
	}
	return nil
}

func (s *Store) RecordSession(ctx context.Context, rec SessionRecord) error {
	params, err := json.Marshal(rec.Parameters)
	if err != nil {
		return fmt.Errorf("record session %s: %w", rec.ID, err)
	}
	var seed sql.NullInt64
	if rec.Seed != nil {
		seed = sql.NullInt64{Int64: *rec.Seed, Valid: true}
	}
	_, err = s.db.ExecContext(ctx,
		`INSERT INTO sessions (id, algorithm, environment, parameters, seed, created_at) VALUES (?, ?, ?, ?, ?, ?)`,
		rec.ID, rec.Algorithm, rec.Environment, string(params), seed, rec.CreatedAt.UTC())
	if err != nil {
		return fmt.Errorf("record session %s: %w", rec.ID, err)
	}
	return nil
}

func (s *Store) RecordEpisode(ctx context.Context, rec EpisodeRecord) error {
	if rec.At.IsZero() {
		rec.At = time.Now()
	}
	_, err := s.db.ExecContext(ctx,
		`INSERT OR REPLACE INTO episodes (session_id, episode, reward, steps, at) VALUES (?, ?, ?, ?, ?)`,
		rec.SessionID, rec.Episode, rec.Reward, rec.Steps, rec.At.UTC())
	if err != nil {
		return fmt.Errorf("record episode %d of %s: %w", rec.Episode, rec.SessionID, err)
	}
	return nil
}

// Sessions returns every journaled session, oldest first
func (s *Store) Sessions(ctx context.Context) ([]SessionRecord, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, algorithm, environment, parameters, seed, created_at FROM sessions ORDER BY created_at, id`)
	if err != nil {
		return nil, fmt.Errorf("list sessions: %w", err)
	}
	defer rows.Close()

	var out []SessionRecord
	for rows.Next() {
		var (
			rec    SessionRecord
			params string
			seed   sql.NullInt64
		)
		if err := rows.Scan(&rec.ID, &rec.Algorithm, &rec.Environment, &params, &seed, &rec.CreatedAt); err != nil {
			return nil, fmt.Errorf("list sessions: %w", err)
		}
		if err := json.Unmarshal([]byte(params), &rec.Parameters); err != nil {
			return nil, fmt.Errorf("decode parameters of %s: %w", rec.ID, err)
		}
		if seed.Valid {
			v := seed.Int64
			rec.Seed = &v
		}
		out = append(out, rec)
	}
	return out, rows.Err()
}

// Episodes returns a session's episodes in order
func (s *Store) Episodes(ctx context.Context, sessionID string) ([]EpisodeRecord, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT session_id, episode, reward, steps, at FROM episodes WHERE session_id = ? ORDER BY episode`, sessionID)
	if err != nil {
		return nil, fmt.Errorf("list episodes of %s: %w", sessionID, err)
	}
	defer rows.Close()

	var out []EpisodeRecord
	for rows.Next() {
		var rec EpisodeRecord
		if err := rows.Scan(&rec.SessionID, &rec.Episode, &rec.Reward, &rec.Steps, &rec.At); err != nil {
			return nil, fmt.Errorf("list episodes of %s: %w", sessionID, err)
		}
		out = append(out, rec)
	}
	return out, rows.Err()
}

// Rewards returns just the reward column of a session's episodes
func (s *Store) Rewards(ctx context.Context, sessionID string) ([]float64, error) {
	episodes, err := s.Episodes(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	rewards := make([]float64, len(episodes))
	for i, e := range episodes {
		rewards[i] = e.Reward
	}
	return rewards, nil
}

func (s *Store) Close() error {
	return s.db.Close()
}
