// Package scores keeps the run history in a local SQLite database:
// one row per finished (or abandoned) session.
package scores

import (
	"database/sql"
	"fmt"
	"time"

	_ "modernc.org/sqlite"
)

// Store handles the run-history database.
type Store struct {
	db *sql.DB
}

// Run is one recorded session.
type Run struct {
	ID        int64     `json:"id"`
	SessionID string    `json:"session_id"`
	ContentID string    `json:"content_id"`
	Seed      int64     `json:"seed"`
	PlayedAt  time.Time `json:"played_at"`

	Floor     int  `json:"floor"`
	Score     int  `json:"score"`
	Correct   int  `json:"correct"`
	Answered  int  `json:"answered"`
	Defeated  int  `json:"defeated"`
	Knowledge int  `json:"knowledge"`
	Coherence int  `json:"coherence"`
	Won       bool `json:"won"`
	Lost      bool `json:"lost"`
}

// Open opens (or creates) the store at path.
func Open(path string) (*Store, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open scores database: %w", err)
	}

	store := &Store{db: db}
	if err := store.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate scores database: %w", err)
	}
	return store, nil
}

// migrate creates the schema if it doesn't exist.
func (s *Store) migrate() error {
	schema := `
	CREATE TABLE IF NOT EXISTS runs (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		session_id TEXT NOT NULL,
		content_id TEXT NOT NULL,
		seed INTEGER NOT NULL,
		played_at DATETIME NOT NULL,
		floor INTEGER NOT NULL,
		score INTEGER NOT NULL,
		correct INTEGER NOT NULL DEFAULT 0,
		answered INTEGER NOT NULL DEFAULT 0,
		defeated INTEGER NOT NULL DEFAULT 0,
		knowledge INTEGER NOT NULL DEFAULT 0,
		coherence INTEGER NOT NULL DEFAULT 0,
		won INTEGER NOT NULL DEFAULT 0,
		lost INTEGER NOT NULL DEFAULT 0
	);

	CREATE INDEX IF NOT EXISTS idx_runs_score ON runs(content_id, score DESC);
	CREATE INDEX IF NOT EXISTS idx_runs_session ON runs(session_id);
	`
	_, err := s.db.Exec(schema)
	return err
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// Record inserts one finished run.
func (s *Store) Record(r *Run) error {
	if r.PlayedAt.IsZero() {
		r.PlayedAt = time.Now().UTC()
	}
	res, err := s.db.Exec(
		`INSERT INTO runs (session_id, content_id, seed, played_at, floor, score,
		 correct, answered, defeated, knowledge, coherence, won, lost)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		r.SessionID, r.ContentID, r.Seed, r.PlayedAt, r.Floor, r.Score,
		r.Correct, r.Answered, r.Defeated, r.Knowledge, r.Coherence, r.Won, r.Lost,
	)
	if err != nil {
		return fmt.Errorf("record run: %w", err)
	}
	r.ID, _ = res.LastInsertId()
	return nil
}

// Top returns the best runs for a content set, highest score first.
func (s *Store) Top(contentID string, limit int) ([]*Run, error) {
	rows, err := s.db.Query(
		`SELECT id, session_id, content_id, seed, played_at, floor, score,
		 correct, answered, defeated, knowledge, coherence, won, lost
		 FROM runs WHERE content_id = ?
		 ORDER BY score DESC, played_at ASC LIMIT ?`, contentID, limit,
	)
	if err != nil {
		return nil, fmt.Errorf("query top runs: %w", err)
	}
	defer rows.Close()
	return scanRuns(rows)
}

// Recent returns the most recent runs across all content sets.
func (s *Store) Recent(limit int) ([]*Run, error) {
	rows, err := s.db.Query(
		`SELECT id, session_id, content_id, seed, played_at, floor, score,
		 correct, answered, defeated, knowledge, coherence, won, lost
		 FROM runs ORDER BY played_at DESC LIMIT ?`, limit,
	)
	if err != nil {
		return nil, fmt.Errorf("query recent runs: %w", err)
	}
	defer rows.Close()
	return scanRuns(rows)
}

func scanRuns(rows *sql.Rows) ([]*Run, error) {
	var runs []*Run
	for rows.Next() {
		var r Run
		err := rows.Scan(&r.ID, &r.SessionID, &r.ContentID, &r.Seed, &r.PlayedAt,
			&r.Floor, &r.Score, &r.Correct, &r.Answered, &r.Defeated,
			&r.Knowledge, &r.Coherence, &r.Won, &r.Lost)
		if err != nil {
			return nil, fmt.Errorf("scan run: %w", err)
		}
		runs = append(runs, &r)
	}
	return runs, rows.Err()
}
