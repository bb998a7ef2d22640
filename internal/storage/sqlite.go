// Package storage provides a SQLite-based practice journal.
// Uses the pure-Go modernc.org/sqlite driver to avoid CGO dependencies.
//
// The journal records every judged answer and every drop that landed, so a
// player can review which facts they keep missing. It does not keep scores.
package storage

import (
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite" // Pure Go SQLite driver
)

// Outcome classifies an attempt.
type Outcome string

const (
	OutcomeCorrect Outcome = "correct"
	OutcomeWrong   Outcome = "wrong"
	OutcomeExpired Outcome = "expired" // The drop landed unanswered
)

// Store manages the SQLite database connection for the journal.
type Store struct {
	db *sql.DB
}

// Session is one play-through as recorded in the journal.
type Session struct {
	ID        string
	Player    string
	Preset    string
	StartedAt time.Time
	EndedAt   time.Time // zero while the session is open
	Level     int       // Highest level reached
}

// Attempt is one judged answer or landed drop.
type Attempt struct {
	ID         int64
	SessionID  string
	Expression string
	Answer     int
	Given      string // empty for expired drops
	Outcome    Outcome
	Level      int
	CreatedAt  time.Time
}

// TroubleSpot is an expression the player missed at least once.
type TroubleSpot struct {
	Expression string
	Answer     int
	Misses     int
	Attempts   int
}

// Summary aggregates the whole journal.
type Summary struct {
	Sessions int
	Correct  int
	Wrong    int
	Expired  int
}

// Accuracy returns the share of correct attempts, or 0 with no attempts.
func (s Summary) Accuracy() float64 {
	total := s.Correct + s.Wrong + s.Expired
	if total == 0 {
		return 0
	}
	return float64(s.Correct) / float64(total)
}

// Open creates or opens a SQLite database at the given path.
// It creates the parent directories if needed and runs migrations.
func Open(dbPath string) (*Store, error) {
	// Expand ~ to home directory
	if dbPath != "" && dbPath[0] == '~' {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, fmt.Errorf("storage: cannot expand home directory: %w", err)
		}
		dbPath = filepath.Join(home, dbPath[1:])
	}

	dir := filepath.Dir(dbPath)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("storage: cannot create directory %s: %w", dir, err)
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("storage: cannot open database: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("storage: cannot connect to database: %w", err)
	}

	store := &Store{db: db}

	if err := store.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("storage: migration failed: %w", err)
	}

	return store, nil
}

// migrate creates the database schema if it doesn't exist.
func (s *Store) migrate() error {
	schema := `
		CREATE TABLE IF NOT EXISTS sessions (
			id TEXT PRIMARY KEY,
			player TEXT NOT NULL DEFAULT '',
			preset TEXT NOT NULL,
			level INTEGER NOT NULL DEFAULT 1,
			started_at DATETIME DEFAULT CURRENT_TIMESTAMP,
			ended_at DATETIME
		);

		CREATE TABLE IF NOT EXISTS attempts (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			session_id TEXT NOT NULL REFERENCES sessions(id),
			expression TEXT NOT NULL,
			answer INTEGER NOT NULL,
			given TEXT NOT NULL DEFAULT '',
			outcome TEXT NOT NULL,
			level INTEGER NOT NULL DEFAULT 1,
			created_at DATETIME DEFAULT CURRENT_TIMESTAMP
		);
		CREATE INDEX IF NOT EXISTS idx_attempts_session ON attempts(session_id);
		CREATE INDEX IF NOT EXISTS idx_attempts_expression ON attempts(expression, outcome);
	`

	_, err := s.db.Exec(schema)
	return err
}

// Close closes the database connection.
func (s *Store) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

// StartSession opens a journal session and returns its generated ID.
func (s *Store) StartSession(player, preset string) (string, error) {
	id := uuid.NewString()
	_, err := s.db.Exec(
		"INSERT INTO sessions (id, player, preset) VALUES (?, ?, ?)",
		id, player, preset,
	)
	if err != nil {
		return "", fmt.Errorf("storage: cannot start session: %w", err)
	}
	return id, nil
}

// EndSession closes a session and records the level it reached.
func (s *Store) EndSession(id string, level int) error {
	res, err := s.db.Exec(
		"UPDATE sessions SET ended_at = CURRENT_TIMESTAMP, level = ? WHERE id = ?",
		level, id,
	)
	if err != nil {
		return fmt.Errorf("storage: cannot end session: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return fmt.Errorf("storage: cannot end session %s: %w", id, sql.ErrNoRows)
	}
	return nil
}

// RecordAttempt stores one attempt and returns its ID.
func (s *Store) RecordAttempt(a Attempt) (int64, error) {
	result, err := s.db.Exec(
		`INSERT INTO attempts (session_id, expression, answer, given, outcome, level)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		a.SessionID, a.Expression, a.Answer, a.Given, string(a.Outcome), a.Level,
	)
	if err != nil {
		return 0, fmt.Errorf("storage: cannot record attempt: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("storage: cannot get inserted ID: %w", err)
	}
	return id, nil
}

// SessionByID returns a session, or nil if it does not exist.
func (s *Store) SessionByID(id string) (*Session, error) {
	var sess Session
	var startedAt, endedAt any

	err := s.db.QueryRow(
		`SELECT id, player, preset, level, started_at, ended_at
		 FROM sessions WHERE id = ?`,
		id,
	).Scan(&sess.ID, &sess.Player, &sess.Preset, &sess.Level, &startedAt, &endedAt)

	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("storage: cannot query session: %w", err)
	}

	sess.StartedAt = parseTime(startedAt)
	sess.EndedAt = parseTime(endedAt)
	return &sess, nil
}

// RecentAttempts returns the latest attempts, newest first.
func (s *Store) RecentAttempts(limit int) ([]Attempt, error) {
	if limit <= 0 {
		limit = 20
	}

	rows, err := s.db.Query(
		`SELECT id, session_id, expression, answer, given, outcome, level, created_at
		 FROM attempts
		 ORDER BY id DESC
		 LIMIT ?`,
		limit,
	)
	if err != nil {
		return nil, fmt.Errorf("storage: cannot query attempts: %w", err)
	}
	defer rows.Close()

	var attempts []Attempt
	for rows.Next() {
		var a Attempt
		var outcome string
		var createdAt any
		if err := rows.Scan(&a.ID, &a.SessionID, &a.Expression, &a.Answer, &a.Given, &outcome, &a.Level, &createdAt); err != nil {
			return nil, fmt.Errorf("storage: cannot scan row: %w", err)
		}
		a.Outcome = Outcome(outcome)
		a.CreatedAt = parseTime(createdAt)
		attempts = append(attempts, a)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("storage: row iteration error: %w", err)
	}
	return attempts, nil
}

// TroubleSpots returns the most-missed expressions, worst first.
// Wrong answers and landed drops both count as misses.
func (s *Store) TroubleSpots(limit int) ([]TroubleSpot, error) {
	if limit <= 0 {
		limit = 10
	}

	rows, err := s.db.Query(
		`SELECT expression, answer,
		        SUM(CASE WHEN outcome != ? THEN 1 ELSE 0 END) AS misses,
		        COUNT(*) AS total
		 FROM attempts
		 GROUP BY expression, answer
		 HAVING misses > 0
		 ORDER BY misses DESC, total DESC, expression ASC
		 LIMIT ?`,
		string(OutcomeCorrect), limit,
	)
	if err != nil {
		return nil, fmt.Errorf("storage: cannot query trouble spots: %w", err)
	}
	defer rows.Close()

	var spots []TroubleSpot
	for rows.Next() {
		var t TroubleSpot
		if err := rows.Scan(&t.Expression, &t.Answer, &t.Misses, &t.Attempts); err != nil {
			return nil, fmt.Errorf("storage: cannot scan row: %w", err)
		}
		spots = append(spots, t)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("storage: row iteration error: %w", err)
	}
	return spots, nil
}

// Summarize aggregates session and attempt counts.
func (s *Store) Summarize() (Summary, error) {
	var sum Summary

	if err := s.db.QueryRow("SELECT COUNT(*) FROM sessions").Scan(&sum.Sessions); err != nil {
		return Summary{}, fmt.Errorf("storage: cannot count sessions: %w", err)
	}

	err := s.db.QueryRow(
		`SELECT
		   COALESCE(SUM(CASE WHEN outcome = ? THEN 1 ELSE 0 END), 0),
		   COALESCE(SUM(CASE WHEN outcome = ? THEN 1 ELSE 0 END), 0),
		   COALESCE(SUM(CASE WHEN outcome = ? THEN 1 ELSE 0 END), 0)
		 FROM attempts`,
		string(OutcomeCorrect), string(OutcomeWrong), string(OutcomeExpired),
	).Scan(&sum.Correct, &sum.Wrong, &sum.Expired)
	if err != nil {
		return Summary{}, fmt.Errorf("storage: cannot summarize attempts: %w", err)
	}

	return sum, nil
}

// ClearJournal deletes every session and attempt.
func (s *Store) ClearJournal() error {
	if _, err := s.db.Exec("DELETE FROM attempts; DELETE FROM sessions;"); err != nil {
		return fmt.Errorf("storage: cannot clear journal: %w", err)
	}
	return nil
}

// parseTime handles the datetime column as either time.Time or string.
func parseTime(v any) time.Time {
	switch t := v.(type) {
	case time.Time:
		return t
	case string:
		if parsed, err := time.Parse("2006-01-02 15:04:05", t); err == nil {
			return parsed
		}
	}
	return time.Time{}
}
