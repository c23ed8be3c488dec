// Package store handles SQLite persistence.
package store

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/Masterminds/squirrel"

	"github.com/verte-zerg/parlo/internal/model"

	_ "modernc.org/sqlite" // SQLite driver.
)

// Store wraps SQLite access for practice sessions.
type Store struct {
	db *sql.DB
}

// Open opens or creates the SQLite database and applies migrations.
func Open(path string) (*Store, error) {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, err
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}
	store := &Store{db: db}
	if err := store.migrate(); err != nil {
		if cerr := db.Close(); cerr != nil {
			// Best-effort close on migration failure.
			_ = cerr
		}
		return nil, err
	}
	return store, nil
}

// Close closes the underlying database.
func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) migrate() error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS sessions (
			id INTEGER PRIMARY KEY,
			started_at TEXT NOT NULL,
			ended_at TEXT NOT NULL,
			deck TEXT NOT NULL,
			kind TEXT NOT NULL,
			threshold REAL NOT NULL,
			correct INTEGER NOT NULL,
			incorrect INTEGER NOT NULL,
			timed_out INTEGER NOT NULL,
			duration_ms INTEGER NOT NULL
		);`,
		`CREATE TABLE IF NOT EXISTS session_answers (
			session_id INTEGER NOT NULL,
			position INTEGER NOT NULL,
			question_id TEXT NOT NULL,
			prompt TEXT NOT NULL,
			answer TEXT NOT NULL,
			correct INTEGER NOT NULL,
			timed_out INTEGER NOT NULL,
			similarity REAL NOT NULL,
			attempts INTEGER NOT NULL,
			elapsed_ms INTEGER NOT NULL,
			PRIMARY KEY (session_id, position)
		);`,
		`CREATE INDEX IF NOT EXISTS idx_sessions_ended_at ON sessions(ended_at);`,
		`CREATE INDEX IF NOT EXISTS idx_session_answers_question ON session_answers(question_id);`,
	}
	for _, stmt := range stmts {
		if _, err := s.db.Exec(stmt); err != nil {
			return err
		}
	}
	return nil
}

// InsertSession stores a completed session and its answers.
func (s *Store) InsertSession(ctx context.Context, res model.SessionResult) (id int64, err error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, err
	}
	defer func() {
		if err != nil {
			if rerr := tx.Rollback(); rerr != nil {
				// Best-effort rollback.
				_ = rerr
			}
		}
	}()

	out, err := tx.ExecContext(ctx,
		`INSERT INTO sessions (started_at, ended_at, deck, kind, threshold, correct, incorrect, timed_out, duration_ms)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		res.StartedAt.Format(time.RFC3339Nano),
		res.EndedAt.Format(time.RFC3339Nano),
		res.Deck,
		res.Kind,
		res.Threshold,
		res.Correct,
		res.Incorrect,
		res.TimedOut,
		res.DurationMs,
	)
	if err != nil {
		return 0, err
	}
	id, err = out.LastInsertId()
	if err != nil {
		return 0, err
	}

	if len(res.Answers) > 0 {
		var stmt *sql.Stmt
		stmt, err = tx.PrepareContext(ctx,
			`INSERT INTO session_answers (session_id, position, question_id, prompt, answer, correct, timed_out, similarity, attempts, elapsed_ms)
			 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`)
		if err != nil {
			return 0, err
		}
		defer func() {
			if cerr := stmt.Close(); cerr != nil {
				// Best-effort statement close.
				_ = cerr
			}
		}()
		for i, a := range res.Answers {
			if _, err = stmt.ExecContext(ctx, id, i, a.QuestionID, a.Prompt, a.Answer,
				boolInt(a.Correct), boolInt(a.TimedOut), a.Similarity, a.Attempts, a.ElapsedMs); err != nil {
				return 0, err
			}
		}
	}

	if err = tx.Commit(); err != nil {
		return 0, err
	}
	return id, nil
}

// GetWeakItems aggregates answers over the most recent sessions of a deck.
func (s *Store) GetWeakItems(ctx context.Context, window int, deckName string) ([]model.ItemAggregate, error) {
	if window <= 0 {
		return nil, nil
	}
	query := `WITH recent_sessions AS (
		SELECT id FROM sessions
		WHERE (? = '' OR deck = ?)
		ORDER BY ended_at DESC
		LIMIT ?
	)
	SELECT a.question_id, MAX(a.prompt), SUM(a.correct), SUM(1 - a.correct), SUM(a.timed_out), SUM(a.elapsed_ms)
	FROM session_answers a
	JOIN recent_sessions r ON r.id = a.session_id
	GROUP BY a.question_id`

	rows, err := s.db.QueryContext(ctx, query, deckName, deckName, window)
	if err != nil {
		return nil, err
	}
	return scanItems(rows)
}

// ListSessions returns session aggregates filtered by stats config.
func (s *Store) ListSessions(ctx context.Context, cfg model.StatsConfig) ([]model.SessionAggregate, error) {
	q := squirrel.Select("id", "deck", "ended_at", "correct", "incorrect", "timed_out", "duration_ms").
		From("sessions").
		OrderBy("ended_at ASC")
	if cfg.Deck != "" {
		q = q.Where(squirrel.Eq{"deck": cfg.Deck})
	}
	if cfg.Since != nil {
		q = q.Where(squirrel.GtOrEq{"ended_at": cfg.Since.Format(time.RFC3339Nano)})
	}
	query, args, err := q.ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build query: %w", err)
	}
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer func() {
		if cerr := rows.Close(); cerr != nil {
			// Best-effort rows close.
			_ = cerr
		}
	}()

	var sessions []model.SessionAggregate
	for rows.Next() {
		var agg model.SessionAggregate
		var endedAt string
		if err := rows.Scan(&agg.SessionID, &agg.Deck, &endedAt, &agg.Correct, &agg.Incorrect, &agg.TimedOut, &agg.DurationMs); err != nil {
			return nil, err
		}
		parsed, err := time.Parse(time.RFC3339Nano, endedAt)
		if err != nil {
			return nil, err
		}
		agg.EndedAt = parsed
		sessions = append(sessions, agg)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return sessions, nil
}

// ListItemAggregates aggregates per-question answers across sessions.
func (s *Store) ListItemAggregates(ctx context.Context, sessionIDs []int64) ([]model.ItemAggregate, error) {
	if len(sessionIDs) == 0 {
		return nil, nil
	}
	query, args, err := squirrel.Select(
		"question_id", "MAX(prompt)", "SUM(correct)", "SUM(1 - correct)", "SUM(timed_out)", "SUM(elapsed_ms)").
		From("session_answers").
		Where(squirrel.Eq{"session_id": sessionIDs}).
		GroupBy("question_id").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build query: %w", err)
	}
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	return scanItems(rows)
}

func scanItems(rows *sql.Rows) ([]model.ItemAggregate, error) {
	defer func() {
		if cerr := rows.Close(); cerr != nil {
			// Best-effort rows close.
			_ = cerr
		}
	}()
	var result []model.ItemAggregate
	for rows.Next() {
		var agg model.ItemAggregate
		if err := rows.Scan(&agg.QuestionID, &agg.Prompt, &agg.Correct, &agg.Incorrect, &agg.TimedOut, &agg.ElapsedSum); err != nil {
			return nil, err
		}
		result = append(result, agg)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return result, nil
}

func boolInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
