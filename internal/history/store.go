// Package history persists turn outcomes to SQLite. Writes are best-effort
// and happen off the turn path; losing a row never affects a conversation.
package history

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "github.com/mattn/go-sqlite3"
)

const schema = `
CREATE TABLE IF NOT EXISTS turns (
	id         INTEGER PRIMARY KEY AUTOINCREMENT,
	turn_id    TEXT NOT NULL UNIQUE,
	owner      TEXT NOT NULL,
	message    TEXT NOT NULL,
	reply      TEXT NOT NULL,
	intent     TEXT NOT NULL DEFAULT '',
	sentiment  TEXT NOT NULL DEFAULT '',
	language   TEXT NOT NULL DEFAULT 'en',
	tool_count INTEGER NOT NULL DEFAULT 0,
	failed     INTEGER NOT NULL DEFAULT 0,
	created_at TIMESTAMP NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_turns_owner ON turns(owner, created_at DESC);
CREATE INDEX IF NOT EXISTS idx_turns_created ON turns(created_at);
`

// Turn is one logged turn outcome.
type Turn struct {
	TurnID    string    `json:"turn_id"`
	Owner     string    `json:"owner"`
	Message   string    `json:"message"`
	Reply     string    `json:"reply"`
	Intent    string    `json:"intent,omitempty"`
	Sentiment string    `json:"sentiment,omitempty"`
	Language  string    `json:"language"`
	ToolCount int       `json:"tool_count"`
	Failed    bool      `json:"failed,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

// Store is the SQLite-backed turn log.
type Store struct {
	db *sql.DB
}

// NewStore opens (and creates if needed) the turn log at path.
func NewStore(path string) (*Store, error) {
	db, err := sql.Open("sqlite3", path+"?_journal_mode=WAL&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("opening history db: %w", err)
	}
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("initializing history schema: %w", err)
	}
	return &Store{db: db}, nil
}

// Close releases the database handle.
func (s *Store) Close() error {
	return s.db.Close()
}

// RecordTurn inserts one turn.
func (s *Store) RecordTurn(ctx context.Context, turn Turn) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO turns (turn_id, owner, message, reply, intent, sentiment, language, tool_count, failed, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		turn.TurnID, turn.Owner, turn.Message, turn.Reply, turn.Intent, turn.Sentiment,
		turn.Language, turn.ToolCount, turn.Failed, turn.CreatedAt.UTC(),
	)
	if err != nil {
		return fmt.Errorf("inserting turn %s: %w", turn.TurnID, err)
	}
	return nil
}

// Recent returns the owner's latest turns, newest first.
func (s *Store) Recent(ctx context.Context, owner string, limit int) ([]Turn, error) {
	if limit <= 0 {
		limit = 20
	}
	rows, err := s.db.QueryContext(ctx,
		`SELECT turn_id, owner, message, reply, intent, sentiment, language, tool_count, failed, created_at
		 FROM turns WHERE owner = ? ORDER BY created_at DESC, id DESC LIMIT ?`, owner, limit)
	if err != nil {
		return nil, fmt.Errorf("querying turns for %s: %w", owner, err)
	}
	defer rows.Close()

	var turns []Turn
	for rows.Next() {
		var t Turn
		if err := rows.Scan(&t.TurnID, &t.Owner, &t.Message, &t.Reply, &t.Intent, &t.Sentiment,
			&t.Language, &t.ToolCount, &t.Failed, &t.CreatedAt); err != nil {
			return nil, fmt.Errorf("scanning turn row: %w", err)
		}
		turns = append(turns, t)
	}
	return turns, rows.Err()
}

// Prune deletes turns older than the cutoff and reports how many.
func (s *Store) Prune(ctx context.Context, olderThan time.Time) (int64, error) {
	res, err := s.db.ExecContext(ctx, `DELETE FROM turns WHERE created_at < ?`, olderThan.UTC())
	if err != nil {
		return 0, fmt.Errorf("pruning turns: %w", err)
	}
	return res.RowsAffected()
}
