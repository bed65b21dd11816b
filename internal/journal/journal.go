// Package journal is the ingestion server's persistence layer: every
// accepted tracking event lands in a SQLite database, queryable per user
// for history and usage totals.
package journal

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	_ "modernc.org/sqlite"

	"github.com/mathlens/snaptrack/internal/event"
)

const schema = `
CREATE TABLE IF NOT EXISTS events (
	id          INTEGER PRIMARY KEY AUTOINCREMENT,
	user_id     TEXT    NOT NULL,
	name        TEXT    NOT NULL,
	timestamp   TEXT    NOT NULL,
	metadata    TEXT    NOT NULL DEFAULT '{}',
	tokens      INTEGER NOT NULL DEFAULT 0,
	received_at INTEGER NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_events_user ON events(user_id, received_at);
`

// Entry is one journaled event.
type Entry struct {
	ID         int64          `json:"id"`
	UserID     string         `json:"user_id"`
	Name       string         `json:"event"`
	Timestamp  string         `json:"timestamp"`
	Metadata   map[string]any `json:"metadata"`
	Tokens     int64          `json:"tokens"`
	ReceivedAt time.Time      `json:"received_at"`
}

// Totals aggregates a user's journaled activity.
type Totals struct {
	Events int64 `json:"events"`
	Tokens int64 `json:"tokens"`
}

// Journal is a SQLite-backed event log.
type Journal struct {
	db *sql.DB
}

// Open opens (or creates) a journal at path and bootstraps the schema.
func Open(path string) (*Journal, error) {
	if strings.TrimSpace(path) == "" {
		return nil, fmt.Errorf("journal path is required")
	}

	dsn := filepath.Clean(path) + "?_journal_mode=WAL&_busy_timeout=5000&_synchronous=NORMAL"
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open journal db: %w", err)
	}
	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping journal db: %w", err)
	}
	if _, err := db.Exec(schema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("bootstrap journal schema: %w", err)
	}
	return &Journal{db: db}, nil
}

// Close closes the underlying database.
func (j *Journal) Close() error {
	return j.db.Close()
}

// Append records one accepted event for userID. tokens is the token
// spend reported in the event metadata, zero when absent.
func (j *Journal) Append(ctx context.Context, userID string, ev event.Event, tokens int64) (int64, error) {
	meta, err := encodeMetadata(ev.Metadata)
	if err != nil {
		return 0, err
	}

	res, err := j.db.ExecContext(ctx,
		`INSERT INTO events (user_id, name, timestamp, metadata, tokens, received_at)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		userID, ev.Name, ev.Timestamp, meta, tokens, time.Now().UTC().UnixMilli())
	if err != nil {
		return 0, fmt.Errorf("append event: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("append event id: %w", err)
	}
	return id, nil
}

// History returns userID's most recent entries, newest first.
func (j *Journal) History(ctx context.Context, userID string, limit int) ([]Entry, error) {
	if limit <= 0 {
		limit = 100
	}

	rows, err := j.db.QueryContext(ctx,
		`SELECT id, user_id, name, timestamp, metadata, tokens, received_at
		 FROM events WHERE user_id = ?
		 ORDER BY received_at DESC, id DESC LIMIT ?`,
		userID, limit)
	if err != nil {
		return nil, fmt.Errorf("query history: %w", err)
	}
	defer rows.Close()

	var entries []Entry
	for rows.Next() {
		var e Entry
		var meta string
		var receivedAt int64
		if err := rows.Scan(&e.ID, &e.UserID, &e.Name, &e.Timestamp, &meta, &e.Tokens, &receivedAt); err != nil {
			return nil, fmt.Errorf("scan history row: %w", err)
		}
		e.Metadata, err = decodeMetadata(meta)
		if err != nil {
			return nil, err
		}
		e.ReceivedAt = time.UnixMilli(receivedAt).UTC()
		entries = append(entries, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate history: %w", err)
	}
	return entries, nil
}

// UserTotals returns userID's lifetime event count and token spend.
func (j *Journal) UserTotals(ctx context.Context, userID string) (Totals, error) {
	var t Totals
	err := j.db.QueryRowContext(ctx,
		`SELECT COUNT(*), COALESCE(SUM(tokens), 0) FROM events WHERE user_id = ?`,
		userID).Scan(&t.Events, &t.Tokens)
	if err != nil {
		return Totals{}, fmt.Errorf("query totals: %w", err)
	}
	return t, nil
}

func encodeMetadata(m map[string]any) (string, error) {
	if len(m) == 0 {
		return "{}", nil
	}
	data, err := json.Marshal(m)
	if err != nil {
		return "", fmt.Errorf("marshal metadata: %w", err)
	}
	return string(data), nil
}

func decodeMetadata(value string) (map[string]any, error) {
	value = strings.TrimSpace(value)
	if value == "" || value == "{}" {
		return nil, nil
	}
	var m map[string]any
	if err := json.Unmarshal([]byte(value), &m); err != nil {
		return nil, fmt.Errorf("unmarshal metadata: %w", err)
	}
	return m, nil
}
