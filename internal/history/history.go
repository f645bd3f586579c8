// Package history persists decoded messages to a local SQLite database for
// inspection and simple querying. It never feeds messages back into the
// receive path; missed events are not replayed.
package history

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"

	_ "modernc.org/sqlite" // SQLite driver registration

	"github.com/klima7/signalbot/pkg/message"
)

const busyTimeoutMS = 5000

// schemaStatements are executed in order to create the database schema.
// All use IF NOT EXISTS for idempotent re-application.
var schemaStatements = []string{
	`CREATE TABLE IF NOT EXISTS messages (
		id          INTEGER PRIMARY KEY AUTOINCREMENT,
		source      TEXT    NOT NULL,
		recipient   TEXT    NOT NULL,
		kind        TEXT    NOT NULL,
		sent_at     INTEGER NOT NULL,
		text        TEXT    NOT NULL DEFAULT '',
		reaction    TEXT    NOT NULL DEFAULT '',
		attachments INTEGER NOT NULL DEFAULT 0,
		received_at TEXT    NOT NULL DEFAULT (strftime('%Y-%m-%dT%H:%M:%fZ','now'))
	)`,

	`CREATE INDEX IF NOT EXISTS idx_messages_recipient ON messages(recipient, sent_at)`,
}

// Store is a message log backed by one SQLite file.
type Store struct {
	db *sql.DB
}

// Open opens (creating if needed) the message log at path. The database
// uses WAL mode, a 5 s busy timeout, and a single connection (SQLite
// serialises writes anyway).
func Open(path string) (*Store, error) {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o700); err != nil {
			return nil, fmt.Errorf("history: create directory %s: %w", dir, err)
		}
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("history: open %s: %w", path, err)
	}
	db.SetMaxOpenConns(1)

	ctx := context.Background()
	if _, err := db.ExecContext(ctx, "PRAGMA journal_mode=WAL"); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("history: enable WAL: %w", err)
	}
	if _, err := db.ExecContext(ctx, fmt.Sprintf("PRAGMA busy_timeout=%d", busyTimeoutMS)); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("history: set busy_timeout: %w", err)
	}

	for _, stmt := range schemaStatements {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("history: apply schema: %w", err)
		}
	}

	return &Store{db: db}, nil
}

// Record appends one decoded message to the log.
func (s *Store) Record(ctx context.Context, msg *message.Message) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO messages (source, recipient, kind, sent_at, text, reaction, attachments)
		VALUES (?, ?, ?, ?, ?, ?, ?)`,
		msg.Source, msg.Recipient(), string(msg.Kind), msg.Timestamp,
		msg.Text, msg.Reaction, len(msg.Attachments),
	)
	if err != nil {
		return fmt.Errorf("history: record message: %w", err)
	}
	return nil
}

// Entry is one logged message.
type Entry struct {
	Source      string
	Recipient   string
	Kind        message.Kind
	SentAt      int64
	Text        string
	Reaction    string
	Attachments int
}

// Recent returns up to n messages for a recipient, newest first.
func (s *Store) Recent(ctx context.Context, recipient string, n int) ([]Entry, error) {
	if n <= 0 {
		return nil, nil
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT source, recipient, kind, sent_at, text, reaction, attachments
		FROM messages
		WHERE recipient = ?
		ORDER BY sent_at DESC
		LIMIT ?`,
		recipient, n,
	)
	if err != nil {
		return nil, fmt.Errorf("history: query recent: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var entries []Entry
	for rows.Next() {
		var e Entry
		var kind string
		if err := rows.Scan(&e.Source, &e.Recipient, &kind, &e.SentAt, &e.Text, &e.Reaction, &e.Attachments); err != nil {
			return nil, fmt.Errorf("history: scan row: %w", err)
		}
		e.Kind = message.Kind(kind)
		entries = append(entries, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("history: iterate rows: %w", err)
	}
	return entries, nil
}

// Count returns the total number of logged messages.
func (s *Store) Count(ctx context.Context) (int64, error) {
	var n int64
	if err := s.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM messages").Scan(&n); err != nil {
		return 0, fmt.Errorf("history: count messages: %w", err)
	}
	return n, nil
}

// Close closes the underlying database.
func (s *Store) Close() error {
	return s.db.Close()
}
