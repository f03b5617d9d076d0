// Package storage keeps the usage log: one row per snippet copy, with
// aggregate statistics for the dashboard. Snippet values are never stored.
package storage

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"

	_ "modernc.org/sqlite"
)

// FileName is the database file name inside the config directory
const FileName = "cliphoard.db"

var pragmas = []string{
	"PRAGMA journal_mode=WAL",
	"PRAGMA busy_timeout=5000",
}

const schema = `
CREATE TABLE IF NOT EXISTS copies (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	timestamp DATETIME DEFAULT CURRENT_TIMESTAMP,

	title TEXT NOT NULL,
	snippet_index INTEGER NOT NULL,
	source TEXT NOT NULL,

	paste_scheduled BOOLEAN NOT NULL,
	paste_delay_ms INTEGER NOT NULL,

	success BOOLEAN NOT NULL,
	error_message TEXT
);

CREATE INDEX IF NOT EXISTS idx_copies_timestamp ON copies(timestamp);
CREATE INDEX IF NOT EXISTS idx_copies_title ON copies(title);
`

// DB is the usage log database
type DB struct {
	conn *sql.DB
}

// Open opens or creates the database at dbPath
func Open(dbPath string) (*DB, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		return nil, fmt.Errorf("failed to create database directory: %w", err)
	}

	conn, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	for _, p := range pragmas {
		if _, err := conn.Exec(p); err != nil {
			conn.Close()
			return nil, fmt.Errorf("failed to apply %q: %w", p, err)
		}
	}

	if _, err := conn.Exec(schema); err != nil {
		conn.Close()
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}

	return &DB{conn: conn}, nil
}

// Close closes the database connection
func (db *DB) Close() error {
	return db.conn.Close()
}

// Prune deletes copy events older than days and returns how many went.
// days <= 0 keeps everything.
func (db *DB) Prune(days int) (int64, error) {
	if days <= 0 {
		return 0, nil
	}

	result, err := db.conn.Exec(
		`DELETE FROM copies WHERE timestamp < datetime('now', '-' || ? || ' days')`,
		days,
	)
	if err != nil {
		return 0, fmt.Errorf("failed to prune copies: %w", err)
	}
	return result.RowsAffected()
}
