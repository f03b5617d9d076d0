package storage

import (
	"database/sql"
	"fmt"
	"time"
)

// Copy sources
const (
	SourcePopup     = "popup"
	SourceDashboard = "dashboard"
)

// CopyEvent is one snippet copied to the clipboard
type CopyEvent struct {
	ID             int64     `json:"id"`
	Timestamp      time.Time `json:"timestamp"`
	Title          string    `json:"title"`
	Index          int       `json:"index"`
	Source         string    `json:"source"`
	PasteScheduled bool      `json:"pasteScheduled"`
	PasteDelayMs   int       `json:"pasteDelayMs"`
	Success        bool      `json:"success"`
	ErrorMessage   string    `json:"errorMessage,omitempty"`
}

// SaveCopy records a copy event
func (db *DB) SaveCopy(c *CopyEvent) error {
	query := `
		INSERT INTO copies (
			title, snippet_index, source, paste_scheduled, paste_delay_ms,
			success, error_message
		) VALUES (?, ?, ?, ?, ?, ?, ?)
	`

	result, err := db.conn.Exec(query,
		c.Title, c.Index, c.Source, c.PasteScheduled, c.PasteDelayMs,
		c.Success, c.ErrorMessage,
	)
	if err != nil {
		return fmt.Errorf("failed to save copy: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return fmt.Errorf("failed to get last insert ID: %w", err)
	}

	c.ID = id
	return nil
}

// GetCopies retrieves copy events, newest first, with pagination
func (db *DB) GetCopies(limit, offset int) ([]CopyEvent, error) {
	query := `
		SELECT
			id, timestamp, title, snippet_index, source, paste_scheduled,
			paste_delay_ms, success, error_message
		FROM copies
		ORDER BY timestamp DESC, id DESC
		LIMIT ? OFFSET ?
	`

	rows, err := db.conn.Query(query, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("failed to query copies: %w", err)
	}
	defer rows.Close()

	copies := []CopyEvent{}
	for rows.Next() {
		var c CopyEvent
		var errorMessage sql.NullString

		err := rows.Scan(
			&c.ID, &c.Timestamp, &c.Title, &c.Index, &c.Source, &c.PasteScheduled,
			&c.PasteDelayMs, &c.Success, &errorMessage,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan copy: %w", err)
		}

		if errorMessage.Valid {
			c.ErrorMessage = errorMessage.String
		}

		copies = append(copies, c)
	}

	return copies, rows.Err()
}

// ClearCopies deletes the whole usage log
func (db *DB) ClearCopies() error {
	if _, err := db.conn.Exec(`DELETE FROM copies`); err != nil {
		return fmt.Errorf("failed to clear copies: %w", err)
	}
	return nil
}

// GetCopyCount returns the total number of successful copies
func (db *DB) GetCopyCount() (int, error) {
	var count int
	err := db.conn.QueryRow("SELECT COUNT(*) FROM copies WHERE success = 1").Scan(&count)
	return count, err
}
