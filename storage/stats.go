package storage

import (
	"fmt"
)

// DailyStats represents statistics for a single day
type DailyStats struct {
	Date         string `json:"date"`
	TotalCopies  int    `json:"totalCopies"`
	PasteCount   int    `json:"pasteCount"`
	SuccessCount int    `json:"successCount"`
	FailureCount int    `json:"failureCount"`
}

// TitleStats represents statistics grouped by snippet title
type TitleStats struct {
	Title       string `json:"title"`
	TotalCopies int    `json:"totalCopies"`
	LastCopied  string `json:"lastCopied"`
}

// OverallStats represents overall statistics
type OverallStats struct {
	TotalCopies    int     `json:"totalCopies"`
	PasteCount     int     `json:"pasteCount"`
	SuccessCount   int     `json:"successCount"`
	FailureCount   int     `json:"failureCount"`
	DistinctTitles int     `json:"distinctTitles"`
	AvgPasteDelay  float64 `json:"avgPasteDelayMs"`
}

// GetDailyStats retrieves statistics grouped by date for the last N days
func (db *DB) GetDailyStats(days int) ([]DailyStats, error) {
	query := `
		SELECT
			DATE(timestamp) as date,
			COUNT(*) as total_copies,
			SUM(CASE WHEN paste_scheduled = 1 THEN 1 ELSE 0 END) as paste_count,
			SUM(CASE WHEN success = 1 THEN 1 ELSE 0 END) as success_count,
			SUM(CASE WHEN success = 0 THEN 1 ELSE 0 END) as failure_count
		FROM copies
		WHERE timestamp >= datetime('now', '-' || ? || ' days')
		GROUP BY DATE(timestamp)
		ORDER BY date DESC
	`

	rows, err := db.conn.Query(query, days)
	if err != nil {
		return nil, fmt.Errorf("failed to query daily stats: %w", err)
	}
	defer rows.Close()

	stats := []DailyStats{}
	for rows.Next() {
		var s DailyStats
		err := rows.Scan(&s.Date, &s.TotalCopies, &s.PasteCount, &s.SuccessCount, &s.FailureCount)
		if err != nil {
			return nil, fmt.Errorf("failed to scan daily stats: %w", err)
		}
		stats = append(stats, s)
	}

	return stats, rows.Err()
}

// GetTitleStats retrieves the most copied titles for the last N days
func (db *DB) GetTitleStats(days, limit int) ([]TitleStats, error) {
	query := `
		SELECT
			title,
			COUNT(*) as total_copies,
			MAX(timestamp) as last_copied
		FROM copies
		WHERE success = 1 AND timestamp >= datetime('now', '-' || ? || ' days')
		GROUP BY title
		ORDER BY total_copies DESC, title ASC
		LIMIT ?
	`

	rows, err := db.conn.Query(query, days, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query title stats: %w", err)
	}
	defer rows.Close()

	stats := []TitleStats{}
	for rows.Next() {
		var s TitleStats
		if err := rows.Scan(&s.Title, &s.TotalCopies, &s.LastCopied); err != nil {
			return nil, fmt.Errorf("failed to scan title stats: %w", err)
		}
		stats = append(stats, s)
	}

	return stats, rows.Err()
}

// GetOverallStats retrieves overall statistics for the last N days
func (db *DB) GetOverallStats(days int) (*OverallStats, error) {
	query := `
		SELECT
			COUNT(*) as total_copies,
			COALESCE(SUM(CASE WHEN paste_scheduled = 1 THEN 1 ELSE 0 END), 0) as paste_count,
			COALESCE(SUM(CASE WHEN success = 1 THEN 1 ELSE 0 END), 0) as success_count,
			COALESCE(SUM(CASE WHEN success = 0 THEN 1 ELSE 0 END), 0) as failure_count,
			COUNT(DISTINCT title) as distinct_titles,
			COALESCE(AVG(CASE WHEN paste_scheduled = 1 THEN paste_delay_ms END), 0) as avg_paste_delay
		FROM copies
		WHERE timestamp >= datetime('now', '-' || ? || ' days')
	`

	var stats OverallStats
	err := db.conn.QueryRow(query, days).Scan(
		&stats.TotalCopies,
		&stats.PasteCount,
		&stats.SuccessCount,
		&stats.FailureCount,
		&stats.DistinctTitles,
		&stats.AvgPasteDelay,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to query overall stats: %w", err)
	}

	return &stats, nil
}
