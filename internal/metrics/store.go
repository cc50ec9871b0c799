package metrics

import (
	"context"
	"database/sql"
	"fmt"
	"time"
)

const timestampLayout = "2006-01-02 15:04:05"

// RunMetric records one execution of a data command such as collect or import.
type RunMetric struct {
	Command   string
	City      string
	Rows      int
	LatencyMS int64
	Timestamp time.Time
}

// Store handles persistence of run metrics to SQLite.
type Store struct {
	db *sql.DB
}

// NewStore initializes the Store with an existing database connection.
func NewStore(db *sql.DB) *Store {
	return &Store{db: db}
}

// Record saves a metric to the database.
func (s *Store) Record(ctx context.Context, m RunMetric) error {
	ts := m.Timestamp
	if ts.IsZero() {
		ts = time.Now()
	}
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO run_metrics (command, city, row_count, latency_ms, timestamp) VALUES (?, ?, ?, ?, ?)`,
		m.Command, m.City, m.Rows, m.LatencyMS, ts.UTC().Format(timestampLayout))
	if err != nil {
		return fmt.Errorf("failed to record %s metric: %w", m.Command, err)
	}
	return nil
}

// Since builds a RunMetric for command measuring from start.
func Since(command, city string, rows int, start time.Time) RunMetric {
	return RunMetric{
		Command:   command,
		City:      city,
		Rows:      rows,
		LatencyMS: time.Since(start).Milliseconds(),
		Timestamp: time.Now().UTC(),
	}
}

// DailyRuns aggregates the runs of one command on one day.
type DailyRuns struct {
	Date      string
	Command   string
	Runs      int
	TotalRows int
	AvgMS     float64
}

// GetDailyRuns retrieves per-day totals for the last N days.
func (s *Store) GetDailyRuns(ctx context.Context, days int) ([]DailyRuns, error) {
	since := time.Now().UTC().AddDate(0, 0, -days).Format(timestampLayout)
	rows, err := s.db.QueryContext(ctx, `
		SELECT substr(timestamp, 1, 10) AS day, command, COUNT(*), SUM(row_count), AVG(latency_ms)
		FROM run_metrics
		WHERE timestamp >= ?
		GROUP BY day, command
		ORDER BY day DESC, command`, since)
	if err != nil {
		return nil, fmt.Errorf("failed to query daily runs: %w", err)
	}
	defer rows.Close()

	var results []DailyRuns
	for rows.Next() {
		var d DailyRuns
		if err := rows.Scan(&d.Date, &d.Command, &d.Runs, &d.TotalRows, &d.AvgMS); err != nil {
			return nil, fmt.Errorf("failed to scan daily runs: %w", err)
		}
		results = append(results, d)
	}
	return results, rows.Err()
}

// Cleanup removes records older than the specified number of days.
func (s *Store) Cleanup(ctx context.Context, olderThanDays int) (int64, error) {
	threshold := time.Now().UTC().AddDate(0, 0, -olderThanDays).Format(timestampLayout)
	res, err := s.db.ExecContext(ctx, `DELETE FROM run_metrics WHERE timestamp < ?`, threshold)
	if err != nil {
		return 0, fmt.Errorf("failed to clean up run metrics: %w", err)
	}
	return res.RowsAffected()
}
