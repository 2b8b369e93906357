package scheduler

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"

	_ "github.com/mattn/go-sqlite3"
)

// SQLiteStorage persists job run history in a SQLite database.
type SQLiteStorage struct {
	db *sql.DB
}

// OpenStorage opens or creates the run-history database.
func OpenStorage(path string) (*SQLiteStorage, error) {
	if path == "" {
		path = "./data/scheduler.db"
	}
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create database directory %q: %w", dir, err)
	}

	dsn := fmt.Sprintf("%s?_journal_mode=WAL&_busy_timeout=5000", path)
	db, err := sql.Open("sqlite3", dsn)
	if err != nil {
		return nil, fmt.Errorf("open database %q: %w", path, err)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	schema := `
	CREATE TABLE IF NOT EXISTS job_runs (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		job TEXT NOT NULL,
		started_at DATETIME NOT NULL,
		finished_at DATETIME NOT NULL,
		error TEXT NOT NULL DEFAULT ''
	);
	CREATE INDEX IF NOT EXISTS idx_job_runs_job ON job_runs(job, started_at);`
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("initialize schema: %w", err)
	}
	return &SQLiteStorage{db: db}, nil
}

// RecordRun appends one execution to the history.
func (s *SQLiteStorage) RecordRun(record RunRecord) error {
	_, err := s.db.Exec(
		`INSERT INTO job_runs (job, started_at, finished_at, error) VALUES (?, ?, ?, ?)`,
		record.Job, record.StartedAt, record.FinishedAt, record.Error)
	if err != nil {
		return fmt.Errorf("insert run record: %w", err)
	}
	return nil
}

// LastRun returns a job's most recent execution, or nil when it has none.
func (s *SQLiteStorage) LastRun(job string) (*RunRecord, error) {
	row := s.db.QueryRow(
		`SELECT job, started_at, finished_at, error FROM job_runs
		 WHERE job = ? ORDER BY started_at DESC LIMIT 1`, job)
	var record RunRecord
	err := row.Scan(&record.Job, &record.StartedAt, &record.FinishedAt, &record.Error)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("query last run: %w", err)
	}
	return &record, nil
}

// Close closes the database.
func (s *SQLiteStorage) Close() error {
	return s.db.Close()
}
