package db

import (
	"database/sql"
	"fmt"
	"time"

	"lgabench/internal/benchmark"

	_ "modernc.org/sqlite" // Pure Go SQLite driver
)

// SQLiteStore implements Store using SQLite
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLiteStore creates a new SQLite store and applies migrations
func NewSQLiteStore(path string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	store := &SQLiteStore{db: db}
	if err := store.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}

	return store, nil
}

func (s *SQLiteStore) migrate() error {
	query := `
	CREATE TABLE IF NOT EXISTS results (
		sweep_id TEXT NOT NULL,
		array_exp INTEGER NOT NULL,
		threads INTEGER NOT NULL,
		implementation TEXT NOT NULL,
		time REAL NOT NULL,
		stddev REAL NOT NULL,
		created_at DATETIME DEFAULT CURRENT_TIMESTAMP,
		PRIMARY KEY (sweep_id, threads, array_exp, implementation)
	);
	`
	_, err := s.db.Exec(query)
	return err
}

// Close closes the database connection
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

// ResetSweep deletes every archived row of a sweep.
func (s *SQLiteStore) ResetSweep(sweepID string) error {
	if _, err := s.db.Exec(`DELETE FROM results WHERE sweep_id = ?`, sweepID); err != nil {
		return fmt.Errorf("failed to reset sweep %s: %w", sweepID, err)
	}
	return nil
}

// SaveResults upserts results in a single transaction.
func (s *SQLiteStore) SaveResults(sweepID string, results []benchmark.Result) error {
	tx, err := s.db.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	query := `INSERT OR REPLACE INTO results (sweep_id, array_exp, threads, implementation, time, stddev, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)`
	now := time.Now()
	for _, r := range results {
		if _, err := tx.Exec(query, sweepID, r.ArrayExp, r.Threads, r.Implementation.Tag(), r.Time, r.Stddev, now); err != nil {
			return fmt.Errorf("failed to save result (%d threads, exp %d): %w", r.Threads, r.ArrayExp, err)
		}
	}
	return tx.Commit()
}

// ListResults returns the archived results of a sweep in execution order.
func (s *SQLiteStore) ListResults(sweepID string) ([]benchmark.Result, error) {
	query := `SELECT array_exp, threads, implementation, time, stddev FROM results
		WHERE sweep_id = ? ORDER BY threads, array_exp, implementation`
	rows, err := s.db.Query(query, sweepID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanResults(rows)
}

// ListSweeps returns the identities of every archived sweep.
func (s *SQLiteStore) ListSweeps() ([]string, error) {
	rows, err := s.db.Query(`SELECT DISTINCT sweep_id FROM results ORDER BY sweep_id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanStrings(rows)
}
