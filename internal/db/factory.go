package db

import (
	"database/sql"
	"fmt"
	"strings"

	"lgabench/internal/benchmark"
)

// DefaultSQLitePath is used when a SQLite archive is requested without a path.
const DefaultSQLitePath = "data/results.db"

// StoreConfig holds configuration for the storage backend
type StoreConfig struct {
	Type             string // "sqlite" or "postgres"
	ConnectionString string // File path for SQLite, DSN for Postgres
}

// NewStore creates a new Store instance based on the provided configuration
func NewStore(config StoreConfig) (Store, error) {
	switch strings.ToLower(config.Type) {
	case "postgres", "postgresql":
		if config.ConnectionString == "" {
			return nil, fmt.Errorf("postgres connection string is required")
		}
		return NewPostgresStore(config.ConnectionString)
	case "sqlite", "sqlite3":
		if config.ConnectionString == "" {
			config.ConnectionString = DefaultSQLitePath
		}
		return NewSQLiteStore(config.ConnectionString)
	default:
		return nil, fmt.Errorf("unsupported store type: %s", config.Type)
	}
}

// scanResults reads (array_exp, threads, implementation, time, stddev) rows.
func scanResults(rows *sql.Rows) ([]benchmark.Result, error) {
	var results []benchmark.Result
	for rows.Next() {
		var (
			r   benchmark.Result
			tag string
		)
		if err := rows.Scan(&r.ArrayExp, &r.Threads, &tag, &r.Time, &r.Stddev); err != nil {
			return nil, err
		}
		impl, err := benchmark.ParseImplementation(tag)
		if err != nil {
			return nil, err
		}
		r.Implementation = impl
		results = append(results, r)
	}
	return results, rows.Err()
}

func scanStrings(rows *sql.Rows) ([]string, error) {
	var out []string
	for rows.Next() {
		var s string
		if err := rows.Scan(&s); err != nil {
			return nil, err
		}
		out = append(out, s)
	}
	return out, rows.Err()
}
