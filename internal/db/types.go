package db

import "lgabench/internal/benchmark"

// Store archives sweep results. It satisfies benchmark.Archive.
type Store interface {
	Close() error
	ResetSweep(sweepID string) error
	SaveResults(sweepID string, results []benchmark.Result) error
	ListResults(sweepID string) ([]benchmark.Result, error)
	ListSweeps() ([]string, error)
}
