package benchmark

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"slices"
	"strconv"
)

// Fields is the header of a results table, in column order.
var Fields = []string{"array_exp", "threads", "implementation", "time", "stddev"}

// integerFields are parsed as ints on load; every other numeric column is a float.
var integerFields = []string{"threads", "array_exp"}

// ErrNotFound is returned when a table is loaded before any sweep produced it.
var ErrNotFound = errors.New("results table not found")

// Store persists sweep results one stratum at a time.
type Store interface {
	Init() error
	AppendStratum(threads int, results []Result) error
	Load() ([]Result, error)
}

// CSVStore implements Store using a CSV file.
type CSVStore struct {
	path string
}

func NewCSVStore(path string) *CSVStore {
	return &CSVStore{path: path}
}

func (s *CSVStore) Path() string {
	return s.path
}

// Init truncates the table and writes the header row.
func (s *CSVStore) Init() error {
	dir := filepath.Dir(s.path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create directory %s: %w", dir, err)
	}

	f, err := os.OpenFile(s.path, os.O_CREATE|os.O_TRUNC|os.O_WRONLY, 0644)
	if err != nil {
		return fmt.Errorf("failed to create results table: %w", err)
	}
	return writeAndSync(f, [][]string{Fields})
}

// AppendStratum appends the rows of results whose thread count is threads and syncs
// the file before returning, so a completed stratum survives a crash of the sweep.
func (s *CSVStore) AppendStratum(threads int, results []Result) error {
	var rows [][]string
	for _, r := range results {
		if r.Threads != threads {
			continue
		}
		rows = append(rows, []string{
			strconv.Itoa(r.ArrayExp),
			strconv.Itoa(r.Threads),
			r.Implementation.Tag(),
			strconv.FormatFloat(r.Time, 'g', -1, 64),
			strconv.FormatFloat(r.Stddev, 'g', -1, 64),
		})
	}

	f, err := os.OpenFile(s.path, os.O_APPEND|os.O_WRONLY, 0644)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return fmt.Errorf("%w: %s was never initialized", ErrNotFound, s.path)
		}
		return fmt.Errorf("failed to open results table: %w", err)
	}
	return writeAndSync(f, rows)
}

func writeAndSync(f *os.File, rows [][]string) error {
	w := csv.NewWriter(f)
	if err := w.WriteAll(rows); err != nil {
		f.Close()
		return fmt.Errorf("failed to write results: %w", err)
	}
	if err := f.Sync(); err != nil {
		f.Close()
		return fmt.Errorf("failed to sync results: %w", err)
	}
	return f.Close()
}

// LoadRecords reads the table as plain records keyed by column name. threads and
// array_exp become ints, implementation stays a string and the rest become floats.
func (s *CSVStore) LoadRecords() ([]map[string]any, error) {
	f, err := os.Open(s.path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s, please run a sweep first: %w", ErrNotFound, s.path, err)
		}
		return nil, fmt.Errorf("failed to open results table: %w", err)
	}
	defer f.Close()

	r := csv.NewReader(f)
	header, err := r.Read()
	if err != nil {
		if err == io.EOF {
			return nil, fmt.Errorf("results table %s is empty", s.path)
		}
		return nil, fmt.Errorf("failed to read header: %w", err)
	}
	if !slices.Equal(header, Fields) {
		return nil, fmt.Errorf("unexpected header in %s: %v", s.path, header)
	}

	var records []map[string]any
	for {
		row, err := r.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("failed to read row %d: %w", len(records)+1, err)
		}

		record := make(map[string]any, len(header))
		for i, key := range header {
			value, err := parseField(key, row[i])
			if err != nil {
				return nil, fmt.Errorf("row %d: %w", len(records)+1, err)
			}
			record[key] = value
		}
		records = append(records, record)
	}
	return records, nil
}

func parseField(key, raw string) (any, error) {
	switch {
	case key == "implementation":
		return raw, nil
	case slices.Contains(integerFields, key):
		v, err := strconv.Atoi(raw)
		if err != nil {
			return nil, fmt.Errorf("field %s: %w", key, err)
		}
		return v, nil
	default:
		v, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			return nil, fmt.Errorf("field %s: %w", key, err)
		}
		return v, nil
	}
}

// Load reads the table back into Results.
func (s *CSVStore) Load() ([]Result, error) {
	records, err := s.LoadRecords()
	if err != nil {
		return nil, err
	}

	results := make([]Result, 0, len(records))
	for i, rec := range records {
		impl, err := ParseImplementation(rec["implementation"].(string))
		if err != nil {
			return nil, fmt.Errorf("row %d: %w", i+1, err)
		}
		results = append(results, Result{
			ArrayExp:       rec["array_exp"].(int),
			Threads:        rec["threads"].(int),
			Implementation: impl,
			Time:           rec["time"].(float64),
			Stddev:         rec["stddev"].(float64),
		})
	}
	return results, nil
}
