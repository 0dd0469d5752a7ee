package config

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"lgabench/internal/benchmark"
)

// ErrBuildDirMissing means the directory holding the benchmark executable does not exist.
var ErrBuildDirMissing = errors.New("build directory not found")

// Validate checks every value and reports all problems at once.
func (c Config) Validate() error {
	var problems []string
	for _, err := range c.parseErrs {
		problems = append(problems, err.Error())
	}

	if c.MaxExp < 0 {
		problems = append(problems, fmt.Sprintf("max_exp must not be negative, got: %d", c.MaxExp))
	}
	if c.MaxExp > benchmark.MaxArrayExp {
		problems = append(problems, fmt.Sprintf("max_exp must be at most %d, got: %d", benchmark.MaxArrayExp, c.MaxExp))
	}
	if c.MaxThreads < 1 {
		problems = append(problems, fmt.Sprintf("max_threads must be positive, got: %d", c.MaxThreads))
	}
	if c.Runs < 1 {
		problems = append(problems, fmt.Sprintf("runs must be positive, got: %d", c.Runs))
	}
	if c.TrialTimeout < 0 {
		problems = append(problems, fmt.Sprintf("trial_timeout must not be negative, got: %v", c.TrialTimeout))
	}
	if c.DataDir == "" {
		problems = append(problems, "data_dir must not be empty")
	}
	if c.PlotsDir == "" {
		problems = append(problems, "plots_dir must not be empty")
	}
	if c.Executable == "" {
		problems = append(problems, "executable must not be empty")
	}

	switch strings.ToLower(c.ArchiveType) {
	case "", "sqlite", "sqlite3":
	case "postgres", "postgresql":
		if c.ArchiveDSN == "" {
			problems = append(problems, "archive.dsn is required for postgres")
		}
	default:
		problems = append(problems, fmt.Sprintf("archive.type must be sqlite or postgres, got: %s", c.ArchiveType))
	}

	if len(problems) > 0 {
		return fmt.Errorf("configuration validation failed:\n  %s", strings.Join(problems, "\n  "))
	}
	return nil
}

// CheckBuildDir fails when the build directory is absent. Sweeps cannot start without it.
func (c Config) CheckBuildDir() error {
	info, err := os.Stat(c.BuildDir)
	if err != nil {
		return fmt.Errorf("%w: %s (run from the project root): %w", ErrBuildDirMissing, c.BuildDir, err)
	}
	if !info.IsDir() {
		return fmt.Errorf("%w: %s is not a directory", ErrBuildDirMissing, c.BuildDir)
	}
	return nil
}
