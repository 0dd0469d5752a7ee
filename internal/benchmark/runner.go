package benchmark

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os/exec"
	"strconv"
	"strings"
	"time"
)

// DefaultExecutable is the timed benchmark produced by the build step.
const DefaultExecutable = "./time_test"

var ErrUnparsableTiming = errors.New("benchmark output is not a number")

// Runner executes a single trial of a configuration and returns its elapsed time.
type Runner interface {
	Run(ctx context.Context, cfg Configuration) (float64, error)
}

// ExecutionError reports a trial whose process failed or printed something that is
// not a timing.
type ExecutionError struct {
	Config Configuration
	Output string
	Err    error
}

func (e *ExecutionError) Error() string {
	msg := fmt.Sprintf("benchmark execution failed (%s): %v", e.Config, e.Err)
	if e.Output != "" {
		msg += "\nOutput:\n" + e.Output
	}
	return msg
}

func (e *ExecutionError) Unwrap() error {
	return e.Err
}

// ProcessRunner implements Runner by spawning the benchmark executable.
type ProcessRunner struct {
	// Dir is the working directory of the benchmark, usually the build directory.
	Dir string
	// Executable is resolved relative to Dir.
	Executable string
	// Timeout bounds one trial. Zero waits forever.
	Timeout time.Duration
}

func NewProcessRunner(dir, executable string, timeout time.Duration) *ProcessRunner {
	if executable == "" {
		executable = DefaultExecutable
	}
	return &ProcessRunner{Dir: dir, Executable: executable, Timeout: timeout}
}

// Args builds the benchmark command line for cfg.
func Args(cfg Configuration) []string {
	return []string{
		"--num_threads", strconv.Itoa(cfg.Threads),
		"--impl", cfg.Implementation.Tag(),
		"--grid_size", strconv.Itoa(cfg.GridSize()),
	}
}

func (r *ProcessRunner) Run(ctx context.Context, cfg Configuration) (float64, error) {
	if r.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, r.Timeout)
		defer cancel()
	}

	cmd := exec.CommandContext(ctx, r.Executable, Args(cfg)...)
	cmd.Dir = r.Dir

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			err = fmt.Errorf("%w: %w", ctxErr, err)
		}
		return 0, &ExecutionError{Config: cfg, Output: stderr.String(), Err: err}
	}

	return ParseTiming(cfg, stdout.String())
}

// ParseTiming reads the single number the benchmark prints on stdout.
func ParseTiming(cfg Configuration, output string) (float64, error) {
	text := strings.TrimSpace(output)
	value, err := strconv.ParseFloat(text, 64)
	if err != nil {
		return 0, &ExecutionError{
			Config: cfg,
			Output: output,
			Err:    fmt.Errorf("%w: %q", ErrUnparsableTiming, text),
		}
	}
	return value, nil
}
