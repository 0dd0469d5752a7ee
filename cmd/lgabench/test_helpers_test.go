package main

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"strings"
	"testing"

	"lgabench/internal/benchmark"
	"lgabench/internal/config"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

// executeCommand executes a cobra command and returns its output.
func executeCommand(root *cobra.Command, args ...string) (string, error) {
	resetFlags(root)
	// Mock exit
	oldExit := exit
	exit = func(code int) {
		if code != 0 {
			panic(fmt.Sprintf("exit-%d", code))
		}
	}
	defer func() { exit = oldExit }()
	defer func() {
		if r := recover(); r != nil {
			if s, ok := r.(string); ok && strings.HasPrefix(s, "exit-") {
				return
			}
			panic(r)
		}
	}()
	root.SetArgs(args)
	b := new(bytes.Buffer)
	root.SetOut(b)
	root.SetErr(b)
	// Mock Stdin to avoid hanging on the confirmation prompt
	root.SetIn(bytes.NewBufferString(""))
	err := root.Execute()
	return b.String(), err
}

// resetFlags resets all flags to their default values.
func resetFlags(cmd *cobra.Command) {
	cmd.Flags().VisitAll(func(f *pflag.Flag) {
		if f.Changed {
			f.Value.Set(f.DefValue)
			f.Changed = false
		}
	})
	for _, c := range cmd.Commands() {
		resetFlags(c)
	}
}

// fakeRunner reports grid_size/threads seconds for every trial.
type fakeRunner struct {
	calls int
}

func (r *fakeRunner) Run(ctx context.Context, cfg benchmark.Configuration) (float64, error) {
	r.calls++
	return float64(cfg.GridSize()) / float64(cfg.Threads), nil
}

// setupWorkspace moves the test into an empty project directory with a src/ folder
// and replaces the process runner and the prompt.
func setupWorkspace(t *testing.T) (string, *fakeRunner) {
	t.Helper()
	dir := t.TempDir()
	t.Chdir(dir)
	if err := os.Mkdir("src", 0755); err != nil {
		t.Fatal(err)
	}
	viper.Reset()
	t.Cleanup(viper.Reset)

	runner := &fakeRunner{}
	oldRunner, oldInteractive, oldAsk := newRunnerFunc, isInteractive, askOneFunc
	newRunnerFunc = func(config.Config) benchmark.Runner { return runner }
	isInteractive = func() bool { return false }
	t.Cleanup(func() {
		newRunnerFunc, isInteractive, askOneFunc = oldRunner, oldInteractive, oldAsk
	})
	return dir, runner
}
