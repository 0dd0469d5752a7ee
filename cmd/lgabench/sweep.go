package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"text/tabwriter"

	"lgabench/internal/benchmark"
	"lgabench/internal/config"
	"lgabench/internal/db"
	"lgabench/internal/plot"
	"lgabench/internal/telemetry"

	"github.com/AlecAivazis/survey/v2"
	"github.com/charmbracelet/lipgloss"
	"github.com/mattn/go-isatty"
	"github.com/spf13/cobra"
)

var (
	askOneFunc = survey.AskOne

	isInteractive = func() bool {
		return isatty.IsTerminal(os.Stdin.Fd()) || isatty.IsCygwinTerminal(os.Stdin.Fd())
	}

	// newRunnerFunc allows tests to replace the benchmark executable.
	newRunnerFunc = func(cfg config.Config) benchmark.Runner {
		return benchmark.NewProcessRunner(cfg.BuildDir, cfg.Executable, cfg.TrialTimeout)
	}

	buildFunc = benchmark.Build

	newArchiveFunc = func(cfg config.Config) (db.Store, error) {
		return db.NewStore(db.StoreConfig{Type: cfg.ArchiveType, ConnectionString: cfg.ArchiveDSN})
	}
)

var (
	okStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("42")).Bold(true)
	warnStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("214")).Bold(true)
)

func paramsOf(cfg config.Config) benchmark.Params {
	return benchmark.Params{MaxExp: cfg.MaxExp, MaxThreads: cfg.MaxThreads, Runs: cfg.Runs}
}

func runRoot(cmd *cobra.Command, args []string) error {
	cfg := config.Current()
	params := paramsOf(cfg)
	if err := params.Validate(); err != nil {
		return err
	}
	if err := cfg.CheckBuildDir(); err != nil {
		return err
	}
	if err := os.MkdirAll(cfg.DataDir, 0755); err != nil {
		return fmt.Errorf("failed to create data directory: %w", err)
	}
	store := benchmark.NewCSVStore(params.TablePath(cfg.DataDir))

	yes, _ := cmd.Flags().GetBool("yes")
	run, err := confirmSweep(yes)
	if err != nil {
		return err
	}

	var results []benchmark.Result
	if run {
		build, _ := cmd.Flags().GetBool("build")
		results, err = sweep(cmd.Context(), cmd.OutOrStdout(), cfg, params, store, build)
		if err != nil {
			return err
		}
	} else {
		telemetry.LogInfo("Reloading previous results", "path", store.Path())
		results, err = store.Load()
		if err != nil {
			return err
		}
	}

	printResults(cmd.OutOrStdout(), results)

	if cfg.Plot {
		return renderPlot(cmd.OutOrStdout(), cfg, params, results)
	}
	return nil
}

// confirmSweep asks before starting a sweep. Without a terminal the answer is no,
// so scripted invocations need --yes to measure anything.
func confirmSweep(yes bool) (bool, error) {
	if yes {
		return true, nil
	}
	if !isInteractive() {
		telemetry.LogInfo("No terminal attached, skipping the sweep (use --yes to run it)")
		return false, nil
	}
	run := false
	err := askOneFunc(&survey.Confirm{
		Message: "Run Monte Carlo?",
		Default: false,
	}, &run)
	if err != nil {
		return false, fmt.Errorf("prompt failed: %w", err)
	}
	return run, nil
}

func sweep(ctx context.Context, out io.Writer, cfg config.Config, params benchmark.Params, store *benchmark.CSVStore, build bool) ([]benchmark.Result, error) {
	if build {
		fmt.Fprintf(out, "Building in %s: %s\n", cfg.BuildDir, cfg.BuildCommand)
		if err := buildFunc(ctx, cfg.BuildDir, cfg.BuildCommand); err != nil {
			return nil, err
		}
	}

	driver := benchmark.NewDriver(params, benchmark.NewSampler(newRunnerFunc(cfg), params.Runs), store)

	if cfg.ArchiveType != "" {
		archive, err := newArchiveFunc(cfg)
		if err != nil {
			return nil, fmt.Errorf("failed to open archive: %w", err)
		}
		defer archive.Close()
		driver.Archive = archive
	}

	if cfg.MetricsAddr != "" {
		driver.Metrics = telemetry.NewSweepMetrics()
		stop, err := telemetry.StartMetricsServer(ctx, cfg.MetricsAddr, driver.Metrics)
		if err != nil {
			return nil, err
		}
		defer stop()
	}

	results, err := driver.Run(ctx)
	if err != nil {
		if errors.Is(err, context.Canceled) {
			fmt.Fprintln(out, warnStyle.Render("Sweep interrupted, completed thread counts kept in "+store.Path()))
		}
		return nil, err
	}
	fmt.Fprintln(out, okStyle.Render(fmt.Sprintf("Sweep %s complete: %d configurations", params.Identity(), len(results))))
	return results, nil
}

func renderPlot(out io.Writer, cfg config.Config, params benchmark.Params, results []benchmark.Result) error {
	path := params.PlotPath(cfg.PlotsDir)
	if err := plot.Render(results, params.MaxThreadExp(), path); err != nil {
		return fmt.Errorf("failed to render plot: %w", err)
	}
	fmt.Fprintln(out, okStyle.Render("Plot written to "+path))
	return nil
}

func printResults(out io.Writer, results []benchmark.Result) {
	if len(results) == 0 {
		fmt.Fprintln(out, "No results.")
		return
	}
	w := tabwriter.NewWriter(out, 0, 0, 3, ' ', 0)
	fmt.Fprintln(w, "THREADS\tARRAY_EXP\tIMPL\tTIME\tSTDDEV")
	fmt.Fprintln(w, "-------\t---------\t----\t----\t------")
	for _, r := range results {
		fmt.Fprintf(w, "%d\t%d\t%s\t%.6g\t%.3g\n", r.Threads, r.ArrayExp, r.Implementation.Tag(), r.Time, r.Stddev)
	}
	w.Flush()
}
