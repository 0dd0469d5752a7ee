package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"runtime"
	"syscall"

	"lgabench/internal/config"
	"lgabench/internal/telemetry"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var exit = os.Exit
var cfgFile string

// closeLog is replaced by initConfig when a log file is opened.
var closeLog = func() error { return nil }

// rootCmd runs a sweep, or reloads the last one when the user declines.
var rootCmd = &cobra.Command{
	Use:   "lgabench",
	Short: "Benchmark sweep driver for the lattice gas automaton kernels",
	Long: `lgabench sweeps thread counts, array sizes and implementations of the
lattice gas automaton benchmark, samples each configuration repeatedly and
records the mean and variance of the reported times. Results are flushed to
data/ after every thread count so an interrupted sweep keeps what it measured.`,
	SilenceErrors:     true,
	SilenceUsage:      true,
	PersistentPreRunE: initConfig,
	RunE:              runRoot,
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		_ = closeLog()
	},
}

// flagKeys maps flag names to their viper keys.
var flagKeys = map[string]string{
	"max-threads":  "max_threads",
	"max-exp":      "max_exp",
	"runs":         "runs",
	"verbose":      "verbose",
	"data-dir":     "data_dir",
	"plots-dir":    "plots_dir",
	"build-dir":    "build_dir",
	"plot":         "plot",
	"metrics-addr": "metrics_addr",
}

// Execute runs the root command with a context cancelled on SIGINT or SIGTERM.
func Execute() {
	defer func() {
		if r := recover(); r != nil {
			fmt.Fprintf(os.Stderr, "\n=== CRITICAL ERROR: Command Execution Panic ===\n")
			fmt.Fprintf(os.Stderr, "Error: %v\n", r)
			fmt.Fprintf(os.Stderr, "Attempting graceful shutdown...\n")
			exit(1)
		}
	}()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		if errors.Is(err, config.ErrBuildDirMissing) {
			fmt.Fprintln(os.Stderr, "Run lgabench from the project root or set build_dir.")
		}
		exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is ./lgabench.yaml)")
	rootCmd.PersistentFlags().BoolP("verbose", "v", false, "Enable verbose/debug logging")
	rootCmd.PersistentFlags().Int("max-threads", runtime.NumCPU(), "Maximum number of threads (-mt)")
	rootCmd.PersistentFlags().Int("max-exp", 12, "Maximum array exponent, arrays are 2^exp (-me)")
	rootCmd.PersistentFlags().IntP("runs", "r", 100, "Number of trials per configuration")
	rootCmd.PersistentFlags().String("data-dir", "data", "Directory holding results tables")
	rootCmd.PersistentFlags().String("plots-dir", "plots", "Directory holding figures")

	rootCmd.Flags().BoolP("plot", "p", false, "Plot the results after the sweep")
	rootCmd.Flags().BoolP("yes", "y", false, "Run the sweep without asking")
	rootCmd.Flags().Bool("build", false, "Run the build command in the build directory first")
	rootCmd.Flags().String("build-dir", "src", "Directory containing the benchmark executable")
	rootCmd.Flags().String("metrics-addr", "", "Serve Prometheus metrics on this address during the sweep")
}

// initConfig binds the flags of the running command, loads configuration and sets up
// logging. Flags are bound per invocation so every subcommand sees its own values.
func initConfig(cmd *cobra.Command, args []string) error {
	for name, key := range flagKeys {
		if f := cmd.Flags().Lookup(name); f != nil {
			if err := viper.BindPFlag(key, f); err != nil {
				return err
			}
		}
	}

	if err := config.Load(cfgFile); err != nil {
		return err
	}
	cfg := config.Current()
	if err := cfg.Validate(); err != nil {
		return err
	}

	closeLog = telemetry.InitLogger(telemetry.LoggerOptions{
		Debug:  cfg.Verbose,
		JSON:   cfg.LogJSON,
		File:   cfg.LogFile,
		Output: cmd.ErrOrStderr(),
	})
	return nil
}
