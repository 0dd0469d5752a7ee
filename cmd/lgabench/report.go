package main

import (
	"fmt"
	"io"
	"text/tabwriter"

	"lgabench/internal/benchmark"
	"lgabench/internal/config"

	"github.com/spf13/cobra"
)

var reportCmd = &cobra.Command{
	Use:   "report",
	Short: "Show parallel speedups of a previous sweep",
	Long: `Pairs every parallel result with the sequential result of the same array size
and prints the speedup and the per-thread efficiency.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg := config.Current()
		params := paramsOf(cfg)
		if err := params.Validate(); err != nil {
			return err
		}
		results, err := benchmark.NewCSVStore(params.TablePath(cfg.DataDir)).Load()
		if err != nil {
			return err
		}
		printSpeedups(cmd.OutOrStdout(), benchmark.Speedups(results))
		return nil
	},
}

func init() {
	rootCmd.AddCommand(reportCmd)
}

func printSpeedups(out io.Writer, speedups []benchmark.Speedup) {
	if len(speedups) == 0 {
		fmt.Fprintln(out, "No parallel results with a sequential baseline.")
		return
	}
	w := tabwriter.NewWriter(out, 0, 0, 3, ' ', 0)
	fmt.Fprintln(w, "THREADS\tARRAY_EXP\tIMPL\tSEQ\tTIME\tSPEEDUP\tEFFICIENCY")
	fmt.Fprintln(w, "-------\t---------\t----\t---\t----\t-------\t----------")
	for _, s := range speedups {
		fmt.Fprintf(w, "%d\t%d\t%s\t%.6g\t%.6g\t%.2fx\t%.0f%%\n",
			s.Result.Threads, s.Result.ArrayExp, s.Result.Implementation.Tag(),
			s.Baseline.Time, s.Result.Time, s.Factor, s.Efficiency*100)
	}
	w.Flush()
}
