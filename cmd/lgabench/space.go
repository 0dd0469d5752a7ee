package main

import (
	"fmt"
	"io"
	"text/tabwriter"

	"lgabench/internal/benchmark"
	"lgabench/internal/config"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"
)

var spaceCmd = &cobra.Command{
	Use:   "space",
	Short: "List the configurations a sweep would run",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		params := paramsOf(config.Current())
		if err := params.Validate(); err != nil {
			return err
		}
		printSpace(cmd.OutOrStdout(), params)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(spaceCmd)
}

func printSpace(out io.Writer, params benchmark.Params) {
	strata := benchmark.Strata(params.MaxExp, params.MaxThreads)
	total := 0

	w := tabwriter.NewWriter(out, 0, 0, 3, ' ', 0)
	fmt.Fprintln(w, "THREADS\tARRAY_EXP\tIMPL\tGRID_SIZE")
	fmt.Fprintln(w, "-------\t---------\t----\t---------")
	for _, stratum := range strata {
		for _, cfg := range stratum.Configurations {
			fmt.Fprintf(w, "%d\t%d\t%s\t%s\n", cfg.Threads, cfg.ArrayExp, cfg.Implementation.Tag(), humanize.Comma(int64(cfg.GridSize())))
			total++
		}
	}
	w.Flush()

	fmt.Fprintf(out, "\n%s configurations in %d thread counts, %s trials\n",
		humanize.Comma(int64(total)), len(strata), humanize.Comma(int64(total*params.Runs)))
}
