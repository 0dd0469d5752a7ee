package main

import (
	"lgabench/internal/benchmark"
	"lgabench/internal/config"

	"github.com/spf13/cobra"
)

var plotCmd = &cobra.Command{
	Use:   "plot",
	Short: "Plot the results table of a previous sweep",
	Long: `Reloads data/data_<me>me_<mt>mt_<runs>runs.csv for the given parameters and
renders one panel per thread count into plots/.`,
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
		return renderPlot(cmd.OutOrStdout(), cfg, params, results)
	},
}

func init() {
	rootCmd.AddCommand(plotCmd)
}
