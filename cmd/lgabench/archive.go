package main

import (
	"errors"
	"fmt"
	"io"
	"text/tabwriter"

	"lgabench/internal/config"
	"lgabench/internal/db"

	"github.com/spf13/cobra"
)

var errArchiveDisabled = errors.New("no archive configured (set archive.type to sqlite or postgres)")

var archiveCmd = &cobra.Command{
	Use:   "archive",
	Short: "Inspect sweeps mirrored to the results database",
}

var archiveListCmd = &cobra.Command{
	Use:   "list",
	Short: "List archived sweeps",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		store, err := openArchive()
		if err != nil {
			return err
		}
		defer store.Close()

		sweeps, err := store.ListSweeps()
		if err != nil {
			return fmt.Errorf("failed to list sweeps: %w", err)
		}
		if len(sweeps) == 0 {
			fmt.Fprintln(cmd.OutOrStdout(), "No archived sweeps.")
			return nil
		}
		for _, id := range sweeps {
			fmt.Fprintln(cmd.OutOrStdout(), id)
		}
		return nil
	},
}

var archiveShowCmd = &cobra.Command{
	Use:   "show [sweep]",
	Short: "Show the archived results of a sweep",
	Long: `Prints the archived results of the given sweep, or of the sweep described by
--max-exp, --max-threads and --runs when no sweep is named.`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		sweepID := paramsOf(config.Current()).Identity()
		if len(args) == 1 {
			sweepID = args[0]
		}

		store, err := openArchive()
		if err != nil {
			return err
		}
		defer store.Close()

		results, err := store.ListResults(sweepID)
		if err != nil {
			return fmt.Errorf("failed to load sweep %s: %w", sweepID, err)
		}
		printArchived(cmd.OutOrStdout(), sweepID, len(results))
		printResults(cmd.OutOrStdout(), results)
		return nil
	},
}

func init() {
	archiveCmd.AddCommand(archiveListCmd, archiveShowCmd)
	rootCmd.AddCommand(archiveCmd)
}

func openArchive() (db.Store, error) {
	cfg := config.Current()
	if cfg.ArchiveType == "" {
		return nil, errArchiveDisabled
	}
	store, err := newArchiveFunc(cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to open archive: %w", err)
	}
	return store, nil
}

func printArchived(out io.Writer, sweepID string, n int) {
	w := tabwriter.NewWriter(out, 0, 0, 1, ' ', 0)
	fmt.Fprintf(w, "Sweep:\t%s\n", sweepID)
	fmt.Fprintf(w, "Results:\t%d\n\n", n)
	w.Flush()
}
