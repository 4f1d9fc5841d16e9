package main

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"
	"github.com/timmy/mdb2el/internal/config"
	"github.com/timmy/mdb2el/internal/repository"
)

// NewHistoryCommand creates the history command, which prints the jobs recorded
// for one sync run.
func NewHistoryCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "history <run-id>",
		Short: "Show the recorded jobs of a sync run",
		Long: `Show the jobs recorded for a sync run, in dispatch order.

The run ID is logged as run_id at the start of every sync run.

Example:
  mdb2el history 2b1f7c52-0d1e-4a4e-9c53-6f0f4c1a9e77`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return showHistory(cmd, rootOpts, args[0])
		},
	}

	return cmd
}

func showHistory(cmd *cobra.Command, opts *RootOptions, runID string) error {
	cfg, err := config.Load(opts.SettingsPath)
	if err != nil {
		return fmt.Errorf("failed to load settings: %w", err)
	}
	if !cfg.Database.Enabled {
		return errors.New("run history is disabled (database.enabled is false)")
	}

	db, err := repository.InitDB(&cfg.Database)
	if err != nil {
		return err
	}
	if sqlDB, err := db.DB(); err == nil {
		defer sqlDB.Close()
	}

	runs, err := repository.NewSyncRunRepository(db).ListByRunID(cmd.Context(), runID)
	if err != nil {
		return fmt.Errorf("failed to list run %s: %w", runID, err)
	}

	out := cmd.OutOrStdout()
	if len(runs) == 0 {
		fmt.Fprintf(out, "No jobs recorded for run %s\n", runID)
		return nil
	}

	fmt.Fprintf(out, "Run %s: %d job(s)\n", runID, len(runs))
	for _, r := range runs {
		fmt.Fprintf(out, "  [%d] %s  %s.%s -> %s/%s  %d document(s)",
			r.JobIndex, r.Status, r.SourceDatabase, r.SourceCollection, r.TargetIndex, r.TargetType, r.Documents)
		if r.ErrorLog != "" {
			fmt.Fprintf(out, "  error: %s", r.ErrorLog)
		}
		fmt.Fprintln(out)
	}
	return nil
}
