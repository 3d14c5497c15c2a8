package main

import (
	"fmt"

	"github.com/jobtrail/jobtrail/internal/cli"
	"github.com/spf13/cobra"
)

func resolveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "resolve",
		Short: "Fold extracted messages into application records",
		Long: `Merge pending extraction results into per-company application records
and sync each touched record into the vector index.

Messages from the same company (after normalization) share one record;
messages with no recognizable company fall back to their email thread.
Extractions without either are skipped, not failed.`,
		RunE: runResolveStage,
	}
}

func runResolveStage(cmd *cobra.Command, _ []string) error {
	ctx := cmd.Context()

	deps, err := createResolveEngine(ctx)
	if err != nil {
		return err
	}
	defer deps.close()

	stats, err := deps.engine.ResolveAll(ctx)
	if err != nil {
		return fmt.Errorf("resolution failed: %w", err)
	}

	logStageStats(stats)
	fmt.Println(cli.FormatSuccess(fmt.Sprintf("Resolved %d extractions (%d skipped, %d failed)",
		stats.Succeeded, stats.Skipped, stats.Failed)))
	return nil
}
