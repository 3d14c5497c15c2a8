package main

import (
	"fmt"
	"time"

	"github.com/jobtrail/jobtrail/internal/cli"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

func runCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "run",
		Short: "Run the full pipeline: classify, extract, resolve",
		Long: `Run every pipeline stage in order over whatever work is pending:
classify unlabeled messages, extract relevant ones, and fold the
extractions into application records.

Each stage is incremental, so a second run over an unchanged inbox does
no work. Interrupting a run is safe; the next run picks up where it
stopped.

Examples:
  jobtrail run
  jobtrail run --workers 8`,
		RunE: runPipeline,
	}

	cmd.Flags().IntP("workers", "w", 0, "concurrent workers for classify and extract (0 = default)")
	_ = viper.BindPFlag("pipeline.workers", cmd.Flags().Lookup("workers"))

	return cmd
}

func runPipeline(cmd *cobra.Command, _ []string) error {
	ctx := cmd.Context()

	deps, err := createEngine(ctx)
	if err != nil {
		return err
	}
	defer deps.close()

	stats, err := deps.engine.Run(ctx)
	if err != nil {
		return fmt.Errorf("pipeline failed: %w", err)
	}

	for _, stage := range stats.Stages {
		logStageStats(stage)
	}
	fmt.Println(cli.FormatSuccess(fmt.Sprintf("Pipeline complete in %s", stats.Duration.Round(10*time.Millisecond))))
	return nil
}
