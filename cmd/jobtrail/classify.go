package main

import (
	"fmt"

	"github.com/jobtrail/jobtrail/internal/cli"
	"github.com/spf13/cobra"
)

func classifyCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "classify",
		Short: "Label unclassified messages as job-related or not",
		Long: `Run the trained relevance classifier over every ingested message that
has no relevance label yet. Messages labeled irrelevant never reach the
LLM extraction stage.

Requires a trained artifact; run 'jobtrail train' first.`,
		RunE: runClassifyStage,
	}
}

func runClassifyStage(cmd *cobra.Command, _ []string) error {
	ctx := cmd.Context()

	deps, err := createClassifyEngine(ctx)
	if err != nil {
		return err
	}
	defer deps.close()

	stats, err := deps.engine.ClassifyAll(ctx)
	if err != nil {
		return fmt.Errorf("classification failed: %w", err)
	}

	logStageStats(stats)
	fmt.Println(cli.FormatSuccess(fmt.Sprintf("Classified %d messages (%d failed)", stats.Succeeded, stats.Failed)))
	return nil
}
