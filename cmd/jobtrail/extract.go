package main

import (
	"fmt"

	"github.com/jobtrail/jobtrail/internal/cli"
	"github.com/spf13/cobra"
)

func extractCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "extract",
		Short: "Extract structured application data from relevant messages",
		Long: `Run LLM extraction over every message labeled relevant that has no
extraction result yet. Extraction never drops a message: when the LLM
response is unusable the message still gets a low-confidence result so
downstream stages see it.

Responses are cached and rate-limited per the llm.* configuration.`,
		RunE: runExtractStage,
	}
}

func runExtractStage(cmd *cobra.Command, _ []string) error {
	ctx := cmd.Context()

	deps, err := createExtractEngine(ctx)
	if err != nil {
		return err
	}
	defer deps.close()

	stats, err := deps.engine.ExtractAll(ctx)
	if err != nil {
		return fmt.Errorf("extraction failed: %w", err)
	}

	logStageStats(stats)
	fmt.Println(cli.FormatSuccess(fmt.Sprintf("Extracted %d messages (%d failed)", stats.Succeeded, stats.Failed)))
	return nil
}
