// Package main contains the jobtrail CLI commands.
package main

import (
	"fmt"
	"log/slog"

	"github.com/jobtrail/jobtrail/internal/cli"
	"github.com/jobtrail/jobtrail/internal/ingest"
	"github.com/spf13/cobra"
)

func ingestCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "ingest [directory]",
		Short: "Import .eml files into the message store",
		Long: `Import raw RFC 5322 email files from a directory into the local database.

Messages are deduplicated by Message-ID, so re-running ingest over the
same directory is safe. Files that fail to parse are reported and skipped.

Examples:
  jobtrail ingest ~/mail/jobs       # Import every .eml under the directory`,
		Args: cobra.ExactArgs(1),
		RunE: runIngest,
	}
}

func runIngest(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	dir := args[0]

	slog.Info("Ingesting messages", "dir", dir)

	messages, parseErrs := ingest.ParseDir(dir)
	for _, parseErr := range parseErrs {
		slog.Warn("Skipping unparsable file", "error", parseErr)
	}

	if len(messages) == 0 {
		fmt.Println(cli.FormatWarning("No parsable .eml files found."))
		return nil
	}

	store, err := initStorage(ctx)
	if err != nil {
		return fmt.Errorf("failed to initialize storage: %w", err)
	}
	defer closeStorage(store)

	if err := store.SaveMessages(ctx, messages); err != nil {
		return fmt.Errorf("failed to save messages: %w", err)
	}

	fmt.Println(cli.FormatSuccess(fmt.Sprintf("Imported %d messages (%d files skipped)", len(messages), len(parseErrs))))
	return nil
}
