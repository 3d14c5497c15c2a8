package main

import (
	"fmt"

	"github.com/jobtrail/jobtrail/internal/cli"
	"github.com/jobtrail/jobtrail/internal/model"
	"github.com/jobtrail/jobtrail/internal/service"
	"github.com/spf13/cobra"
)

func recordsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "records",
		Short: "List application records",
		Long: `List resolved application records with their current status.

Examples:
  jobtrail records                      # All records, most recent first
  jobtrail records --status interview   # Only applications in interview
  jobtrail records --company Initech    # Filter by company name
  jobtrail records --limit 10           # Cap the listing`,
		RunE: runRecords,
	}

	cmd.Flags().String("status", "", "filter by status (applied, interview, offer, rejected, withdrawn)")
	cmd.Flags().String("company", "", "filter by company name")
	cmd.Flags().Int("limit", 0, "maximum records to show (0 = all)")

	return cmd
}

func runRecords(cmd *cobra.Command, _ []string) error {
	ctx := cmd.Context()

	statusFlag, _ := cmd.Flags().GetString("status")
	company, _ := cmd.Flags().GetString("company")
	limit, _ := cmd.Flags().GetInt("limit")

	filter := service.RecordFilter{Company: company, Limit: limit}
	if statusFlag != "" {
		status := model.ParseStatus(statusFlag)
		if status == model.StatusUnknown {
			return fmt.Errorf("unknown status: %s", statusFlag)
		}
		filter.Status = status
	}

	store, err := initStorage(ctx)
	if err != nil {
		return fmt.Errorf("failed to initialize storage: %w", err)
	}
	defer closeStorage(store)

	records, err := store.GetApplicationRecords(ctx, filter)
	if err != nil {
		return fmt.Errorf("failed to load records: %w", err)
	}

	if len(records) == 0 {
		fmt.Println(cli.FormatInfo("No application records match."))
		return nil
	}

	fmt.Println(cli.FormatTitle(fmt.Sprintf("Applications (%d)", len(records))))
	fmt.Println(cli.RenderRecordsTable(records))
	return nil
}
