package cli

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"
)

var scanDate string

var scanCmd = &cobra.Command{
	Use:   "scan",
	Short: "Scan active contracts and schedule reminder tasks",
	Long: `Scan all active contracts and create the reminder tasks whose
trigger day is today: payment reminders 7 and 3 days before the next due
date, renewal reminders 60 and 30 days before the contract end date.

Repeated scans on the same day are idempotent.

Examples:
  hourjungle scan                  # scan as of today
  hourjungle scan --date 2026-09-01`,
	RunE: func(cmd *cobra.Command, args []string) error {
		if container == nil {
			return fmt.Errorf("scan requires a database connection")
		}

		today := time.Now().UTC()
		if scanDate != "" {
			parsed, err := time.ParseInLocation(time.DateOnly, scanDate, time.UTC)
			if err != nil {
				return fmt.Errorf("invalid --date %q: %w", scanDate, err)
			}
			today = parsed
		}

		result, err := container.Scheduler.ScanAndSchedule(cmd.Context(), today)
		if err != nil {
			return err
		}

		fmt.Printf("Scan completed for %s\n", today.Format(time.DateOnly))
		fmt.Printf("  payment reminders created: %d\n", result.PaymentReminders)
		fmt.Printf("  renewal reminders created: %d\n", result.RenewalReminders)
		return nil
	},
}

func init() {
	scanCmd.Flags().StringVar(&scanDate, "date", "", "scan as of this date (YYYY-MM-DD, default today)")
	rootCmd.AddCommand(scanCmd)
}
