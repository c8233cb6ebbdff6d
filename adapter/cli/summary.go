package cli

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/hourjungle/billingcore/internal/billing/domain"
)

var (
	summaryBranch  string
	summaryRefresh bool
)

var summaryCmd = &cobra.Command{
	Use:   "summary",
	Short: "Show the financial dashboard summary",
	Long: `Build the trailing twelve-month financial summary: receivable,
received, and unpaid amounts per month, plus this-month and this-year
totals. Results are cached for 30 minutes per scope.

Examples:
  hourjungle summary                      # all branches
  hourjungle summary --branch <uuid>      # one branch
  hourjungle summary --refresh            # drop caches and recompute`,
	RunE: func(cmd *cobra.Command, args []string) error {
		if container == nil {
			return fmt.Errorf("summary requires a database connection")
		}

		scope := domain.AllBranches()
		if summaryBranch != "" {
			branchID, err := uuid.Parse(summaryBranch)
			if err != nil {
				return fmt.Errorf("invalid --branch %q: %w", summaryBranch, err)
			}
			scope = domain.BranchScope(branchID)
		}

		now := time.Now().UTC()
		build := container.SummaryService.BuildSummary
		if summaryRefresh {
			build = container.SummaryService.Refresh
		}

		summary, err := build(cmd.Context(), scope, now)
		if err != nil {
			return err
		}

		fmt.Printf("\n  Financial Summary (%s)\n", scope.CacheKey())
		fmt.Println(strings.Repeat("=", 56))
		fmt.Printf("  %-10s %12s %12s %12s\n", "Month", "Receivable", "Received", "Unpaid")
		fmt.Println(strings.Repeat("-", 56))
		for _, m := range summary.Months {
			fmt.Printf("  %4d-%02d    %12d %12d %12d\n",
				m.Year, int(m.Month), m.Receivable, m.Received, m.Unpaid)
		}
		fmt.Println(strings.Repeat("-", 56))
		fmt.Printf("  This month: receivable %d, received %d, unpaid %d\n",
			summary.ThisMonthReceivable, summary.ThisMonthReceived, summary.ThisMonthUnpaid)
		fmt.Printf("  This year:  receivable %d, received %d, unpaid %d\n",
			summary.ThisYearReceivable, summary.ThisYearReceived, summary.ThisYearUnpaid)
		fmt.Printf("  Generated at %s\n\n", summary.GeneratedAt.Format(time.RFC3339))
		return nil
	},
}

func init() {
	summaryCmd.Flags().StringVar(&summaryBranch, "branch", "", "branch id (default: all branches)")
	summaryCmd.Flags().BoolVar(&summaryRefresh, "refresh", false, "invalidate caches and recompute")
	rootCmd.AddCommand(summaryCmd)
}
