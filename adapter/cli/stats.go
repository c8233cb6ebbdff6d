package cli

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"
)

var statsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Show reminder task statistics",
	RunE: func(cmd *cobra.Command, args []string) error {
		if container == nil {
			return fmt.Errorf("stats require a database connection")
		}

		stats, err := container.TaskService.Stats(cmd.Context(), time.Now().UTC())
		if err != nil {
			return err
		}

		fmt.Println("\n  Reminder Tasks")
		fmt.Println(strings.Repeat("=", 32))
		fmt.Printf("  pending total:  %d\n", stats.PendingTotal)
		fmt.Printf("  today pending:  %d\n", stats.TodayPending)
		fmt.Printf("  today executed: %d\n", stats.TodayExecuted)
		fmt.Printf("  today failed:   %d\n\n", stats.TodayFailed)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(statsCmd)
}
