package cli

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/hourjungle/billingcore/internal/reminders/domain"
)

var (
	tasksStatus   string
	tasksType     string
	tasksCustomer string
	tasksLimit    int
)

var tasksCmd = &cobra.Command{
	Use:   "tasks",
	Short: "Manage reminder tasks",
}

var tasksListCmd = &cobra.Command{
	Use:   "list",
	Short: "List reminder tasks",
	Long: `List reminder tasks, newest scheduled first.

Examples:
  hourjungle tasks list
  hourjungle tasks list --status pending
  hourjungle tasks list --type renewal_reminder --limit 10`,
	RunE: func(cmd *cobra.Command, args []string) error {
		if container == nil {
			return fmt.Errorf("tasks require a database connection")
		}

		filter := domain.ListFilter{Limit: tasksLimit}
		if tasksStatus != "" {
			status := domain.Status(tasksStatus)
			filter.Status = &status
		}
		if tasksType != "" {
			taskType := domain.TaskType(tasksType)
			if !taskType.IsValid() {
				return fmt.Errorf("invalid --type %q", tasksType)
			}
			filter.TaskType = &taskType
		}
		if tasksCustomer != "" {
			customerID, err := uuid.Parse(tasksCustomer)
			if err != nil {
				return fmt.Errorf("invalid --customer %q: %w", tasksCustomer, err)
			}
			filter.CustomerID = &customerID
		}

		tasks, err := container.TaskService.List(cmd.Context(), filter)
		if err != nil {
			return err
		}

		if len(tasks) == 0 {
			fmt.Println("No tasks found.")
			return nil
		}

		fmt.Printf("  %-36s %-17s %-12s %-10s %s\n", "ID", "Type", "Scheduled", "Status", "Customer")
		fmt.Println(strings.Repeat("-", 110))
		for _, t := range tasks {
			fmt.Printf("  %-36s %-17s %-12s %-10s %s\n",
				t.ID(),
				t.TaskType(),
				t.ScheduledOn().Format(time.DateOnly),
				t.Status(),
				t.CustomerID(),
			)
		}
		fmt.Printf("\n%d task(s)\n", len(tasks))
		return nil
	},
}

var tasksCancelCmd = &cobra.Command{
	Use:   "cancel <task-id>",
	Short: "Cancel a pending reminder task",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if container == nil {
			return fmt.Errorf("tasks require a database connection")
		}

		id, err := uuid.Parse(args[0])
		if err != nil {
			return fmt.Errorf("invalid task id %q: %w", args[0], err)
		}

		if err := container.TaskService.Cancel(cmd.Context(), id); err != nil {
			return err
		}

		fmt.Printf("Task %s cancelled.\n", id)
		return nil
	},
}

func init() {
	tasksListCmd.Flags().StringVar(&tasksStatus, "status", "", "filter by status (pending, executed, failed, cancelled)")
	tasksListCmd.Flags().StringVar(&tasksType, "type", "", "filter by type (payment_reminder, renewal_reminder)")
	tasksListCmd.Flags().StringVar(&tasksCustomer, "customer", "", "filter by customer id")
	tasksListCmd.Flags().IntVar(&tasksLimit, "limit", 50, "maximum tasks to list")

	tasksCmd.AddCommand(tasksListCmd)
	tasksCmd.AddCommand(tasksCancelCmd)
	rootCmd.AddCommand(tasksCmd)
}
