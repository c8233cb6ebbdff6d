package cli

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"
)

var dispatchLimit int

var dispatchCmd = &cobra.Command{
	Use:   "dispatch",
	Short: "Deliver due reminder tasks over the messaging channel",
	RunE: func(cmd *cobra.Command, args []string) error {
		if container == nil {
			return fmt.Errorf("dispatch requires a database connection")
		}

		result, err := container.Dispatcher.DispatchDue(cmd.Context(), time.Now().UTC(), dispatchLimit)
		if err != nil {
			return err
		}

		fmt.Printf("Dispatch completed\n")
		fmt.Printf("  sent:   %d\n", result.Sent)
		fmt.Printf("  failed: %d\n", result.Failed)
		return nil
	},
}

func init() {
	dispatchCmd.Flags().IntVar(&dispatchLimit, "limit", 100, "maximum tasks to dispatch in one run")
	rootCmd.AddCommand(dispatchCmd)
}
