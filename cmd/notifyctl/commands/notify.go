package commands

import (
	"fmt"

	"github.com/benvon/task-notifier/internal/models"
	"github.com/benvon/task-notifier/internal/validation"
	"github.com/spf13/cobra"
)

// NewNotifyCmd creates the notify command
func NewNotifyCmd() *cobra.Command {
	var flags searchFlags

	cmd := &cobra.Command{
		Use:   "notify",
		Short: "Announce matching tasks now",
		Long:  "Search tasks and announce every result, including tasks announced before",
		RunE: func(cmd *cobra.Command, args []string) error {
			if flags.text == "" && flags.status == "" {
				return fmt.Errorf("--text or --status is required")
			}
			if err := validation.ValidateSearchFilter(flags.status); err != nil {
				return err
			}

			a, err := newApp(flags.debug)
			if err != nil {
				return err
			}
			defer a.close()

			tasks, err := a.scheduler.SearchTasks(cmd.Context(), flags.text, models.SearchFilter(flags.status))
			if err != nil {
				return fmt.Errorf("search tasks: %w", err)
			}
			if len(tasks) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "No tasks found")
				return nil
			}

			report := a.scheduler.NotifyTasks(cmd.Context(), tasks)
			printReport(cmd.OutOrStdout(), report)
			return nil
		},
	}

	flags.register(cmd)
	return cmd
}
