package commands

import (
	"fmt"

	"github.com/benvon/task-notifier/internal/models"
	"github.com/benvon/task-notifier/internal/validation"
	"github.com/spf13/cobra"
)

type searchFlags struct {
	text   string
	status string
	debug  bool
}

func (f *searchFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVar(&f.text, "text", "", "Match title or description (case-insensitive)")
	cmd.Flags().StringVar(&f.status, "status", "", "Filter: all, pending, in_progress or overdue")
	cmd.Flags().BoolVar(&f.debug, "debug", false, "Enable debug logging")
}

// NewSearchCmd creates the search command
func NewSearchCmd() *cobra.Command {
	var flags searchFlags

	cmd := &cobra.Command{
		Use:   "search",
		Short: "Search tasks",
		Long:  "List up to 50 tasks ordered by due date, undated tasks last",
		RunE: func(cmd *cobra.Command, args []string) error {
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
			printTasks(cmd.OutOrStdout(), tasks)
			return nil
		},
	}

	flags.register(cmd)
	return cmd
}
