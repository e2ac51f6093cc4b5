package commands

import (
	"github.com/spf13/cobra"
)

// NewCheckCmd creates the check command
func NewCheckCmd() *cobra.Command {
	var debug bool

	cmd := &cobra.Command{
		Use:   "check",
		Short: "Run one notification cycle",
		Long:  "Fetch due tasks and announce each one through the configured speech backend",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp(debug)
			if err != nil {
				return err
			}
			defer a.close()

			report := a.scheduler.CheckNow(cmd.Context())
			printReport(cmd.OutOrStdout(), report)
			return nil
		},
	}

	cmd.Flags().BoolVar(&debug, "debug", false, "Enable debug logging")
	return cmd
}
