package main

import (
	"fmt"
	"os"

	"github.com/benvon/task-notifier/cmd/notifyctl/commands"
	"github.com/spf13/cobra"
)

func main() {
	var rootCmd = &cobra.Command{
		Use:   "notifyctl",
		Short: "Operator tool for the task notifier",
		Long:  "Run notification cycles, search tasks and test the speech backend without the daemon",
	}

	rootCmd.AddCommand(commands.NewCheckCmd())
	rootCmd.AddCommand(commands.NewSearchCmd())
	rootCmd.AddCommand(commands.NewNotifyCmd())
	rootCmd.AddCommand(commands.NewSayCmd())
	rootCmd.AddCommand(commands.NewPingCmd())
	rootCmd.AddCommand(commands.NewWatchCmd())

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
