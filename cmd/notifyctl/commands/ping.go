package commands

import (
	"context"
	"fmt"
	"time"

	"github.com/benvon/task-notifier/internal/config"
	"github.com/benvon/task-notifier/internal/database"
	"github.com/spf13/cobra"
)

// NewPingCmd creates the ping command
func NewPingCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "ping",
		Short: "Check task store connectivity",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load()
			if err != nil {
				return fmt.Errorf("load config: %w", err)
			}

			start := time.Now()
			db, err := database.New(cfg.DatabaseDriver, cfg.DatabaseURL)
			if err != nil {
				return fmt.Errorf("connect to database: %w", err)
			}
			defer func() { _ = db.Close() }()

			ctx, cancel := context.WithTimeout(cmd.Context(), 5*time.Second)
			defer cancel()
			if err := db.PingContext(ctx); err != nil {
				return fmt.Errorf("ping database: %w", err)
			}

			fmt.Fprintf(cmd.OutOrStdout(), "✓ %s store reachable (%s)\n", db.Driver(), time.Since(start).Round(time.Millisecond))
			return nil
		},
	}
}
