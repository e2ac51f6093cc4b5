package commands

import (
	"context"
	"fmt"
	"io"
	"os/signal"
	"syscall"

	"github.com/benvon/task-notifier/internal/config"
	"github.com/benvon/task-notifier/internal/queue"
	"github.com/spf13/cobra"
)

// NewWatchCmd creates the watch command
func NewWatchCmd() *cobra.Command {
	var pattern string

	cmd := &cobra.Command{
		Use:   "watch",
		Short: "Stream notifier events from RabbitMQ",
		Long:  "Print announcements and state changes published by a running notifier",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load()
			if err != nil {
				return fmt.Errorf("load config: %w", err)
			}
			if cfg.RabbitMQURL == "" {
				return fmt.Errorf("RABBITMQ_URL is not set")
			}

			broker, err := queue.NewRabbitMQPublisher(cfg.RabbitMQURL)
			if err != nil {
				return err
			}
			defer func() { _ = broker.Close() }()

			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			events, errs, err := broker.Subscribe(ctx, pattern)
			if err != nil {
				return err
			}
			return printEvents(ctx, cmd.OutOrStdout(), events, errs)
		},
	}

	cmd.Flags().StringVar(&pattern, "pattern", "notifier.#", "Routing key pattern to subscribe to")
	return cmd
}

func printEvents(ctx context.Context, w io.Writer, events <-chan *queue.Event, errs <-chan error) error {
	for {
		select {
		case <-ctx.Done():
			return nil
		case err, ok := <-errs:
			if !ok {
				errs = nil
				continue
			}
			fmt.Fprintf(w, "error: %v\n", err)
		case event, ok := <-events:
			if !ok {
				return nil
			}
			// State events carry a short TTL; a backlog replayed late is stale
			if event.IsExpired() {
				continue
			}
			fmt.Fprintln(w, formatEvent(event))
		}
	}
}

func formatEvent(e *queue.Event) string {
	stamp := e.CreatedAt.Local().Format("15:04:05")
	switch e.Type {
	case queue.EventTypeAnnouncement:
		forced := ""
		if e.Forced {
			forced = " (forced)"
		}
		return fmt.Sprintf("%s announce%s: %s", stamp, forced, e.Message)
	default:
		return fmt.Sprintf("%s %s: %s", stamp, e.Phase, e.Text)
	}
}
