package shell

import (
	"context"
	"fmt"

	"github.com/benvon/task-notifier/internal/logger"
	"github.com/benvon/task-notifier/internal/models"
	"github.com/benvon/task-notifier/internal/queue"
	"go.uber.org/zap"
)

// Handler renders one state update. Handlers run on the renderer goroutine.
type Handler func(ctx context.Context, update models.StateUpdate)

// Renderer consumes state updates on its own goroutine
type Renderer struct {
	channel  *Channel
	handlers []Handler
}

// NewRenderer creates a renderer dispatching every update to the handlers in order
func NewRenderer(channel *Channel, handlers ...Handler) *Renderer {
	return &Renderer{channel: channel, handlers: handlers}
}

// Start renders updates until ctx is cancelled
func (r *Renderer) Start(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case update := <-r.channel.Updates():
			for _, h := range r.handlers {
				h(ctx, update)
			}
		}
	}
}

// ConsoleHandler logs each update as a status line
func ConsoleHandler(log *zap.Logger) Handler {
	return func(_ context.Context, update models.StateUpdate) {
		log.Info("status",
			zap.String("phase", string(update.Phase)),
			zap.String("status_line", StatusLine(update)),
			zap.Int("count", update.Count),
		)
	}
}

// PublishHandler forwards each update as a state change event
func PublishHandler(publisher queue.EventPublisher, log *zap.Logger) Handler {
	return func(ctx context.Context, update models.StateUpdate) {
		if err := publisher.Publish(ctx, queue.NewStateEvent(update)); err != nil {
			log.Warn("state_event_publish_failed",
				zap.String("phase", string(update.Phase)),
				zap.String("error", logger.SanitizeError(err)),
			)
		}
	}
}

// StatusLine renders an update the way the tray tooltip shows it
func StatusLine(update models.StateUpdate) string {
	return fmt.Sprintf("[%s] %s", update.Phase, update.Text)
}
