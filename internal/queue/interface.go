package queue

import (
	"context"
)

// EventPublisher publishes notifier events to interested listeners.
// This enables better testability by allowing mock implementations
type EventPublisher interface {
	// Publish sends an event. Implementations must not block on slow consumers.
	Publish(ctx context.Context, event *Event) error

	// Close releases the publisher's connection
	Close() error

	// HealthCheck verifies the publisher connection is healthy
	HealthCheck(ctx context.Context) error
}

// EventSubscriber delivers published events
type EventSubscriber interface {
	// Subscribe returns a channel of events matching the routing pattern.
	// Both channels are closed when ctx is cancelled or the connection drops.
	Subscribe(ctx context.Context, pattern string) (<-chan *Event, <-chan error, error)
}

// Ensure concrete types implement the interfaces
var (
	_ EventPublisher  = (*RabbitMQPublisher)(nil)
	_ EventSubscriber = (*RabbitMQPublisher)(nil)
	_ EventPublisher  = (*NoopPublisher)(nil)
)
