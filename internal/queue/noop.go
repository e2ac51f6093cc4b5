package queue

import "context"

// NoopPublisher drops every event. It is used when no broker is configured.
type NoopPublisher struct{}

// NewNoopPublisher creates a publisher that discards events
func NewNoopPublisher() *NoopPublisher {
	return &NoopPublisher{}
}

func (p *NoopPublisher) Publish(_ context.Context, _ *Event) error { return nil }
func (p *NoopPublisher) Close() error                              { return nil }
func (p *NoopPublisher) HealthCheck(_ context.Context) error       { return nil }
