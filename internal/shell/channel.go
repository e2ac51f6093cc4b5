// Package shell carries engine state updates to whatever front end renders them.
// The engine posts from its own goroutine and never blocks on the renderer.
package shell

import (
	"sync"
	"time"

	"github.com/benvon/task-notifier/internal/models"
)

// DefaultBuffer is the number of updates queued before the oldest is dropped
const DefaultBuffer = 32

// Channel is a buffered, non-blocking state update channel with a latest-state snapshot
type Channel struct {
	mu      sync.RWMutex
	updates chan models.StateUpdate
	latest  models.StateUpdate
}

// NewChannel creates a channel holding up to buffer pending updates
func NewChannel(buffer int) *Channel {
	if buffer <= 0 {
		buffer = DefaultBuffer
	}
	return &Channel{
		updates: make(chan models.StateUpdate, buffer),
		latest: models.StateUpdate{
			Phase: models.PhaseIdle,
			Text:  "Iniciando...",
			At:    time.Now(),
		},
	}
}

// UpdateState records the update as the latest state and queues it for the renderer.
// When the queue is full the oldest pending update is dropped.
func (c *Channel) UpdateState(update models.StateUpdate) {
	if update.At.IsZero() {
		update.At = time.Now()
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	c.latest = update

	select {
	case c.updates <- update:
		return
	default:
	}

	select {
	case <-c.updates:
	default:
	}

	select {
	case c.updates <- update:
	default:
	}
}

// Updates returns the receive side consumed by the renderer
func (c *Channel) Updates() <-chan models.StateUpdate {
	return c.updates
}

// Latest returns the most recently posted state
func (c *Channel) Latest() models.StateUpdate {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.latest
}
