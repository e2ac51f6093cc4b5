package database

import (
	"context"

	"github.com/benvon/task-notifier/internal/models"
)

// TaskRepositoryInterface defines the read operations the notifier needs from the task store.
// This interface enables better testability by allowing mock implementations
type TaskRepositoryInterface interface {
	FetchDueCandidates(ctx context.Context, window models.NotificationWindow) ([]*models.Task, error)
	SearchTasks(ctx context.Context, search models.TaskSearch) ([]*models.Task, error)
}

// ConnectionInterface defines the store connection lifecycle used by the scheduler and health checks
type ConnectionInterface interface {
	PingContext(ctx context.Context) error
	Reconnect(ctx context.Context) error
}

// Ensure concrete types implement the interfaces
var (
	_ TaskRepositoryInterface = (*TaskRepository)(nil)
	_ ConnectionInterface     = (*DB)(nil)
)
