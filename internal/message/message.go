package message

import (
	"fmt"
	"time"

	"github.com/benvon/task-notifier/internal/duetime"
	"github.com/benvon/task-notifier/internal/models"
)

const (
	prefixUrgent    = "URGENTE: "
	prefixImportant = "IMPORTANTE: "
)

// UrgencyPrefix returns the prefix spoken before overdue announcements
func UrgencyPrefix(priority models.Priority) string {
	switch priority {
	case models.PriorityUrgent:
		return prefixUrgent
	case models.PriorityHigh:
		return prefixImportant
	default:
		return ""
	}
}

// Compose builds the single-line announcement for a classified task.
// Only overdue announcements carry the urgency prefix.
func Compose(task *models.Task, c duetime.Classification) string {
	if c.Kind == duetime.Overdue {
		return fmt.Sprintf("%sLa tarea '%s' venció hace %s.", UrgencyPrefix(task.Priority), task.Title, c.Phrase())
	}
	return fmt.Sprintf("Recordatorio: La tarea '%s' vence en %s.", task.Title, c.Phrase())
}

// ForTask classifies the task at now and composes its announcement
func ForTask(task *models.Task, now time.Time) string {
	return Compose(task, duetime.Classify(task, now))
}
