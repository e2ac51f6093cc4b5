package queue

import (
	"time"

	"github.com/benvon/task-notifier/internal/models"
	"github.com/google/uuid"
)

// EventType represents the type of event
type EventType string

const (
	// EventTypeAnnouncement is published after a task was spoken successfully
	EventTypeAnnouncement EventType = "announcement"
	// EventTypeStateChange is published on every notifier phase transition
	EventTypeStateChange EventType = "state_change"
)

// stateEventTTL bounds how long a state change stays useful to late consumers
const stateEventTTL = time.Minute

// Event is a notifier event as published on the wire
type Event struct {
	ID        uuid.UUID       `json:"id"`
	Type      EventType       `json:"type"`
	TaskID    string          `json:"task_id,omitempty"`
	Title     string          `json:"title,omitempty"`
	Message   string          `json:"message,omitempty"`
	Priority  models.Priority `json:"priority,omitempty"`
	Forced    bool            `json:"forced,omitempty"`
	Phase     models.Phase    `json:"phase,omitempty"`
	Text      string          `json:"text,omitempty"`
	Count     int             `json:"count,omitempty"`
	NotAfter  *time.Time      `json:"not_after,omitempty"` // Latest time the event is relevant (nil = no expiration)
	CreatedAt time.Time       `json:"created_at"`
}

// NewAnnouncementEvent creates the event published after a task was spoken
func NewAnnouncementEvent(task *models.Task, message string, forced bool) *Event {
	return &Event{
		ID:        uuid.New(),
		Type:      EventTypeAnnouncement,
		TaskID:    task.ID,
		Title:     task.Title,
		Message:   message,
		Priority:  task.Priority,
		Forced:    forced,
		CreatedAt: time.Now(),
	}
}

// NewStateEvent creates the event published for a phase transition
func NewStateEvent(update models.StateUpdate) *Event {
	createdAt := update.At
	if createdAt.IsZero() {
		createdAt = time.Now()
	}
	notAfter := createdAt.Add(stateEventTTL)
	return &Event{
		ID:        uuid.New(),
		Type:      EventTypeStateChange,
		Phase:     update.Phase,
		Text:      update.Text,
		Count:     update.Count,
		NotAfter:  &notAfter,
		CreatedAt: createdAt,
	}
}

// RoutingKey returns the key the event is published under
func (e *Event) RoutingKey() string {
	return "notifier." + string(e.Type)
}

// IsExpired checks if the event is no longer relevant
func (e *Event) IsExpired() bool {
	if e.NotAfter == nil {
		return false
	}
	return time.Now().After(*e.NotAfter)
}
