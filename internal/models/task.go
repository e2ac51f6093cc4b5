package models

import (
	"strings"
	"time"
)

// TaskStatus represents the workflow status of a task in the store
type TaskStatus string

const (
	TaskStatusPending    TaskStatus = "pending"
	TaskStatusInProgress TaskStatus = "in_progress"
	TaskStatusCompleted  TaskStatus = "completed"
	TaskStatusCancelled  TaskStatus = "cancelled"
)

// IsOpen reports whether the task still needs attention (pending or in progress)
func (s TaskStatus) IsOpen() bool {
	return s == TaskStatusPending || s == TaskStatusInProgress
}

// Priority represents how urgent a task is
type Priority string

const (
	PriorityNormal Priority = "normal"
	PriorityHigh   Priority = "high"
	PriorityUrgent Priority = "urgent"
)

// NormalizePriority maps stored priority values onto the known set.
// Anything unrecognized is treated as normal.
func NormalizePriority(value string) Priority {
	switch Priority(strings.ToLower(strings.TrimSpace(value))) {
	case PriorityUrgent:
		return PriorityUrgent
	case PriorityHigh:
		return PriorityHigh
	default:
		return PriorityNormal
	}
}

// Task is a task record read from the task store. The notifier never writes it.
type Task struct {
	ID          string     `json:"id" validate:"required,max=128"`
	Title       string     `json:"title" validate:"max=1000"`
	Description string     `json:"description,omitempty"`
	DueDate     *time.Time `json:"due_date,omitempty"`
	Status      TaskStatus `json:"status"`
	Priority    Priority   `json:"priority" validate:"priority"`
}

// SearchFilter narrows a task search by status
type SearchFilter string

const (
	SearchFilterAll        SearchFilter = "all"
	SearchFilterPending    SearchFilter = "pending"
	SearchFilterInProgress SearchFilter = "in_progress"
	SearchFilterOverdue    SearchFilter = "overdue"
)

// TaskSearch holds the parameters of a task search. Now is only used by the overdue filter.
type TaskSearch struct {
	Text   string
	Filter SearchFilter
	Now    time.Time
}

// NotificationWindow is the look-ahead window of a single poll
type NotificationWindow struct {
	Now     time.Time
	Horizon time.Time
}

// NewNotificationWindow builds the window [now, now+leadHours]
func NewNotificationWindow(now time.Time, leadHours int) NotificationWindow {
	now = now.UTC()
	return NotificationWindow{
		Now:     now,
		Horizon: now.Add(time.Duration(leadHours) * time.Hour),
	}
}
