// Package duetime classifies tasks against the current instant and renders
// the relative time phrases used in spoken announcements.
package duetime

import (
	"fmt"
	"time"

	"github.com/benvon/task-notifier/internal/models"
)

const day = 24 * time.Hour

// Kind is the result of classifying a task's due date
type Kind int

const (
	Upcoming Kind = iota
	Overdue
)

func (k Kind) String() string {
	if k == Overdue {
		return "overdue"
	}
	return "upcoming"
}

// Classification is the tagged result of Classify. Delta is the elapsed time
// for overdue tasks and the remaining time for upcoming ones; it is never negative.
type Classification struct {
	Kind  Kind
	Delta time.Duration
}

// Phrase renders Delta as a relative time phrase
func (c Classification) Phrase() string {
	return Phrase(c.Delta)
}

// Classify reports whether the task is overdue at now. A task due exactly at
// now is upcoming. Tasks without a due date classify as upcoming with no delta.
func Classify(task *models.Task, now time.Time) Classification {
	if task == nil || task.DueDate == nil {
		return Classification{Kind: Upcoming}
	}

	due := task.DueDate.UTC()
	now = now.UTC()

	if due.Before(now) {
		return Classification{Kind: Overdue, Delta: now.Sub(due)}
	}
	return Classification{Kind: Upcoming, Delta: due.Sub(now)}
}

// Phrase renders a duration in whole days when it spans at least one day and
// in whole hours otherwise. Both are floored, so anything under an hour is "0 horas".
func Phrase(d time.Duration) string {
	if d < 0 {
		d = -d
	}
	if d >= day {
		return plural(int(d/day), "día", "días")
	}
	return plural(int(d/time.Hour), "hora", "horas")
}

func plural(n int, one, many string) string {
	if n == 1 {
		return fmt.Sprintf("%d %s", n, one)
	}
	return fmt.Sprintf("%d %s", n, many)
}
