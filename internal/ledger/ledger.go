// Package ledger keeps the in-memory record of announced tasks and the rolling
// announcement history. Nothing here survives a restart.
package ledger

import (
	"sync"

	"github.com/benvon/task-notifier/internal/models"
)

// DefaultCapacity is the number of history entries kept when none is configured
const DefaultCapacity = 100

// Ledger is safe for concurrent use by the scheduler and the shell
type Ledger struct {
	mu       sync.RWMutex
	notified map[string]struct{}
	history  []models.HistoryEntry
	capacity int
}

// New creates an empty ledger keeping at most capacity history entries
func New(capacity int) *Ledger {
	if capacity <= 0 {
		capacity = DefaultCapacity
	}
	return &Ledger{
		notified: make(map[string]struct{}),
		history:  make([]models.HistoryEntry, 0, capacity),
		capacity: capacity,
	}
}

// HasBeenNotified reports whether the task was already announced
func (l *Ledger) HasBeenNotified(id string) bool {
	l.mu.RLock()
	defer l.mu.RUnlock()
	_, ok := l.notified[id]
	return ok
}

// MarkNotified adds the task to the notified set. Marking twice is a no-op.
func (l *Ledger) MarkNotified(id string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.notified[id] = struct{}{}
}

// RecordHistory appends an entry and drops the oldest ones beyond capacity
func (l *Ledger) RecordHistory(entry models.HistoryEntry) {
	l.mu.Lock()
	defer l.mu.Unlock()

	l.history = append(l.history, entry)
	if over := len(l.history) - l.capacity; over > 0 {
		kept := make([]models.HistoryEntry, l.capacity)
		copy(kept, l.history[over:])
		l.history = kept
	}
}

// History returns a copy of the history, oldest first
func (l *Ledger) History() []models.HistoryEntry {
	l.mu.RLock()
	defer l.mu.RUnlock()

	out := make([]models.HistoryEntry, len(l.history))
	copy(out, l.history)
	return out
}

// HistoryStrings renders the history for display, oldest first
func (l *Ledger) HistoryStrings() []string {
	entries := l.History()
	out := make([]string, len(entries))
	for i, e := range entries {
		out[i] = e.String()
	}
	return out
}

// NotifiedCount returns the size of the notified set
func (l *Ledger) NotifiedCount() int {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return len(l.notified)
}

// Capacity returns the history capacity
func (l *Ledger) Capacity() int {
	return l.capacity
}
