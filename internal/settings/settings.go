// Package settings holds the live-tunable notifier parameters
package settings

import (
	"sync"
	"time"

	"github.com/benvon/task-notifier/internal/models"
	"github.com/benvon/task-notifier/internal/validation"
)

// Store is read on every poll and every utterance, so updates apply immediately.
// Nothing is written back to disk.
type Store struct {
	mu      sync.RWMutex
	current models.Settings
}

// NewStore creates a store holding the given initial settings
func NewStore(initial models.Settings) *Store {
	return &Store{current: initial}
}

// Get returns the current settings
func (s *Store) Get() models.Settings {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.current
}

// Update replaces the settings. Invalid values are rejected and the current
// settings stay in place.
func (s *Store) Update(next models.Settings) error {
	if err := validation.ValidateSettings(next); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.current = next
	return nil
}

// Interval returns the current poll interval
func (s *Store) Interval() time.Duration {
	return s.Get().PollInterval()
}

// LeadHours returns the current alert lead time in hours
func (s *Store) LeadHours() int {
	return s.Get().AlertLeadHours
}
