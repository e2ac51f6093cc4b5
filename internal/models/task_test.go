package models

import (
	"testing"
	"time"
)

func TestTaskStatus_IsOpen(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name  string
		value TaskStatus
		open  bool
	}{
		{"pending", TaskStatusPending, true},
		{"in_progress", TaskStatusInProgress, true},
		{"completed", TaskStatusCompleted, false},
		{"cancelled", TaskStatusCancelled, false},
		{"unknown", TaskStatus("archived"), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			if got := tt.value.IsOpen(); got != tt.open {
				t.Errorf("IsOpen(%s) = %v, expected %v", tt.value, got, tt.open)
			}
		})
	}
}

func TestNormalizePriority(t *testing.T) {
	t.Parallel()

	tests := []struct {
		value    string
		expected Priority
	}{
		{"urgent", PriorityUrgent},
		{"URGENT", PriorityUrgent},
		{" high ", PriorityHigh},
		{"normal", PriorityNormal},
		{"low", PriorityNormal},
		{"", PriorityNormal},
	}

	for _, tt := range tests {
		t.Run(tt.value, func(t *testing.T) {
			t.Parallel()
			if got := NormalizePriority(tt.value); got != tt.expected {
				t.Errorf("NormalizePriority(%q) = %s, expected %s", tt.value, got, tt.expected)
			}
		})
	}
}

func TestNewNotificationWindow(t *testing.T) {
	t.Parallel()

	loc := time.FixedZone("UTC-5", -5*60*60)
	now := time.Date(2024, 3, 10, 9, 0, 0, 0, loc)

	window := NewNotificationWindow(now, 24)

	if window.Now.Location() != time.UTC {
		t.Errorf("Expected window.Now in UTC, got %v", window.Now.Location())
	}
	if !window.Now.Equal(now) {
		t.Errorf("Expected window.Now %v, got %v", now, window.Now)
	}
	if got := window.Horizon.Sub(window.Now); got != 24*time.Hour {
		t.Errorf("Expected horizon 24h after now, got %v", got)
	}
}

func TestSettings_Defaults(t *testing.T) {
	t.Parallel()

	s := DefaultSettings()
	if s.PollInterval() != 3*time.Minute {
		t.Errorf("Expected 3m poll interval, got %v", s.PollInterval())
	}
	if s.AlertLeadHours != 24 || s.Volume != 1.0 || s.SpeechRate != 175 {
		t.Errorf("Unexpected defaults: %+v", s)
	}
}

func TestHistoryEntry_String(t *testing.T) {
	t.Parallel()

	ts := time.Date(2024, 3, 10, 9, 30, 0, 0, time.Local)
	entry := HistoryEntry{Timestamp: ts, Title: "Pagar"}

	if got := entry.String(); got != "[2024-03-10 09:30:00] Pagar" {
		t.Errorf("Unexpected history string: %q", got)
	}
}
