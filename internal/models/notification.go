package models

import (
	"fmt"
	"time"
)

// HistoryTimeLayout is the timestamp layout used when rendering history entries
const HistoryTimeLayout = "2006-01-02 15:04:05"

// HistoryEntry records one successful announcement
type HistoryEntry struct {
	Timestamp time.Time `json:"timestamp"`
	Title     string    `json:"title"`
}

func (e HistoryEntry) String() string {
	return fmt.Sprintf("[%s] %s", e.Timestamp.Local().Format(HistoryTimeLayout), e.Title)
}

// Phase is the externally visible state of the notifier
type Phase string

const (
	PhaseChecking Phase = "checking"
	PhaseAlerting Phase = "alert"
	PhaseIdle     Phase = "active"
)

// StateUpdate is posted to the shell on every phase transition
type StateUpdate struct {
	Phase Phase     `json:"phase"`
	Text  string    `json:"text"`
	Count int       `json:"count"`
	At    time.Time `json:"at"`
}

// CycleReport summarizes a single check or manual notify run
type CycleReport struct {
	Candidates       int  `json:"candidates"`
	Announced        int  `json:"announced"`
	Skipped          int  `json:"skipped"`
	Failed           int  `json:"failed"`
	Forced           bool `json:"forced"`
	StoreUnavailable bool `json:"store_unavailable"`
}
