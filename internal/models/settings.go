package models

import "time"

const (
	DefaultPollIntervalSeconds = 180
	DefaultAlertLeadHours      = 24
	DefaultVolume              = 1.0
	DefaultSpeechRate          = 175
)

// Settings are the live-tunable notifier parameters
type Settings struct {
	PollIntervalSeconds int     `json:"check_interval" yaml:"check_interval" validate:"gte=1,lte=86400"`
	AlertLeadHours      int     `json:"alert_hours" yaml:"alert_hours" validate:"gte=0,lte=8760"`
	Volume              float64 `json:"volume" yaml:"volume" validate:"gte=0,lte=1"`
	SpeechRate          int     `json:"speed" yaml:"speed" validate:"gte=50,lte=500"`
}

// DefaultSettings returns the settings used when nothing is configured
func DefaultSettings() Settings {
	return Settings{
		PollIntervalSeconds: DefaultPollIntervalSeconds,
		AlertLeadHours:      DefaultAlertLeadHours,
		Volume:              DefaultVolume,
		SpeechRate:          DefaultSpeechRate,
	}
}

// PollInterval returns the poll interval as a duration
func (s Settings) PollInterval() time.Duration {
	return time.Duration(s.PollIntervalSeconds) * time.Second
}
