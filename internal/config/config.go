package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/benvon/task-notifier/internal/models"
	"github.com/benvon/task-notifier/internal/validation"
	"gopkg.in/yaml.v3"
)

const (
	DriverPostgres = "postgres"
	DriverSQLite   = "sqlite"
)

// ErrConfiguration is matched by every ConfigurationError
var ErrConfiguration = errors.New("configuration error")

// ConfigurationError reports a missing or malformed setting. It is fatal at startup.
type ConfigurationError struct {
	Key    string
	Reason string
}

func (e *ConfigurationError) Error() string {
	return fmt.Sprintf("configuration error: %s: %s", e.Key, e.Reason)
}

// Is lets errors.Is(err, ErrConfiguration) match
func (e *ConfigurationError) Is(target error) bool {
	return target == ErrConfiguration
}

// Config holds application configuration
type Config struct {
	DatabaseURL           string
	DatabaseDriver        string
	Settings              models.Settings
	SettingsFile          string
	SpeechBackend         string
	SpeechVoice           string
	HistorySize           int
	ControlAddr           string
	ControlAllowedOrigins string
	ControlRateLimit      string
	RedisURL              string
	RabbitMQURL           string
	DebugMode             bool
	OTELEnabled           bool
	OTELEndpoint          string
}

// Load loads configuration from environment variables
func Load() (*Config, error) {
	var errs []error

	cfg := &Config{
		DatabaseURL:           getEnv("DATABASE_URL", ""),
		DatabaseDriver:        strings.ToLower(getEnv("DATABASE_DRIVER", DriverPostgres)),
		SettingsFile:          getEnv("SETTINGS_FILE", ""),
		SpeechBackend:         strings.ToLower(getEnv("SPEECH_BACKEND", "auto")),
		SpeechVoice:           getEnv("SPEECH_VOICE", ""),
		ControlAddr:           os.Getenv("CONTROL_ADDR"),
		ControlAllowedOrigins: getEnv("CONTROL_ALLOWED_ORIGINS", "http://localhost:3000"),
		ControlRateLimit:      getEnv("CONTROL_RATE_LIMIT", "5-S"),
		RedisURL:              getEnv("REDIS_URL", ""),
		RabbitMQURL:           getEnv("RABBITMQ_URL", ""),
		DebugMode:             getEnvBool("NOTIFIER_DEBUG_MODE", false),
		OTELEnabled:           getEnvBool("OTEL_ENABLED", false),
		OTELEndpoint:          getEnv("OTEL_EXPORTER_OTLP_ENDPOINT", ""),
	}
	if _, set := os.LookupEnv("CONTROL_ADDR"); !set {
		cfg.ControlAddr = "127.0.0.1:8089"
	}

	defaults := models.DefaultSettings()
	cfg.Settings.PollIntervalSeconds = getEnvInt("CHECK_INTERVAL_SECONDS", defaults.PollIntervalSeconds, &errs)
	cfg.Settings.AlertLeadHours = getEnvInt("ALERT_HOURS_BEFORE", defaults.AlertLeadHours, &errs)
	cfg.Settings.Volume = getEnvFloat("ALERT_VOLUME", defaults.Volume, &errs)
	cfg.Settings.SpeechRate = getEnvInt("TTS_SPEED", defaults.SpeechRate, &errs)
	cfg.HistorySize = getEnvInt("HISTORY_SIZE", 100, &errs)

	if len(errs) > 0 {
		return nil, errors.Join(errs...)
	}

	if cfg.DatabaseURL == "" {
		return nil, &ConfigurationError{Key: "DATABASE_URL", Reason: "is required"}
	}

	switch cfg.DatabaseDriver {
	case DriverPostgres, DriverSQLite:
	default:
		return nil, &ConfigurationError{Key: "DATABASE_DRIVER", Reason: fmt.Sprintf("unsupported driver %q (must be 'postgres' or 'sqlite')", cfg.DatabaseDriver)}
	}

	if cfg.HistorySize <= 0 {
		return nil, &ConfigurationError{Key: "HISTORY_SIZE", Reason: "must be positive"}
	}

	if cfg.SettingsFile != "" {
		if err := cfg.loadSettingsFile(); err != nil {
			return nil, err
		}
	}

	if err := validation.Validate.Struct(cfg.Settings); err != nil {
		return nil, &ConfigurationError{Key: "settings", Reason: err.Error()}
	}

	return cfg, nil
}

// loadSettingsFile overlays the YAML settings file on top of the environment values.
// Keys missing from the file keep their current value.
func (c *Config) loadSettingsFile() error {
	data, err := os.ReadFile(c.SettingsFile)
	if err != nil {
		return &ConfigurationError{Key: "SETTINGS_FILE", Reason: err.Error()}
	}
	if err := yaml.Unmarshal(data, &c.Settings); err != nil {
		return &ConfigurationError{Key: "SETTINGS_FILE", Reason: fmt.Sprintf("invalid YAML: %v", err)}
	}
	return nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		return value == "true" || value == "1" || value == "yes"
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int, errs *[]error) int {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	intValue, err := strconv.Atoi(strings.TrimSpace(value))
	if err != nil {
		*errs = append(*errs, &ConfigurationError{Key: key, Reason: fmt.Sprintf("not an integer: %q", value)})
		return defaultValue
	}
	return intValue
}

func getEnvFloat(key string, defaultValue float64, errs *[]error) float64 {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	floatValue, err := strconv.ParseFloat(strings.TrimSpace(value), 64)
	if err != nil {
		*errs = append(*errs, &ConfigurationError{Key: key, Reason: fmt.Sprintf("not a number: %q", value)})
		return defaultValue
	}
	return floatValue
}
