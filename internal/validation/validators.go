package validation

import (
	"fmt"
	"strings"
	"unicode"

	"github.com/benvon/task-notifier/internal/models"
	"github.com/go-playground/validator/v10"
)

var (
	// Validate is a shared validator instance
	Validate *validator.Validate
)

func init() {
	Validate = validator.New()

	// Register custom validators for enums
	if err := Validate.RegisterValidation("search_filter", validateSearchFilter); err != nil {
		panic(fmt.Sprintf("failed to register search_filter validator: %v", err))
	}
	if err := Validate.RegisterValidation("priority", validatePriority); err != nil {
		panic(fmt.Sprintf("failed to register priority validator: %v", err))
	}
}

// validateSearchFilter validates that a string is a valid SearchFilter enum value
func validateSearchFilter(fl validator.FieldLevel) bool {
	return ValidateSearchFilter(fl.Field().String()) == nil
}

// validatePriority validates that a string is a valid Priority enum value
func validatePriority(fl validator.FieldLevel) bool {
	switch models.Priority(fl.Field().String()) {
	case "", models.PriorityNormal, models.PriorityHigh, models.PriorityUrgent:
		return true
	default:
		return false
	}
}

// SanitizeText sanitizes text input by trimming whitespace and removing control characters
func SanitizeText(text string) string {
	// Trim whitespace
	text = strings.TrimSpace(text)

	// Remove control characters except newline and tab
	var sanitized strings.Builder
	for _, r := range text {
		if unicode.IsControl(r) && r != '\n' && r != '\t' {
			continue
		}
		sanitized.WriteRune(r)
	}

	return sanitized.String()
}

// ValidateSearchFilter validates a search filter string. The empty string means no filter.
func ValidateSearchFilter(value string) error {
	switch models.SearchFilter(value) {
	case "", models.SearchFilterAll, models.SearchFilterPending, models.SearchFilterInProgress, models.SearchFilterOverdue:
		return nil
	default:
		return fmt.Errorf("invalid status filter: %s (must be 'all', 'pending', 'in_progress', or 'overdue')", value)
	}
}

// ValidateSettings validates a settings record and returns a readable error
func ValidateSettings(s models.Settings) error {
	if err := Validate.Struct(s); err != nil {
		return fmt.Errorf("invalid settings: %w", err)
	}
	return nil
}
