package logger

import (
	"strings"
	"unicode"
	"unicode/utf8"
)

const (
	// MaxPathLength is the maximum length for URL paths in logs
	MaxPathLength = 500
	// MaxTitleLength is the maximum length for task titles in logs
	MaxTitleLength = 200
	// MaxErrorMessageLength is the maximum length for error messages in logs
	MaxErrorMessageLength = 1000
	// MaxGeneralStringLength is the maximum length for general strings in logs
	MaxGeneralStringLength = 2000
	// MaxSpokenMessageLength caps the text handed to a speech backend
	MaxSpokenMessageLength = 1000
)

// SanitizePath sanitizes a URL path for safe logging
func SanitizePath(path string) string {
	return SanitizeString(path, MaxPathLength)
}

// SanitizeTitle sanitizes a task title for safe logging
func SanitizeTitle(title string) string {
	return SanitizeString(title, MaxTitleLength)
}

// SanitizeString sanitizes a general string for safe logging
// Removes control characters, truncates to maxLength, and validates UTF-8
func SanitizeString(s string, maxLength int) string {
	if s == "" {
		return ""
	}
	if maxLength <= 0 {
		maxLength = MaxGeneralStringLength
	}
	s = sanitizeFilterRunes(s, true)
	return truncate(s, maxLength)
}

// SanitizeSpoken prepares text for a speech backend. Line breaks become spaces since
// every backend reads a single utterance, and the result is never empty-padded.
func SanitizeSpoken(s string) string {
	s = sanitizeFilterRunes(s, false)
	s = strings.Join(strings.Fields(s), " ")
	return truncate(s, MaxSpokenMessageLength)
}

// sanitizeFilterRunes validates UTF-8 and removes control characters.
// keepWhitespace keeps tab, newline and CR; otherwise they become spaces.
func sanitizeFilterRunes(s string, keepWhitespace bool) string {
	if !utf8.ValidString(s) {
		s = strings.ToValidUTF8(s, "")
	}
	var builder strings.Builder
	builder.Grow(len(s))
	for _, r := range s {
		switch {
		case r == '\t' || r == '\n' || r == '\r':
			if keepWhitespace {
				builder.WriteRune(r)
			} else {
				builder.WriteRune(' ')
			}
		case unicode.IsPrint(r) || r == ' ':
			builder.WriteRune(r)
		}
	}
	return builder.String()
}

// truncate cuts s to at most maxLength bytes without splitting a rune
func truncate(s string, maxLength int) string {
	if len(s) <= maxLength {
		return s
	}
	cut := maxLength
	for cut > 0 && !utf8.RuneStart(s[cut]) {
		cut--
	}
	return s[:cut] + "..."
}

// SanitizeError sanitizes an error message for safe logging
func SanitizeError(err error) string {
	if err == nil {
		return ""
	}
	return SanitizeString(err.Error(), MaxErrorMessageLength)
}
