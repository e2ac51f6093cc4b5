package middleware

import (
	"net/http"
	"time"
)

// DefaultRequestTimeout bounds a control API request. A manual check speaks
// every due task before answering, so it is generous.
const DefaultRequestTimeout = 2 * time.Minute

// Timeout answers 503 when a handler runs longer than timeout
func Timeout(timeout time.Duration) func(http.Handler) http.Handler {
	if timeout <= 0 {
		timeout = DefaultRequestTimeout
	}

	return func(next http.Handler) http.Handler {
		return http.TimeoutHandler(next, timeout, `{"success":false,"error":"Service Unavailable","message":"request timed out"}`)
	}
}
