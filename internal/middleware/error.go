package middleware

import (
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	logpkg "github.com/benvon/task-notifier/internal/logger"
	"github.com/gorilla/mux"
	"go.uber.org/zap"
)

const (
	panicMessage   = "The notifier could not handle the request"
	maxPanicLength = 200
)

// ErrorResponse is the failure envelope written by the middleware chain. It
// mirrors the handlers' envelope with the request path added.
type ErrorResponse struct {
	Success   bool   `json:"success"`
	Error     string `json:"error"`
	Message   string `json:"message"`
	Path      string `json:"path"`
	Timestamp string `json:"timestamp"`
}

// ErrorHandler turns a panicking control handler into a JSON 500. The
// scheduler goroutine is unaffected; only the request fails.
func ErrorHandler(logger *zap.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			defer func() {
				recovered := recover()
				if recovered == nil {
					return
				}
				if recovered == http.ErrAbortHandler {
					panic(recovered)
				}

				logger.Error("control_handler_panicked",
					zap.String("panic", logpkg.SanitizeString(fmt.Sprint(recovered), maxPanicLength)),
					zap.String("route", routeTemplate(r)),
					zap.String("method", r.Method),
					zap.Stack("stack"),
				)
				respondErrorJSON(w, r, http.StatusInternalServerError, "Internal Server Error", panicMessage, logger)
			}()

			next.ServeHTTP(w, r)
		})
	}
}

// routeTemplate names the matched control route, falling back to the raw path
func routeTemplate(r *http.Request) string {
	if route := mux.CurrentRoute(r); route != nil {
		if tpl, err := route.GetPathTemplate(); err == nil {
			return tpl
		}
	}
	return logpkg.SanitizePath(r.URL.Path)
}

func respondErrorJSON(w http.ResponseWriter, r *http.Request, status int, errorType, message string, logger *zap.Logger) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	err := json.NewEncoder(w).Encode(ErrorResponse{
		Error:     errorType,
		Message:   message,
		Path:      logpkg.SanitizePath(r.URL.Path),
		Timestamp: time.Now().UTC().Format(time.RFC3339),
	})
	if err != nil {
		logger.Warn("error_response_encode_failed",
			zap.Int("status_code", status),
			zap.String("route", routeTemplate(r)),
			zap.String("error", logpkg.SanitizeError(err)),
		)
	}
}
