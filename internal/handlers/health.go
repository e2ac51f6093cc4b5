package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"sort"
	"time"

	"github.com/benvon/task-notifier/internal/logger"
	"github.com/benvon/task-notifier/internal/request"
)

const healthCheckTimeout = 5 * time.Second

const (
	statusHealthy       = "healthy"
	statusUnhealthy     = "unhealthy"
	statusNotConfigured = "not configured"
)

// CheckFunc probes one dependency. A nil CheckFunc is reported as not configured.
type CheckFunc func(ctx context.Context) error

type namedCheck struct {
	name  string
	check CheckFunc
}

// HealthChecker handles health check requests
type HealthChecker struct {
	checks []namedCheck
}

// NewHealthChecker creates a health checker. The database check is always run
// in extended mode; further dependencies are added with AddCheck.
func NewHealthChecker(database CheckFunc) *HealthChecker {
	h := &HealthChecker{}
	h.AddCheck("database", database)
	return h
}

// AddCheck registers a dependency probe reported under name
func (h *HealthChecker) AddCheck(name string, check CheckFunc) {
	h.checks = append(h.checks, namedCheck{name: name, check: check})
	sort.SliceStable(h.checks, func(i, j int) bool { return h.checks[i].name < h.checks[j].name })
}

// HealthResponse represents the health check response
type HealthResponse struct {
	Status    string            `json:"status"`
	Timestamp string            `json:"timestamp"`
	Checks    map[string]string `json:"checks,omitempty"`
}

// HealthCheck handles the /healthz endpoint. Basic mode only reports that the
// process is serving; ?mode=extended probes every registered dependency.
func (h *HealthChecker) HealthCheck(w http.ResponseWriter, r *http.Request) {
	response := HealthResponse{
		Status:    statusHealthy,
		Timestamp: time.Now().UTC().Format(time.RFC3339),
	}

	statusCode := http.StatusOK
	if request.WantsExtended(r) {
		response.Checks = h.runChecks(r.Context())
		for _, result := range response.Checks {
			if result != statusHealthy && result != statusNotConfigured {
				response.Status = statusUnhealthy
				statusCode = http.StatusServiceUnavailable
				break
			}
		}
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	_ = json.NewEncoder(w).Encode(response)
}

func (h *HealthChecker) runChecks(ctx context.Context) map[string]string {
	ctx, cancel := context.WithTimeout(ctx, healthCheckTimeout)
	defer cancel()

	results := make(map[string]string, len(h.checks))
	for _, c := range h.checks {
		if c.check == nil {
			results[c.name] = statusNotConfigured
			continue
		}
		if err := c.check(ctx); err != nil {
			results[c.name] = statusUnhealthy + ": " + logger.SanitizeString(err.Error(), maxClientErrorLength)
			continue
		}
		results[c.name] = statusHealthy
	}
	return results
}
