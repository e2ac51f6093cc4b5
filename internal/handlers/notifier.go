package handlers

import (
	"context"
	"errors"
	"net/http"

	"github.com/benvon/task-notifier/internal/database"
	"github.com/benvon/task-notifier/internal/logger"
	"github.com/benvon/task-notifier/internal/models"
	"github.com/benvon/task-notifier/internal/validation"
	"github.com/gorilla/mux"
	"go.uber.org/zap"
)

// MaxNotifyTasks bounds the task list accepted by a forced notification
const MaxNotifyTasks = database.MaxSearchResults

// Engine is the part of the scheduler the control API drives
type Engine interface {
	CheckNow(ctx context.Context) models.CycleReport
	NotifyTasks(ctx context.Context, tasks []*models.Task) models.CycleReport
	SearchTasks(ctx context.Context, text string, filter models.SearchFilter) ([]*models.Task, error)
	SaveSettings(next models.Settings) error
	Settings() models.Settings
	History() []string
}

// StateSource exposes the last state posted to the shell
type StateSource interface {
	Latest() models.StateUpdate
}

// NotifyRequest is the body of POST /notify
type NotifyRequest struct {
	Tasks []*models.Task `json:"tasks" validate:"required,min=1,max=50,dive,required"`
}

// NotifierHandler serves the control API over a running scheduler
type NotifierHandler struct {
	engine Engine
	state  StateSource
	logger *zap.Logger
}

// NewNotifierHandler creates a new notifier handler
func NewNotifierHandler(engine Engine, state StateSource, log *zap.Logger) *NotifierHandler {
	if log == nil {
		log = zap.NewNop()
	}
	return &NotifierHandler{engine: engine, state: state, logger: log}
}

// RegisterRoutes registers the control routes on r, which should already carry
// the /api/v1 prefix. searchLimit, when not nil, wraps the search route.
func (h *NotifierHandler) RegisterRoutes(r *mux.Router, searchLimit func(http.Handler) http.Handler) {
	var search http.Handler = http.HandlerFunc(h.SearchTasks)
	if searchLimit != nil {
		search = searchLimit(search)
	}

	r.HandleFunc("/check", h.CheckNow).Methods("POST")
	r.Handle("/tasks", search).Methods("GET")
	r.HandleFunc("/notify", h.NotifyTasks).Methods("POST")
	r.HandleFunc("/history", h.History).Methods("GET")
	r.HandleFunc("/settings", h.GetSettings).Methods("GET")
	r.HandleFunc("/settings", h.UpdateSettings).Methods("PUT")
	r.HandleFunc("/state", h.State).Methods("GET")
}

// CheckNow runs one normal cycle and returns its report
func (h *NotifierHandler) CheckNow(w http.ResponseWriter, r *http.Request) {
	report := h.engine.CheckNow(r.Context())
	if report.StoreUnavailable {
		respondJSONError(w, http.StatusServiceUnavailable, "Service Unavailable", "task store unavailable")
		return
	}
	respondJSON(w, http.StatusOK, report)
}

// SearchTasks handles GET /tasks?search=&status=
func (h *NotifierHandler) SearchTasks(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()
	filter := query.Get("status")
	if err := validation.ValidateSearchFilter(filter); err != nil {
		respondJSONError(w, http.StatusBadRequest, "Bad Request", err.Error())
		return
	}

	tasks, err := h.engine.SearchTasks(r.Context(), query.Get("search"), models.SearchFilter(filter))
	if err != nil {
		if errors.Is(err, database.ErrStoreUnavailable) {
			respondJSONError(w, http.StatusServiceUnavailable, "Service Unavailable", "task store unavailable")
			return
		}
		h.logger.Error("search_tasks_request_failed", zap.String("error", logger.SanitizeError(err)))
		respondJSONError(w, http.StatusInternalServerError, "Internal Server Error", "Failed to search tasks")
		return
	}
	if tasks == nil {
		tasks = []*models.Task{}
	}
	respondJSON(w, http.StatusOK, tasks)
}

// NotifyTasks announces the posted tasks regardless of earlier announcements
func (h *NotifierHandler) NotifyTasks(w http.ResponseWriter, r *http.Request) {
	var req NotifyRequest
	if !decodeJSONBody(w, r, &req) {
		return
	}
	if err := validation.Validate.Struct(req); err != nil {
		respondJSONError(w, http.StatusBadRequest, "Bad Request", err.Error())
		return
	}

	report := h.engine.NotifyTasks(r.Context(), req.Tasks)
	respondJSON(w, http.StatusOK, report)
}

// History returns the rendered announcement history, oldest first
func (h *NotifierHandler) History(w http.ResponseWriter, r *http.Request) {
	history := h.engine.History()
	if history == nil {
		history = []string{}
	}
	respondJSON(w, http.StatusOK, history)
}

// GetSettings returns the live settings
func (h *NotifierHandler) GetSettings(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, h.engine.Settings())
}

// UpdateSettings replaces the live settings. Invalid settings leave the
// current ones untouched.
func (h *NotifierHandler) UpdateSettings(w http.ResponseWriter, r *http.Request) {
	var next models.Settings
	if !decodeJSONBody(w, r, &next) {
		return
	}
	if err := h.engine.SaveSettings(next); err != nil {
		respondJSONError(w, http.StatusBadRequest, "Bad Request", err.Error())
		return
	}
	respondJSON(w, http.StatusOK, h.engine.Settings())
}

// State returns the last phase posted to the shell
func (h *NotifierHandler) State(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, h.state.Latest())
}
