package workers

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/benvon/task-notifier/internal/database"
	"github.com/benvon/task-notifier/internal/duetime"
	"github.com/benvon/task-notifier/internal/ledger"
	"github.com/benvon/task-notifier/internal/logger"
	"github.com/benvon/task-notifier/internal/message"
	"github.com/benvon/task-notifier/internal/models"
	"github.com/benvon/task-notifier/internal/queue"
	"github.com/benvon/task-notifier/internal/settings"
	"github.com/benvon/task-notifier/internal/speech"
	"github.com/benvon/task-notifier/internal/validation"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
)

const (
	tracerName = "github.com/benvon/task-notifier/internal/workers"

	TextChecking       = "Revisando tareas..."
	TextIdle           = "Sistema activo"
	TextAnnounced      = "Notificaciones enviadas"
	TextStoreError     = "Error de conexión"
	TextStoreReconnect = "Conectado a BD"
)

// StateSink receives phase transitions. It must not block.
type StateSink interface {
	UpdateState(update models.StateUpdate)
}

// Scheduler runs notification cycles: fetch due candidates, speak each one
// that has not been announced yet and record it in the ledger
type Scheduler struct {
	tasks     database.TaskRepositoryInterface
	store     database.ConnectionInterface
	sink      speech.Sink
	ledger    *ledger.Ledger
	settings  *settings.Store
	publisher queue.EventPublisher
	state     StateSink
	logger    *zap.Logger
	tracer    trace.Tracer
	now       func() time.Time

	// cycleMu serializes cycles so only one utterance plays at a time
	cycleMu sync.Mutex
}

// NewScheduler creates a new scheduler. publisher and state may be nil.
func NewScheduler(
	tasks database.TaskRepositoryInterface,
	store database.ConnectionInterface,
	sink speech.Sink,
	ledger *ledger.Ledger,
	settings *settings.Store,
	publisher queue.EventPublisher,
	state StateSink,
	logger *zap.Logger,
) *Scheduler {
	if publisher == nil {
		publisher = queue.NewNoopPublisher()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Scheduler{
		tasks:     tasks,
		store:     store,
		sink:      sink,
		ledger:    ledger,
		settings:  settings,
		publisher: publisher,
		state:     state,
		logger:    logger,
		tracer:    otel.Tracer(tracerName),
		now:       time.Now,
	}
}

// Start runs a cycle, waits for the current poll interval and repeats until ctx is cancelled
func (s *Scheduler) Start(ctx context.Context) error {
	current := s.settings.Get()
	s.logger.Info("scheduler_started",
		zap.Int("check_interval_seconds", current.PollIntervalSeconds),
		zap.Int("alert_hours_before", current.AlertLeadHours),
		zap.Int("volume_percent", int(current.Volume*100)),
		zap.String("speech_backend", s.sink.Name()),
		zap.Int("history_capacity", s.ledger.Capacity()),
	)

	for {
		if err := ctx.Err(); err != nil {
			return err
		}

		s.CheckNow(ctx)

		// The interval is read after each cycle so settings changes apply to the next wait
		timer := time.NewTimer(s.settings.Interval())
		select {
		case <-ctx.Done():
			timer.Stop()
			s.logger.Info("scheduler_stopped")
			return ctx.Err()
		case <-timer.C:
		}
	}
}

// CheckNow runs a normal cycle synchronously. Tasks already announced are skipped.
func (s *Scheduler) CheckNow(ctx context.Context) models.CycleReport {
	s.cycleMu.Lock()
	defer s.cycleMu.Unlock()

	ctx, span := s.tracer.Start(ctx, "notification_cycle", trace.WithAttributes(attribute.Bool("forced", false)))
	defer span.End()

	s.post(models.PhaseChecking, TextChecking, 0)

	window := models.NewNotificationWindow(s.now(), s.settings.LeadHours())
	candidates, err := s.tasks.FetchDueCandidates(ctx, window)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "store unavailable")
		return s.recoverStore(ctx, err)
	}

	report := s.announce(ctx, candidates, false)
	notified := s.ledger.NotifiedCount()
	span.SetAttributes(
		attribute.Int("candidates", report.Candidates),
		attribute.Int("announced", report.Announced),
		attribute.Int("skipped", report.Skipped),
		attribute.Int("failed", report.Failed),
		attribute.Int("notified_total", notified),
	)
	s.logger.Debug("cycle_completed",
		zap.Int("candidates", report.Candidates),
		zap.Int("announced", report.Announced),
		zap.Int("skipped", report.Skipped),
		zap.Int("failed", report.Failed),
		zap.Int("notified_total", notified),
	)
	return report
}

// NotifyTasks announces the given tasks regardless of whether they were
// announced before. Announced tasks are recorded in the history again.
func (s *Scheduler) NotifyTasks(ctx context.Context, tasks []*models.Task) models.CycleReport {
	s.cycleMu.Lock()
	defer s.cycleMu.Unlock()

	ctx, span := s.tracer.Start(ctx, "notification_cycle", trace.WithAttributes(attribute.Bool("forced", true)))
	defer span.End()

	report := s.announce(ctx, tasks, true)
	span.SetAttributes(
		attribute.Int("candidates", report.Candidates),
		attribute.Int("announced", report.Announced),
		attribute.Int("failed", report.Failed),
	)
	return report
}

// announce runs classify, compose, speak and record over the candidates in order
func (s *Scheduler) announce(ctx context.Context, candidates []*models.Task, forced bool) models.CycleReport {
	report := models.CycleReport{Candidates: len(candidates), Forced: forced}

	if len(candidates) == 0 {
		s.logger.Debug("no_tasks_to_notify", zap.Bool("forced", forced))
		s.post(models.PhaseIdle, TextIdle, 0)
		return report
	}

	s.logger.Info("tasks_found", zap.Int("count", len(candidates)), zap.Bool("forced", forced))
	s.post(models.PhaseAlerting, fmt.Sprintf("%d tarea(s) pendiente(s)", len(candidates)), len(candidates))

	for _, task := range candidates {
		if task == nil {
			continue
		}
		if !forced && s.ledger.HasBeenNotified(task.ID) {
			report.Skipped++
			continue
		}

		if err := s.notifyTask(ctx, task, forced); err != nil {
			report.Failed++
			continue
		}
		report.Announced++
	}

	s.post(models.PhaseIdle, TextAnnounced, 0)
	return report
}

// notifyTask speaks one task and records it on success. Speech failures leave
// the task unmarked so the next cycle retries it.
func (s *Scheduler) notifyTask(ctx context.Context, task *models.Task, forced bool) error {
	now := s.now()
	text := message.ForTask(task, now)
	current := s.settings.Get()

	if err := s.sink.Speak(text, current.SpeechRate, current.Volume); err != nil {
		s.logger.Warn("speech_failed",
			zap.String("task_id", task.ID),
			zap.String("title", logger.SanitizeTitle(task.Title)),
			zap.String("backend", s.sink.Name()),
			zap.String("error", logger.SanitizeError(err)),
		)
		return err
	}

	s.ledger.MarkNotified(task.ID)
	s.ledger.RecordHistory(models.HistoryEntry{Timestamp: now, Title: task.Title})

	s.logger.Info("notification_sent",
		zap.String("task_id", task.ID),
		zap.String("title", logger.SanitizeTitle(task.Title)),
		zap.String("kind", duetime.Classify(task, now).Kind.String()),
		zap.Bool("forced", forced),
	)

	if err := s.publisher.Publish(ctx, queue.NewAnnouncementEvent(task, text, forced)); err != nil {
		s.logger.Warn("announcement_publish_failed",
			zap.String("task_id", task.ID),
			zap.String("error", logger.SanitizeError(err)),
		)
	}

	return nil
}

// recoverStore handles a failed fetch: the cycle ends empty and one blocking
// reconnect is attempted before the next cycle
func (s *Scheduler) recoverStore(ctx context.Context, fetchErr error) models.CycleReport {
	s.logger.Error("fetch_due_candidates_failed", zap.String("error", logger.SanitizeError(fetchErr)))

	text := TextStoreReconnect
	if err := s.reconnect(ctx); err != nil {
		s.logger.Error("store_reconnect_failed", zap.String("error", logger.SanitizeError(errors.Join(fetchErr, err))))
		text = TextStoreError
	} else {
		s.logger.Info("store_reconnected")
	}

	s.post(models.PhaseIdle, text, 0)
	return models.CycleReport{StoreUnavailable: true}
}

func (s *Scheduler) reconnect(ctx context.Context) error {
	if s.store == nil {
		return database.ErrStoreUnavailable
	}
	return s.store.Reconnect(ctx)
}

// SearchTasks looks up tasks for the shell. A store failure triggers a
// reconnect and is returned to the caller.
func (s *Scheduler) SearchTasks(ctx context.Context, text string, filter models.SearchFilter) ([]*models.Task, error) {
	if err := validation.ValidateSearchFilter(string(filter)); err != nil {
		return nil, err
	}

	search := models.TaskSearch{
		Text:   validation.SanitizeText(text),
		Filter: filter,
		Now:    s.now(),
	}

	tasks, err := s.tasks.SearchTasks(ctx, search)
	if err != nil {
		s.logger.Error("search_tasks_failed", zap.String("error", logger.SanitizeError(err)))
		if errors.Is(err, database.ErrStoreUnavailable) {
			if reconnectErr := s.reconnect(ctx); reconnectErr != nil {
				return nil, errors.Join(err, reconnectErr)
			}
		}
		return nil, err
	}
	return tasks, nil
}

// SaveSettings applies new settings immediately
func (s *Scheduler) SaveSettings(next models.Settings) error {
	if err := s.settings.Update(next); err != nil {
		return err
	}
	s.logger.Info("settings_updated",
		zap.Int("check_interval_seconds", next.PollIntervalSeconds),
		zap.Int("alert_hours_before", next.AlertLeadHours),
		zap.Int("volume_percent", int(next.Volume*100)),
		zap.Int("speech_rate", next.SpeechRate),
	)
	return nil
}

// Settings returns the current settings
func (s *Scheduler) Settings() models.Settings {
	return s.settings.Get()
}

// History returns the rendered announcement history, oldest first
func (s *Scheduler) History() []string {
	return s.ledger.HistoryStrings()
}

// Speak sends an arbitrary message through the speech sink using the current settings
func (s *Scheduler) Speak(text string) error {
	s.cycleMu.Lock()
	defer s.cycleMu.Unlock()

	current := s.settings.Get()
	return s.sink.Speak(text, current.SpeechRate, current.Volume)
}

func (s *Scheduler) post(phase models.Phase, text string, count int) {
	if s.state == nil {
		return
	}
	s.state.UpdateState(models.StateUpdate{Phase: phase, Text: text, Count: count, At: s.now()})
}
