package commands

import (
	"fmt"
	"io"
	"os"
	"time"

	"github.com/benvon/task-notifier/internal/config"
	"github.com/benvon/task-notifier/internal/database"
	"github.com/benvon/task-notifier/internal/ledger"
	"github.com/benvon/task-notifier/internal/logger"
	"github.com/benvon/task-notifier/internal/models"
	"github.com/benvon/task-notifier/internal/settings"
	"github.com/benvon/task-notifier/internal/speech"
	"github.com/benvon/task-notifier/internal/workers"
	"go.uber.org/zap"
)

// app is a one-shot scheduler wired from the environment. Events are not
// published from the CLI.
type app struct {
	cfg       *config.Config
	db        *database.DB
	scheduler *workers.Scheduler
	log       *zap.Logger
}

func newApp(debug bool) (*app, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}

	log, err := logger.NewDevelopmentLogger(debug || cfg.DebugMode)
	if err != nil {
		return nil, fmt.Errorf("initialize logger: %w", err)
	}

	db, err := database.New(cfg.DatabaseDriver, cfg.DatabaseURL)
	if err != nil {
		return nil, fmt.Errorf("connect to database: %w", err)
	}

	sink, err := speech.NewSink(cfg.SpeechBackend, cfg.SpeechVoice, log)
	if err != nil {
		_ = db.Close()
		return nil, err
	}

	scheduler := workers.NewScheduler(
		database.NewTaskRepository(db),
		db,
		sink,
		ledger.New(cfg.HistorySize),
		settings.NewStore(cfg.Settings),
		nil,
		nil,
		log,
	)

	return &app{cfg: cfg, db: db, scheduler: scheduler, log: log}, nil
}

func (a *app) close() {
	if err := a.db.Close(); err != nil {
		fmt.Fprintf(os.Stderr, "Warning: failed to close database: %v\n", err)
	}
	_ = logger.Sync(a.log)
}

func printReport(w io.Writer, report models.CycleReport) {
	if report.StoreUnavailable {
		fmt.Fprintln(w, "Task store unavailable")
		return
	}
	fmt.Fprintf(w, "Candidates: %d\n", report.Candidates)
	fmt.Fprintf(w, "Announced:  %d\n", report.Announced)
	if !report.Forced {
		fmt.Fprintf(w, "Skipped:    %d\n", report.Skipped)
	}
	fmt.Fprintf(w, "Failed:     %d\n", report.Failed)
}

func printTasks(w io.Writer, tasks []*models.Task) {
	if len(tasks) == 0 {
		fmt.Fprintln(w, "No tasks found")
		return
	}
	now := time.Now()
	for _, task := range tasks {
		due := "-"
		if task.DueDate != nil {
			due = task.DueDate.Local().Format(time.DateTime)
		}
		title := task.Title
		if task.Status.IsOpen() && task.DueDate != nil && task.DueDate.Before(now) {
			title += " (overdue)"
		}
		fmt.Fprintf(w, "%-8s %-19s %-11s %-7s %s\n", task.ID, due, task.Status, task.Priority, title)
	}
}
