package speech

import (
	"github.com/benvon/task-notifier/internal/logger"
	"github.com/gen2brain/beeep"
	"go.uber.org/zap"
)

const desktopTitle = "Recordatorio de tareas"

// desktopSink shows the announcement as a desktop alert with a beep. Rate and
// volume do not apply.
type desktopSink struct {
	alert func(title, message string, icon any) error
	log   *zap.Logger
}

func newDesktopSink(log *zap.Logger) *desktopSink {
	beeep.AppName = "task-notifier"
	return &desktopSink{alert: beeep.Alert, log: log}
}

func (s *desktopSink) Speak(message string, _ int, _ float64) error {
	text := logger.SanitizeSpoken(message)
	if text == "" {
		return &Failure{Backend: BackendDesktop, Reason: "empty message"}
	}
	if err := s.alert(desktopTitle, text, ""); err != nil {
		return &Failure{Backend: BackendDesktop, Reason: "desktop alert failed", Err: err}
	}
	return nil
}

func (s *desktopSink) Name() string    { return BackendDesktop }
func (s *desktopSink) Available() bool { return true }
