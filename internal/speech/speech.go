// Package speech turns announcement text into audio through the platform's
// speech facility. Every backend reports problems as *Failure and never panics.
package speech

import (
	"errors"
	"fmt"
	"os/exec"
	"runtime"
	"strings"

	"go.uber.org/zap"
)

const (
	BackendAuto       = "auto"
	BackendEspeak     = "espeak"
	BackendSay        = "say"
	BackendPowerShell = "powershell"
	BackendDesktop    = "desktop"
	BackendNone       = "none"
)

// Sink speaks a message. rate is in words per minute and volume is 0.0-1.0;
// each backend maps them onto its own units.
type Sink interface {
	Speak(message string, rate int, volume float64) error
	Name() string
	Available() bool
}

// ErrSpeechFailure is matched by every Failure
var ErrSpeechFailure = errors.New("speech failure")

// Failure reports that a message could not be spoken
type Failure struct {
	Backend string
	Reason  string
	Err     error
}

func (f *Failure) Error() string {
	if f.Err != nil {
		return fmt.Sprintf("speech failure (%s): %s: %v", f.Backend, f.Reason, f.Err)
	}
	return fmt.Sprintf("speech failure (%s): %s", f.Backend, f.Reason)
}

func (f *Failure) Unwrap() error {
	return f.Err
}

// Is lets errors.Is(err, ErrSpeechFailure) match
func (f *Failure) Is(target error) bool {
	return target == ErrSpeechFailure
}

// NewSink creates the sink for the named backend. "auto" picks the native
// facility of the current OS. An empty voice selects the backend's Spanish default.
func NewSink(backend, voice string, log *zap.Logger) (Sink, error) {
	if log == nil {
		log = zap.NewNop()
	}

	backend = strings.ToLower(strings.TrimSpace(backend))
	if backend == "" || backend == BackendAuto {
		backend = PlatformBackend(runtime.GOOS)
	}

	var sink Sink
	switch backend {
	case BackendEspeak:
		sink = newEspeakSink(voice, log)
	case BackendSay:
		sink = newSaySink(voice, log)
	case BackendPowerShell:
		sink = newPowerShellSink(voice, log)
	case BackendDesktop:
		sink = newDesktopSink(log)
	case BackendNone:
		sink = &noneSink{log: log}
	default:
		return nil, fmt.Errorf("unsupported speech backend: %s", backend)
	}

	if !sink.Available() {
		log.Warn("speech_backend_unavailable",
			zap.String("backend", sink.Name()),
			zap.String("hint", installHint(sink.Name())),
		)
	}

	return sink, nil
}

// PlatformBackend returns the native backend for an operating system
func PlatformBackend(goos string) string {
	switch goos {
	case "darwin":
		return BackendSay
	case "windows":
		return BackendPowerShell
	default:
		return BackendEspeak
	}
}

func installHint(backend string) string {
	switch backend {
	case BackendEspeak:
		return "install espeak-ng: sudo apt-get install espeak-ng"
	case BackendSay:
		return "download Spanish voices in System Settings > Accessibility > Spoken Content"
	case BackendPowerShell:
		return "install Spanish voices in Settings > Time & Language > Speech"
	default:
		return ""
	}
}

// toolAvailable checks if a command-line tool is available in PATH
func toolAvailable(name string) bool {
	_, err := exec.LookPath(name)
	return err == nil
}

// noneSink only logs what would have been spoken
type noneSink struct {
	log *zap.Logger
}

func (s *noneSink) Speak(message string, rate int, volume float64) error {
	s.log.Info("speech_suppressed",
		zap.String("message", message),
		zap.Int("rate", rate),
		zap.Float64("volume", volume),
	)
	return nil
}

func (s *noneSink) Name() string    { return BackendNone }
func (s *noneSink) Available() bool { return true }
