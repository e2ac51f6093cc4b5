package speech

import (
	"errors"
	"fmt"
	"math"
	"os/exec"
	"strings"

	"github.com/benvon/task-notifier/internal/logger"
	"go.uber.org/zap"
)

const (
	defaultEspeakVoice = "es"
	defaultSayVoice    = "Paulina"
	defaultCulture     = "es-ES"
)

// runFunc executes a command and returns its combined output
type runFunc func(name string, args ...string) ([]byte, error)

func execRun(name string, args ...string) ([]byte, error) {
	return exec.Command(name, args...).CombinedOutput()
}

// commandSink speaks by running a platform speech binary
type commandSink struct {
	backend   string
	binary    string
	voice     string
	buildArgs func(voice, message string, rate int, volume float64) []string
	run       runFunc
	available func() bool
	log       *zap.Logger
}

func newEspeakSink(voice string, log *zap.Logger) *commandSink {
	if voice == "" {
		voice = defaultEspeakVoice
	}
	return newCommandSink(BackendEspeak, "espeak-ng", voice, espeakArgs, log)
}

func newSaySink(voice string, log *zap.Logger) *commandSink {
	if voice == "" {
		voice = defaultSayVoice
	}
	return newCommandSink(BackendSay, "say", voice, sayArgs, log)
}

func newPowerShellSink(voice string, log *zap.Logger) *commandSink {
	return newCommandSink(BackendPowerShell, "powershell", voice, powerShellArgs, log)
}

func newCommandSink(backend, binary, voice string, build func(string, string, int, float64) []string, log *zap.Logger) *commandSink {
	return &commandSink{
		backend:   backend,
		binary:    binary,
		voice:     voice,
		buildArgs: build,
		run:       execRun,
		available: func() bool { return toolAvailable(binary) },
		log:       log,
	}
}

func (s *commandSink) Name() string {
	return s.backend
}

func (s *commandSink) Available() bool {
	return s.available()
}

// Speak runs the speech binary and waits for it to finish
func (s *commandSink) Speak(message string, rate int, volume float64) error {
	text := logger.SanitizeSpoken(message)
	if text == "" {
		return &Failure{Backend: s.backend, Reason: "empty message"}
	}

	args := s.buildArgs(s.voice, text, rate, clampVolume(volume))
	output, err := s.run(s.binary, args...)
	if err == nil {
		return nil
	}

	if errors.Is(err, exec.ErrNotFound) {
		s.log.Warn("speech_binary_not_found",
			zap.String("backend", s.backend),
			zap.String("binary", s.binary),
			zap.String("hint", installHint(s.backend)),
		)
		return &Failure{Backend: s.backend, Reason: fmt.Sprintf("%s not found", s.binary), Err: err}
	}

	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		reason := fmt.Sprintf("%s exited with code %d", s.binary, exitErr.ExitCode())
		if out := strings.TrimSpace(string(output)); out != "" {
			reason += ": " + logger.SanitizeString(out, logger.MaxErrorMessageLength)
		}
		return &Failure{Backend: s.backend, Reason: reason, Err: err}
	}

	return &Failure{Backend: s.backend, Reason: fmt.Sprintf("failed to run %s", s.binary), Err: err}
}

// espeakArgs maps volume onto espeak-ng amplitude where 100 is the default loudness
func espeakArgs(voice, message string, rate int, volume float64) []string {
	return []string{
		"-v", voice,
		"-s", fmt.Sprint(rate),
		"-a", fmt.Sprint(percent(volume)),
		message,
	}
}

// sayArgs embeds the volume as a speech command since say has no volume flag
func sayArgs(voice, message string, rate int, volume float64) []string {
	return []string{
		"-v", voice,
		"-r", fmt.Sprint(rate),
		fmt.Sprintf("[[volm %.2f]] %s", volume, message),
	}
}

func powerShellArgs(voice, message string, rate int, volume float64) []string {
	selectVoice := fmt.Sprintf(
		"$synth.SelectVoiceByHints([System.Speech.Synthesis.VoiceGender]::NotSet, [System.Speech.Synthesis.VoiceAge]::NotSet, 0, [System.Globalization.CultureInfo]::GetCultureInfo('%s'))",
		defaultCulture)
	if voice != "" {
		selectVoice = fmt.Sprintf("$synth.SelectVoice('%s')", escapeForPowerShell(voice))
	}

	script := strings.Join([]string{
		"Add-Type -AssemblyName System.Speech",
		"$synth = New-Object System.Speech.Synthesis.SpeechSynthesizer",
		selectVoice,
		fmt.Sprintf("$synth.Rate = %d", powerShellRate(rate)),
		fmt.Sprintf("$synth.Volume = %d", percent(volume)),
		fmt.Sprintf("$synth.Speak('%s')", escapeForPowerShell(message)),
	}, "; ")

	return []string{"-NoProfile", "-NonInteractive", "-Command", script}
}

// powerShellRate converts words per minute to the synthesizer's -10..10 scale, 175 wpm being 0
func powerShellRate(wpm int) int {
	rate := (wpm - 175) / 25
	if rate < -10 {
		return -10
	}
	if rate > 10 {
		return 10
	}
	return rate
}

// escapeForPowerShell escapes special characters for single-quoted PowerShell strings
func escapeForPowerShell(s string) string {
	var b strings.Builder
	for _, c := range s {
		switch c {
		case '\'':
			b.WriteString("''")
		case '`', '$':
			b.WriteRune('`')
			b.WriteRune(c)
		default:
			b.WriteRune(c)
		}
	}
	return b.String()
}

func percent(volume float64) int {
	return int(math.Round(volume * 100))
}

func clampVolume(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
