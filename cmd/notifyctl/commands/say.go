package commands

import (
	"fmt"
	"strings"

	"github.com/benvon/task-notifier/internal/config"
	"github.com/benvon/task-notifier/internal/logger"
	"github.com/benvon/task-notifier/internal/speech"
	"github.com/spf13/cobra"
)

// NewSayCmd creates the say command. It does not need the task store.
func NewSayCmd() *cobra.Command {
	var backend string

	cmd := &cobra.Command{
		Use:   "say <message>",
		Short: "Speak a message through the speech backend",
		Long:  "Test the speech backend with the configured rate and volume",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load()
			if err != nil {
				return fmt.Errorf("load config: %w", err)
			}
			if backend == "" {
				backend = cfg.SpeechBackend
			}

			log, err := logger.NewDevelopmentLogger(cfg.DebugMode)
			if err != nil {
				return fmt.Errorf("initialize logger: %w", err)
			}
			defer func() { _ = logger.Sync(log) }()

			sink, err := speech.NewSink(backend, cfg.SpeechVoice, log)
			if err != nil {
				return err
			}

			message := strings.Join(args, " ")
			if err := sink.Speak(message, cfg.Settings.SpeechRate, cfg.Settings.Volume); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Spoken with %s\n", sink.Name())
			return nil
		},
	}

	cmd.Flags().StringVar(&backend, "backend", "", "Override SPEECH_BACKEND (auto, espeak, say, powershell, desktop, none)")
	return cmd
}
