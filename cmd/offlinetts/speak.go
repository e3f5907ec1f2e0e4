package main

import (
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/example/offline-tts/internal/tts"
	"github.com/example/offline-tts/internal/voice"
)

func newSpeakCmd() *cobra.Command {
	var voiceID string

	cmd := &cobra.Command{
		Use:   "speak",
		Short: "Interactive speak session with the installed voices",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := requireConfig()
			if err != nil {
				return err
			}
			if voiceID != "" {
				cfg.TTS.Voice = voiceID
			}

			mgr, err := voice.NewManager(cfg.VoicesPath())
			if err != nil {
				return err
			}

			svc, err := tts.NewService(cfg, mgr, slog.Default())
			if err != nil {
				return err
			}
			defer svc.Close()

			return startSession(cmd.Context(), cfg, svc)
		},
	}

	cmd.Flags().StringVar(&voiceID, "voice", "", "Voice ID (overrides config)")

	return cmd
}
