package main

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/example/offline-tts/internal/app"
	"github.com/example/offline-tts/internal/audio"
	"github.com/example/offline-tts/internal/config"
	"github.com/example/offline-tts/internal/doctor"
	"github.com/example/offline-tts/internal/provision"
	"github.com/example/offline-tts/internal/tts"
	"github.com/example/offline-tts/internal/voice"
)

// defaultTestOut is where `run --test` writes when --out is not given.
const defaultTestOut = "test_output.wav"

func newRunCmd() *cobra.Command {
	var testText string
	var out string
	var autoSetup bool

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Provision the configured voice if needed, then start the app",
		Long: `Run installs the configured voice when its files are missing, verifies the
environment, then either starts an interactive speak session or, with
--test, synthesizes the given text to a WAV file and exits.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := requireConfig()
			if err != nil {
				return err
			}

			mgr, err := ensureVoiceInstalled(cfg, !autoSetup)
			if err != nil {
				return err
			}

			if err := preflight(cfg, testText != ""); err != nil {
				return err
			}

			svc, err := tts.NewService(cfg, mgr, slog.Default())
			if err != nil {
				return err
			}
			defer svc.Close()

			if testText != "" {
				return runSelfTest(cmd.Context(), svc, testText, out)
			}
			return startSession(cmd.Context(), cfg, svc)
		},
	}

	cmd.Flags().StringVar(&testText, "test", "", "Synthesize this text to --out and exit")
	cmd.Flags().StringVar(&out, "out", defaultTestOut, "Output WAV path for --test")
	cmd.Flags().BoolVar(&autoSetup, "auto-setup", true, "Download the configured voice when missing")

	return cmd
}

// preflight runs the doctor checks for the configured voice. The audio check
// is skipped for the non-interactive self-test and when playback is off.
func preflight(cfg config.Config, selfTest bool) error {
	var buf bytes.Buffer
	result := doctor.Run(doctor.Config{
		DataDir:   cfg.Paths.DataDir,
		VoicesDir: cfg.VoicesPath(),
		Voices:    []string{cfg.TTS.Voice},
		SkipAudio: selfTest || !cfg.Playback.Enabled,
	}, &buf)

	if result.Failed() {
		os.Stdout.Write(buf.Bytes())
		return fmt.Errorf("environment checks failed: %s", strings.Join(result.Failures(), "; "))
	}
	return nil
}

// ensureVoiceInstalled provisions the configured voice when its files are
// missing, unless skipSetup forbids it. It returns a manager that reflects
// the final on-disk state.
func ensureVoiceInstalled(cfg config.Config, skipSetup bool) (*voice.Manager, error) {
	mgr, err := voice.NewManager(cfg.VoicesPath())
	if err != nil {
		return nil, err
	}

	if _, _, err := mgr.Resolve(cfg.TTS.Voice); err == nil {
		return mgr, nil
	} else if skipSetup {
		return nil, err
	}

	slog.Info("voice not installed, provisioning", "voice", cfg.TTS.Voice)
	if err := provision.Run(provision.Options{
		VoicesDir: cfg.VoicesPath(),
		Voices:    []string{cfg.TTS.Voice},
		Stdout:    os.Stdout,
	}); err != nil {
		return nil, err
	}

	return voice.NewManager(cfg.VoicesPath())
}

func runSelfTest(ctx context.Context, svc *tts.Service, text, out string) error {
	wavData, err := svc.SynthesizeWAV(ctx, text)
	if err != nil {
		return err
	}
	if err := os.WriteFile(out, wavData, 0o644); err != nil {
		return fmt.Errorf("write %s: %w", out, err)
	}
	fmt.Printf("wrote %s (%d bytes)\n", out, len(wavData))
	return nil
}

// startSession runs the interactive speak loop. Playback problems degrade to
// a synthesis-only session instead of aborting.
func startSession(ctx context.Context, cfg config.Config, svc *tts.Service) error {
	var player app.Player
	if cfg.Playback.Enabled {
		p, err := audio.NewPlayer(cfg.Playback.BufferFrames)
		if err != nil {
			slog.Warn("audio playback unavailable, continuing without it", "error", err)
		} else {
			defer p.Close()
			player = p
		}
	}

	session := app.NewSession(svc, player, app.SessionOptions{
		Playback: player != nil,
	})
	return session.Run(ctx)
}
