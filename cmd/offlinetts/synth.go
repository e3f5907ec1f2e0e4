package main

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/example/offline-tts/internal/audio"
	"github.com/example/offline-tts/internal/tts"
	"github.com/example/offline-tts/internal/voice"
)

func newSynthCmd() *cobra.Command {
	var text string
	var out string
	var voiceID string
	var chunkChars int
	var normalize bool
	var dcBlock bool
	var fadeInMS float64
	var fadeOutMS float64

	cmd := &cobra.Command{
		Use:   "synth",
		Short: "Synthesize text to WAV",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := requireConfig()
			if err != nil {
				return err
			}
			if voiceID != "" {
				cfg.TTS.Voice = voiceID
			}

			inputText, err := readSynthText(text, os.Stdin)
			if err != nil {
				return err
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

			samples, rate, err := svc.SynthesizeChunked(cmd.Context(), inputText, chunkChars)
			if err != nil {
				return err
			}

			if normalize {
				samples = audio.PeakNormalize(samples)
			}
			if dcBlock {
				samples = audio.DCBlock(samples, rate)
			}
			if fadeInMS > 0 {
				samples = audio.FadeIn(samples, rate, fadeInMS)
			}
			if fadeOutMS > 0 {
				samples = audio.FadeOut(samples, rate, fadeOutMS)
			}

			wavData, err := audio.EncodeWAV(samples, rate)
			if err != nil {
				return err
			}

			return writeSynthOutput(out, wavData, os.Stdout)
		},
	}

	cmd.Flags().StringVar(&text, "text", "", "Text to synthesize (if empty, read from stdin)")
	cmd.Flags().StringVar(&out, "out", "out.wav", "Output WAV path ('-' for stdout)")
	cmd.Flags().StringVar(&voiceID, "voice", "", "Voice ID (overrides config)")
	cmd.Flags().IntVar(&chunkChars, "max-chunk-chars", 0, "Sentence chunk size in characters (0 for the default)")
	cmd.Flags().BoolVar(&normalize, "normalize", false, "Peak-normalize output audio")
	cmd.Flags().BoolVar(&dcBlock, "dc-block", false, "Apply DC-block high-pass filter")
	cmd.Flags().Float64Var(&fadeInMS, "fade-in-ms", 0, "Apply linear fade-in duration in milliseconds")
	cmd.Flags().Float64Var(&fadeOutMS, "fade-out-ms", 0, "Apply linear fade-out duration in milliseconds")

	return cmd
}

func writeSynthOutput(outPath string, wavData []byte, stdout io.Writer) error {
	if outPath == "-" {
		if stdout == nil {
			return fmt.Errorf("stdout writer is nil")
		}
		_, err := stdout.Write(wavData)
		return err
	}
	return os.WriteFile(outPath, wavData, 0o644)
}

func readSynthText(text string, stdin io.Reader) (string, error) {
	if strings.TrimSpace(text) != "" {
		return text, nil
	}

	b, err := io.ReadAll(stdin)
	if err != nil {
		return "", fmt.Errorf("read stdin: %w", err)
	}
	input := strings.TrimSpace(string(b))
	if input == "" {
		return "", fmt.Errorf("either provide --text or pipe text on stdin")
	}
	return input, nil
}
