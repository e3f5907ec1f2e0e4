package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/example/offline-tts/internal/doctor"
)

func newDoctorCmd() *cobra.Command {
	var voices []string
	var skipAudio bool

	cmd := &cobra.Command{
		Use:   "doctor",
		Short: "Check the local environment and installed voices",
		RunE: func(_ *cobra.Command, _ []string) error {
			cfg, err := requireConfig()
			if err != nil {
				return err
			}

			result := doctor.Run(doctor.Config{
				DataDir:   cfg.Paths.DataDir,
				VoicesDir: cfg.VoicesPath(),
				Voices:    voices,
				SkipAudio: skipAudio,
			}, os.Stdout)

			if result.Failed() {
				for _, f := range result.Failures() {
					fmt.Fprintf(os.Stderr, "FAIL: %s\n", f)
				}

				return errors.New("doctor checks failed")
			}

			_, _ = fmt.Fprintln(os.Stdout, "doctor checks passed")

			return nil
		},
	}

	cmd.Flags().StringArrayVar(&voices, "voice", nil, "Voice ID to check (repeatable; default all)")
	cmd.Flags().BoolVar(&skipAudio, "skip-audio", false, "Skip the audio playback check")

	return cmd
}
