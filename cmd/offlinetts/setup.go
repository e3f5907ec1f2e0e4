package main

import (
	"os"

	"github.com/spf13/cobra"

	"github.com/example/offline-tts/internal/provision"
)

func newSetupCmd() *cobra.Command {
	var voices []string
	var keepArchives bool

	cmd := &cobra.Command{
		Use:   "setup",
		Short: "Download and install voice models",
		RunE: func(_ *cobra.Command, _ []string) error {
			cfg, err := requireConfig()
			if err != nil {
				return err
			}

			return provision.Run(provision.Options{
				VoicesDir:    cfg.VoicesPath(),
				Voices:       voices,
				KeepArchives: keepArchives,
				Stdout:       os.Stdout,
			})
		},
	}

	cmd.Flags().StringArrayVar(&voices, "voice", nil, "Voice ID to install (repeatable; default all)")
	cmd.Flags().BoolVar(&keepArchives, "keep-archives", false, "Keep downloaded archives after extraction")

	return cmd
}
