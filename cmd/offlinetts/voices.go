package main

import (
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/example/offline-tts/internal/provision"
	"github.com/example/offline-tts/internal/voice"
)

func newVoicesCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "voices",
		Short: "Manage voice models",
	}

	cmd.AddCommand(newVoicesListCmd())
	cmd.AddCommand(newVoicesFetchCmd())

	return cmd
}

func newVoicesListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List known voices and their install state",
		RunE: func(_ *cobra.Command, _ []string) error {
			cfg, err := requireConfig()
			if err != nil {
				return err
			}

			mgr, err := voice.NewManager(cfg.VoicesPath())
			if err != nil {
				return err
			}

			w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
			fmt.Fprintln(w, "ID\tLABEL\tRATE\tSTATUS")
			for _, v := range mgr.List() {
				status := "not installed"
				if v.Installed(cfg.VoicesPath()) {
					status = "installed"
				}
				fmt.Fprintf(w, "%s\t%s\t%d\t%s\n", v.ID, v.Label, v.SampleRate, status)
			}
			return w.Flush()
		},
	}
}

func newVoicesFetchCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "fetch <id>",
		Short: "Download and install a single voice",
		Args:  cobra.ExactArgs(1),
		RunE: func(_ *cobra.Command, args []string) error {
			cfg, err := requireConfig()
			if err != nil {
				return err
			}

			return provision.Run(provision.Options{
				VoicesDir: cfg.VoicesPath(),
				Voices:    []string{args[0]},
				Stdout:    os.Stdout,
			})
		},
	}
}
