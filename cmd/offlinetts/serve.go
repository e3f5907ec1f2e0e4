package main

import (
	"context"
	"log/slog"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/example/offline-tts/internal/server"
	"github.com/example/offline-tts/internal/tts"
	"github.com/example/offline-tts/internal/voice"
)

func newServeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP synthesis server",
		RunE: func(_ *cobra.Command, _ []string) error {
			cfg, err := requireConfig()
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

			ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			return server.New(cfg, svc, slog.Default()).Start(ctx)
		},
	}

	return cmd
}
