package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/sawpanic/gmofx/internal/app"
	"github.com/sawpanic/gmofx/internal/config"
)

// serveCmd starts the long-running orchestrator: gateway, candle store,
// analyzer, TFQE strategy, publisher and HTTP surface (§4.10, §4.13).
func serveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Start the orchestrator (default long-running process)",
		RunE: func(cmd *cobra.Command, args []string) error {
			path, _ := cmd.Flags().GetString("config")
			cfg, err := config.Load(path)
			if err != nil {
				return err
			}

			a, err := app.New(cfg)
			if err != nil {
				return err
			}

			ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			log.Info().Strs("symbols", symbolStrings(cfg)).Msg("starting gmofx orchestrator")
			return a.Run(ctx)
		},
	}
}

func symbolStrings(cfg config.Config) []string {
	out := make([]string, len(cfg.Symbols))
	for i, s := range cfg.Symbols {
		out[i] = string(s)
	}
	return out
}
