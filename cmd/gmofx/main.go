package main

import (
	"os"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
)

const appVersion = "v0.1.0"

func main() {
	zerolog.TimeFieldFormat = time.RFC3339
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.Kitchen})

	rootCmd := &cobra.Command{
		Use:     "gmofx",
		Short:   "Automated FX trading assistant for GMO Coin FX",
		Version: appVersion,
		Long: `gmofx is a signal engine for GMO Coin's FX broker API: it streams
quotes, maintains per-symbol candle history, and continuously evaluates
a trend-following pullback strategy (TFQE) plus a broader multi-timeframe
diagnostic view.`,
	}
	rootCmd.PersistentFlags().String("config", "config/config.example.yaml", "path to the YAML configuration file")

	rootCmd.AddCommand(serveCmd())
	rootCmd.AddCommand(scanCmd())
	rootCmd.AddCommand(tfqeCmd())
	rootCmd.AddCommand(selftestCmd())
	rootCmd.AddCommand(versionCmd())

	if err := rootCmd.Execute(); err != nil {
		log.Error().Err(err).Msg("command failed")
		os.Exit(1)
	}
}
