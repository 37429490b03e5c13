package main

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/sawpanic/gmofx/internal/analyzer"
	"github.com/sawpanic/gmofx/internal/candlestore"
	"github.com/sawpanic/gmofx/internal/config"
	"github.com/sawpanic/gmofx/internal/model"
	"github.com/sawpanic/gmofx/internal/ratelimit"
	"github.com/sawpanic/gmofx/internal/restclient"
)

// scanCmd runs one multi-timeframe analysis pass against an in-memory
// store freshly backfilled from the broker's kline REST endpoint and
// prints the verdict, without starting the HTTP surface (§4.13).
func scanCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "scan",
		Short: "Run one multi-timeframe analysis pass and print the verdict",
		RunE: func(cmd *cobra.Command, args []string) error {
			symbolFlag, _ := cmd.Flags().GetString("symbol")
			symbol := model.Symbol(symbolFlag)
			if !model.Valid(symbol) {
				return fmt.Errorf("unknown symbol %q", symbolFlag)
			}

			path, _ := cmd.Flags().GetString("config")
			cfg, err := config.Load(path)
			if err != nil {
				return err
			}

			ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
			defer cancel()

			limiter := ratelimit.New(ratelimit.Limits{
				GetPerSec: cfg.Limits.GetPerSec, PostPerSec: cfg.Limits.PostPerSec, WSSubPerSecIP: cfg.Limits.WSSubPerSec,
			})
			rest := restclient.New(restclient.Config{}, limiter, true)
			store := candlestore.New([]model.Symbol{symbol}, candlestore.MinCapacity)

			frames := make(map[model.Timeframe]model.AnalysisFrame, len(model.AllTimeframes()))
			for _, tf := range model.AllTimeframes() {
				entries, err := rest.FetchKlineRange(ctx, symbol, tf, candlestore.MinCapacity)
				if err != nil {
					return fmt.Errorf("fetch klines %s: %w", tf, err)
				}
				candles := make([]model.Candle, 0, len(entries))
				for _, e := range entries {
					c, perr := parseKlineCLI(e)
					if perr == nil {
						candles = append(candles, c)
					}
				}
				if err := store.Backfill(symbol, tf, candles); err != nil {
					return err
				}
				snap, _ := store.Snapshot(symbol, tf, 0)
				frames[tf] = analyzer.Analyze(tf, snap, analyzer.Defaults())
			}

			verdict := analyzer.Integrate(symbol, time.Now(), frames)
			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")
			return enc.Encode(verdict)
		},
	}
	cmd.Flags().String("symbol", "USD_JPY", "currency pair, e.g. USD_JPY")
	return cmd
}
