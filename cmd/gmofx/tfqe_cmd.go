package main

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/sawpanic/gmofx/internal/candlestore"
	"github.com/sawpanic/gmofx/internal/config"
	"github.com/sawpanic/gmofx/internal/model"
	"github.com/sawpanic/gmofx/internal/ratelimit"
	"github.com/sawpanic/gmofx/internal/restclient"
	"github.com/sawpanic/gmofx/internal/tfqe"
)

// tfqeCmd runs one TFQE tick against klines fetched from the broker's REST
// endpoint and prints the resulting signal, without starting the HTTP
// surface (§4.13).
func tfqeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "tfqe",
		Short: "Run one TFQE strategy tick and print the signal",
		RunE: func(cmd *cobra.Command, args []string) error {
			symbolFlag, _ := cmd.Flags().GetString("symbol")
			symbol := model.Symbol(symbolFlag)
			if !model.Valid(symbol) {
				return fmt.Errorf("unknown symbol %q", symbolFlag)
			}
			spec, err := model.Spec(symbol)
			if err != nil {
				return err
			}

			path, _ := cmd.Flags().GetString("config")
			cfg, err := config.Load(path)
			if err != nil {
				return err
			}

			ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
			defer cancel()

			limiter := ratelimit.New(ratelimit.Limits{
				GetPerSec: cfg.Limits.GetPerSec, PostPerSec: cfg.Limits.PostPerSec, WSSubPerSecIP: cfg.Limits.WSSubPerSec,
			})
			rest := restclient.New(restclient.Config{}, limiter, true)
			store := candlestore.New([]model.Symbol{symbol}, candlestore.MinCapacity)

			for _, tf := range []model.Timeframe{model.H1, model.M15} {
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
			}

			h1, _ := store.Snapshot(symbol, model.H1, 0)
			m15, _ := store.Snapshot(symbol, model.M15, 0)

			tfqeParams := tfqe.DefaultParams()
			tfqeParams.ATRStopMult = cfg.TFQE.ATRStopMult
			tfqeParams.TP1Mult = cfg.TFQE.TP1Mult
			tfqeParams.TP2Mult = cfg.TFQE.TP2Mult
			sessionStart, err := config.ParseClock(cfg.TFQE.SessionStart)
			if err != nil {
				return fmt.Errorf("tfqe.session_start: %w", err)
			}
			sessionEnd, err := config.ParseClock(cfg.TFQE.SessionEnd)
			if err != nil {
				return fmt.Errorf("tfqe.session_end: %w", err)
			}
			tfqeParams.SessionStartJST = sessionStart
			tfqeParams.SessionEndJST = sessionEnd

			sig := tfqe.Evaluate(tfqe.Inputs{
				Symbol: symbol, PipSize: spec.PipSize, Now: time.Now(), H1: h1, M15: m15,
			}, tfqeParams)

			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")
			return enc.Encode(sig)
		},
	}
	cmd.Flags().String("symbol", "USD_JPY", "currency pair, e.g. USD_JPY")
	return cmd
}
