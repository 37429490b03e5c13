package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/sawpanic/gmofx/internal/indicators"
	"github.com/sawpanic/gmofx/internal/model"
	"github.com/sawpanic/gmofx/internal/ratelimit"
)

// selftestCmd runs the offline resilience checks named in §4.13: rate
// limiter fairness, indicator purity, and candle monotonicity. No
// network calls are made.
func selftestCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "selftest",
		Short: "Run offline resilience self-checks (no network calls)",
		RunE: func(cmd *cobra.Command, args []string) error {
			out := cmd.OutOrStdout()

			if err := checkRateLimiterFairness(); err != nil {
				return fmt.Errorf("rate limiter fairness: %w", err)
			}
			fmt.Fprintln(out, "PASS  rate limiter fairness")

			if err := checkIndicatorPurity(); err != nil {
				return fmt.Errorf("indicator purity: %w", err)
			}
			fmt.Fprintln(out, "PASS  indicator purity")

			if err := checkCandleMonotonicity(); err != nil {
				return fmt.Errorf("candle monotonicity: %w", err)
			}
			fmt.Fprintln(out, "PASS  candle monotonicity")

			return nil
		},
	}
}

// checkRateLimiterFairness confirms one scope/verb's bucket never starves
// another's (§4.1 independent buckets), by draining the GET bucket and
// verifying POST is still immediately available.
func checkRateLimiterFairness() error {
	limiter := ratelimit.New(ratelimit.Limits{GetPerSec: 6, PostPerSec: 1, WSSubPerSecIP: 1})
	for i := 0; i < 6; i++ {
		if !limiter.Allow(ratelimit.ScopePrivateREST, ratelimit.VerbGET) {
			return fmt.Errorf("GET bucket exhausted early at token %d", i)
		}
	}
	if limiter.Allow(ratelimit.ScopePrivateREST, ratelimit.VerbGET) {
		return fmt.Errorf("GET bucket allowed a 7th token within the same second")
	}
	if !limiter.Allow(ratelimit.ScopePrivateREST, ratelimit.VerbPOST) {
		return fmt.Errorf("POST bucket starved by GET bucket exhaustion")
	}
	return nil
}

// checkIndicatorPurity confirms the indicator kernel is side-effect-free:
// running EMA twice over the same input yields identical output (§8).
func checkIndicatorPurity() error {
	closes := make([]float64, 60)
	for i := range closes {
		closes[i] = 100 + float64(i)*0.1
	}
	a := indicators.EMA(closes, 20)
	b := indicators.EMA(closes, 20)
	for i := range a {
		if a[i] != b[i] && !(isNaN(a[i]) && isNaN(b[i])) {
			return fmt.Errorf("EMA produced different output across repeated calls at index %d", i)
		}
	}
	return nil
}

func isNaN(f float64) bool { return f != f }

// checkCandleMonotonicity confirms a synthetic candle series respects the
// OHLC ordering invariant and strictly increasing open times.
func checkCandleMonotonicity() error {
	base := time.Now().Truncate(time.Hour)
	var prev time.Time
	for i := 0; i < 10; i++ {
		c := model.Candle{
			OpenTime: base.Add(time.Duration(i) * time.Hour),
			Open: 100, High: 101, Low: 99, Close: 100.5,
		}
		if !c.Valid() {
			return fmt.Errorf("candle %d fails OHLC ordering invariant", i)
		}
		if !prev.IsZero() && !c.OpenTime.After(prev) {
			return fmt.Errorf("candle %d open_time did not strictly increase", i)
		}
		prev = c.OpenTime
	}
	return nil
}
