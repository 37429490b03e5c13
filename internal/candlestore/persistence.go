package candlestore

import (
	"context"

	"github.com/sawpanic/gmofx/internal/model"
)

// Persistence is the abstract durable candle store (spec §6): load warm-up
// history on startup and append closed bars. The orchestrator only loads
// from it (via Hydrate); nothing in the gateway calls Append. The
// in-memory Store above is always the hot read path; Persistence is an
// optional backing layer behind it.
type Persistence interface {
	// Load returns the most recent n candles for (symbol, tf), oldest
	// first, or fewer if the backing store holds less.
	Load(ctx context.Context, symbol model.Symbol, tf model.Timeframe, n int) ([]model.Candle, error)

	// Append durably records one closed candle.
	Append(ctx context.Context, symbol model.Symbol, tf model.Timeframe, c model.Candle) error
}

// Hydrate loads warm-up history from p into store for every symbol and
// timeframe the store was constructed with, capped at capacity candles
// each. Errors for one (symbol, tf) pair do not prevent the rest from
// hydrating — a gap in persisted history is recoverable from the kline
// backfill path, so Hydrate logs nothing itself and leaves that call to
// its caller.
func Hydrate(ctx context.Context, store *Store, p Persistence, capacity int) error {
	var firstErr error
	for _, sym := range store.Symbols() {
		for _, tf := range model.AllTimeframes() {
			candles, err := p.Load(ctx, sym, tf, capacity)
			if err != nil {
				if firstErr == nil {
					firstErr = err
				}
				continue
			}
			if len(candles) == 0 {
				continue
			}
			if err := store.Backfill(sym, tf, candles); err != nil && firstErr == nil {
				firstErr = err
			}
		}
	}
	return firstErr
}

