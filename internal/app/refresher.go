package app

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/sawpanic/gmofx/internal/candlestore"
	"github.com/sawpanic/gmofx/internal/model"
	"github.com/sawpanic/gmofx/internal/restclient"
)

// klineRefresher adapts restclient.Client's kline endpoint to the
// publisher.Refresher interface (§4.9a: backfill a stale pair via REST).
type klineRefresher struct {
	rest  *restclient.Client
	store *candlestore.Store
}

func newKlineRefresher(rest *restclient.Client, store *candlestore.Store) *klineRefresher {
	return &klineRefresher{rest: rest, store: store}
}

// Refresh fetches enough history to fill the warm-up window and replaces
// the store's ring for (symbol, tf) with it.
func (r *klineRefresher) Refresh(ctx context.Context, symbol model.Symbol, tf model.Timeframe) error {
	entries, err := r.rest.FetchKlineRange(ctx, symbol, tf, candlestore.MinCapacity)
	if err != nil {
		return fmt.Errorf("refresh %s/%s: %w", symbol, tf, err)
	}
	candles := make([]model.Candle, 0, len(entries))
	for _, e := range entries {
		c, perr := parseKline(e)
		if perr != nil {
			continue
		}
		candles = append(candles, c)
	}
	return r.store.Backfill(symbol, tf, candles)
}

func parseKline(e restclient.KlineEntry) (model.Candle, error) {
	ms, err := strconv.ParseInt(e.OpenTime, 10, 64)
	if err != nil {
		return model.Candle{}, err
	}
	open, err := strconv.ParseFloat(e.Open, 64)
	if err != nil {
		return model.Candle{}, err
	}
	high, err := strconv.ParseFloat(e.High, 64)
	if err != nil {
		return model.Candle{}, err
	}
	low, err := strconv.ParseFloat(e.Low, 64)
	if err != nil {
		return model.Candle{}, err
	}
	closeP, err := strconv.ParseFloat(e.Close, 64)
	if err != nil {
		return model.Candle{}, err
	}
	return model.Candle{
		OpenTime: time.UnixMilli(ms).UTC(),
		Open:     open, High: high, Low: low, Close: closeP,
	}, nil
}
