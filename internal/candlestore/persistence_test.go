package candlestore

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sawpanic/gmofx/internal/model"
)

type fakePersistence struct {
	loadFn func(symbol model.Symbol, tf model.Timeframe) ([]model.Candle, error)
}

func (f *fakePersistence) Load(_ context.Context, symbol model.Symbol, tf model.Timeframe, _ int) ([]model.Candle, error) {
	return f.loadFn(symbol, tf)
}

func (f *fakePersistence) Append(_ context.Context, _ model.Symbol, _ model.Timeframe, _ model.Candle) error {
	return nil
}

func TestHydrate_BackfillsEveryTimeframe(t *testing.T) {
	base := time.Date(2026, 7, 1, 0, 0, 0, 0, time.UTC)
	p := &fakePersistence{
		loadFn: func(symbol model.Symbol, tf model.Timeframe) ([]model.Candle, error) {
			if tf != model.D1 {
				return nil, nil
			}
			return []model.Candle{{OpenTime: base, Open: 1, High: 1, Low: 1, Close: 1}}, nil
		},
	}

	store := New([]model.Symbol{model.USDJPY}, MinCapacity)
	require.NoError(t, Hydrate(context.Background(), store, p, MinCapacity))

	snap, err := store.Snapshot(model.USDJPY, model.D1, 0)
	require.NoError(t, err)
	require.Len(t, snap, 1)
	assert.Equal(t, base, snap[0].OpenTime)

	m1, err := store.Snapshot(model.USDJPY, model.M1, 0)
	require.NoError(t, err)
	assert.Empty(t, m1)
}

func TestHydrate_ContinuesPastPerPairErrors(t *testing.T) {
	p := &fakePersistence{
		loadFn: func(symbol model.Symbol, tf model.Timeframe) ([]model.Candle, error) {
			if tf == model.M1 {
				return nil, assert.AnError
			}
			return nil, nil
		},
	}
	store := New([]model.Symbol{model.USDJPY}, MinCapacity)
	err := Hydrate(context.Background(), store, p, MinCapacity)
	assert.ErrorIs(t, err, assert.AnError)
}
