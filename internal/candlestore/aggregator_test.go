package candlestore

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sawpanic/gmofx/internal/model"
)

func quoteAt(t time.Time, mid float64) model.Quote {
	return model.Quote{Symbol: model.USDJPY, Bid: mid - 0.005, Ask: mid + 0.005, Timestamp: t, MarketStatus: model.MarketOpen}
}

func TestAggregator_FoldsWithinBoundary(t *testing.T) {
	store := New([]model.Symbol{model.USDJPY}, MinCapacity)
	agg := NewAggregator(store, model.M1, nil)

	base := time.Date(2026, 7, 1, 10, 0, 0, 0, time.UTC)
	require.NoError(t, agg.OnQuote(model.USDJPY, quoteAt(base, 150.000)))
	require.NoError(t, agg.OnQuote(model.USDJPY, quoteAt(base.Add(10*time.Second), 150.050)))
	require.NoError(t, agg.OnQuote(model.USDJPY, quoteAt(base.Add(20*time.Second), 149.900)))

	// Still within the same minute — nothing rotated into the store yet.
	_, ok, err := store.Last(model.USDJPY, model.M1)
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, agg.Flush(model.USDJPY))
	c, ok, err := store.Last(model.USDJPY, model.M1)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, 150.000, c.Open)
	assert.Equal(t, 150.050, c.High)
	assert.Equal(t, 149.900, c.Low)
	assert.Equal(t, 149.900, c.Close)
}

func TestAggregator_RotatesOnBoundaryCross(t *testing.T) {
	store := New([]model.Symbol{model.USDJPY}, MinCapacity)
	var closed []model.Candle
	agg := NewAggregator(store, model.M1, func(_ model.Symbol, c model.Candle) {
		closed = append(closed, c)
	})

	base := time.Date(2026, 7, 1, 10, 0, 0, 0, time.UTC)
	require.NoError(t, agg.OnQuote(model.USDJPY, quoteAt(base, 150.000)))
	require.NoError(t, agg.OnQuote(model.USDJPY, quoteAt(base.Add(61*time.Second), 150.100)))

	require.Len(t, closed, 1)
	assert.Equal(t, base, closed[0].OpenTime)
	assert.False(t, closed[0].Filled)

	snap, err := store.Snapshot(model.USDJPY, model.M1, 0)
	require.NoError(t, err)
	require.Len(t, snap, 1)
	assert.Equal(t, 150.000, snap[0].Open)
}

func TestAggregator_GapFillsMissingBarsAtPriorClose(t *testing.T) {
	store := New([]model.Symbol{model.USDJPY}, MinCapacity)
	var closed []model.Candle
	agg := NewAggregator(store, model.M1, func(_ model.Symbol, c model.Candle) {
		closed = append(closed, c)
	})

	base := time.Date(2026, 7, 1, 10, 0, 0, 0, time.UTC)
	require.NoError(t, agg.OnQuote(model.USDJPY, quoteAt(base, 150.000)))
	// Next quote arrives 3.5 minutes later: the 10:00 bar closes, and the
	// 10:01 / 10:02 bars are gap-filled flat at the prior close before the
	// 10:03 bar opens with the new quote.
	require.NoError(t, agg.OnQuote(model.USDJPY, quoteAt(base.Add(3*time.Minute+30*time.Second), 151.000)))

	require.Len(t, closed, 3)
	assert.False(t, closed[0].Filled)
	assert.True(t, closed[1].Filled)
	assert.True(t, closed[2].Filled)
	assert.Equal(t, closed[0].Close, closed[1].Open)
	assert.Equal(t, closed[0].Close, closed[1].Close)
	assert.Equal(t, closed[0].Close, closed[2].Close)

	snap, err := store.Snapshot(model.USDJPY, model.M1, 0)
	require.NoError(t, err)
	require.Len(t, snap, 3)
	assert.Equal(t, base.Add(time.Minute), snap[1].OpenTime)
	assert.Equal(t, base.Add(2*time.Minute), snap[2].OpenTime)
}

func TestAggregator_FlushIsNoOpWithoutOpenCandle(t *testing.T) {
	store := New([]model.Symbol{model.USDJPY}, MinCapacity)
	agg := NewAggregator(store, model.M1, nil)
	require.NoError(t, agg.Flush(model.USDJPY))
	_, ok, err := store.Last(model.USDJPY, model.M1)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestStaleAfter(t *testing.T) {
	now := time.Date(2026, 7, 1, 12, 0, 0, 0, time.UTC)
	assert.False(t, StaleAfter(model.M1, now.Add(-30*time.Second), now))
	assert.True(t, StaleAfter(model.M1, now.Add(-2*time.Minute), now))
}
