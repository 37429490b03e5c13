package tfqe

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sawpanic/gmofx/internal/model"
)

// syntheticH1Uptrend builds a steadily rising H1 series: EMA20 sits above
// EMA50, and since every bar has only upward directional movement, ADX
// is far above the 20 threshold.
func syntheticH1Uptrend(n int) []model.Candle {
	base := time.Date(2026, 7, 1, 0, 0, 0, 0, time.UTC)
	out := make([]model.Candle, n)
	price := 148.0
	for i := 0; i < n; i++ {
		price += 0.03
		out[i] = model.Candle{
			OpenTime: base.Add(time.Duration(i) * time.Hour),
			Open:     price - 0.01, Close: price,
			High: price + 0.05, Low: price - 0.08,
		}
	}
	return out
}

func syntheticM15Trigger(n int, closeAt float64) []model.Candle {
	base := time.Date(2026, 7, 1, 0, 0, 0, 0, time.UTC)
	out := make([]model.Candle, n)
	price := closeAt - float64(n)*0.002
	for i := 0; i < n-1; i++ {
		price += 0.002
		out[i] = model.Candle{
			OpenTime: base.Add(time.Duration(i) * 15 * time.Minute),
			Open:     price - 0.001, Close: price,
			High: price + 0.02, Low: price - 0.02,
		}
	}
	out[n-1] = model.Candle{
		OpenTime: base.Add(time.Duration(n-1) * 15 * time.Minute),
		Open:     closeAt - 0.03, Close: closeAt,
		High: closeAt + 0.01, Low: closeAt - 0.04,
	}
	return out
}

// sessionTime returns a UTC instant that lands at the given JST
// hour-of-day on an arbitrary weekday.
func sessionTime(jstHour int) time.Time {
	// 2026-07-01 is a Wednesday.
	jst := time.Date(2026, 7, 1, jstHour, 0, 0, 0, time.UTC)
	return jst.Add(-jstOffset)
}

func TestEvaluate_OutOfSessionShortCircuits(t *testing.T) {
	in := Inputs{Symbol: model.USDJPY, PipSize: 0.01, Now: sessionTime(3)}
	sig := Evaluate(in, DefaultParams())
	assert.Equal(t, model.TFQEOutOfSession, sig.Signal)
	assert.Zero(t, sig.Entry)
}

func TestEvaluate_SessionBoundaryAt1559And1600(t *testing.T) {
	before := sessionTime(15).Add(59*time.Minute + 59*time.Second)
	at := sessionTime(16)

	before999 := Evaluate(Inputs{Symbol: model.USDJPY, PipSize: 0.01, Now: before}, DefaultParams())
	assert.Equal(t, model.TFQEOutOfSession, before999.Signal)

	atSignal := Evaluate(Inputs{Symbol: model.USDJPY, PipSize: 0.01, Now: at}, DefaultParams())
	assert.NotEqual(t, model.TFQEOutOfSession, atSignal.Signal)
}

func TestEvaluate_NoTrendWhenADXWeak(t *testing.T) {
	base := time.Date(2026, 7, 1, 0, 0, 0, 0, time.UTC)
	// Flat/choppy H1 series: ADX should stay below 20.
	flat := make([]model.Candle, 60)
	price := 100.0
	for i := range flat {
		if i%2 == 0 {
			price += 0.01
		} else {
			price -= 0.01
		}
		flat[i] = model.Candle{OpenTime: base.Add(time.Duration(i) * time.Hour), Open: price, Close: price, High: price + 0.02, Low: price - 0.02}
	}

	in := Inputs{Symbol: model.EURUSD, PipSize: 0.0001, Now: sessionTime(18), H1: flat, M15: syntheticM15Trigger(60, 100.05)}
	sig := Evaluate(in, DefaultParams())
	assert.Equal(t, model.TFQENoTrend, sig.Signal)
	assert.Zero(t, sig.Entry)
}

func TestEvaluate_BuySignalOrderArithmetic(t *testing.T) {
	h1 := syntheticH1Uptrend(80)
	m15 := syntheticM15Trigger(60, 150.12)

	in := Inputs{Symbol: model.USDJPY, PipSize: 0.01, Now: sessionTime(18), H1: h1, M15: m15}
	sig := Evaluate(in, DefaultParams())

	require.True(t, sig.Signal == model.TFQEBuy || sig.Signal == model.TFQEWaitingPullback)
	if sig.Signal != model.TFQEBuy {
		t.Skipf("synthetic series landed on %s instead of BUY; arithmetic invariants below only apply to a live entry", sig.Signal)
	}

	assert.InDelta(t, sig.Entry, sig.M15Price, 1e-9)
	assert.InDelta(t, (sig.Entry-sig.StopLoss)/0.01, sig.RiskPips, 1e-6)
	assert.InDelta(t, (sig.TP1-sig.Entry)/0.01, sig.RewardPips, 1e-6)
	assert.True(t, sig.TP2 > sig.TP1)
	assert.NotNil(t, sig.PostEntry)
	assert.Equal(t, 0.5, sig.PostEntry.TP1ClosesFraction)
}

func TestConfidenceFor_ClippedAndCeilinged(t *testing.T) {
	assert.Equal(t, 95.0, confidenceFor(1000, 0))
	assert.Equal(t, 50.0, confidenceFor(20, 0.5))
}

func TestHasEntry(t *testing.T) {
	assert.True(t, model.TFQESignal{Signal: model.TFQEBuy}.HasEntry())
	assert.False(t, model.TFQESignal{Signal: model.TFQEWaitingPullback}.HasEntry())
}
