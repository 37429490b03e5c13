package indicators

import (
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sawpanic/gmofx/internal/model"
)

func TestSMA_WarmUpAndValue(t *testing.T) {
	closes := []float64{1, 2, 3, 4, 5, 6}
	out := SMA(closes, 3)
	assert.True(t, math.IsNaN(out[0]))
	assert.True(t, math.IsNaN(out[1]))
	assert.InDelta(t, 2.0, out[2], 1e-9)
	assert.InDelta(t, 5.0, out[5], 1e-9)
}

func TestEMA_SeededBySMA(t *testing.T) {
	closes := []float64{1, 2, 3, 4, 5, 6, 7, 8}
	ema := EMA(closes, 3)
	sma := SMA(closes, 3)
	assert.InDelta(t, sma[2], ema[2], 1e-9)
	assert.False(t, math.IsNaN(ema[7]))
}

func TestEMA_PurityUnderTruncation(t *testing.T) {
	// Indicator purity (§8): ema(X)[i] computed over X equals ema(X)[i]
	// computed over X[0..j] for any j >= i.
	closes := []float64{1, 2, 3, 4, 5, 6, 7, 8, 9, 10}
	full := EMA(closes, 3)
	truncated := EMA(closes[:6], 3)
	for i := 0; i < 6; i++ {
		if math.IsNaN(full[i]) {
			assert.True(t, math.IsNaN(truncated[i]))
			continue
		}
		assert.InDelta(t, full[i], truncated[i], 1e-9)
	}
}

func TestRSI_AllGainsIsHundred(t *testing.T) {
	closes := make([]float64, 20)
	for i := range closes {
		closes[i] = float64(i) + 1
	}
	out := RSI(closes, 14)
	assert.True(t, math.IsNaN(out[13]))
	assert.InDelta(t, 100, out[14], 1e-9)
}

func TestRSI_FlatSeriesIsFifty(t *testing.T) {
	closes := make([]float64, 20)
	for i := range closes {
		closes[i] = 100
	}
	out := RSI(closes, 14)
	assert.InDelta(t, 50, out[14], 1e-9)
}

func TestMACD_HistIsLineMinusSignal(t *testing.T) {
	closes := make([]float64, 60)
	for i := range closes {
		closes[i] = 100 + float64(i)*0.1
	}
	r := MACD(closes)
	for i := range closes {
		if math.IsNaN(r.Hist[i]) {
			continue
		}
		assert.InDelta(t, r.Line[i]-r.Signal[i], r.Hist[i], 1e-9)
	}
}

func TestBollinger_BandsStraddleMean(t *testing.T) {
	closes := []float64{1, 2, 3, 4, 5, 4, 3, 2, 1, 2, 3, 4, 5, 4, 3, 2, 1, 2, 3, 4}
	r := Bollinger(closes, 10, 2)
	for i := 9; i < len(closes); i++ {
		require.False(t, math.IsNaN(r.Mid[i]))
		assert.GreaterOrEqual(t, r.Upper[i], r.Mid[i])
		assert.LessOrEqual(t, r.Lower[i], r.Mid[i])
	}
}

func makeCandles(n int, closes []float64) []model.Candle {
	base := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	out := make([]model.Candle, n)
	for i := 0; i < n; i++ {
		c := closes[i]
		out[i] = model.Candle{
			OpenTime: base.AddDate(0, 0, i),
			Open:     c, Close: c,
			High: c + 0.5, Low: c - 0.5,
		}
	}
	return out
}

func TestATR_WarmUpAndPositivity(t *testing.T) {
	closes := make([]float64, 30)
	for i := range closes {
		closes[i] = 100 + float64(i%3)
	}
	candles := makeCandles(30, closes)
	out := ATR(candles, 14)
	assert.True(t, math.IsNaN(out[13]))
	require.False(t, math.IsNaN(out[14]))
	assert.Greater(t, out[14], 0.0)
}

func TestADX_WarmUpLengthIsTwiceN(t *testing.T) {
	closes := make([]float64, 40)
	for i := range closes {
		closes[i] = 100 + float64(i)*0.3
	}
	candles := makeCandles(40, closes)
	out := ADX(candles, 14)
	assert.True(t, math.IsNaN(out[26]))
	require.False(t, math.IsNaN(out[39]))
	assert.GreaterOrEqual(t, out[39], 0.0)
}

func TestPivotLevels(t *testing.T) {
	prev := model.Candle{High: 110, Low: 100, Close: 105}
	p, r1, s1 := PivotLevels(prev)
	assert.InDelta(t, 105, p, 1e-9)
	assert.InDelta(t, 110, r1, 1e-9)
	assert.InDelta(t, 100, s1, 1e-9)
}

func TestIndicators_EmptyInputNeverPanics(t *testing.T) {
	assert.NotPanics(t, func() {
		SMA(nil, 14)
		EMA(nil, 14)
		RSI(nil, 14)
		MACD(nil)
		Bollinger(nil, 20, 2)
		ATR(nil, 14)
		ADX(nil, 14)
	})
}
