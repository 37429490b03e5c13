// Package analyzer computes per-timeframe analysis frames and the
// integrated multi-timeframe verdict (§4.7). Weight tables follow the
// teacher's regime/weights.go pattern — a fixed-table lookup rather than
// a computed weighting.
package analyzer

import (
	"math"

	"github.com/sawpanic/gmofx/internal/indicators"
	"github.com/sawpanic/gmofx/internal/model"
)

// TimeframeWeights are the fixed integration weights (§4.7).
var TimeframeWeights = map[model.Timeframe]float64{
	model.D1:  0.20,
	model.H4:  0.20,
	model.H1:  0.20,
	model.M15: 0.20,
	model.M5:  0.10,
	model.M1:  0.10,
}

// Params bundles the tunable constants used by the single-timeframe
// rules; production code uses Defaults, tests can override for
// determinism.
type Params struct {
	EMAFast, EMASlow int
	RSIPeriod        int
	ATRPeriod        int
	ADXPeriod        int
	TrendSlopeBars   int
	MACDCrossLookback int
	PullbackATRMult  float64
	BreakoutATRMult  float64
}

// Defaults mirrors §4.6/§4.7's fixed parameterisation.
func Defaults() Params {
	return Params{
		EMAFast: 12, EMASlow: 26,
		RSIPeriod: 14, ATRPeriod: 14, ADXPeriod: 14,
		TrendSlopeBars:    5,
		MACDCrossLookback: 3,
		PullbackATRMult:   1.5,
		BreakoutATRMult:   1.0,
	}
}

// Analyze computes the analysis frame for one timeframe's candle series,
// using only the most recent completed candle for the single-timeframe
// rules (§4.7). candles must be ordered oldest-first. Returns a NEUTRAL,
// zero-confidence frame (never panics) when the series is empty or below
// warm-up (§8 boundary behavior).
func Analyze(tf model.Timeframe, candles []model.Candle, p Params) model.AnalysisFrame {
	if len(candles) == 0 {
		return model.AnalysisFrame{Timeframe: tf, Trend: model.TrendRange, Signal: model.SignalNeutral, Strength: model.StrengthWeak, Momentum: model.MomentumFlat}
	}

	closes := closesOf(candles)
	emaFast := indicators.EMA(closes, p.EMAFast)
	emaSlow := indicators.EMA(closes, p.EMASlow)
	rsi := indicators.RSI(closes, p.RSIPeriod)
	macd := indicators.MACD(closes)
	atr := indicators.ATR(candles, p.ATRPeriod)
	adx := indicators.ADX(candles, p.ADXPeriod)

	i := len(candles) - 1
	if math.IsNaN(emaSlow[i]) || math.IsNaN(emaFast[i]) {
		return model.AnalysisFrame{Timeframe: tf, Trend: model.TrendRange, Signal: model.SignalNeutral, Strength: model.StrengthWeak, Momentum: model.MomentumFlat}
	}

	trend := classifyTrend(closes, emaFast, emaSlow, i, p.TrendSlopeBars)
	signal := classifySignal(trend, rsi[i], macd.Hist, i, p.MACDCrossLookback)
	confidence := computeConfidence(macd.Hist[i], atr[i], adx[i], trend)
	strength := bucketStrength(confidence)
	momentum := classifyMomentum(macd.Hist, i)

	support, resistance, pivot := 0.0, 0.0, 0.0
	if tf == model.D1 && len(candles) >= 2 {
		pivot, resistance, support = indicators.PivotLevels(candles[i-1])
	}

	entry := buildEntryPoint(signal, closes[i], atr[i], p)

	frame := model.AnalysisFrame{
		Timeframe:  tf,
		Trend:      trend,
		Signal:     signal,
		Confidence: confidence,
		Strength:   strength,
		Momentum:   momentum,
		Volatility: atr[i],
		KeyLevels:  model.KeyLevels{Support: support, Resistance: resistance, Pivot: pivot},
	}
	if entry != nil {
		frame.Entries = []model.EntryPoint{*entry}
	}
	return frame
}

func closesOf(candles []model.Candle) []float64 {
	out := make([]float64, len(candles))
	for i, c := range candles {
		out[i] = c.Close
	}
	return out
}

func classifyTrend(closes, emaFast, emaSlow []float64, i, slopeBars int) model.Trend {
	if i < slopeBars {
		return model.TrendRange
	}
	slope := emaSlow[i] - emaSlow[i-slopeBars]
	up := closes[i] > emaSlow[i] && emaFast[i] > emaSlow[i] && slope > 0
	down := closes[i] < emaSlow[i] && emaFast[i] < emaSlow[i] && slope < 0
	switch {
	case up:
		return model.TrendUp
	case down:
		return model.TrendDown
	default:
		return model.TrendRange
	}
}

func classifySignal(trend model.Trend, rsi float64, hist []float64, i, lookback int) model.SignalKind {
	crossedUp, crossedDown := macdCrossedZero(hist, i, lookback)
	switch {
	case trend == model.TrendUp && rsi < 70 && crossedUp:
		return model.SignalBuy
	case trend == model.TrendDown && rsi > 30 && crossedDown:
		return model.SignalSell
	default:
		return model.SignalNeutral
	}
}

// macdCrossedZero reports whether the histogram crossed above (or below)
// zero within the last `lookback` bars ending at i.
func macdCrossedZero(hist []float64, i, lookback int) (up, down bool) {
	start := i - lookback
	if start < 1 {
		start = 1
	}
	for j := start; j <= i; j++ {
		if j == 0 || math.IsNaN(hist[j]) || math.IsNaN(hist[j-1]) {
			continue
		}
		if hist[j-1] <= 0 && hist[j] > 0 {
			up = true
		}
		if hist[j-1] >= 0 && hist[j] < 0 {
			down = true
		}
	}
	return up, down
}

func clip(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

// computeConfidence follows §4.7's fixed weighting exactly.
func computeConfidence(hist, atr, adx float64, trend model.Trend) float64 {
	confidence := 50.0
	if atr > 0 && !math.IsNaN(hist) {
		confidence += 10 * clip(math.Abs(hist)/atr, 0, 4)
	}
	if !math.IsNaN(adx) {
		confidence += 10 * clip(adx-20, 0, 30) / 3
	}
	if trend != model.TrendRange {
		confidence += 10 * 1.0 // trend_age_bonus: flat bonus for an established trend
	}
	return clip(confidence, 0, 100)
}

func bucketStrength(confidence float64) model.Strength {
	switch {
	case confidence < 50:
		return model.StrengthWeak
	case confidence < 75:
		return model.StrengthMedium
	default:
		return model.StrengthStrong
	}
}

func classifyMomentum(hist []float64, i int) model.Momentum {
	if i < 1 || math.IsNaN(hist[i]) || math.IsNaN(hist[i-1]) {
		return model.MomentumFlat
	}
	delta := hist[i] - hist[i-1]
	switch {
	case delta > 0:
		return model.MomentumAccel
	case delta < 0:
		return model.MomentumDecel
	default:
		return model.MomentumFlat
	}
}

func buildEntryPoint(signal model.SignalKind, price, atr float64, p Params) *model.EntryPoint {
	if signal == model.SignalNeutral || atr <= 0 || math.IsNaN(atr) {
		return nil
	}
	k := p.PullbackATRMult
	entryType := "pullback"
	dir := 1.0
	if signal == model.SignalSell {
		dir = -1.0
	}
	return &model.EntryPoint{
		Type:        entryType,
		Price:       price,
		StopLoss:    price - dir*k*atr,
		TakeProfit:  price + dir*2*k*atr,
		Reason:      "trend-aligned pullback entry at current close",
	}
}
