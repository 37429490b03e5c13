// Package indicators holds the pure, side-effect-free technical indicator
// kernel (§4.6): every function maps a candle slice to a series of the
// same length, with a deterministic leading "warm-up" region reported as
// math.NaN rather than zero. None of these functions retain state across
// calls — an "incremental" fast path would just be an optimisation of the
// same batch recursion, so callers always pass the full series (§9).
//
// Grounded in the teacher's signals/momentum.go ATR/RSI sketches,
// generalized here to proper Wilder smoothing, warm-up reporting, and
// full series output instead of a single trailing scalar.
package indicators

import (
	"math"

	"github.com/sawpanic/gmofx/internal/model"
)

func nanSeries(n int) []float64 {
	s := make([]float64, n)
	for i := range s {
		s[i] = math.NaN()
	}
	return s
}

// SMA returns the simple moving average over window n. The first valid
// index is n-1.
func SMA(closes []float64, n int) []float64 {
	out := nanSeries(len(closes))
	if n <= 0 || len(closes) < n {
		return out
	}
	sum := 0.0
	for i, c := range closes {
		sum += c
		if i >= n {
			sum -= closes[i-n]
		}
		if i >= n-1 {
			out[i] = sum / float64(n)
		}
	}
	return out
}

// EMA returns the exponential moving average over window n, seeded with
// the SMA of the first n values (§4.6).
func EMA(closes []float64, n int) []float64 {
	out := nanSeries(len(closes))
	if n <= 0 || len(closes) < n {
		return out
	}
	sma := SMA(closes, n)
	out[n-1] = sma[n-1]
	alpha := 2.0 / float64(n+1)
	for i := n; i < len(closes); i++ {
		out[i] = (closes[i]-out[i-1])*alpha + out[i-1]
	}
	return out
}

// RSI(14) uses Wilder smoothing of average gain/loss; warm-up is n.
func RSI(closes []float64, n int) []float64 {
	out := nanSeries(len(closes))
	if n <= 0 || len(closes) <= n {
		return out
	}

	var avgGain, avgLoss float64
	for i := 1; i <= n; i++ {
		delta := closes[i] - closes[i-1]
		if delta > 0 {
			avgGain += delta
		} else {
			avgLoss -= delta
		}
	}
	avgGain /= float64(n)
	avgLoss /= float64(n)
	out[n] = rsiFromAvg(avgGain, avgLoss)

	for i := n + 1; i < len(closes); i++ {
		delta := closes[i] - closes[i-1]
		gain, loss := 0.0, 0.0
		if delta > 0 {
			gain = delta
		} else {
			loss = -delta
		}
		avgGain = (avgGain*float64(n-1) + gain) / float64(n)
		avgLoss = (avgLoss*float64(n-1) + loss) / float64(n)
		out[i] = rsiFromAvg(avgGain, avgLoss)
	}
	return out
}

func rsiFromAvg(avgGain, avgLoss float64) float64 {
	if avgLoss == 0 {
		if avgGain == 0 {
			return 50
		}
		return 100
	}
	rs := avgGain / avgLoss
	return 100 - (100 / (1 + rs))
}

// MACDResult bundles the three MACD series (§4.6).
type MACDResult struct {
	Line   []float64
	Signal []float64
	Hist   []float64
}

// MACD(12,26,9): fast EMA minus slow EMA, signal = EMA9 of the line.
func MACD(closes []float64) MACDResult {
	fast := EMA(closes, 12)
	slow := EMA(closes, 26)
	line := nanSeries(len(closes))
	for i := range closes {
		if !math.IsNaN(fast[i]) && !math.IsNaN(slow[i]) {
			line[i] = fast[i] - slow[i]
		}
	}

	// EMA9 of line, skipping the leading NaN region.
	firstValid := -1
	for i, v := range line {
		if !math.IsNaN(v) {
			firstValid = i
			break
		}
	}
	signal := nanSeries(len(closes))
	hist := nanSeries(len(closes))
	if firstValid < 0 || len(line)-firstValid < 9 {
		return MACDResult{Line: line, Signal: signal, Hist: hist}
	}
	trimmed := line[firstValid:]
	emaOfLine := EMA(trimmed, 9)
	for i, v := range emaOfLine {
		if math.IsNaN(v) {
			continue
		}
		idx := firstValid + i
		signal[idx] = v
		hist[idx] = line[idx] - v
	}
	return MACDResult{Line: line, Signal: signal, Hist: hist}
}

// BollingerResult bundles the band series (§4.6).
type BollingerResult struct {
	Upper []float64
	Mid   []float64
	Lower []float64
	Width []float64
}

// Bollinger(20, 2σ): mean plus/minus k population standard deviations.
func Bollinger(closes []float64, n int, k float64) BollingerResult {
	upper := nanSeries(len(closes))
	mid := SMA(closes, n)
	lower := nanSeries(len(closes))
	width := nanSeries(len(closes))

	if n <= 0 || len(closes) < n {
		return BollingerResult{Upper: upper, Mid: mid, Lower: lower, Width: width}
	}
	for i := n - 1; i < len(closes); i++ {
		window := closes[i-n+1 : i+1]
		mean := mid[i]
		var variance float64
		for _, c := range window {
			d := c - mean
			variance += d * d
		}
		variance /= float64(n)
		sd := math.Sqrt(variance)
		upper[i] = mean + k*sd
		lower[i] = mean - k*sd
		if mean != 0 {
			width[i] = (upper[i] - lower[i]) / mean
		}
	}
	return BollingerResult{Upper: upper, Mid: mid, Lower: lower, Width: width}
}

// trueRange returns the true-range series for a candle slice; index 0 has
// no prior close, so it holds that bar's high-low range (ATR and ADX only
// read from index 1 on).
func trueRange(candles []model.Candle) []float64 {
	out := make([]float64, len(candles))
	for i, c := range candles {
		if i == 0 {
			out[i] = c.High - c.Low
			continue
		}
		prevClose := candles[i-1].Close
		hl := c.High - c.Low
		hc := math.Abs(c.High - prevClose)
		lc := math.Abs(c.Low - prevClose)
		out[i] = math.Max(hl, math.Max(hc, lc))
	}
	return out
}

// ATR(14): Wilder smoothing of true range, warm-up n.
func ATR(candles []model.Candle, n int) []float64 {
	out := nanSeries(len(candles))
	if n <= 0 || len(candles) <= n {
		return out
	}
	tr := trueRange(candles)

	var avg float64
	for i := 1; i <= n; i++ {
		avg += tr[i]
	}
	avg /= float64(n)
	out[n] = avg

	for i := n + 1; i < len(candles); i++ {
		avg = (avg*float64(n-1) + tr[i]) / float64(n)
		out[i] = avg
	}
	return out
}

// ADX(14): Wilder-smoothed directional movement index. Warm-up is 2n —
// n bars to seed the +DI/-DI smoothing, n more for the DX smoothing into
// ADX itself (§4.6).
func ADX(candles []model.Candle, n int) []float64 {
	out := nanSeries(len(candles))
	if n <= 0 || len(candles) < 2*n {
		return out
	}
	tr := trueRange(candles)

	plusDM := make([]float64, len(candles))
	minusDM := make([]float64, len(candles))
	for i := 1; i < len(candles); i++ {
		upMove := candles[i].High - candles[i-1].High
		downMove := candles[i-1].Low - candles[i].Low
		if upMove > downMove && upMove > 0 {
			plusDM[i] = upMove
		}
		if downMove > upMove && downMove > 0 {
			minusDM[i] = downMove
		}
	}

	var smoothTR, smoothPlusDM, smoothMinusDM float64
	for i := 1; i <= n; i++ {
		smoothTR += tr[i]
		smoothPlusDM += plusDM[i]
		smoothMinusDM += minusDM[i]
	}

	dx := make([]float64, len(candles))
	for i := 0; i < n; i++ {
		dx[i] = math.NaN()
	}
	dx[n] = dxFromSmoothed(smoothPlusDM, smoothMinusDM, smoothTR)

	for i := n + 1; i < len(candles); i++ {
		smoothTR = smoothTR - smoothTR/float64(n) + tr[i]
		smoothPlusDM = smoothPlusDM - smoothPlusDM/float64(n) + plusDM[i]
		smoothMinusDM = smoothMinusDM - smoothMinusDM/float64(n) + minusDM[i]
		dx[i] = dxFromSmoothed(smoothPlusDM, smoothMinusDM, smoothTR)
	}

	// ADX is the Wilder-smoothed average of DX, seeded by a plain SMA of
	// the first n DX values starting at index n.
	var seed float64
	for i := n; i < 2*n; i++ {
		seed += dx[i]
	}
	seed /= float64(n)
	out[2*n-1] = seed
	for i := 2 * n; i < len(candles); i++ {
		seed = (seed*float64(n-1) + dx[i]) / float64(n)
		out[i] = seed
	}
	return out
}

func dxFromSmoothed(plusDM, minusDM, tr float64) float64 {
	if tr == 0 {
		return 0
	}
	plusDI := 100 * plusDM / tr
	minusDI := 100 * minusDM / tr
	sum := plusDI + minusDI
	if sum == 0 {
		return 0
	}
	return 100 * math.Abs(plusDI-minusDI) / sum
}

// PivotLevels computes the classic daily pivot and first support/
// resistance from the previous completed daily bar (§4.6).
func PivotLevels(prevDaily model.Candle) (pivot, r1, s1 float64) {
	pivot = (prevDaily.High + prevDaily.Low + prevDaily.Close) / 3
	r1 = 2*pivot - prevDaily.Low
	s1 = 2*pivot - prevDaily.High
	return pivot, r1, s1
}
