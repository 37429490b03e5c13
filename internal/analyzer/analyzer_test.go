package analyzer

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/sawpanic/gmofx/internal/model"
)

func risingCandles(n int, start float64, step float64) []model.Candle {
	base := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	out := make([]model.Candle, n)
	price := start
	for i := 0; i < n; i++ {
		price += step
		out[i] = model.Candle{
			OpenTime: base.Add(time.Duration(i) * time.Hour),
			Open:     price - step/2, Close: price,
			High: price + 0.05, Low: price - step - 0.05,
		}
	}
	return out
}

func TestAnalyze_EmptySeriesIsNeutralNotCrash(t *testing.T) {
	frame := Analyze(model.H1, nil, Defaults())
	assert.Equal(t, model.SignalNeutral, frame.Signal)
	assert.Equal(t, model.TrendRange, frame.Trend)
	assert.Equal(t, 0.0, frame.Confidence)
}

func TestAnalyze_SubWarmupIsNeutral(t *testing.T) {
	frame := Analyze(model.H1, risingCandles(5, 100, 0.1), Defaults())
	assert.Equal(t, model.SignalNeutral, frame.Signal)
}

func TestAnalyze_SteadyUptrendClassifiesUp(t *testing.T) {
	frame := Analyze(model.H1, risingCandles(80, 100, 0.15), Defaults())
	assert.Equal(t, model.TrendUp, frame.Trend)
	assert.LessOrEqual(t, frame.Confidence, 100.0)
	assert.GreaterOrEqual(t, frame.Confidence, 0.0)
}

func TestBucketStrength(t *testing.T) {
	assert.Equal(t, model.StrengthWeak, bucketStrength(40))
	assert.Equal(t, model.StrengthMedium, bucketStrength(60))
	assert.Equal(t, model.StrengthStrong, bucketStrength(90))
}

func TestClip(t *testing.T) {
	assert.Equal(t, 0.0, clip(-5, 0, 10))
	assert.Equal(t, 10.0, clip(50, 0, 10))
	assert.Equal(t, 5.0, clip(5, 0, 10))
}
