package analyzer

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/sawpanic/gmofx/internal/model"
)

func frame(signal model.SignalKind, confidence float64) model.AnalysisFrame {
	return model.AnalysisFrame{Signal: signal, Confidence: confidence}
}

func TestIntegrate_ScenarioSix(t *testing.T) {
	frames := map[model.Timeframe]model.AnalysisFrame{
		model.D1:  frame(model.SignalBuy, 70),
		model.H4:  frame(model.SignalBuy, 65),
		model.H1:  frame(model.SignalBuy, 60),
		model.M15: frame(model.SignalNeutral, 0),
		model.M5:  frame(model.SignalSell, 55),
		model.M1:  frame(model.SignalSell, 50),
	}

	v := Integrate(model.USDJPY, time.Date(2026, 7, 1, 10, 0, 0, 0, time.UTC), frames)

	assert.Equal(t, model.SignalBuy, v.Signal)
	assert.InDelta(t, 0.75, v.AlignmentScore, 1e-9)
	assert.Equal(t, model.RiskLow, v.RiskLevel)
	assert.InDelta(t, 65, v.Confidence, 1e-9)
}

func TestIntegrate_AllNeutralYieldsNeutralAndZeroAlignment(t *testing.T) {
	frames := map[model.Timeframe]model.AnalysisFrame{}
	v := Integrate(model.USDJPY, time.Now(), frames)
	assert.Equal(t, model.SignalNeutral, v.Signal)
	assert.Equal(t, 0.0, v.AlignmentScore)
	assert.Equal(t, model.RiskHigh, v.RiskLevel)
}

func TestDegradeForStaleness_CapsConfidence(t *testing.T) {
	v := model.IntegratedVerdict{Confidence: 80}
	degraded := DegradeForStaleness(v)
	assert.Equal(t, "STALE", degraded.DataFreshness)
	assert.Equal(t, 30.0, degraded.Confidence)
}

func TestMarketTimingFor_WeekendRecommendsNoNewPositions(t *testing.T) {
	// 2026-07-04 is a Saturday.
	sat := time.Date(2026, 7, 4, 12, 0, 0, 0, time.UTC)
	mt := marketTimingFor(sat)
	assert.Equal(t, "WEEKEND", mt.WeekTiming)
	assert.Contains(t, mt.Recommendation, "closed")
}
