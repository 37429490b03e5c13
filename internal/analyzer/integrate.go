package analyzer

import (
	"time"

	"github.com/sawpanic/gmofx/internal/model"
)

// Integrate aggregates per-timeframe frames into the integrated verdict
// using the fixed weight table (§4.7). frames must contain an entry for
// every timeframe in TimeframeWeights; a missing timeframe is treated as
// NEUTRAL with zero weight contribution.
func Integrate(symbol model.Symbol, now time.Time, frames map[model.Timeframe]model.AnalysisFrame) model.IntegratedVerdict {
	var buyWeight, sellWeight float64
	var buyConfSum, sellConfSum float64

	for tf, weight := range TimeframeWeights {
		frame, ok := frames[tf]
		if !ok {
			continue
		}
		switch frame.Signal {
		case model.SignalBuy:
			buyWeight += weight
			buyConfSum += frame.Confidence * weight
		case model.SignalSell:
			sellWeight += weight
			sellConfSum += frame.Confidence * weight
		}
	}

	signal := model.SignalNeutral
	winningWeight := 0.0
	confidence := 0.0
	switch {
	case buyWeight > sellWeight && buyWeight > 0:
		signal = model.SignalBuy
		winningWeight = buyWeight
		if buyWeight > 0 {
			confidence = buyConfSum / buyWeight
		}
	case sellWeight > buyWeight && sellWeight > 0:
		signal = model.SignalSell
		winningWeight = sellWeight
		if sellWeight > 0 {
			confidence = sellConfSum / sellWeight
		}
	}

	// alignment_score is the winning side's weight share of the weight
	// that took a directional position at all — NEUTRAL frames are
	// excluded from the denominator (§8 scenario 6).
	decidedWeight := buyWeight + sellWeight
	alignment := 0.0
	if decidedWeight > 0 {
		alignment = winningWeight / decidedWeight
	}

	return model.IntegratedVerdict{
		Symbol:                symbol,
		Timestamp:             now,
		Signal:                signal,
		Confidence:            confidence,
		AlignmentScore:        alignment,
		RiskLevel:             riskLevelFor(alignment),
		MarketTiming:          marketTimingFor(now),
		RecommendedStrategies: recommendedStrategies(signal, alignment),
		Timeframes:            frames,
		DataFreshness:         "FRESH",
	}
}

// DegradeForStaleness caps confidence at 30 and marks DataFreshness when
// the candle store behind one or more timeframes was stale at analysis
// time (§7 user-visible behavior).
func DegradeForStaleness(v model.IntegratedVerdict) model.IntegratedVerdict {
	v.DataFreshness = "STALE"
	if v.Confidence > 30 {
		v.Confidence = 30
	}
	return v
}

// DegradeTFQEForStaleness applies the same §7 staleness rule
// (DataFreshness flag + confidence capped at 30) to a TFQE signal that
// DegradeForStaleness applies to a multi-timeframe verdict.
func DegradeTFQEForStaleness(sig model.TFQESignal) model.TFQESignal {
	sig.DataFreshness = "STALE"
	if sig.Confidence > 30 {
		sig.Confidence = 30
	}
	return sig
}

func riskLevelFor(alignment float64) model.RiskLevel {
	switch {
	case alignment < 0.5:
		return model.RiskHigh
	case alignment < 0.75:
		return model.RiskMed
	default:
		return model.RiskLow
	}
}

func recommendedStrategies(signal model.SignalKind, alignment float64) []string {
	if signal == model.SignalNeutral || alignment < 0.5 {
		return nil
	}
	return []string{"tfqe"}
}

// session boundaries are expressed in JST (UTC+9); no daylight saving in
// Japan so this offset is constant.
const jstOffset = 9 * time.Hour

type sessionWindow struct {
	name       string
	startHour  int
	endHour    int // exclusive, in JST hours-of-day, wrapping past 24 is not needed here
	activity   string
}

var sessions = []sessionWindow{
	{name: "Tokyo", startHour: 9, endHour: 15, activity: "MODERATE"},
	{name: "London", startHour: 16, endHour: 24, activity: "HIGH"},
	{name: "NewYork", startHour: 22, endHour: 24, activity: "HIGH"},
	{name: "Quiet", startHour: 0, endHour: 9, activity: "LOW"},
}

// marketTimingFor derives the session/activity fields from the current
// time converted to a JST hour, mapped onto the fixed Tokyo/London/NY
// table (§4.7).
func marketTimingFor(now time.Time) model.MarketTiming {
	jst := now.UTC().Add(jstOffset)
	hour := jst.Hour()

	session := "Quiet"
	activity := "LOW"
	for _, w := range sessions {
		if hour >= w.startHour && hour < w.endHour {
			session = w.name
			activity = w.activity
			break
		}
	}

	weekTiming := "MID_WEEK"
	switch jst.Weekday() {
	case time.Monday:
		weekTiming = "WEEK_OPEN"
	case time.Friday:
		weekTiming = "WEEK_CLOSE"
	case time.Saturday, time.Sunday:
		weekTiming = "WEEKEND"
	}

	recommendation := "normal position sizing"
	if weekTiming == "WEEKEND" {
		recommendation = "market closed for retail FX; no new positions"
	} else if activity == "LOW" {
		recommendation = "reduced size outside overlap hours"
	}

	return model.MarketTiming{
		Session:        session,
		ActivityLevel:  activity,
		WeekTiming:     weekTiming,
		Recommendation: recommendation,
	}
}
