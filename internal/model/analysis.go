package model

import "time"

// Trend is the per-timeframe directional read.
type Trend string

const (
	TrendUp    Trend = "UP"
	TrendDown  Trend = "DOWN"
	TrendRange Trend = "RANGE"
)

// SignalKind is the per-timeframe actionability read.
type SignalKind string

const (
	SignalBuy     SignalKind = "BUY"
	SignalSell    SignalKind = "SELL"
	SignalNeutral SignalKind = "NEUTRAL"
)

// Strength buckets a confidence score.
type Strength string

const (
	StrengthWeak   Strength = "WEAK"
	StrengthMedium Strength = "MEDIUM"
	StrengthStrong Strength = "STRONG"
)

// Momentum describes how the trend's rate of change is behaving.
type Momentum string

const (
	MomentumAccel Momentum = "ACCEL"
	MomentumDecel Momentum = "DECEL"
	MomentumFlat  Momentum = "FLAT"
)

// RiskLevel buckets the integrated verdict's alignment.
type RiskLevel string

const (
	RiskLow  RiskLevel = "LOW"
	RiskMed  RiskLevel = "MED"
	RiskHigh RiskLevel = "HIGH"
)

// EntryPoint is one candidate entry the analyzer surfaces per frame.
type EntryPoint struct {
	Type       string // "pullback" | "breakout"
	Price      float64
	StopLoss   float64
	TakeProfit float64
	Reason     string
}

// KeyLevels are the pivot-derived support/resistance for a frame.
type KeyLevels struct {
	Support    float64
	Resistance float64
	Pivot      float64
}

// AnalysisFrame is the per-timeframe read the analyzer produces.
type AnalysisFrame struct {
	Timeframe  Timeframe
	Trend      Trend
	Signal     SignalKind
	Confidence float64
	Strength   Strength
	Momentum   Momentum
	Volatility float64
	KeyLevels  KeyLevels
	Entries    []EntryPoint
}

// MarketTiming describes the current session context.
type MarketTiming struct {
	Session        string
	ActivityLevel  string
	WeekTiming     string
	Recommendation string
}

// IntegratedVerdict aggregates all per-timeframe frames into one view.
type IntegratedVerdict struct {
	Symbol                 Symbol
	Timestamp              time.Time
	Signal                 SignalKind
	Confidence             float64
	AlignmentScore         float64
	RiskLevel              RiskLevel
	MarketTiming           MarketTiming
	RecommendedStrategies  []string
	Timeframes             map[Timeframe]AnalysisFrame
	DataFreshness          string
}
