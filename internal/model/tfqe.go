package model

import "time"

// TFQESignalKind is the tagged outcome of one TFQE state-machine tick.
type TFQESignalKind string

const (
	TFQEBuy             TFQESignalKind = "BUY"
	TFQESell            TFQESignalKind = "SELL"
	TFQEWaitingPullback TFQESignalKind = "WAITING_PULLBACK"
	TFQEWaitingRally    TFQESignalKind = "WAITING_RALLY"
	TFQENoTrend         TFQESignalKind = "NO_TREND"
	TFQEOutOfSession    TFQESignalKind = "OUT_OF_SESSION"
)

// PostEntryContract is published alongside a live BUY/SELL signal so the
// UI can display the management plan even though the gateway does not
// execute it in read-only mode (§4.8).
type PostEntryContract struct {
	TP1ClosesFraction float64 `json:"tp1_closes_fraction"`
	MoveStopToEntry   bool    `json:"move_stop_to_entry_at_tp1"`
	TrailRule         string  `json:"trail_rule"`
}

// TFQESignal is the full tagged value the strategy emits each tick.
type TFQESignal struct {
	Symbol     Symbol         `json:"symbol"`
	Timestamp  time.Time      `json:"timestamp"`
	Signal     TFQESignalKind `json:"signal"`
	Entry      float64        `json:"entry,omitempty"`
	StopLoss   float64        `json:"stop_loss,omitempty"`
	TP1        float64        `json:"tp1,omitempty"`
	TP2        float64        `json:"tp2,omitempty"`
	RiskPips   float64        `json:"risk_pips,omitempty"`
	RewardPips float64        `json:"reward_pips,omitempty"`
	Confidence float64        `json:"confidence,omitempty"`
	H1Trend    Trend          `json:"h1_trend,omitempty"`
	H1ADX      float64        `json:"h1_adx,omitempty"`
	M15Price   float64        `json:"m15_price,omitempty"`
	M15EMA20   float64        `json:"m15_ema20,omitempty"`
	M15ATR     float64        `json:"m15_atr,omitempty"`
	Distance   float64        `json:"distance,omitempty"`

	PostEntry *PostEntryContract `json:"post_entry,omitempty"`

	// DataFreshness communicates candle-store staleness per §7; empty
	// means the data behind the signal was fresh.
	DataFreshness string `json:"data_freshness,omitempty"`
}

// HasEntry reports whether the signal carries a live trade plan.
func (s TFQESignal) HasEntry() bool {
	return s.Signal == TFQEBuy || s.Signal == TFQESell
}
