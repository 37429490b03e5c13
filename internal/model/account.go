package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// Side is a buy/sell direction on the order path. Every quantity on this
// path is a decimal.Decimal — never a float64 — per §3.
type Side string

const (
	SideBuy  Side = "BUY"
	SideSell Side = "SELL"
)

// Asset is one line of the broker's /private/v1/account/assets response.
type Asset struct {
	Symbol          string          `json:"symbol"`
	EquivalentJPY   decimal.Decimal `json:"equivalentJpy"`
	AvailableAmount decimal.Decimal `json:"availableAmount"`
}

// Position is one line of /private/v1/openPositions.
type Position struct {
	PositionID int64           `json:"positionId"`
	Symbol     Symbol          `json:"symbol"`
	Side       Side            `json:"side"`
	Size       decimal.Decimal `json:"size"`
	Price      decimal.Decimal `json:"price"`
	LossGain   decimal.Decimal `json:"lossGain"`
	Timestamp  time.Time       `json:"timestamp"`
}

// Order is one line of /private/v1/activeOrders.
type Order struct {
	OrderID       int64           `json:"orderId"`
	ClientOrderID string          `json:"clientOrderId,omitempty"`
	Symbol        Symbol          `json:"symbol"`
	Side          Side            `json:"side"`
	OrderType     string          `json:"executionType"`
	Size          decimal.Decimal `json:"size"`
	Price         decimal.Decimal `json:"price"`
	Status        string          `json:"status"`
	Timestamp     time.Time       `json:"timestamp"`
}

// Execution is one fill from /private/v1/executions or /latestExecutions.
type Execution struct {
	ExecutionID int64           `json:"executionId"`
	OrderID     int64           `json:"orderId"`
	Symbol      Symbol          `json:"symbol"`
	Side        Side            `json:"side"`
	Size        decimal.Decimal `json:"size"`
	Price       decimal.Decimal `json:"price"`
	LossGain    decimal.Decimal `json:"lossGain"`
	Timestamp   time.Time       `json:"timestamp"`
}
