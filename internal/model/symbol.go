// Package model holds the broker-agnostic data types shared across the
// gateway and signal engine: symbols, quotes, candles, timeframes and the
// derived analysis/verdict shapes.
package model

import "fmt"

// Symbol is one of the 14 FX pairs the broker quotes.
type Symbol string

const (
	USDJPY Symbol = "USD_JPY"
	EURJPY Symbol = "EUR_JPY"
	GBPJPY Symbol = "GBP_JPY"
	AUDJPY Symbol = "AUD_JPY"
	NZDJPY Symbol = "NZD_JPY"
	CADJPY Symbol = "CAD_JPY"
	CHFJPY Symbol = "CHF_JPY"
	TRYJPY Symbol = "TRY_JPY"
	ZARJPY Symbol = "ZAR_JPY"
	MXNJPY Symbol = "MXN_JPY"
	EURUSD Symbol = "EUR_USD"
	GBPUSD Symbol = "GBP_USD"
	AUDUSD Symbol = "AUD_USD"
	NZDUSD Symbol = "NZD_USD"
)

// QuoteKind distinguishes JPY-quoted pairs (2 decimal pips) from
// USD-quoted pairs (4 decimal pips).
type QuoteKind string

const (
	JPYQuoted QuoteKind = "JPY_QUOTED"
	USDQuoted QuoteKind = "USD_QUOTED"
)

// SymbolSpec carries the static per-symbol facts the signer, indicator
// kernel and TFQE arithmetic all need: how many digits prices display in
// and what one pip is worth.
type SymbolSpec struct {
	Symbol    Symbol
	Kind      QuoteKind
	Precision int
	PipSize   float64
}

var symbolSpecs = map[Symbol]SymbolSpec{
	USDJPY: {USDJPY, JPYQuoted, 3, 0.01},
	EURJPY: {EURJPY, JPYQuoted, 3, 0.01},
	GBPJPY: {GBPJPY, JPYQuoted, 3, 0.01},
	AUDJPY: {AUDJPY, JPYQuoted, 3, 0.01},
	NZDJPY: {NZDJPY, JPYQuoted, 3, 0.01},
	CADJPY: {CADJPY, JPYQuoted, 3, 0.01},
	CHFJPY: {CHFJPY, JPYQuoted, 3, 0.01},
	TRYJPY: {TRYJPY, JPYQuoted, 3, 0.01},
	ZARJPY: {ZARJPY, JPYQuoted, 3, 0.01},
	MXNJPY: {MXNJPY, JPYQuoted, 3, 0.01},
	EURUSD: {EURUSD, USDQuoted, 5, 0.0001},
	GBPUSD: {GBPUSD, USDQuoted, 5, 0.0001},
	AUDUSD: {AUDUSD, USDQuoted, 5, 0.0001},
	NZDUSD: {NZDUSD, USDQuoted, 5, 0.0001},
}

// Spec returns the static facts for a symbol, or an error if the symbol
// is outside the fixed 14-pair enumeration.
func Spec(s Symbol) (SymbolSpec, error) {
	spec, ok := symbolSpecs[s]
	if !ok {
		return SymbolSpec{}, fmt.Errorf("model: unknown symbol %q", s)
	}
	return spec, nil
}

// Valid reports whether s is one of the 14 permitted symbols.
func Valid(s Symbol) bool {
	_, ok := symbolSpecs[s]
	return ok
}

// AllSymbols returns the fixed 14-pair enumeration in a stable order.
func AllSymbols() []Symbol {
	return []Symbol{
		USDJPY, EURJPY, GBPJPY, AUDJPY, NZDJPY, CADJPY, CHFJPY,
		TRYJPY, ZARJPY, MXNJPY, EURUSD, GBPUSD, AUDUSD, NZDUSD,
	}
}
