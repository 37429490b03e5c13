package restclient

import (
	"context"
	"net/url"
	"strconv"
	"time"

	"github.com/sawpanic/gmofx/internal/model"
)

// StatusResponse mirrors GET /public/v1/status.
type StatusResponse struct {
	Status string `json:"status"`
}

// Status reports whether the market is OPEN, CLOSE or MAINTENANCE.
func (c *Client) Status(ctx context.Context) (StatusResponse, error) {
	var out StatusResponse
	err := c.do(ctx, publicGET, "GET", "/v1/status", nil, &out)
	return out, err
}

// TickerEntry is one symbol's line from GET /public/v1/ticker.
type TickerEntry struct {
	Symbol    model.Symbol `json:"symbol"`
	Ask       string       `json:"ask"`
	Bid       string       `json:"bid"`
	Timestamp time.Time    `json:"timestamp"`
	Status    string       `json:"status"`
}

// Ticker fetches the latest quote for every symbol the broker lists; it
// does not filter by the configured symbols.
func (c *Client) Ticker(ctx context.Context) ([]TickerEntry, error) {
	var out []TickerEntry
	err := c.do(ctx, publicGET, "GET", "/v1/ticker", nil, &out)
	return out, err
}

// KlineEntry is one OHLC bar from GET /public/v1/klines.
type KlineEntry struct {
	OpenTime string `json:"openTime"`
	Open     string `json:"open"`
	High     string `json:"high"`
	Low      string `json:"low"`
	Close    string `json:"close"`
}

// Klines fetches OHLC history bounded by a date query, per §9 Open
// Questions: the broker requires "date" as YYYYMMDD for intraday
// timeframes or YYYY for D1. Long D1 lookbacks need repeated calls
// across multiple date buckets; FetchKlineRange below does that.
func (c *Client) Klines(ctx context.Context, symbol model.Symbol, tf model.Timeframe, date string) ([]KlineEntry, error) {
	q := url.Values{}
	q.Set("symbol", string(symbol))
	q.Set("priceType", "BID")
	q.Set("interval", klineInterval(tf))
	q.Set("date", date)

	var out []KlineEntry
	err := c.do(ctx, publicGET, "GET", "/v1/klines?"+q.Encode(), nil, &out)
	return out, err
}

// FetchKlineRange backfills candles across as many daily/yearly date
// buckets as needed to satisfy a warm-up lookback of n candles, looping
// backwards from today. This resolves the §9 Open Question about
// multi-day fetch loops for long D1 lookbacks.
func (c *Client) FetchKlineRange(ctx context.Context, symbol model.Symbol, tf model.Timeframe, n int) ([]KlineEntry, error) {
	var all []KlineEntry
	now := time.Now().UTC()

	for bucket := 0; len(all) < n && bucket < 400; bucket++ {
		var date string
		var step time.Duration
		if tf == model.D1 {
			date = strconv.Itoa(now.AddDate(-bucket, 0, 0).Year())
			step = 365 * 24 * time.Hour
		} else {
			d := now.AddDate(0, 0, -bucket)
			date = d.Format("20060102")
			step = 24 * time.Hour
		}

		entries, err := c.Klines(ctx, symbol, tf, date)
		if err != nil {
			return all, err
		}
		all = append(entries, all...)
		_ = step
	}
	return all, nil
}

func klineInterval(tf model.Timeframe) string {
	switch tf {
	case model.M1:
		return "1min"
	case model.M5:
		return "5min"
	case model.M15:
		return "15min"
	case model.H1:
		return "1hour"
	case model.H4:
		return "4hour"
	case model.D1:
		return "1day"
	default:
		return "1hour"
	}
}

// Symbols fetches the tradeable-symbol metadata from GET /public/v1/symbols.
func (c *Client) Symbols(ctx context.Context) ([]string, error) {
	var out []struct {
		Symbol string `json:"symbol"`
	}
	if err := c.do(ctx, publicGET, "GET", "/v1/symbols", nil, &out); err != nil {
		return nil, err
	}
	syms := make([]string, 0, len(out))
	for _, s := range out {
		syms = append(syms, s.Symbol)
	}
	return syms, nil
}
