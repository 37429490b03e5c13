package candlestore

import (
	"sync"
	"time"

	"github.com/sawpanic/gmofx/internal/model"
)

// Aggregator folds inbound quotes into the current open candle for one
// (symbol, timeframe) and rotates it on the timeframe boundary (§4.5).
// A gap of more than one duration between the current candle's close
// and the next quote is filled with flat bars at the prior close,
// marked Filled so downstream indicators can elect to skip them.
type Aggregator struct {
	store   *Store
	tf      model.Timeframe
	onClose func(model.Symbol, model.Candle)

	mu      sync.Mutex
	current map[model.Symbol]*model.Candle
}

// NewAggregator builds an aggregator that rotates completed candles into
// store at timeframe tf. onClose, if non-nil, is invoked for every candle
// (real or gap-filled) after it has been written to the ring. The
// orchestrator uses it only to update the candle-staleness gauge; closed
// bars are not written to a Persistence backend.
func NewAggregator(store *Store, tf model.Timeframe, onClose func(model.Symbol, model.Candle)) *Aggregator {
	return &Aggregator{
		store:   store,
		tf:      tf,
		onClose: onClose,
		current: make(map[model.Symbol]*model.Candle),
	}
}

// OnQuote folds one quote into the open candle for symbol, rotating and
// gap-filling as needed.
func (a *Aggregator) OnQuote(symbol model.Symbol, q model.Quote) error {
	a.mu.Lock()
	defer a.mu.Unlock()

	price := q.Mid()
	duration := a.tf.Duration()
	openTime := a.tf.AlignedOpenTime(q.Timestamp)

	cur, ok := a.current[symbol]
	if !ok || cur == nil {
		a.current[symbol] = &model.Candle{
			OpenTime: openTime,
			Open:     price, High: price, Low: price, Close: price,
		}
		return nil
	}

	closeTime := cur.OpenTime.Add(duration)
	if q.Timestamp.Before(closeTime) {
		if price > cur.High {
			cur.High = price
		}
		if price < cur.Low {
			cur.Low = price
		}
		cur.Close = price
		cur.Volume++
		return nil
	}

	// Boundary crossed: close the current candle, gap-fill any skipped
	// bars with flat bars at the prior close, then open the new one.
	if err := a.store.Append(symbol, a.tf, *cur); err != nil {
		return err
	}
	if a.onClose != nil {
		a.onClose(symbol, *cur)
	}

	priorClose := cur.Close
	next := cur.OpenTime.Add(duration)
	for next.Add(duration).Before(q.Timestamp) || next.Add(duration).Equal(q.Timestamp) {
		if openTime.Equal(next) {
			break
		}
		flat := model.Candle{
			OpenTime: next,
			Open:     priorClose, High: priorClose, Low: priorClose, Close: priorClose,
			Filled: true,
		}
		if err := a.store.Append(symbol, a.tf, flat); err != nil {
			return err
		}
		if a.onClose != nil {
			a.onClose(symbol, flat)
		}
		next = next.Add(duration)
	}

	a.current[symbol] = &model.Candle{
		OpenTime: openTime,
		Open:     price, High: price, Low: price, Close: price,
	}
	return nil
}

// Flush force-closes the open candle (used on shutdown or for tests)
// without waiting for the next quote to cross the boundary.
func (a *Aggregator) Flush(symbol model.Symbol) error {
	a.mu.Lock()
	defer a.mu.Unlock()

	cur, ok := a.current[symbol]
	if !ok || cur == nil {
		return nil
	}
	err := a.store.Append(symbol, a.tf, *cur)
	if err == nil && a.onClose != nil {
		a.onClose(symbol, *cur)
	}
	delete(a.current, symbol)
	return err
}

// StaleAfter reports whether the last candle for (symbol, tf) is older
// than 1.5x the timeframe's duration relative to now (§4.9 publisher
// freshness check).
func StaleAfter(tf model.Timeframe, lastOpenTime time.Time, now time.Time) bool {
	threshold := time.Duration(float64(tf.Duration()) * 1.5)
	return now.Sub(lastOpenTime) > threshold
}
