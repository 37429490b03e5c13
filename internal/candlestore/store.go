// Package candlestore holds the in-memory per-(symbol,timeframe) candle
// rings described in spec §4.5: fixed capacity, single-writer/many-reader,
// with atomic point-in-time snapshot reads (§5).
package candlestore

import (
	"fmt"
	"sync"
	"sync/atomic"

	"github.com/sawpanic/gmofx/internal/model"
)

// MinCapacity is the minimum ring size spec §3 requires — enough for the
// longest indicator lookback (ADX's 2×14 warm-up plus headroom).
const MinCapacity = 500

// ring is one (symbol, timeframe) buffer. Writes take the mutex and build
// a new immutable slice; readers take an atomic snapshot of the current
// slice without ever blocking on the writer.
type ring struct {
	mu       sync.Mutex
	capacity int
	current  atomic.Pointer[[]model.Candle]
}

func newRing(capacity int) *ring {
	if capacity < MinCapacity {
		capacity = MinCapacity
	}
	r := &ring{capacity: capacity}
	empty := make([]model.Candle, 0, capacity)
	r.current.Store(&empty)
	return r
}

// snapshot returns the last n candles (or all of them if n <= 0 or
// fewer are present). The returned slice is never mutated by the store
// after being handed out — callers may hold it across time safely.
func (r *ring) snapshot(n int) []model.Candle {
	full := *r.current.Load()
	if n <= 0 || n >= len(full) {
		return full
	}
	return full[len(full)-n:]
}

// append adds one candle, trimming the oldest entry once capacity is
// reached. Only the aggregator's rotation calls this (via Store.Append),
// and it serializes through the ring's mutex.
func (r *ring) append(c model.Candle) {
	r.mu.Lock()
	defer r.mu.Unlock()

	prev := *r.current.Load()
	next := make([]model.Candle, len(prev), r.capacity)
	copy(next, prev)
	next = append(next, c)
	if len(next) > r.capacity {
		next = next[len(next)-r.capacity:]
	}
	r.current.Store(&next)
}

// replace swaps in an entirely new set of candles (used for warm-up
// backfill from the kline REST endpoint).
func (r *ring) replace(candles []model.Candle) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if len(candles) > r.capacity {
		candles = candles[len(candles)-r.capacity:]
	}
	snap := make([]model.Candle, len(candles))
	copy(snap, candles)
	r.current.Store(&snap)
}

func (r *ring) last() (model.Candle, bool) {
	full := *r.current.Load()
	if len(full) == 0 {
		return model.Candle{}, false
	}
	return full[len(full)-1], true
}

// Store is the set of rings for every configured symbol and the six
// supported timeframes. The key set is fixed at construction time, so no
// locking is needed around the map itself at runtime.
type Store struct {
	rings map[key]*ring
}

type key struct {
	symbol model.Symbol
	tf     model.Timeframe
}

// New builds a store with one ring per (symbol, timeframe) pair for the
// given symbols, each sized to capacity (or MinCapacity if smaller).
func New(symbols []model.Symbol, capacity int) *Store {
	s := &Store{rings: make(map[key]*ring)}
	for _, sym := range symbols {
		for _, tf := range model.AllTimeframes() {
			s.rings[key{sym, tf}] = newRing(capacity)
		}
	}
	return s
}

func (s *Store) ringFor(symbol model.Symbol, tf model.Timeframe) (*ring, error) {
	r, ok := s.rings[key{symbol, tf}]
	if !ok {
		return nil, fmt.Errorf("candlestore: no ring for %s/%s", symbol, tf)
	}
	return r, nil
}

// Snapshot returns a point-in-time read of the last n candles for
// (symbol, tf). n <= 0 returns everything currently buffered.
func (s *Store) Snapshot(symbol model.Symbol, tf model.Timeframe, n int) ([]model.Candle, error) {
	r, err := s.ringFor(symbol, tf)
	if err != nil {
		return nil, err
	}
	return r.snapshot(n), nil
}

// Last returns the most recent candle for (symbol, tf), if any.
func (s *Store) Last(symbol model.Symbol, tf model.Timeframe) (model.Candle, bool, error) {
	r, err := s.ringFor(symbol, tf)
	if err != nil {
		return model.Candle{}, false, err
	}
	c, ok := r.last()
	return c, ok, nil
}

// Append adds one candle to (symbol, tf) — used by the tick aggregator's
// rotation; the kline backfiller goes through Backfill instead.
func (s *Store) Append(symbol model.Symbol, tf model.Timeframe, c model.Candle) error {
	r, err := s.ringFor(symbol, tf)
	if err != nil {
		return err
	}
	r.append(c)
	return nil
}

// Backfill replaces the entire ring contents for (symbol, tf), used on
// warm-up from the kline REST endpoint.
func (s *Store) Backfill(symbol model.Symbol, tf model.Timeframe, candles []model.Candle) error {
	r, err := s.ringFor(symbol, tf)
	if err != nil {
		return err
	}
	r.replace(candles)
	return nil
}

// Symbols enumerates the symbols this store was constructed with.
func (s *Store) Symbols() []model.Symbol {
	seen := make(map[model.Symbol]struct{})
	var out []model.Symbol
	for k := range s.rings {
		if _, ok := seen[k.symbol]; !ok {
			seen[k.symbol] = struct{}{}
			out = append(out, k.symbol)
		}
	}
	return out
}
