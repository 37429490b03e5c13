// Package publisher is the periodic scheduler described in §4.9: it
// re-runs the analyzer and TFQE strategy over the candle store on a
// timer and atomically swaps in a new immutable snapshot, so readers
// never observe a torn view (§5).
package publisher

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/sawpanic/gmofx/internal/analyzer"
	"github.com/sawpanic/gmofx/internal/candlestore"
	"github.com/sawpanic/gmofx/internal/model"
	"github.com/sawpanic/gmofx/internal/tfqe"
)

const (
	tfqeInterval = 15 * time.Minute
	tfqeGrace    = 2 * time.Second
	mtfInterval  = 60 * time.Second
)

// Refresher backfills a (symbol, timeframe) pair from the broker's kline
// endpoint when the publisher finds the candle store stale (§4.9a). The
// gateway's restclient.Client satisfies this via a thin adapter.
type Refresher interface {
	Refresh(ctx context.Context, symbol model.Symbol, tf model.Timeframe) error
}

// Snapshot is the immutable, atomically-published view readers consume
// (§3 lifecycle, §6 consumer-facing publications).
type Snapshot struct {
	Timestamp      time.Time
	TFQE           map[model.Symbol]model.TFQESignal
	MultiTimeframe map[model.Symbol]model.IntegratedVerdict
	Quotes         map[model.Symbol]model.Quote
}

// Publisher owns the two periodic ticks and the published snapshot
// pointer.
type Publisher struct {
	store     *candlestore.Store
	refresher Refresher
	symbols   []model.Symbol

	analyzerParams analyzer.Params
	tfqeParams     tfqe.Params

	tfqeTicker Ticker
	mtfTicker  Ticker

	current atomic.Pointer[Snapshot]

	mu        sync.RWMutex
	lastQuote map[model.Symbol]model.Quote
}

// New builds a Publisher. tfqeTicker/mtfTicker default to real tickers
// with the §4.9 periods (15 minutes and 60 seconds) if nil; tests supply
// ManualTicker instances instead. The default TFQE ticker counts from
// construction time and is not aligned to the M15 boundary or its
// 2-second grace; New does not use NextTFQEAlignment.
func New(store *candlestore.Store, refresher Refresher, symbols []model.Symbol, ap analyzer.Params, tp tfqe.Params, tfqeTicker, mtfTicker Ticker) *Publisher {
	if tfqeTicker == nil {
		tfqeTicker = NewRealTicker(tfqeInterval)
	}
	if mtfTicker == nil {
		mtfTicker = NewRealTicker(mtfInterval)
	}
	p := &Publisher{
		store: store, refresher: refresher, symbols: symbols,
		analyzerParams: ap, tfqeParams: tp,
		tfqeTicker: tfqeTicker, mtfTicker: mtfTicker,
		lastQuote: make(map[model.Symbol]model.Quote),
	}
	p.current.Store(&Snapshot{TFQE: map[model.Symbol]model.TFQESignal{}, MultiTimeframe: map[model.Symbol]model.IntegratedVerdict{}, Quotes: map[model.Symbol]model.Quote{}})
	return p
}

// Latest returns the current published snapshot. Safe for concurrent use
// with Run; never blocks on the writer.
func (p *Publisher) Latest() Snapshot {
	return *p.current.Load()
}

// ObserveQuote records the latest quote for GET /market/latest (§6); it
// does not itself trigger a publish.
func (p *Publisher) ObserveQuote(q model.Quote) {
	p.mu.Lock()
	p.lastQuote[q.Symbol] = q
	p.mu.Unlock()
}

// Run drives both ticks until ctx is cancelled (§5 cancellation:
// observed promptly via ctx.Done in the select).
func (p *Publisher) Run(ctx context.Context) {
	defer p.tfqeTicker.Stop()
	defer p.mtfTicker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case now := <-p.tfqeTicker.C():
			p.tickTFQE(ctx, now)
		case now := <-p.mtfTicker.C():
			p.tickMultiTimeframe(ctx, now)
		}
	}
}

func (p *Publisher) tickTFQE(ctx context.Context, now time.Time) {
	p.ensureFresh(ctx, model.H1)
	p.ensureFresh(ctx, model.M15)

	prev := p.Latest()
	tfqeOut := make(map[model.Symbol]model.TFQESignal, len(p.symbols))
	for _, sym := range p.symbols {
		h1, err1 := p.store.Snapshot(sym, model.H1, 0)
		m15, err2 := p.store.Snapshot(sym, model.M15, 0)
		if err1 != nil || err2 != nil {
			continue
		}
		spec, err := model.Spec(sym)
		if err != nil {
			continue
		}
		sig := tfqe.Evaluate(tfqe.Inputs{
			Symbol: sym, PipSize: spec.PipSize, Now: now, H1: h1, M15: m15,
		}, p.tfqeParams)

		stale := false
		if last, ok := lastCandle(h1); ok && candlestore.StaleAfter(model.H1, last.OpenTime, now) {
			stale = true
		}
		if last, ok := lastCandle(m15); ok && candlestore.StaleAfter(model.M15, last.OpenTime, now) {
			stale = true
		}
		if stale {
			sig = analyzer.DegradeTFQEForStaleness(sig)
		}
		tfqeOut[sym] = sig
	}

	next := &Snapshot{
		Timestamp:      now,
		TFQE:           tfqeOut,
		MultiTimeframe: prev.MultiTimeframe,
		Quotes:         p.snapshotQuotes(),
	}
	p.current.Store(next)
}

func (p *Publisher) tickMultiTimeframe(ctx context.Context, now time.Time) {
	for _, tf := range model.AllTimeframes() {
		p.ensureFresh(ctx, tf)
	}

	prev := p.Latest()
	mtfOut := make(map[model.Symbol]model.IntegratedVerdict, len(p.symbols))
	for _, sym := range p.symbols {
		frames := make(map[model.Timeframe]model.AnalysisFrame, len(model.AllTimeframes()))
		stale := false
		for _, tf := range model.AllTimeframes() {
			candles, err := p.store.Snapshot(sym, tf, 0)
			if err != nil {
				continue
			}
			if last, ok := lastCandle(candles); ok && candlestore.StaleAfter(tf, last.OpenTime, now) {
				stale = true
			}
			frames[tf] = analyzer.Analyze(tf, candles, p.analyzerParams)
		}
		verdict := analyzer.Integrate(sym, now, frames)
		if stale {
			verdict = analyzer.DegradeForStaleness(verdict)
		}
		mtfOut[sym] = verdict
	}

	next := &Snapshot{
		Timestamp:      now,
		TFQE:           prev.TFQE,
		MultiTimeframe: mtfOut,
		Quotes:         p.snapshotQuotes(),
	}
	p.current.Store(next)
}

func lastCandle(candles []model.Candle) (model.Candle, bool) {
	if len(candles) == 0 {
		return model.Candle{}, false
	}
	return candles[len(candles)-1], true
}

// ensureFresh backfills via the refresher when the last candle for every
// configured symbol at tf is older than 1.5x its duration (§4.9a).
func (p *Publisher) ensureFresh(ctx context.Context, tf model.Timeframe) {
	if p.refresher == nil {
		return
	}
	now := time.Now()
	for _, sym := range p.symbols {
		last, ok, err := p.store.Last(sym, tf)
		if err != nil {
			continue
		}
		if ok && !candlestore.StaleAfter(tf, last.OpenTime, now) {
			continue
		}
		if err := p.refresher.Refresh(ctx, sym, tf); err != nil {
			log.Warn().Err(err).Str("symbol", string(sym)).Str("timeframe", string(tf)).Msg("candle refresh failed, continuing with stale data")
		}
	}
}

func (p *Publisher) snapshotQuotes() map[model.Symbol]model.Quote {
	p.mu.RLock()
	defer p.mu.RUnlock()
	out := make(map[model.Symbol]model.Quote, len(p.lastQuote))
	for k, v := range p.lastQuote {
		out[k] = v
	}
	return out
}

// NextTFQEAlignment returns the duration until the next M15 boundary plus
// the 2-second publish grace (§4.9), for callers that want to schedule
// an aligned first tick instead of starting from an arbitrary phase.
func NextTFQEAlignment(now time.Time) time.Duration {
	boundary := model.M15.AlignedOpenTime(now).Add(model.M15.Duration())
	return boundary.Add(tfqeGrace).Sub(now)
}
