// Package app wires every component into one orchestrator (§4.10): the
// gateway (REST + WS + limiter + signer), the candle store, the
// analyzer, the TFQE strategy, the publisher, and the HTTP publication
// surface, all built by constructor injection with no package-level
// globals. Grounded in the teacher's cmd/cryptorun wiring style, adapted
// from a single-pass scanner invocation into a long-lived service with
// the shutdown order from §5.
package app

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog/log"

	"github.com/sawpanic/gmofx/internal/analyzer"
	"github.com/sawpanic/gmofx/internal/candlestore"
	"github.com/sawpanic/gmofx/internal/candlestore/postgres"
	"github.com/sawpanic/gmofx/internal/config"
	"github.com/sawpanic/gmofx/internal/httpapi"
	"github.com/sawpanic/gmofx/internal/model"
	"github.com/sawpanic/gmofx/internal/publisher"
	"github.com/sawpanic/gmofx/internal/ratelimit"
	"github.com/sawpanic/gmofx/internal/restclient"
	"github.com/sawpanic/gmofx/internal/telemetry"
	"github.com/sawpanic/gmofx/internal/tfqe"
	"github.com/sawpanic/gmofx/internal/wsclient"
)

// App is the fully wired runtime. Build one with New and run it with
// Run; Run blocks until ctx is cancelled and then shuts every component
// down in the §5 order.
type App struct {
	cfg config.Config

	rest    *restclient.Client
	limiter *ratelimit.Limiter

	store       *candlestore.Store
	aggregators map[model.Timeframe]*candlestore.Aggregator

	pub *publisher.Publisher

	public  *wsclient.PublicClient
	private *wsclient.PrivateClient

	metrics *telemetry.Metrics
	http    *httpapi.Server
}

// New builds every component but neither subscribes the configured
// symbols nor starts any goroutines — call Run for that.
func New(cfg config.Config) (*App, error) {
	limiter := ratelimit.New(ratelimit.Limits{
		GetPerSec: cfg.Limits.GetPerSec, PostPerSec: cfg.Limits.PostPerSec, WSSubPerSecIP: cfg.Limits.WSSubPerSec,
	})

	rest := restclient.New(restclient.Config{
		APIKey: cfg.API.Key, APISecret: cfg.API.Secret,
		ClockSkewMax: time.Duration(cfg.ClockSkewMaxMs) * time.Millisecond,
	}, limiter, !cfg.Trading.Enabled)

	store := candlestore.New(cfg.Symbols, candlestore.MinCapacity)

	if cfg.Postgres.Enabled {
		pgCfg := postgres.DefaultConfig()
		pgCfg.DSN = cfg.Postgres.DSN
		db, err := postgres.Open(context.Background(), pgCfg)
		if err != nil {
			return nil, fmt.Errorf("open postgres: %w", err)
		}
		persist := postgres.NewCandleRepo(db, pgCfg.QueryTimeout)
		if err := candlestore.Hydrate(context.Background(), store, persist, candlestore.MinCapacity); err != nil {
			log.Warn().Err(err).Msg("candle store hydration encountered errors, continuing with partial history")
		}
	}

	reg := prometheus.NewRegistry()
	metrics := telemetry.New(reg)

	refresher := newKlineRefresher(rest, store)
	tfqeParams, err := tfqeParamsFrom(cfg)
	if err != nil {
		return nil, fmt.Errorf("tfqe params: %w", err)
	}
	pub := publisher.New(store, refresher, cfg.Symbols, analyzer.Defaults(), tfqeParams, nil, nil)

	httpSrv := httpapi.New(httpapi.Config{
		Host: cfg.HTTP.Host, Port: cfg.HTTP.Port,
		ReadTimeout: 10 * time.Second, WriteTimeout: 10 * time.Second, IdleTimeout: 60 * time.Second,
	}, pub, promhttp.HandlerFor(reg, promhttp.HandlerOpts{}))

	a := &App{
		cfg: cfg, rest: rest, limiter: limiter, store: store,
		aggregators: buildAggregators(store, pub, metrics),
		pub:         pub, metrics: metrics, http: httpSrv,
	}
	a.public = wsclient.NewPublicClient(limiter, a.onPublicFrame)
	if cfg.Trading.Enabled {
		a.private = wsclient.NewPrivateClient(wsclient.PrivateTokenFuncs{
			Create: func(ctx context.Context) (string, error) {
				tok, err := rest.WSAuthCreate(ctx)
				return tok.Token, err
			},
			Extend: rest.WSAuthExtend,
			Delete: rest.WSAuthDelete,
		}, limiter, a.onPrivateStall)
	}
	return a, nil
}

func tfqeParamsFrom(cfg config.Config) (tfqe.Params, error) {
	p := tfqe.DefaultParams()
	p.ATRStopMult = cfg.TFQE.ATRStopMult
	p.TP1Mult = cfg.TFQE.TP1Mult
	p.TP2Mult = cfg.TFQE.TP2Mult

	start, err := config.ParseClock(cfg.TFQE.SessionStart)
	if err != nil {
		return tfqe.Params{}, fmt.Errorf("tfqe.session_start: %w", err)
	}
	end, err := config.ParseClock(cfg.TFQE.SessionEnd)
	if err != nil {
		return tfqe.Params{}, fmt.Errorf("tfqe.session_end: %w", err)
	}
	p.SessionStartJST = start
	p.SessionEndJST = end
	return p, nil
}

// buildAggregators wires one tick-to-candle Aggregator per timeframe,
// mirroring each closed candle into the candle-staleness gauge (§4.5/§9
// telemetry).
func buildAggregators(store *candlestore.Store, pub *publisher.Publisher, metrics *telemetry.Metrics) map[model.Timeframe]*candlestore.Aggregator {
	out := make(map[model.Timeframe]*candlestore.Aggregator, len(model.AllTimeframes()))
	for _, tf := range model.AllTimeframes() {
		tf := tf
		out[tf] = candlestore.NewAggregator(store, tf, func(sym model.Symbol, c model.Candle) {
			stale := 0.0
			if candlestore.StaleAfter(tf, c.OpenTime, time.Now()) {
				stale = 1.0
			}
			metrics.CandleStoreStale.WithLabelValues(string(sym), string(tf)).Set(stale)
		})
	}
	_ = pub
	return out
}

func (a *App) onPublicFrame(f wsclient.Frame) {
	if f.Channel != "ticker" {
		return
	}
	var payload struct {
		Symbol    model.Symbol `json:"symbol"`
		Bid       string       `json:"bid"`
		Ask       string       `json:"ask"`
		Timestamp time.Time    `json:"timestamp"`
		Status    string       `json:"status"`
	}
	if len(f.RawPayload) == 0 {
		return
	}
	if err := json.Unmarshal(f.RawPayload, &payload); err != nil {
		log.Debug().Err(err).Msg("discarding undecodable ticker frame")
		return
	}
	bid, err1 := parseFloat(payload.Bid)
	ask, err2 := parseFloat(payload.Ask)
	if err1 != nil || err2 != nil {
		return
	}
	q := model.Quote{
		Symbol: payload.Symbol, Bid: bid, Ask: ask,
		Timestamp: payload.Timestamp, MarketStatus: model.MarketStatus(payload.Status),
	}
	a.pub.ObserveQuote(q)
	for _, agg := range a.aggregators {
		if err := agg.OnQuote(payload.Symbol, q); err != nil {
			log.Debug().Err(err).Str("symbol", string(payload.Symbol)).Msg("aggregator rejected quote")
		}
	}
}

func (a *App) onPrivateStall() {
	a.metrics.WSConsumerStalls.WithLabelValues("private").Inc()
}

// Run starts every long-lived worker and blocks until ctx is cancelled,
// then shuts down in the §5 order: publisher, then WS clients, then the
// HTTP client (the REST client itself has no explicit close — only its
// dependents are drained).
func (a *App) Run(ctx context.Context) error {
	runCtx, cancel := context.WithCancel(ctx)

	for _, sym := range a.cfg.Symbols {
		if err := a.public.Subscribe(runCtx, wsclient.Subscription{Channel: "ticker", Symbol: sym}); err != nil {
			return fmt.Errorf("subscribe ticker %s: %w", sym, err)
		}
	}

	go a.public.Run(runCtx)
	if a.private != nil {
		go a.private.Run(runCtx)
	}
	go a.pub.Run(runCtx)

	errCh := make(chan error, 1)
	go func() { errCh <- a.http.ListenAndServe() }()

	select {
	case <-ctx.Done():
	case err := <-errCh:
		if err != nil {
			log.Error().Err(err).Msg("http publication surface failed")
		}
	}

	// §5 shutdown order: publisher first, then WS clients, then the HTTP
	// client. Cancelling runCtx stops the publisher and both WS Run loops
	// (observed within 100ms via their select on ctx.Done()) before the
	// private client's token deletion and the HTTP server's drain below.
	cancel()
	return a.shutdown()
}

// shutdown closes the public WS connection, drains the private WS
// client's token, and closes the HTTP server, per §5's documented
// ordering (called after runCtx is already cancelled).
func (a *App) shutdown() error {
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := a.public.Shutdown(shutdownCtx); err != nil {
		log.Warn().Err(err).Msg("public ws connection close failed during shutdown")
	}
	if a.private != nil {
		if err := a.private.Shutdown(shutdownCtx); err != nil {
			log.Warn().Err(err).Msg("private ws token deletion failed during shutdown")
		}
	}
	if err := a.http.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("http shutdown: %w", err)
	}
	return nil
}

func parseFloat(s string) (float64, error) {
	return strconv.ParseFloat(s, 64)
}
