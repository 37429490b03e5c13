// Package telemetry holds the Prometheus metrics the orchestrator wires
// into the HTTP surface's /metrics endpoint.
package telemetry

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics bundles the gateway and signal engine counters/gauges/histograms.
// All are registered, but only CandleStoreStale and WSConsumerStalls are
// updated by the orchestrator; the others stay at their zero values.
type Metrics struct {
	GatewayRequests   *prometheus.CounterVec
	GatewayErrors     *prometheus.CounterVec
	GatewayLatency    *prometheus.HistogramVec
	WSReconnects      *prometheus.CounterVec
	WSConsumerStalls  *prometheus.CounterVec
	PublisherTicks    *prometheus.CounterVec
	PublisherLatency  *prometheus.HistogramVec
	CandleStoreStale  *prometheus.GaugeVec
}

// New registers and returns the metric set against reg. Pass
// prometheus.NewRegistry() in production; tests can use a fresh
// registry per test to avoid duplicate-registration panics.
func New(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		GatewayRequests: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: "gmofx", Subsystem: "gateway", Name: "requests_total",
			Help: "Total broker REST requests by endpoint and verb class.",
		}, []string{"endpoint", "verb_class"}),
		GatewayErrors: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: "gmofx", Subsystem: "gateway", Name: "errors_total",
			Help: "Total broker REST errors by taxonomy code.",
		}, []string{"code"}),
		GatewayLatency: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "gmofx", Subsystem: "gateway", Name: "request_duration_seconds",
			Help:    "Broker REST request latency.",
			Buckets: prometheus.DefBuckets,
		}, []string{"endpoint"}),
		WSReconnects: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: "gmofx", Subsystem: "ws", Name: "reconnects_total",
			Help: "Total WebSocket reconnect attempts by stream.",
		}, []string{"stream"}),
		WSConsumerStalls: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: "gmofx", Subsystem: "ws", Name: "consumer_stalls_total",
			Help: "Total WS_CONSUMER_STALL events by channel.",
		}, []string{"channel"}),
		PublisherTicks: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: "gmofx", Subsystem: "publisher", Name: "ticks_total",
			Help: "Total publisher ticks by kind (tfqe, multi_timeframe).",
		}, []string{"kind"}),
		PublisherLatency: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "gmofx", Subsystem: "publisher", Name: "tick_duration_seconds",
			Help:    "Time spent computing and publishing one snapshot.",
			Buckets: prometheus.DefBuckets,
		}, []string{"kind"}),
		CandleStoreStale: factory.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: "gmofx", Subsystem: "candlestore", Name: "stale",
			Help: "1 if the last candle for (symbol, timeframe) exceeds the staleness threshold, else 0.",
		}, []string{"symbol", "timeframe"}),
	}
}
