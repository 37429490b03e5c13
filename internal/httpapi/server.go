// Package httpapi is the read-only consumer-facing publication surface
// (§6): the signal publisher's snapshots served as JSON, plus /healthz
// and /metrics. Adapted from the teacher's internal/interfaces/http
// server — same gorilla/mux + middleware chain shape, generalized to
// the FX signal contracts instead of the momentum-candidate endpoints.
package httpapi

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog/log"

	"github.com/sawpanic/gmofx/internal/model"
	"github.com/sawpanic/gmofx/internal/publisher"
)

// Config holds server bind settings.
type Config struct {
	Host         string
	Port         int
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
	IdleTimeout  time.Duration
}

// DefaultConfig binds to localhost only, matching the teacher's
// local-only read-only server default.
func DefaultConfig() Config {
	return Config{
		Host: "127.0.0.1", Port: 8080,
		ReadTimeout: 10 * time.Second, WriteTimeout: 10 * time.Second, IdleTimeout: 60 * time.Second,
	}
}

// Server serves the three consumer-facing publications (§6) over
// gorilla/mux, plus operational endpoints.
type Server struct {
	router *mux.Router
	http   *http.Server
	pub    *publisher.Publisher
	cfg    Config
}

// New builds a Server bound to cfg.Host:cfg.Port.
func New(cfg Config, pub *publisher.Publisher, metricsHandler http.Handler) *Server {
	router := mux.NewRouter()
	s := &Server{router: router, pub: pub, cfg: cfg}

	router.Use(s.requestIDMiddleware)
	router.Use(s.requestLoggingMiddleware)
	router.Use(s.timeoutMiddleware)

	api := router.PathPrefix("/").Subrouter()
	api.Use(s.jsonContentTypeMiddleware)
	api.HandleFunc("/signals/tfqe", s.handleTFQE).Methods(http.MethodGet)
	api.HandleFunc("/analysis/multi-timeframe", s.handleMultiTimeframe).Methods(http.MethodPost)
	api.HandleFunc("/market/latest", s.handleMarketLatest).Methods(http.MethodGet)
	api.HandleFunc("/healthz", s.handleHealthz).Methods(http.MethodGet)

	if metricsHandler == nil {
		metricsHandler = promhttp.Handler()
	}
	router.Handle("/metrics", metricsHandler).Methods(http.MethodGet)

	router.NotFoundHandler = http.HandlerFunc(s.handleNotFound)

	s.http = &http.Server{
		Addr:         fmt.Sprintf("%s:%d", cfg.Host, cfg.Port),
		Handler:      router,
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
		IdleTimeout:  cfg.IdleTimeout,
	}
	return s
}

// ListenAndServe starts the server; it blocks until Shutdown is called
// or a fatal listener error occurs.
func (s *Server) ListenAndServe() error {
	log.Info().Str("addr", s.http.Addr).Msg("http publication surface listening")
	err := s.http.ListenAndServe()
	if err == http.ErrServerClosed {
		return nil
	}
	return err
}

// Shutdown gracefully drains in-flight requests (§5 shutdown ordering:
// the HTTP client closes last, but this surface itself closes whenever
// the orchestrator tears down).
func (s *Server) Shutdown(ctx context.Context) error {
	return s.http.Shutdown(ctx)
}

type tfqeResponse struct {
	Symbol model.Symbol      `json:"symbol"`
	Signal model.TFQESignal  `json:"signal"`
}

func (s *Server) handleTFQE(w http.ResponseWriter, r *http.Request) {
	symbol := model.Symbol(r.URL.Query().Get("symbol"))
	if symbol == "" || !model.Valid(symbol) {
		writeError(w, http.StatusBadRequest, "unknown or missing symbol")
		return
	}
	snap := s.pub.Latest()
	sig, ok := snap.TFQE[symbol]
	if !ok {
		writeError(w, http.StatusNotFound, "no TFQE signal published yet for this symbol")
		return
	}
	writeJSON(w, http.StatusOK, tfqeResponse{Symbol: symbol, Signal: sig})
}

type multiTimeframeRequest struct {
	Symbol model.Symbol `json:"symbol"`
}

type multiTimeframeResponse struct {
	Timestamp         time.Time                            `json:"timestamp"`
	Symbol            model.Symbol                          `json:"symbol"`
	Timeframes        map[model.Timeframe]model.AnalysisFrame `json:"timeframes"`
	IntegratedStrategy model.IntegratedVerdict                `json:"integrated_strategy"`
	MarketSession      model.MarketTiming                     `json:"market_session"`
}

func (s *Server) handleMultiTimeframe(w http.ResponseWriter, r *http.Request) {
	var req multiTimeframeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	if !model.Valid(req.Symbol) {
		writeError(w, http.StatusBadRequest, "unknown symbol")
		return
	}
	snap := s.pub.Latest()
	verdict, ok := snap.MultiTimeframe[req.Symbol]
	if !ok {
		writeError(w, http.StatusNotFound, "no multi-timeframe verdict published yet for this symbol")
		return
	}
	writeJSON(w, http.StatusOK, multiTimeframeResponse{
		Timestamp: snap.Timestamp, Symbol: req.Symbol,
		Timeframes: verdict.Timeframes, IntegratedStrategy: verdict, MarketSession: verdict.MarketTiming,
	})
}

func (s *Server) handleMarketLatest(w http.ResponseWriter, r *http.Request) {
	snap := s.pub.Latest()
	quotes := make([]model.Quote, 0, len(snap.Quotes))
	for _, q := range snap.Quotes {
		quotes = append(quotes, q)
	}
	writeJSON(w, http.StatusOK, quotes)
}

func (s *Server) handleHealthz(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleNotFound(w http.ResponseWriter, r *http.Request) {
	writeError(w, http.StatusNotFound, "route not found")
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

func (s *Server) requestIDMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := uuid.New().String()[:8]
		w.Header().Set("X-Request-ID", id)
		next.ServeHTTP(w, r)
	})
}

func (s *Server) requestLoggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		next.ServeHTTP(w, r)
		log.Debug().Str("method", r.Method).Str("path", r.URL.Path).Dur("duration", time.Since(start)).Msg("http request")
	})
}

func (s *Server) timeoutMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
		defer cancel()
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func (s *Server) jsonContentTypeMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		next.ServeHTTP(w, r)
	})
}
