package httpapi

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sawpanic/gmofx/internal/analyzer"
	"github.com/sawpanic/gmofx/internal/candlestore"
	"github.com/sawpanic/gmofx/internal/model"
	"github.com/sawpanic/gmofx/internal/publisher"
	"github.com/sawpanic/gmofx/internal/tfqe"
)

func newTestServer(t *testing.T) (*Server, *publisher.Publisher) {
	t.Helper()
	store := candlestore.New([]model.Symbol{model.USDJPY}, candlestore.MinCapacity)
	pub := publisher.New(store, nil, []model.Symbol{model.USDJPY}, analyzer.Defaults(), tfqe.DefaultParams(), publisher.NewManualTicker(), publisher.NewManualTicker())
	s := New(DefaultConfig(), pub, nil)
	return s, pub
}

func TestHandleTFQE_UnknownSymbolIsBadRequest(t *testing.T) {
	s, _ := newTestServer(t)
	req := httptest.NewRequest(http.MethodGet, "/signals/tfqe?symbol=NOPE", nil)
	rec := httptest.NewRecorder()
	s.router.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestHandleTFQE_NoSignalYetIsNotFound(t *testing.T) {
	s, _ := newTestServer(t)
	req := httptest.NewRequest(http.MethodGet, "/signals/tfqe?symbol=USD_JPY", nil)
	rec := httptest.NewRecorder()
	s.router.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestHandleMultiTimeframe_InvalidJSONIsBadRequest(t *testing.T) {
	s, _ := newTestServer(t)
	req := httptest.NewRequest(http.MethodPost, "/analysis/multi-timeframe", bytes.NewBufferString("not json"))
	rec := httptest.NewRecorder()
	s.router.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestHandleMarketLatest_ReturnsObservedQuotes(t *testing.T) {
	store := candlestore.New([]model.Symbol{model.USDJPY}, candlestore.MinCapacity)
	mtfTicker := publisher.NewManualTicker()
	pub := publisher.New(store, nil, []model.Symbol{model.USDJPY}, analyzer.Defaults(), tfqe.DefaultParams(), publisher.NewManualTicker(), mtfTicker)
	s := New(DefaultConfig(), pub, nil)
	pub.ObserveQuote(model.Quote{Symbol: model.USDJPY, Bid: 150, Ask: 150.01, Timestamp: time.Now(), MarketStatus: model.MarketOpen})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go pub.Run(ctx)

	// ObserveQuote does not publish by itself; a publisher tick carries the
	// observed quote into the snapshot the handler reads.
	mtfTicker.Fire(time.Now())
	require.Eventually(t, func() bool { return len(pub.Latest().Quotes) == 1 }, time.Second, 5*time.Millisecond)

	req := httptest.NewRequest(http.MethodGet, "/market/latest", nil)
	rec := httptest.NewRecorder()
	s.router.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)

	var quotes []model.Quote
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &quotes))
	require.Len(t, quotes, 1)
	assert.Equal(t, model.USDJPY, quotes[0].Symbol)
}

func TestHandleHealthz_OK(t *testing.T) {
	s, _ := newTestServer(t)
	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	rec := httptest.NewRecorder()
	s.router.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))
}

func TestHandleNotFound(t *testing.T) {
	s, _ := newTestServer(t)
	req := httptest.NewRequest(http.MethodGet, "/no/such/route", nil)
	rec := httptest.NewRecorder()
	s.router.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestRequestIDMiddleware_SetsHeader(t *testing.T) {
	s, _ := newTestServer(t)
	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	rec := httptest.NewRecorder()
	s.router.ServeHTTP(rec, req)
	assert.NotEmpty(t, rec.Header().Get("X-Request-ID"))
}
