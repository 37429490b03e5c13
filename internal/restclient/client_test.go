package restclient

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sawpanic/gmofx/internal/gatewayerrors"
	"github.com/sawpanic/gmofx/internal/ratelimit"
)

func fastLimiter() *ratelimit.Limiter {
	return ratelimit.New(ratelimit.Limits{GetPerSec: 50, PostPerSec: 50, WSSubPerSecIP: 50})
}

func TestClient_Status_DecodesSuccessEnvelope(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"status":0,"data":{"status":"OPEN"},"responsetime":"2026-07-31T00:00:00.000Z"}`))
	}))
	defer srv.Close()

	c := New(Config{PublicBaseURL: srv.URL}, fastLimiter(), true)
	out, err := c.Status(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "OPEN", out.Status)
}

func TestClient_DecodesBrokerErrorEnvelope(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"status":1,"messages":[{"message_code":"ERR-5218","message_string":"market closed"}],"responsetime":"2026-07-31T00:00:00.000Z"}`))
	}))
	defer srv.Close()

	c := New(Config{PublicBaseURL: srv.URL}, fastLimiter(), true)
	_, err := c.Status(context.Background())
	require.Error(t, err)
	assert.Equal(t, gatewayerrors.MarketClosed, gatewayerrors.CodeOf(err))
}

func TestClient_RetriesThenFailsOn500(t *testing.T) {
	var calls int
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	c := New(Config{PublicBaseURL: srv.URL}, fastLimiter(), true)
	_, err := c.Status(context.Background())
	require.Error(t, err)
	assert.Equal(t, gatewayerrors.Transport, gatewayerrors.CodeOf(err))
	assert.Equal(t, maxRetryAttempts, calls, "idempotent GET must retry up to the attempt cap on a transient 5xx")
}

func TestClient_PrivateCallWithoutCredentialsFailsClosed(t *testing.T) {
	c := New(Config{}, fastLimiter(), true)
	var out any
	err := c.do(context.Background(), privateGET, "GET", "/v1/account/margin", nil, &out)
	require.Error(t, err)
	assert.Equal(t, gatewayerrors.Auth, gatewayerrors.CodeOf(err))
}

func TestClient_SignsPrivateRequestsWhenCredentialsPresent(t *testing.T) {
	var gotSig, gotKey string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotSig = r.Header.Get("API-SIGN")
		gotKey = r.Header.Get("API-KEY")
		w.Write([]byte(`{"status":0,"data":{},"responsetime":"2026-07-31T00:00:00.000Z"}`))
	}))
	defer srv.Close()

	c := New(Config{PrivateBaseURL: srv.URL, APIKey: "key1", APISecret: "secret1"}, fastLimiter(), false)
	var out map[string]any
	err := c.do(context.Background(), privateGET, "GET", "/v1/account/margin", nil, &out)
	require.NoError(t, err)
	assert.Equal(t, "key1", gotKey)
	assert.NotEmpty(t, gotSig)
}

func TestClient_ObservesServerTimeFromEnvelopeForClockSkewTracking(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		resp, _ := json.Marshal(map[string]any{"status": 0, "data": map[string]string{"status": "OPEN"}, "responsetime": "2026-07-31T00:00:00.000Z"})
		w.Write(resp)
	}))
	defer srv.Close()

	c := New(Config{PublicBaseURL: srv.URL, PrivateBaseURL: srv.URL, APIKey: "key1", APISecret: "secret1"}, fastLimiter(), false)
	_, err := c.Status(context.Background())
	require.NoError(t, err)
	require.NotNil(t, c.signer)

	// The envelope's responsetime is far from the local clock, so once it
	// has been observed the signer's skew guard rejects the next request.
	_, err = c.signer.Sign("GET", "/v1/account/margin", "")
	require.Error(t, err)
	assert.Equal(t, gatewayerrors.ClockSkew, gatewayerrors.CodeOf(err))
}
