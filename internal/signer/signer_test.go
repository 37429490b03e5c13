package signer

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sawpanic/gmofx/internal/gatewayerrors"
)

func TestSign_ProducesVerifiableHMAC(t *testing.T) {
	s := New("key123", "supersecret", 0)

	h, err := s.Sign("POST", "/private/v1/order", `{"symbol":"USD_JPY"}`)
	require.NoError(t, err)
	assert.Equal(t, "key123", h.APIKey)
	assert.NotEmpty(t, h.APITimestamp)
	assert.NotEmpty(t, h.APISign)

	// The private prefix is stripped before signing (§4.2), so the
	// stripped path verifies against the signature.
	ok := s.Verify("POST", "/v1/order", `{"symbol":"USD_JPY"}`, h.APITimestamp, h.APISign)
	assert.True(t, ok)
}

func TestSign_DifferentBodyProducesDifferentSignature(t *testing.T) {
	s := New("key123", "supersecret", 0)

	h1, err := s.Sign("POST", "/private/v1/order", `{"side":"BUY"}`)
	require.NoError(t, err)
	h2, err := s.Sign("POST", "/private/v1/order", `{"side":"SELL"}`)
	require.NoError(t, err)

	assert.NotEqual(t, h1.APISign, h2.APISign)
}

func TestSign_FirstRequestAllowedBeforeAnyServerTimeObserved(t *testing.T) {
	s := New("key123", "secret", 5*time.Second)
	_, err := s.Sign("GET", "/private/v1/account/margin", "")
	assert.NoError(t, err)
}

func TestSign_RejectsWhenClockSkewExceedsMax(t *testing.T) {
	s := New("key123", "secret", 5*time.Second)
	s.ObserveServerTime(time.Now().Add(-30 * time.Second))

	_, err := s.Sign("GET", "/private/v1/account/margin", "")
	require.Error(t, err)
	assert.Equal(t, gatewayerrors.ClockSkew, gatewayerrors.CodeOf(err))
}

func TestSign_AllowsSkewWithinMax(t *testing.T) {
	s := New("key123", "secret", 5*time.Second)
	s.ObserveServerTime(time.Now().Add(-2 * time.Second))

	_, err := s.Sign("GET", "/private/v1/account/margin", "")
	assert.NoError(t, err)
}

func TestVerify_RejectsTamperedSignature(t *testing.T) {
	s := New("key123", "secret", 0)
	h, err := s.Sign("POST", "/private/v1/order", `{"symbol":"USD_JPY"}`)
	require.NoError(t, err)

	ok := s.Verify("POST", "/v1/order", `{"symbol":"USD_JPY"}`, h.APITimestamp, "deadbeef")
	assert.False(t, ok)
}
