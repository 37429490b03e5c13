// Package signer builds the API-KEY / API-TIMESTAMP / API-SIGN header
// triple for every private request, and refuses to sign when the local
// clock has drifted too far from the broker's last observed time (§4.2).
package signer

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/sawpanic/gmofx/internal/gatewayerrors"
)

// Headers is the signed API-KEY/API-TIMESTAMP/API-SIGN triple.
type Headers struct {
	APIKey       string
	APITimestamp string
	APISign      string
}

// Signer holds the account's API credentials and the clock-skew guard
// state. The secret is never logged and never exposed outside this
// package.
type Signer struct {
	apiKey string
	secret []byte

	maxSkew time.Duration

	mu                sync.Mutex
	lastServerTime    time.Time
	haveServerTime    bool
}

// New constructs a Signer. maxSkew defaults to 5s (spec §4.2, §6
// clock_skew_max_ms) when zero is passed.
func New(apiKey, apiSecret string, maxSkew time.Duration) *Signer {
	if maxSkew <= 0 {
		maxSkew = 5 * time.Second
	}
	return &Signer{
		apiKey:  apiKey,
		secret:  []byte(apiSecret),
		maxSkew: maxSkew,
	}
}

// ObserveServerTime records the broker's most recently seen response
// timestamp, used as the clock-skew reference point.
func (s *Signer) ObserveServerTime(t time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.lastServerTime = t
	s.haveServerTime = true
}

// checkSkew compares the local clock to the last observed server time.
func (s *Signer) checkSkew(now time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.haveServerTime {
		return nil // nothing observed yet; allow the first request through
	}
	skew := now.Sub(s.lastServerTime)
	if skew < 0 {
		skew = -skew
	}
	if skew > s.maxSkew {
		return gatewayerrors.New(gatewayerrors.ClockSkew,
			fmt.Sprintf("local clock differs from server by %s (max %s)", skew, s.maxSkew))
	}
	return nil
}

// Sign computes the API-KEY/API-TIMESTAMP/API-SIGN headers for one
// private request. path must include the "/v1/..." prefix; a leading
// "/private" segment, if present, is stripped before signing (§4.2). body
// is the literal JSON body for writes, or "" for reads.
func (s *Signer) Sign(method, path, body string) (Headers, error) {
	now := time.Now()
	if err := s.checkSkew(now); err != nil {
		return Headers{}, err
	}

	path = stripPrivatePrefix(path)
	ts := strconv.FormatInt(now.UnixMilli(), 10)
	message := ts + method + path + body

	mac := hmac.New(sha256.New, s.secret)
	mac.Write([]byte(message))
	sig := hex.EncodeToString(mac.Sum(nil))

	return Headers{
		APIKey:       s.apiKey,
		APITimestamp: ts,
		APISign:      sig,
	}, nil
}

// Verify recomputes the signature for (method, path, body, ts) and
// compares it against sig — used by the testable-property suite (§8)
// to assert HMAC_SHA256(secret, ts||method||path||body) == API-SIGN.
func (s *Signer) Verify(method, path, body, ts, sig string) bool {
	path = stripPrivatePrefix(path)
	message := ts + method + path + body
	mac := hmac.New(sha256.New, s.secret)
	mac.Write([]byte(message))
	want := hex.EncodeToString(mac.Sum(nil))
	return hmac.Equal([]byte(want), []byte(sig))
}

func stripPrivatePrefix(path string) string {
	return strings.TrimPrefix(path, "/private")
}
