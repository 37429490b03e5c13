// Package restclient provides typed wrappers over the broker's REST
// endpoints (spec §4.3): public read, private read and private write
// operations, each rate-limited, signed where required, circuit-broken,
// retried on transient failure, and decoded through the shared envelope.
package restclient

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"math/rand"
	"net/http"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/sawpanic/gmofx/internal/gatewayerrors"
	"github.com/sawpanic/gmofx/internal/ratelimit"
	"github.com/sawpanic/gmofx/internal/resilience"
	"github.com/sawpanic/gmofx/internal/signer"
)

const (
	defaultPublicBase  = "https://forex-api.coin.z.com/public"
	defaultPrivateBase = "https://forex-api.coin.z.com/private"

	defaultCallTimeout = 10 * time.Second
	maxRetryAttempts   = 3
	maxTotalRetryDelay = 5 * time.Second
)

// Config configures the client's base URLs and credentials.
type Config struct {
	PublicBaseURL  string
	PrivateBaseURL string
	APIKey         string
	APISecret      string
	ClockSkewMax   time.Duration
	CallTimeout    time.Duration
}

// Client is the typed REST surface over the broker. It owns the single
// rate limiter, signer and circuit breaker every call funnels through —
// no code path is permitted to reach the broker any other way (§4.1).
type Client struct {
	cfg Config

	http     *http.Client
	limiter  *ratelimit.Limiter
	signer   *signer.Signer
	breaker  *resilience.Breaker

	// readOnly true unless trading.enabled — enforced at the call site
	// for write operations, not here, so the taxonomy stays precise.
	readOnly bool
}

// New builds a Client. When apiKey/apiSecret are empty the client is
// downgraded to public-only: private operations return an AUTH error
// immediately rather than attempting to sign with an empty secret.
func New(cfg Config, limiter *ratelimit.Limiter, readOnly bool) *Client {
	if cfg.PublicBaseURL == "" {
		cfg.PublicBaseURL = defaultPublicBase
	}
	if cfg.PrivateBaseURL == "" {
		cfg.PrivateBaseURL = defaultPrivateBase
	}
	if cfg.CallTimeout <= 0 {
		cfg.CallTimeout = defaultCallTimeout
	}

	var sgn *signer.Signer
	if cfg.APIKey != "" && cfg.APISecret != "" {
		sgn = signer.New(cfg.APIKey, cfg.APISecret, cfg.ClockSkewMax)
	}

	return &Client{
		cfg:      cfg,
		http:     &http.Client{Timeout: cfg.CallTimeout},
		limiter:  limiter,
		signer:   sgn,
		breaker:  resilience.New("gmofx-rest", logBreakerTransition),
		readOnly: readOnly,
	}
}

func logBreakerTransition(name string, from, to string) {
	log.Warn().Str("breaker", name).Str("from", from).Str("to", to).Msg("circuit breaker state change")
}

// verbClass classifies a call for rate limiting and idempotency purposes.
type verbClass struct {
	scope ratelimit.Scope
	verb  ratelimit.Verb
	private bool
}

var (
	publicGET  = verbClass{ratelimit.ScopePrivateREST, ratelimit.VerbGET, false}
	privateGET = verbClass{ratelimit.ScopePrivateREST, ratelimit.VerbGET, true}
	privatePOST = verbClass{ratelimit.ScopePrivateREST, ratelimit.VerbPOST, true}
)

// do is the single internal chokepoint every typed endpoint method calls
// through: acquire limiter token, sign if private, execute behind the
// breaker with retry, decode the envelope, map broker errors to §7.
func (c *Client) do(ctx context.Context, vc verbClass, method, path string, body any, out any) error {
	if vc.private && c.signer == nil {
		return gatewayerrors.New(gatewayerrors.Auth, "private operation requires api.key and api.secret")
	}

	var bodyBytes []byte
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			return gatewayerrors.Wrap(gatewayerrors.Internal, "marshal request body", err)
		}
		bodyBytes = b
	}

	idempotent := vc.verb != ratelimit.VerbPOST

	attempt := 0
	delay := 250 * time.Millisecond
	var totalDelay time.Duration

	for {
		attempt++

		if err := c.limiter.Wait(ctx, vc.scope, vc.verb); err != nil {
			return err
		}

		respBody, statusCode, err := c.send(ctx, vc, method, path, bodyBytes)
		if err == nil {
			return c.decodeEnvelope(respBody, out)
		}

		code := gatewayerrors.CodeOf(err)
		if !gatewayerrors.Retryable(code) || !idempotent || attempt >= maxRetryAttempts {
			return err
		}

		// decorrelated jitter backoff, capped at 5s additional total delay (§4.3)
		next := time.Duration(rand.Int63n(int64(delay*3-delay))) + delay
		if totalDelay+next > maxTotalRetryDelay {
			return err
		}

		log.Debug().Str("path", path).Int("attempt", attempt).Int("http_status", statusCode).
			Dur("backoff", next).Msg("retrying transient gateway error")

		select {
		case <-ctx.Done():
			return gatewayerrors.Wrap(gatewayerrors.Cancelled, "retry wait cancelled", ctx.Err())
		case <-time.After(next):
		}
		totalDelay += next
		delay = next
	}
}

func (c *Client) send(ctx context.Context, vc verbClass, method, path string, bodyBytes []byte) ([]byte, int, error) {
	result, err := c.breaker.Execute(func() (any, error) {
		base := c.cfg.PublicBaseURL
		if vc.private {
			base = c.cfg.PrivateBaseURL
		}
		url := base + path

		var reader io.Reader
		if bodyBytes != nil {
			reader = bytes.NewReader(bodyBytes)
		}

		req, err := http.NewRequestWithContext(ctx, method, url, reader)
		if err != nil {
			return nil, gatewayerrors.Wrap(gatewayerrors.Internal, "build request", err)
		}
		req.Header.Set("Content-Type", "application/json")

		if vc.private {
			signPath := "/private" + path
			signBody := ""
			if bodyBytes != nil {
				signBody = string(bodyBytes)
			}
			hdrs, serr := c.signer.Sign(method, signPath, signBody)
			if serr != nil {
				return nil, serr
			}
			req.Header.Set("API-KEY", hdrs.APIKey)
			req.Header.Set("API-TIMESTAMP", hdrs.APITimestamp)
			req.Header.Set("API-SIGN", hdrs.APISign)
		}

		resp, err := c.http.Do(req)
		if err != nil {
			return nil, gatewayerrors.Wrap(gatewayerrors.Transport, "http request failed", err)
		}
		defer resp.Body.Close()

		data, err := io.ReadAll(resp.Body)
		if err != nil {
			return nil, gatewayerrors.Wrap(gatewayerrors.Transport, "read response body", err)
		}

		if resp.StatusCode == http.StatusTooManyRequests {
			return data, gatewayerrors.New(gatewayerrors.RateLimited, "http 429")
		}
		if resp.StatusCode >= 500 {
			return data, gatewayerrors.Wrap(gatewayerrors.Transport,
				fmt.Sprintf("http %d", resp.StatusCode), nil)
		}

		return data, nil
	})

	if err != nil {
		if result != nil {
			if data, ok := result.([]byte); ok {
				return data, 0, err
			}
		}
		return nil, 0, err
	}

	data, _ := result.([]byte)
	return data, http.StatusOK, nil
}

func (c *Client) decodeEnvelope(raw []byte, out any) error {
	var env envelope
	if err := json.Unmarshal(raw, &env); err != nil {
		return gatewayerrors.Wrap(gatewayerrors.Transport, "decode envelope", err)
	}

	if rt, err := time.Parse(time.RFC3339, env.ResponseTime); err == nil && c.signer != nil {
		c.signer.ObserveServerTime(rt)
	}

	if env.Status != 0 {
		if len(env.Messages) == 0 {
			return gatewayerrors.New(gatewayerrors.Internal, "broker returned non-zero status with no messages")
		}
		m := env.Messages[0]
		return gatewayerrors.FromBrokerCode(m.MessageCode, m.Message)
	}

	if out == nil || len(env.Data) == 0 {
		return nil
	}
	if err := json.Unmarshal(env.Data, out); err != nil {
		return gatewayerrors.Wrap(gatewayerrors.Transport, "decode data payload", err)
	}
	return nil
}
