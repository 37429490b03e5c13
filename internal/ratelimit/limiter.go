// Package ratelimit is the single chokepoint every outgoing broker call
// passes through (spec §4.1). It keys independent token buckets by
// (scope, verb) so private GETs, private POSTs and WS subscribes each
// get their own ceiling without starving one another.
package ratelimit

import (
	"context"
	"fmt"
	"sync"

	"golang.org/x/time/rate"

	"github.com/sawpanic/gmofx/internal/gatewayerrors"
)

// Scope identifies the call family a verb belongs to.
type Scope string

const (
	ScopePrivateREST Scope = "private_rest"
	ScopePublicWS    Scope = "public_ws"
)

// Verb identifies the HTTP/WS method class within a scope.
type Verb string

const (
	VerbGET       Verb = "GET"
	VerbPOST      Verb = "POST"
	VerbSubscribe Verb = "SUBSCRIBE"
)

// Limits is the set of documented broker ceilings (spec §4.1, §6).
type Limits struct {
	GetPerSec      float64
	PostPerSec     float64
	WSSubPerSecIP  float64
}

// DefaultLimits mirrors the broker's documented defaults.
func DefaultLimits() Limits {
	return Limits{GetPerSec: 6, PostPerSec: 1, WSSubPerSecIP: 1}
}

// Limiter is the process-global rate governor. Every outgoing call
// (REST or WS subscribe) must acquire a token here first — no code path
// is permitted to call the broker directly.
type Limiter struct {
	mu       sync.Mutex
	buckets  map[string]*rate.Limiter
	limits   Limits
}

// New builds a limiter from the configured ceilings. Tokens refill
// continuously (rate.Limiter's native behavior), and burst is set equal
// to the per-second rate so no more than one second's worth of calls can
// ever be pre-credited, matching spec §4.1.
func New(limits Limits) *Limiter {
	return &Limiter{
		buckets: make(map[string]*rate.Limiter),
		limits:  limits,
	}
}

func (l *Limiter) bucketFor(scope Scope, verb Verb) *rate.Limiter {
	key := string(scope) + ":" + string(verb)

	l.mu.Lock()
	defer l.mu.Unlock()

	if b, ok := l.buckets[key]; ok {
		return b
	}

	var perSec float64
	switch {
	case scope == ScopePrivateREST && verb == VerbGET:
		perSec = l.limits.GetPerSec
	case scope == ScopePrivateREST && verb == VerbPOST:
		perSec = l.limits.PostPerSec
	case scope == ScopePublicWS && verb == VerbSubscribe:
		perSec = l.limits.WSSubPerSecIP
	default:
		perSec = 1
	}
	if perSec <= 0 {
		perSec = 1
	}

	burst := int(perSec)
	if burst < 1 {
		burst = 1
	}
	b := rate.NewLimiter(rate.Limit(perSec), burst)
	l.buckets[key] = b
	return b
}

// Wait blocks until a token for (scope, verb) is available, or returns a
// CANCELLED error promptly if ctx's deadline elapses first.
func (l *Limiter) Wait(ctx context.Context, scope Scope, verb Verb) error {
	b := l.bucketFor(scope, verb)
	if err := b.Wait(ctx); err != nil {
		return gatewayerrors.Wrap(gatewayerrors.Cancelled,
			fmt.Sprintf("rate limiter wait cancelled for %s/%s", scope, verb), err)
	}
	return nil
}

// Allow is a non-blocking probe, useful for tests and for UI display of
// remaining headroom; it does not consume a token on failure.
func (l *Limiter) Allow(scope Scope, verb Verb) bool {
	return l.bucketFor(scope, verb).Allow()
}
