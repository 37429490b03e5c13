// Package resilience wraps outbound REST calls in a circuit breaker so a
// broker outage trips fast instead of queuing retries behind the rate
// limiter forever.
package resilience

import (
	"time"

	cb "github.com/sony/gobreaker"
)

// Breaker is a named circuit breaker with the broker-outage trip policy:
// three consecutive failures, or a >5% failure rate once at least 20
// requests have been observed in the rolling interval.
type Breaker struct {
	cb *cb.CircuitBreaker
}

// New builds a breaker. onStateChange, if non-nil, is invoked with the
// breaker name and the from/to state names for logging.
func New(name string, onStateChange func(name string, from, to string)) *Breaker {
	st := cb.Settings{Name: name}
	st.Interval = 60 * time.Second
	st.Timeout = 60 * time.Second
	st.ReadyToTrip = func(counts cb.Counts) bool {
		if counts.ConsecutiveFailures >= 3 {
			return true
		}
		total := counts.Requests
		if total < 20 {
			return false
		}
		return float64(counts.TotalFailures)/float64(total) > 0.05
	}
	if onStateChange != nil {
		st.OnStateChange = func(name string, from, to cb.State) {
			onStateChange(name, from.String(), to.String())
		}
	}
	return &Breaker{cb: cb.NewCircuitBreaker(st)}
}

// Execute runs fn through the breaker. When the breaker is open, fn is
// never called and gobreaker.ErrOpenState is returned.
func (b *Breaker) Execute(fn func() (any, error)) (any, error) {
	return b.cb.Execute(fn)
}

// State reports the breaker's current state for health reporting.
func (b *Breaker) State() cb.State {
	return b.cb.State()
}
