package publisher

import "time"

// Ticker abstracts a periodic wakeup source (§9 design notes: "periodic
// jobs expressed as sleep loops" is replaced with a scheduler consuming
// this interface, so tests can inject a virtual ticker for determinism
// instead of sleeping in wall-clock time).
type Ticker interface {
	// C returns the channel that fires on each tick.
	C() <-chan time.Time
	Stop()
}

// realTicker wraps time.Ticker.
type realTicker struct{ t *time.Ticker }

// NewRealTicker builds a Ticker backed by the standard library.
func NewRealTicker(d time.Duration) Ticker {
	return &realTicker{t: time.NewTicker(d)}
}

func (r *realTicker) C() <-chan time.Time { return r.t.C }
func (r *realTicker) Stop()               { r.t.Stop() }

// ManualTicker is a test double: Fire() sends exactly one tick.
type ManualTicker struct {
	ch chan time.Time
}

// NewManualTicker builds a Ticker that only advances when Fire is called.
func NewManualTicker() *ManualTicker {
	return &ManualTicker{ch: make(chan time.Time, 1)}
}

func (m *ManualTicker) C() <-chan time.Time { return m.ch }
func (m *ManualTicker) Stop()               {}

// Fire delivers one tick at time t.
func (m *ManualTicker) Fire(t time.Time) {
	m.ch <- t
}
