package wsclient

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sawpanic/gmofx/internal/ratelimit"
)

func testLimiter() *ratelimit.Limiter {
	return ratelimit.New(ratelimit.Limits{GetPerSec: 50, PostPerSec: 50, WSSubPerSecIP: 50})
}

func testCtx(t *testing.T) context.Context {
	t.Helper()
	return context.Background()
}

func TestQuoteQueue_DropsOldestWhenFull(t *testing.T) {
	q := NewQuoteQueue[int](2)
	q.Push(1)
	q.Push(2)
	q.Push(3) // capacity 2: drops 1

	v, ok := q.Pop()
	require.True(t, ok)
	assert.Equal(t, 2, v)

	v, ok = q.Pop()
	require.True(t, ok)
	assert.Equal(t, 3, v)
}

func TestQuoteQueue_PopBlocksUntilClosed(t *testing.T) {
	q := NewQuoteQueue[int](4)
	done := make(chan bool, 1)
	go func() {
		_, ok := q.Pop()
		done <- ok
	}()

	time.Sleep(10 * time.Millisecond)
	q.Close()

	select {
	case ok := <-done:
		assert.False(t, ok, "Pop on a closed, empty queue must report no value")
	case <-time.After(time.Second):
		t.Fatal("Pop did not unblock after Close")
	}
}

func TestLosslessQueue_DeliversInOrderWithoutDropping(t *testing.T) {
	q := NewLosslessQueue[int](2, time.Second, nil)
	go func() {
		for i := 0; i < 5; i++ {
			q.Push(i)
		}
	}()

	for i := 0; i < 5; i++ {
		assert.Equal(t, i, <-q.Chan())
	}
}

func TestLosslessQueue_FiresOnStallWhenConsumerDoesNotDrain(t *testing.T) {
	stalled := make(chan struct{}, 1)
	q := NewLosslessQueue[int](1, 20*time.Millisecond, func() {
		select {
		case stalled <- struct{}{}:
		default:
		}
	})

	q.Push(1) // fills the only buffer slot; nothing ever drains it
	go q.Push(2)

	select {
	case <-stalled:
	case <-time.After(time.Second):
		t.Fatal("onStall was never invoked for an undrained consumer")
	}
}

func TestPublicClient_SubscribeTracksSubscriptionBeforeConnect(t *testing.T) {
	var got []Subscription
	c := NewPublicClient(testLimiter(), func(Frame) {})

	sub := Subscription{Channel: "ticker", Symbol: "USD_JPY"}
	require.NoError(t, c.Subscribe(testCtx(t), sub))

	c.mu.Lock()
	for s := range c.subs {
		got = append(got, s)
	}
	c.mu.Unlock()
	assert.Contains(t, got, sub)
}

func TestPublicClient_ShutdownWithNoConnectionIsNoop(t *testing.T) {
	c := NewPublicClient(testLimiter(), nil)
	assert.NoError(t, c.Shutdown(testCtx(t)))
}
