package wsclient

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"

	"github.com/sawpanic/gmofx/internal/model"
	"github.com/sawpanic/gmofx/internal/ratelimit"
)

const publicWSURL = "wss://forex-api.coin.z.com/ws/public"

// heartbeatWindow is the server's documented ping cadence; three missed
// pings declares the connection dead (§4.4).
const heartbeatWindow = time.Minute

// Frame is a generic inbound WS message; channel-specific payloads are
// re-decoded by callers from RawPayload.
type Frame struct {
	Channel    string          `json:"channel"`
	Symbol     string          `json:"symbol,omitempty"`
	RawPayload json.RawMessage `json:"-"`
}

// subscribeFrame is the outbound {command, channel, symbol?, option?} shape.
type subscribeFrame struct {
	Command string `json:"command"`
	Channel string `json:"channel"`
	Symbol  string `json:"symbol,omitempty"`
	Option  string `json:"option,omitempty"`
}

// Subscription identifies one (channel, symbol) pair.
type Subscription struct {
	Channel string
	Symbol  model.Symbol
}

// PublicClient streams ticker/orderbook data for the configured symbols.
// It owns reconnection, heartbeat and the rate-limited subscribe
// lifecycle described in §4.4.
type PublicClient struct {
	limiter *ratelimit.Limiter

	mu   sync.Mutex
	subs map[Subscription]struct{}

	onFrame func(Frame)

	conn       *websocket.Conn
	lastRecv   time.Time
	missedPing int
}

// NewPublicClient builds a public WS client. onFrame is invoked for every
// inbound data frame (the caller routes by Channel into the candle store
// aggregator or a quote queue).
func NewPublicClient(limiter *ratelimit.Limiter, onFrame func(Frame)) *PublicClient {
	return &PublicClient{
		limiter: limiter,
		subs:    make(map[Subscription]struct{}),
		onFrame: onFrame,
	}
}

// Subscribe adds a (channel, symbol) pair, rate-limited at 1/sec/IP
// (§4.1, §4.4), and sends the subscribe frame immediately if connected.
func (c *PublicClient) Subscribe(ctx context.Context, sub Subscription) error {
	if err := c.limiter.Wait(ctx, ratelimit.ScopePublicWS, ratelimit.VerbSubscribe); err != nil {
		return err
	}
	c.mu.Lock()
	c.subs[sub] = struct{}{}
	conn := c.conn
	c.mu.Unlock()

	if conn != nil {
		return c.sendSubscribe(conn, sub)
	}
	return nil
}

// Unsubscribe removes a (channel, symbol) pair (§8 round-trip property:
// subscribe then unsubscribe returns to pre-subscribe state).
func (c *PublicClient) Unsubscribe(ctx context.Context, sub Subscription) error {
	if err := c.limiter.Wait(ctx, ratelimit.ScopePublicWS, ratelimit.VerbSubscribe); err != nil {
		return err
	}
	c.mu.Lock()
	delete(c.subs, sub)
	conn := c.conn
	c.mu.Unlock()

	if conn == nil {
		return nil
	}
	frame := subscribeFrame{Command: "unsubscribe", Channel: sub.Channel, Symbol: string(sub.Symbol)}
	b, _ := json.Marshal(frame)
	return conn.WriteMessage(websocket.TextMessage, b)
}

func (c *PublicClient) sendSubscribe(conn *websocket.Conn, sub Subscription) error {
	frame := subscribeFrame{Command: "subscribe", Channel: sub.Channel, Symbol: string(sub.Symbol)}
	b, err := json.Marshal(frame)
	if err != nil {
		return err
	}
	return conn.WriteMessage(websocket.TextMessage, b)
}

// Run drives the connect/subscribe/read/reconnect loop until ctx is
// cancelled. Reconnect backoff starts at 1s and is capped at 60s (§4.4);
// every new connection re-issues all current subscriptions.
func (c *PublicClient) Run(ctx context.Context) {
	backoff := time.Second
	const maxBackoff = 60 * time.Second

	for ctx.Err() == nil {
		if err := c.runOnce(ctx); err != nil {
			log.Warn().Err(err).Dur("backoff", backoff).Msg("public WS connection lost, reconnecting")
		}
		if ctx.Err() != nil {
			return
		}
		select {
		case <-ctx.Done():
			return
		case <-time.After(backoff):
		}
		backoff *= 2
		if backoff > maxBackoff {
			backoff = maxBackoff
		}
	}
}

func (c *PublicClient) runOnce(ctx context.Context) error {
	conn, _, err := websocket.DefaultDialer.DialContext(ctx, publicWSURL, nil)
	if err != nil {
		return fmt.Errorf("dial public ws: %w", err)
	}
	defer conn.Close()

	c.mu.Lock()
	c.conn = conn
	c.lastRecv = time.Now()
	c.missedPing = 0
	subs := make([]Subscription, 0, len(c.subs))
	for s := range c.subs {
		subs = append(subs, s)
	}
	c.mu.Unlock()

	defer func() {
		c.mu.Lock()
		c.conn = nil
		c.mu.Unlock()
	}()

	for _, s := range subs {
		if err := c.limiter.Wait(ctx, ratelimit.ScopePublicWS, ratelimit.VerbSubscribe); err != nil {
			return err
		}
		if err := c.sendSubscribe(conn, s); err != nil {
			return fmt.Errorf("resubscribe %s/%s: %w", s.Channel, s.Symbol, err)
		}
	}

	conn.SetPingHandler(func(string) error {
		c.mu.Lock()
		c.lastRecv = time.Now()
		c.missedPing = 0
		c.mu.Unlock()
		return conn.WriteControl(websocket.PongMessage, nil, time.Now().Add(5*time.Second))
	})

	watchdogCtx, cancelWatchdog := context.WithCancel(ctx)
	defer cancelWatchdog()
	go c.heartbeatWatchdog(watchdogCtx, conn)

	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			return fmt.Errorf("read public ws: %w", err)
		}
		c.mu.Lock()
		c.lastRecv = time.Now()
		c.mu.Unlock()

		var frame Frame
		if err := json.Unmarshal(data, &frame); err != nil {
			log.Debug().Err(err).Msg("discarding undecodable public ws frame")
			continue
		}
		frame.RawPayload = data
		if c.onFrame != nil {
			c.onFrame(frame)
		}
	}
}

// Shutdown closes the current connection, if any, so the blocked
// conn.ReadMessage() call in runOnce's read loop returns promptly instead
// of waiting on ctx cancellation to be observed by the next ticker tick
// (§5 shutdown ordering: WS clients drain before the HTTP client closes).
func (c *PublicClient) Shutdown(ctx context.Context) error {
	c.mu.Lock()
	conn := c.conn
	c.mu.Unlock()

	if conn == nil {
		return nil
	}
	return conn.Close()
}

// heartbeatWatchdog declares the connection dead after three consecutive
// missed heartbeat windows with no bytes received (§4.4), forcing a
// reconnect by closing the socket.
func (c *PublicClient) heartbeatWatchdog(ctx context.Context, conn *websocket.Conn) {
	ticker := time.NewTicker(heartbeatWindow)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			conn.Close()
			return
		case <-ticker.C:
			c.mu.Lock()
			idle := time.Since(c.lastRecv)
			if idle >= heartbeatWindow {
				c.missedPing++
			} else {
				c.missedPing = 0
			}
			dead := c.missedPing >= 3
			c.mu.Unlock()

			if dead {
				log.Warn().Msg("three consecutive missed heartbeats, closing public ws connection")
				conn.Close()
				return
			}
		}
	}
}
