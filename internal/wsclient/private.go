package wsclient

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"

	"github.com/sawpanic/gmofx/internal/gatewayerrors"
	"github.com/sawpanic/gmofx/internal/ratelimit"
)

const (
	privateWSURLPrefix = "wss://forex-api.coin.z.com/ws/private/"

	tokenLifetime = 60 * time.Minute
	tokenRenewAt  = 50 * time.Minute
)

// PrivateChannel enumerates the account-event channels (§4.4).
type PrivateChannel string

const (
	ChannelExecutionEvents      PrivateChannel = "executionEvents"
	ChannelOrderEvents          PrivateChannel = "orderEvents"
	ChannelPositionEvents       PrivateChannel = "positionEvents"
	ChannelPositionSummaryEvents PrivateChannel = "positionSummaryEvents"
)

// PrivateTokenFuncs narrows restclient.Client down to the three ws-auth
// operations the private client needs, so tests can supply a fake
// without standing up HTTP.
type PrivateTokenFuncs struct {
	Create func(ctx context.Context) (string, error)
	Extend func(ctx context.Context, token string) error
	Delete func(ctx context.Context, token string) error
}

// PrivateClient streams account events: executions, orders, positions
// and periodic position summaries (§4.4). It owns the token lifecycle —
// creation, the 50-minute renewal timer, and deletion on shutdown.
type PrivateClient struct {
	tokens  PrivateTokenFuncs
	limiter *ratelimit.Limiter

	execQueue            *LosslessQueue[Frame]
	orderQueue           *LosslessQueue[Frame]
	positionQueue        *LosslessQueue[Frame]
	positionSummaryQueue *LosslessQueue[Frame]

	mu    sync.Mutex
	token string
	conn  *websocket.Conn
}

// NewPrivateClient builds a private WS client. onStall, if non-nil, is
// invoked when a lossless consumer fails to drain within the watchdog
// window (§5 backpressure).
func NewPrivateClient(tokens PrivateTokenFuncs, limiter *ratelimit.Limiter, onStall func()) *PrivateClient {
	return &PrivateClient{
		tokens:               tokens,
		limiter:              limiter,
		execQueue:            NewLosslessQueue[Frame](256, 5*time.Second, onStall),
		orderQueue:           NewLosslessQueue[Frame](256, 5*time.Second, onStall),
		positionQueue:        NewLosslessQueue[Frame](256, 5*time.Second, onStall),
		positionSummaryQueue: NewLosslessQueue[Frame](64, 5*time.Second, onStall),
	}
}

func (c *PrivateClient) ExecutionEvents() <-chan Frame      { return c.execQueue.Chan() }
func (c *PrivateClient) OrderEvents() <-chan Frame          { return c.orderQueue.Chan() }
func (c *PrivateClient) PositionEvents() <-chan Frame       { return c.positionQueue.Chan() }
func (c *PrivateClient) PositionSummaryEvents() <-chan Frame { return c.positionSummaryQueue.Chan() }

// Run drives token acquisition, connection, renewal and reconnection
// until ctx is cancelled.
func (c *PrivateClient) Run(ctx context.Context) {
	backoff := time.Second
	const maxBackoff = 60 * time.Second

	for ctx.Err() == nil {
		if err := c.runOnce(ctx); err != nil {
			log.Warn().Err(err).Dur("backoff", backoff).Msg("private WS session ended, reconnecting")
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

func (c *PrivateClient) runOnce(ctx context.Context) error {
	token, err := c.tokens.Create(ctx)
	if err != nil {
		return fmt.Errorf("ws-auth create: %w", err)
	}
	c.mu.Lock()
	c.token = token
	c.mu.Unlock()

	conn, _, err := websocket.DefaultDialer.DialContext(ctx, privateWSURLPrefix+token, nil)
	if err != nil {
		return fmt.Errorf("dial private ws: %w", err)
	}
	defer conn.Close()

	c.mu.Lock()
	c.conn = conn
	c.mu.Unlock()
	defer func() {
		c.mu.Lock()
		c.conn = nil
		c.mu.Unlock()
	}()

	for _, ch := range []PrivateChannel{ChannelExecutionEvents, ChannelOrderEvents, ChannelPositionEvents} {
		if err := c.subscribe(ctx, conn, ch, ""); err != nil {
			return err
		}
	}
	if err := c.subscribe(ctx, conn, ChannelPositionSummaryEvents, "PERIODIC"); err != nil {
		return err
	}

	renewCtx, cancelRenew := context.WithCancel(ctx)
	defer cancelRenew()
	go c.renewalTimer(renewCtx, token)

	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			return fmt.Errorf("read private ws: %w", err)
		}

		var frame Frame
		if err := json.Unmarshal(data, &frame); err != nil {
			continue
		}
		frame.RawPayload = data

		if isExpiredTokenFrame(data) {
			return gatewayerrors.New(gatewayerrors.Auth, "private ws token expired (5012)")
		}

		switch PrivateChannel(frame.Channel) {
		case ChannelExecutionEvents:
			c.execQueue.Push(frame)
		case ChannelOrderEvents:
			c.orderQueue.Push(frame)
		case ChannelPositionEvents:
			c.positionQueue.Push(frame)
		case ChannelPositionSummaryEvents:
			c.positionSummaryQueue.Push(frame)
		}
	}
}

func (c *PrivateClient) subscribe(ctx context.Context, conn *websocket.Conn, ch PrivateChannel, option string) error {
	if err := c.limiter.Wait(ctx, ratelimit.ScopePublicWS, ratelimit.VerbSubscribe); err != nil {
		return err
	}
	frame := subscribeFrame{Command: "subscribe", Channel: string(ch), Option: option}
	b, err := json.Marshal(frame)
	if err != nil {
		return err
	}
	return conn.WriteMessage(websocket.TextMessage, b)
}

// renewalTimer fires PUT /private/v1/ws-auth at the 50-minute mark
// (§4.4), ten minutes before the 60-minute token expiry.
func (c *PrivateClient) renewalTimer(ctx context.Context, token string) {
	timer := time.NewTimer(tokenRenewAt)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return
	case <-timer.C:
		if err := c.tokens.Extend(ctx, token); err != nil {
			log.Warn().Err(err).Msg("ws-auth token renewal failed")
		}
	}
}

// Shutdown deletes the account's current private WS token (§4.4, §5
// shutdown ordering: WS clients drain before the HTTP client closes).
func (c *PrivateClient) Shutdown(ctx context.Context) error {
	c.mu.Lock()
	token := c.token
	conn := c.conn
	c.mu.Unlock()

	if conn != nil {
		_ = conn.Close()
	}
	if token == "" {
		return nil
	}
	return c.tokens.Delete(ctx, token)
}

// isExpiredTokenFrame is a best-effort scan for the broker's 5012 error
// code appearing in a frame instead of channel data.
func isExpiredTokenFrame(data []byte) bool {
	var probe struct {
		Code string `json:"code"`
	}
	if json.Unmarshal(data, &probe) != nil {
		return false
	}
	return probe.Code == "5012"
}
