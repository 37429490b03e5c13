package restclient

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/sawpanic/gmofx/internal/gatewayerrors"
	"github.com/sawpanic/gmofx/internal/model"
)

// Account fetches /private/v1/account/assets.
func (c *Client) Account(ctx context.Context) ([]model.Asset, error) {
	var out []model.Asset
	err := c.do(ctx, privateGET, "GET", "/v1/account/assets", nil, &out)
	return out, err
}

// OpenPositions fetches /private/v1/openPositions.
func (c *Client) OpenPositions(ctx context.Context, symbol model.Symbol) ([]model.Position, error) {
	path := "/v1/openPositions"
	if symbol != "" {
		path += "?symbol=" + string(symbol)
	}
	var out struct {
		List []model.Position `json:"list"`
	}
	err := c.do(ctx, privateGET, "GET", path, nil, &out)
	return out.List, err
}

// PositionSummary fetches /private/v1/positionSummary.
func (c *Client) PositionSummary(ctx context.Context, symbol model.Symbol) (any, error) {
	path := "/v1/positionSummary"
	if symbol != "" {
		path += "?symbol=" + string(symbol)
	}
	var out any
	err := c.do(ctx, privateGET, "GET", path, nil, &out)
	return out, err
}

// ActiveOrders fetches /private/v1/activeOrders.
func (c *Client) ActiveOrders(ctx context.Context, symbol model.Symbol) ([]model.Order, error) {
	path := "/v1/activeOrders"
	if symbol != "" {
		path += "?symbol=" + string(symbol)
	}
	var out struct {
		List []model.Order `json:"list"`
	}
	err := c.do(ctx, privateGET, "GET", path, nil, &out)
	return out.List, err
}

// Executions fetches /private/v1/executions.
func (c *Client) Executions(ctx context.Context, orderID int64) ([]model.Execution, error) {
	path := fmt.Sprintf("/v1/executions?orderId=%d", orderID)
	var out struct {
		List []model.Execution `json:"list"`
	}
	err := c.do(ctx, privateGET, "GET", path, nil, &out)
	return out.List, err
}

// LatestExecutions fetches /private/v1/latestExecutions.
func (c *Client) LatestExecutions(ctx context.Context, symbol model.Symbol, count int) ([]model.Execution, error) {
	path := fmt.Sprintf("/v1/latestExecutions?symbol=%s&count=%d", symbol, count)
	var out struct {
		List []model.Execution `json:"list"`
	}
	err := c.do(ctx, privateGET, "GET", path, nil, &out)
	return out.List, err
}

// OrderRequest is the common shape behind order, speedOrder, ifdOrder and
// ifoOrder — the broker's write endpoints. ClientOrderID carries an
// idempotency-style client order id (§4.3/§7); do never retries a POST,
// so a write is sent once whether or not the id is set.
type OrderRequest struct {
	Symbol        model.Symbol    `json:"symbol"`
	Side          model.Side      `json:"side"`
	Size          decimal.Decimal `json:"size"`
	ExecutionType string          `json:"executionType"`
	Price         decimal.Decimal `json:"price,omitempty"`
	ClientOrderID string          `json:"clientOrderId,omitempty"`
}

// WithIdempotencyKey stamps a fresh client order id if one isn't already
// set.
func (r OrderRequest) WithIdempotencyKey() OrderRequest {
	if r.ClientOrderID == "" {
		r.ClientOrderID = uuid.NewString()
	}
	return r
}

type orderResult struct {
	OrderID int64 `json:"orderId"`
}

func (c *Client) requireTrading() error {
	if c.readOnly {
		return gatewayerrors.New(gatewayerrors.Validation,
			"order endpoints are disabled: trading.enabled is false")
	}
	return nil
}

// SpeedOrder submits POST /private/v1/speedOrder (market order).
func (c *Client) SpeedOrder(ctx context.Context, req OrderRequest) (int64, error) {
	if err := c.requireTrading(); err != nil {
		return 0, err
	}
	var out orderResult
	err := c.do(ctx, privatePOST, "POST", "/v1/speedOrder", req.WithIdempotencyKey(), &out)
	return out.OrderID, err
}

// Order submits POST /private/v1/order (limit/stop order).
func (c *Client) Order(ctx context.Context, req OrderRequest) (int64, error) {
	if err := c.requireTrading(); err != nil {
		return 0, err
	}
	var out orderResult
	err := c.do(ctx, privatePOST, "POST", "/v1/order", req.WithIdempotencyKey(), &out)
	return out.OrderID, err
}

// IFDOrderRequest composes an entry order with a contingent follow-up
// (if-done), used to implement the TFQE post-entry contract (§4.8) once
// trading is enabled.
type IFDOrderRequest struct {
	Symbol model.Symbol `json:"symbol"`
	FirstOrder  OrderRequest `json:"firstOrder"`
	SecondOrder OrderRequest `json:"secondOrder"`
}

// IFDOrder submits POST /private/v1/ifdOrder.
func (c *Client) IFDOrder(ctx context.Context, req IFDOrderRequest) (int64, error) {
	if err := c.requireTrading(); err != nil {
		return 0, err
	}
	req.FirstOrder = req.FirstOrder.WithIdempotencyKey()
	req.SecondOrder = req.SecondOrder.WithIdempotencyKey()
	var out orderResult
	err := c.do(ctx, privatePOST, "POST", "/v1/ifdOrder", req, &out)
	return out.OrderID, err
}

// IFOOrderRequest composes an if-done-one-cancels-other order: entry plus
// a bracketed take-profit/stop-loss pair, the natural shape for TFQE's
// tp1/tp2/stop_loss triple.
type IFOOrderRequest struct {
	Symbol     model.Symbol `json:"symbol"`
	FirstOrder OrderRequest `json:"firstOrder"`
	OCOOrders  [2]OrderRequest `json:"ocoOrders"`
}

// IFOOrder submits POST /private/v1/ifoOrder.
func (c *Client) IFOOrder(ctx context.Context, req IFOOrderRequest) (int64, error) {
	if err := c.requireTrading(); err != nil {
		return 0, err
	}
	req.FirstOrder = req.FirstOrder.WithIdempotencyKey()
	req.OCOOrders[0] = req.OCOOrders[0].WithIdempotencyKey()
	req.OCOOrders[1] = req.OCOOrders[1].WithIdempotencyKey()
	var out orderResult
	err := c.do(ctx, privatePOST, "POST", "/v1/ifoOrder", req, &out)
	return out.OrderID, err
}

// ChangeOrder submits POST /private/v1/changeOrder.
func (c *Client) ChangeOrder(ctx context.Context, orderID int64, price decimal.Decimal) error {
	if err := c.requireTrading(); err != nil {
		return err
	}
	body := struct {
		OrderID int64           `json:"orderId"`
		Price   decimal.Decimal `json:"price"`
	}{orderID, price}
	return c.do(ctx, privatePOST, "POST", "/v1/changeOrder", body, nil)
}

// CancelOrders submits POST /private/v1/cancelOrders for a set of order ids.
func (c *Client) CancelOrders(ctx context.Context, orderIDs []int64) error {
	if err := c.requireTrading(); err != nil {
		return err
	}
	body := struct {
		OrderIDs []int64 `json:"orderIds"`
	}{orderIDs}
	return c.do(ctx, privatePOST, "POST", "/v1/cancelOrders", body, nil)
}

// CancelBulkOrder submits POST /private/v1/cancelBulkOrder.
func (c *Client) CancelBulkOrder(ctx context.Context, symbols []model.Symbol, side model.Side) error {
	if err := c.requireTrading(); err != nil {
		return err
	}
	body := struct {
		Symbols []model.Symbol `json:"symbols"`
		Side    model.Side     `json:"side"`
	}{symbols, side}
	return c.do(ctx, privatePOST, "POST", "/v1/cancelBulkOrder", body, nil)
}

// CloseOrder submits POST /private/v1/closeOrder to exit an open position.
func (c *Client) CloseOrder(ctx context.Context, req OrderRequest, positionID int64) (int64, error) {
	if err := c.requireTrading(); err != nil {
		return 0, err
	}
	body := struct {
		OrderRequest
		PositionID int64 `json:"positionId"`
	}{req.WithIdempotencyKey(), positionID}
	var out orderResult
	err := c.do(ctx, privatePOST, "POST", "/v1/closeOrder", body, &out)
	return out.OrderID, err
}

// WSAuthToken is the token returned by the ws-auth endpoints (§4.4).
type WSAuthToken struct {
	Token string `json:"token"`
}

// WSAuthCreate issues POST /private/v1/ws-auth, minting a new private WS token.
func (c *Client) WSAuthCreate(ctx context.Context) (WSAuthToken, error) {
	var out WSAuthToken
	err := c.do(ctx, privatePOST, "POST", "/v1/ws-auth", nil, &out)
	return out, err
}

// WSAuthExtend issues PUT /private/v1/ws-auth, renewing the token's
// lifetime before the 60-minute expiry (§4.4: renew at the 50-minute mark).
func (c *Client) WSAuthExtend(ctx context.Context, token string) error {
	body := struct {
		Token string `json:"token"`
	}{token}
	return c.do(ctx, privatePOST, "PUT", "/v1/ws-auth", body, nil)
}

// WSAuthDelete issues DELETE /private/v1/ws-auth on graceful shutdown.
func (c *Client) WSAuthDelete(ctx context.Context, token string) error {
	body := struct {
		Token string `json:"token"`
	}{token}
	return c.do(ctx, privatePOST, "DELETE", "/v1/ws-auth", body, nil)
}
