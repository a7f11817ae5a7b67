package broker

import (
	"context"
	"fmt"
	"strconv"
	"sync"
	"time"

	"github.com/go-resty/resty/v2"
)

// REST is a live broker speaking a signed JSON HTTP API.
// Positions are tracked locally from confirmed fills.
type REST struct {
	key, secret, base string
	rest              *resty.Client

	positions map[string]float64
	mu        sync.RWMutex
}

func NewREST(key, secret, base string, timeout time.Duration) *REST {
	r := resty.New()
	if timeout > 0 {
		r.SetTimeout(timeout)
	} else {
		r.SetTimeout(5 * time.Second) // default fallback
	}
	return &REST{
		key:       key,
		secret:    secret,
		base:      base,
		rest:      r,
		positions: make(map[string]float64),
	}
}

func (c *REST) Name() string { return "rest" }

type orderResp struct {
	Code    int     `json:"code"`
	Msg     string  `json:"msg"`
	OrderID string  `json:"orderId"`
	Price   float64 `json:"price,string"`
	PnL     float64 `json:"pnl,string"`
}

func (c *REST) Place(ctx context.Context, o OrderReq) (Fill, error) {
	ts := strconv.FormatInt(time.Now().UnixMilli(), 10)
	nonce := ts // simple

	sign := Sign(c.secret, nonce, c.key, ts)
	path := "/api/v1/orders/place"

	resp := &orderResp{}
	_, err := c.rest.R().
		SetContext(ctx).
		SetHeader("api-key", c.key).
		SetHeader("nonce", nonce).
		SetHeader("timestamp", ts).
		SetHeader("sign", sign).
		SetBody(o).
		SetResult(resp).
		Post(c.base + path)
	if err != nil {
		return Fill{}, err
	}
	if resp.Code != 0 {
		return Fill{}, fmt.Errorf("broker: %d %s", resp.Code, resp.Msg)
	}

	qty, _ := strconv.ParseFloat(o.Qty, 64)
	signed := qty
	if o.Side == "SELL" {
		signed = -qty
	}

	c.mu.Lock()
	c.positions[o.Symbol] += signed
	if c.positions[o.Symbol] == 0 {
		delete(c.positions, o.Symbol)
	}
	c.mu.Unlock()

	return Fill{
		OrderID:     resp.OrderID,
		Symbol:      o.Symbol,
		Side:        o.Side,
		Qty:         qty,
		Price:       resp.Price,
		RealizedPnL: resp.PnL,
		Ts:          time.Now(),
	}, nil
}

type fundsResp struct {
	Code    int     `json:"code"`
	Balance float64 `json:"balance,string"`
}

func (c *REST) Balance() float64 {
	resp := &fundsResp{}
	_, err := c.rest.R().
		SetHeader("api-key", c.key).
		SetResult(resp).
		Get(c.base + "/api/v1/funds")
	if err != nil || resp.Code != 0 {
		return 0
	}
	return resp.Balance
}

func (c *REST) Positions() map[string]float64 {
	c.mu.RLock()
	defer c.mu.RUnlock()

	out := make(map[string]float64, len(c.positions))
	for k, v := range c.positions {
		out[k] = v
	}
	return out
}

func (c *REST) FlattenAll(ctx context.Context) error {
	for symbol, pos := range c.Positions() {
		side := "SELL"
		if pos < 0 {
			side = "BUY"
		}
		qty := pos
		if qty < 0 {
			qty = -qty
		}
		req := OrderReq{
			Symbol: symbol,
			Side:   side,
			Qty:    strconv.FormatFloat(qty, 'f', -1, 64),
			Type:   "MARKET",
		}
		if _, err := c.Place(ctx, req); err != nil {
			return fmt.Errorf("flatten %s: %w", symbol, err)
		}
	}
	return nil
}
