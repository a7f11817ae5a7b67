// Package broker abstracts order execution and market data intake.
// It ships a simulated paper broker for dry runs and a signed REST broker
// for live trading, plus tick sources feeding the engine's data collector.
package broker

import (
	"context"
	"time"
)

// Tick is a single market data update for one symbol.
type Tick struct {
	Symbol string
	Price  float64
	Qty    float64
	Ts     time.Time
}

// OrderReq describes a market order to place.
type OrderReq struct {
	Symbol string `json:"symbol"`
	Side   string `json:"side"` // BUY or SELL
	Qty    string `json:"qty"`
	Type   string `json:"orderType"` // MARKET
}

// Fill is the broker's confirmation of an executed order.
type Fill struct {
	OrderID     string
	Symbol      string
	Side        string
	Qty         float64
	Price       float64
	RealizedPnL float64
	Ts          time.Time
}

// Broker executes orders and tracks account state.
type Broker interface {
	Name() string
	Balance() float64
	Place(ctx context.Context, req OrderReq) (Fill, error)
	Positions() map[string]float64
	// FlattenAll closes every open position at market. Used by the
	// emergency stop path.
	FlattenAll(ctx context.Context) error
}

// TickSource streams market data until the context is canceled.
type TickSource interface {
	Stream(ctx context.Context, symbols []string, ticks chan<- Tick, errs chan<- error) error
}
