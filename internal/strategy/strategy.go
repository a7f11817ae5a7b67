// Package strategy holds the trading strategies, their shared series state,
// and the registry through which the engine and the dashboard toggle them.
package strategy

import (
	"sync"
	"time"
)

// Action is the direction of a signal.
type Action string

const (
	ActionBuy  Action = "BUY"
	ActionSell Action = "SELL"
)

// Signal is a trade instruction emitted by a strategy.
type Signal struct {
	Strategy string
	Symbol   string
	Action   Action
	Price    float64
	Ts       time.Time
}

// Performance aggregates a strategy's realized results.
type Performance struct {
	Trades        int     `json:"trades"`
	Wins          int     `json:"wins"`
	WinRate       float64 `json:"winRate"`
	TotalPnL      float64 `json:"totalPnL"`
	LastSignalAge float64 `json:"lastSignalAge"` // seconds, -1 when none yet
}

// Strategy evaluates market state and emits at most one signal per call.
type Strategy interface {
	Name() string
	Symbols() []string
	Enabled() bool
	Enable()
	Disable()
	// MinDataPoints is the number of ticks a symbol needs before the
	// strategy produces meaningful output.
	MinDataPoints() int
	// OnTick consumes one market tick and returns a signal or nil.
	OnTick(symbol string, price, qty float64, ts time.Time) *Signal
	Performance() Performance
	// RecordResult feeds a realized P&L back into performance tracking.
	RecordResult(pnl float64)
}

// base carries the bookkeeping every concrete strategy shares.
type base struct {
	name    string
	symbols []string

	mu         sync.RWMutex
	enabled    bool
	trades     int
	wins       int
	totalPnL   float64
	lastSignal time.Time
}

func newBase(name string, symbols []string) base {
	return base{name: name, symbols: symbols}
}

func (b *base) Name() string { return b.name }

func (b *base) Symbols() []string { return b.symbols }

func (b *base) Enabled() bool {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.enabled
}

func (b *base) Enable() {
	b.mu.Lock()
	b.enabled = true
	b.mu.Unlock()
}

func (b *base) Disable() {
	b.mu.Lock()
	b.enabled = false
	b.mu.Unlock()
}

func (b *base) markSignal(ts time.Time) {
	b.mu.Lock()
	b.lastSignal = ts
	b.mu.Unlock()
}

func (b *base) RecordResult(pnl float64) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.trades++
	if pnl > 0 {
		b.wins++
	}
	b.totalPnL += pnl
}

func (b *base) Performance() Performance {
	b.mu.RLock()
	defer b.mu.RUnlock()

	p := Performance{
		Trades:        b.trades,
		Wins:          b.wins,
		TotalPnL:      b.totalPnL,
		LastSignalAge: -1,
	}
	if b.trades > 0 {
		p.WinRate = float64(b.wins) / float64(b.trades)
	}
	if !b.lastSignal.IsZero() {
		p.LastSignalAge = time.Since(b.lastSignal).Seconds()
	}
	return p
}
