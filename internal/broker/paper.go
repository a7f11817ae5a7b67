package broker

import (
	"context"
	"fmt"
	"strconv"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
)

// Paper is a simulated broker. Orders fill instantly at the last observed
// price; realized P&L is tracked against the average entry price.
type Paper struct {
	balance   float64
	positions map[string]float64
	avgEntry  map[string]float64
	lastPrice map[string]float64
	mu        sync.RWMutex
}

func NewPaper(initialBalance float64) *Paper {
	return &Paper{
		balance:   initialBalance,
		positions: make(map[string]float64),
		avgEntry:  make(map[string]float64),
		lastPrice: make(map[string]float64),
	}
}

func (p *Paper) Name() string { return "paper" }

func (p *Paper) Balance() float64 {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.balance
}

// ObservePrice records the latest market price. The engine's data collector
// calls this for every tick so fills have a price to execute at.
func (p *Paper) ObservePrice(symbol string, price float64) {
	p.mu.Lock()
	p.lastPrice[symbol] = price
	p.mu.Unlock()
}

func (p *Paper) Place(_ context.Context, req OrderReq) (Fill, error) {
	qty, err := strconv.ParseFloat(req.Qty, 64)
	if err != nil || qty <= 0 {
		return Fill{}, fmt.Errorf("invalid order quantity %q", req.Qty)
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	price, ok := p.lastPrice[req.Symbol]
	if !ok || price == 0 {
		return Fill{}, fmt.Errorf("no market price for %s", req.Symbol)
	}

	signed := qty
	if req.Side == "SELL" {
		signed = -qty
	}

	pos := p.positions[req.Symbol]
	entry := p.avgEntry[req.Symbol]
	realized := 0.0

	switch {
	case pos == 0 || (pos > 0) == (signed > 0):
		// Opening or adding: move the average entry.
		total := pos + signed
		p.avgEntry[req.Symbol] = (entry*abs(pos) + price*qty) / abs(total)
	default:
		// Reducing or flipping: realize P&L on the closed part.
		closed := abs(signed)
		if abs(pos) < closed {
			closed = abs(pos)
		}
		if pos > 0 {
			realized = (price - entry) * closed
		} else {
			realized = (entry - price) * closed
		}
		p.balance += realized
		if abs(signed) > abs(pos) {
			p.avgEntry[req.Symbol] = price // leftover opens the other way
		}
	}

	p.positions[req.Symbol] = pos + signed
	if p.positions[req.Symbol] == 0 {
		delete(p.positions, req.Symbol)
		delete(p.avgEntry, req.Symbol)
	}

	fill := Fill{
		OrderID:     uuid.NewString(),
		Symbol:      req.Symbol,
		Side:        req.Side,
		Qty:         qty,
		Price:       price,
		RealizedPnL: realized,
		Ts:          time.Now(),
	}

	log.Debug().
		Str("symbol", fill.Symbol).
		Str("side", fill.Side).
		Float64("qty", fill.Qty).
		Float64("price", fill.Price).
		Float64("realized", realized).
		Msg("paper fill")

	return fill, nil
}

func (p *Paper) Positions() map[string]float64 {
	p.mu.RLock()
	defer p.mu.RUnlock()

	out := make(map[string]float64, len(p.positions))
	for k, v := range p.positions {
		out[k] = v
	}
	return out
}

func (p *Paper) FlattenAll(ctx context.Context) error {
	for symbol, pos := range p.Positions() {
		side := "SELL"
		if pos < 0 {
			side = "BUY"
		}
		req := OrderReq{
			Symbol: symbol,
			Side:   side,
			Qty:    strconv.FormatFloat(abs(pos), 'f', -1, 64),
			Type:   "MARKET",
		}
		if _, err := p.Place(ctx, req); err != nil {
			return fmt.Errorf("flatten %s: %w", symbol, err)
		}
	}
	return nil
}

func abs(v float64) float64 {
	if v < 0 {
		return -v
	}
	return v
}
