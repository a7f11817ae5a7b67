package strategy

import (
	"sync"
	"time"
)

// MACrossover emits BUY when the fast SMA crosses above the slow SMA and
// SELL on the opposite cross.
type MACrossover struct {
	base
	fast, slow int

	mu       sync.Mutex
	series   map[string]*priceSeries
	prevDiff map[string]float64
}

func NewMACrossover(symbols []string, fast, slow int) *MACrossover {
	return &MACrossover{
		base:     newBase("ma_crossover", symbols),
		fast:     fast,
		slow:     slow,
		series:   make(map[string]*priceSeries),
		prevDiff: make(map[string]float64),
	}
}

func (s *MACrossover) MinDataPoints() int { return s.slow }

func (s *MACrossover) OnTick(symbol string, price, _ float64, ts time.Time) *Signal {
	s.mu.Lock()
	defer s.mu.Unlock()

	ps, ok := s.series[symbol]
	if !ok {
		ps = newPriceSeries(s.slow * 4)
		s.series[symbol] = ps
	}
	ps.Add(price)

	if ps.Len() < s.slow {
		return nil
	}

	diff := ps.SMA(s.fast) - ps.SMA(s.slow)
	prev, hadPrev := s.prevDiff[symbol]
	s.prevDiff[symbol] = diff

	if !hadPrev || !s.Enabled() {
		return nil
	}

	var action Action
	switch {
	case prev <= 0 && diff > 0:
		action = ActionBuy
	case prev >= 0 && diff < 0:
		action = ActionSell
	default:
		return nil
	}

	s.markSignal(ts)
	return &Signal{
		Strategy: s.name,
		Symbol:   symbol,
		Action:   action,
		Price:    price,
		Ts:       ts,
	}
}
