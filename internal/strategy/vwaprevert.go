package strategy

import (
	"sync"
	"time"
)

// maxSignalRate throttles the mean-revert strategy, which otherwise fires
// on every tick while the price stays stretched.
const maxSignalRate = 5 * time.Second

// VWAPRevert fades price extensions: when price trades more than
// distThreshold standard deviations away from the rolling VWAP and the
// recent tick direction has stalled, it signals a reversion trade.
type VWAPRevert struct {
	base
	window        time.Duration
	size          int
	tickWindow    int
	distThreshold float64

	mu        sync.Mutex
	vwaps     map[string]*RollingVWAP
	ticks     map[string]*TickDirection
	lastPrice map[string]float64
	lastFire  map[string]time.Time
}

func NewVWAPRevert(symbols []string, window time.Duration, size, tickWindow int) *VWAPRevert {
	return &VWAPRevert{
		base:          newBase("vwap_revert", symbols),
		window:        window,
		size:          size,
		tickWindow:    tickWindow,
		distThreshold: 2.0,
		vwaps:         make(map[string]*RollingVWAP),
		ticks:         make(map[string]*TickDirection),
		lastPrice:     make(map[string]float64),
		lastFire:      make(map[string]time.Time),
	}
}

func (s *VWAPRevert) MinDataPoints() int { return s.tickWindow }

func (s *VWAPRevert) OnTick(symbol string, price, qty float64, ts time.Time) *Signal {
	s.mu.Lock()
	defer s.mu.Unlock()

	vw, ok := s.vwaps[symbol]
	if !ok {
		vw = NewRollingVWAP(s.window, s.size)
		s.vwaps[symbol] = vw
		s.ticks[symbol] = NewTickDirection(s.tickWindow)
	}
	vw.Add(price, qty, ts)

	td := s.ticks[symbol]
	if old := s.lastPrice[symbol]; old != 0 {
		switch {
		case price > old:
			td.Add(1)
		case price < old:
			td.Add(-1)
		default:
			td.Add(0)
		}
	}
	s.lastPrice[symbol] = price

	if !s.Enabled() {
		return nil
	}

	vwap, std := vw.Calc()
	if std == 0 {
		return nil
	}

	dist := (price - vwap) / std
	if dist > -s.distThreshold && dist < s.distThreshold {
		return nil
	}
	// momentum still pushing away from vwap: do not fade yet
	ratio := td.Ratio()
	if (dist > 0 && ratio > 0.5) || (dist < 0 && ratio < -0.5) {
		return nil
	}
	if ts.Sub(s.lastFire[symbol]) < maxSignalRate {
		return nil
	}
	s.lastFire[symbol] = ts

	action := ActionBuy
	if dist > 0 {
		action = ActionSell
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
