package strategy

import (
	"sync"
	"time"
)

// RSIThreshold buys when the RSI drops into the oversold zone and sells
// when it rises into the overbought zone. One signal per zone entry.
type RSIThreshold struct {
	base
	period     int
	oversold   float64
	overbought float64

	mu     sync.Mutex
	series map[string]*priceSeries
	zone   map[string]int // -1 oversold, 0 neutral, 1 overbought
}

func NewRSIThreshold(symbols []string, period int, oversold, overbought float64) *RSIThreshold {
	return &RSIThreshold{
		base:       newBase("rsi_threshold", symbols),
		period:     period,
		oversold:   oversold,
		overbought: overbought,
		series:     make(map[string]*priceSeries),
		zone:       make(map[string]int),
	}
}

func (s *RSIThreshold) MinDataPoints() int { return s.period + 1 }

func (s *RSIThreshold) OnTick(symbol string, price, _ float64, ts time.Time) *Signal {
	s.mu.Lock()
	defer s.mu.Unlock()

	ps, ok := s.series[symbol]
	if !ok {
		ps = newPriceSeries(s.period * 4)
		s.series[symbol] = ps
	}
	ps.Add(price)

	rsi := ps.RSI(s.period)
	if rsi < 0 {
		return nil
	}

	newZone := 0
	switch {
	case rsi <= s.oversold:
		newZone = -1
	case rsi >= s.overbought:
		newZone = 1
	}

	prevZone := s.zone[symbol]
	s.zone[symbol] = newZone

	if newZone == 0 || newZone == prevZone || !s.Enabled() {
		return nil
	}

	action := ActionBuy
	if newZone == 1 {
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
