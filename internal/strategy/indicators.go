package strategy

import (
	"container/ring"
	"math"
	"sync"
	"time"
)

type vwapSample struct {
	p, v float64
	t    time.Time
}

// RollingVWAP is a time-windowed volume-weighted average price over a
// fixed-size ring of samples, with the price standard deviation across
// the same window.
type RollingVWAP struct {
	win  time.Duration
	ring *ring.Ring
	mu   sync.RWMutex
}

func NewRollingVWAP(win time.Duration, size int) *RollingVWAP {
	if size <= 0 {
		size = 1
	}
	return &RollingVWAP{win: win, ring: ring.New(size)}
}

func (v *RollingVWAP) Add(price, volume float64, ts time.Time) {
	v.mu.Lock()
	v.ring.Value = vwapSample{price, volume, ts}
	v.ring = v.ring.Next()
	v.mu.Unlock()
}

func (v *RollingVWAP) Calc() (value, std float64) {
	v.mu.RLock()
	defer v.mu.RUnlock()

	var pv, vv float64
	var count int
	var sum, sumSquared float64
	cutoff := time.Now().Add(-v.win)

	v.ring.Do(func(x any) {
		if s, ok := x.(vwapSample); ok && s.t.After(cutoff) {
			pv += s.p * s.v
			vv += s.v
			sum += s.p
			sumSquared += s.p * s.p
			count++
		}
	})

	if vv == 0 || count == 0 {
		return 0, 0
	}

	value = pv / vv
	mean := sum / float64(count)
	variance := (sumSquared / float64(count)) - (mean * mean)
	if variance > 0 {
		std = math.Sqrt(variance)
	}
	return
}

// TickDirection tracks the sign of recent price changes; Ratio is in
// [-1, 1], positive when upticks dominate.
type TickDirection struct {
	buf []int8
	max int
	mu  sync.RWMutex
}

func NewTickDirection(n int) *TickDirection {
	if n <= 0 {
		n = 1
	}
	return &TickDirection{max: n}
}

func (t *TickDirection) Add(sign int8) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if len(t.buf) == t.max {
		t.buf = t.buf[1:]
	}
	t.buf = append(t.buf, sign)
}

func (t *TickDirection) Ratio() float64 {
	t.mu.RLock()
	defer t.mu.RUnlock()
	if len(t.buf) == 0 {
		return 0
	}
	var s int
	for _, v := range t.buf {
		s += int(v)
	}
	return float64(s) / float64(len(t.buf))
}

// priceSeries is a bounded FIFO of closing prices shared by the SMA/RSI
// strategies.
type priceSeries struct {
	buf []float64
	max int
	mu  sync.RWMutex
}

func newPriceSeries(max int) *priceSeries {
	if max <= 0 {
		max = 1
	}
	return &priceSeries{max: max}
}

func (p *priceSeries) Add(price float64) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if len(p.buf) == p.max {
		p.buf = p.buf[1:]
	}
	p.buf = append(p.buf, price)
}

func (p *priceSeries) Len() int {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return len(p.buf)
}

// SMA returns the simple moving average of the last n prices, or 0 when
// fewer than n are available.
func (p *priceSeries) SMA(n int) float64 {
	p.mu.RLock()
	defer p.mu.RUnlock()
	if n <= 0 || len(p.buf) < n {
		return 0
	}
	var sum float64
	for _, v := range p.buf[len(p.buf)-n:] {
		sum += v
	}
	return sum / float64(n)
}

// RSI returns the relative strength index over the last period changes,
// or -1 when there is not enough data.
func (p *priceSeries) RSI(period int) float64 {
	p.mu.RLock()
	defer p.mu.RUnlock()
	if period <= 0 || len(p.buf) < period+1 {
		return -1
	}

	var gains, losses float64
	window := p.buf[len(p.buf)-period-1:]
	for i := 1; i < len(window); i++ {
		delta := window[i] - window[i-1]
		if delta > 0 {
			gains += delta
		} else {
			losses -= delta
		}
	}

	if losses == 0 {
		if gains == 0 {
			return 50
		}
		return 100
	}
	rs := gains / losses
	return 100 - 100/(1+rs)
}
