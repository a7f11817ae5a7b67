package strategy

import (
	"math"
	"testing"
	"time"
)

func TestRollingVWAPCalc(t *testing.T) {
	v := NewRollingVWAP(time.Minute, 10)
	now := time.Now()

	v.Add(100, 2, now)
	v.Add(110, 1, now)

	value, std := v.Calc()
	want := (100*2 + 110*1) / 3.0
	if math.Abs(value-want) > 1e-9 {
		t.Errorf("VWAP = %f, want %f", value, want)
	}
	if std <= 0 {
		t.Errorf("std = %f, want > 0", std)
	}
}

func TestRollingVWAPEmpty(t *testing.T) {
	v := NewRollingVWAP(time.Minute, 10)
	value, std := v.Calc()
	if value != 0 || std != 0 {
		t.Errorf("empty VWAP = (%f, %f), want (0, 0)", value, std)
	}
}

func TestRollingVWAPExpiresOldSamples(t *testing.T) {
	v := NewRollingVWAP(time.Millisecond, 10)
	v.Add(100, 1, time.Now().Add(-time.Second))

	value, _ := v.Calc()
	if value != 0 {
		t.Errorf("expired samples still counted, VWAP = %f", value)
	}
}

func TestTickDirectionRatio(t *testing.T) {
	td := NewTickDirection(4)
	if td.Ratio() != 0 {
		t.Errorf("empty ratio = %f, want 0", td.Ratio())
	}

	td.Add(1)
	td.Add(1)
	td.Add(-1)
	td.Add(1)
	if got := td.Ratio(); got != 0.5 {
		t.Errorf("ratio = %f, want 0.5", got)
	}

	// Buffer is bounded at 4; the next add evicts the oldest uptick.
	td.Add(-1)
	if got := td.Ratio(); got != 0 {
		t.Errorf("ratio after eviction = %f, want 0", got)
	}
}

func TestPriceSeriesSMA(t *testing.T) {
	ps := newPriceSeries(5)
	for _, p := range []float64{1, 2, 3, 4, 5} {
		ps.Add(p)
	}

	if got := ps.SMA(3); got != 4 {
		t.Errorf("SMA(3) = %f, want 4", got)
	}
	if got := ps.SMA(10); got != 0 {
		t.Errorf("SMA with insufficient data = %f, want 0", got)
	}
}

func TestPriceSeriesBounded(t *testing.T) {
	ps := newPriceSeries(3)
	for i := 0; i < 10; i++ {
		ps.Add(float64(i))
	}
	if ps.Len() != 3 {
		t.Errorf("Len = %d, want 3", ps.Len())
	}
	if got := ps.SMA(3); got != 8 {
		t.Errorf("SMA over last 3 = %f, want 8", got)
	}
}

func TestPriceSeriesRSI(t *testing.T) {
	ps := newPriceSeries(20)

	if got := ps.RSI(14); got != -1 {
		t.Errorf("RSI with no data = %f, want -1", got)
	}

	// Monotonic rise: RSI must saturate at 100.
	for i := 0; i < 15; i++ {
		ps.Add(float64(100 + i))
	}
	if got := ps.RSI(14); got != 100 {
		t.Errorf("RSI of pure gains = %f, want 100", got)
	}

	// Monotonic fall drives RSI towards 0.
	ps2 := newPriceSeries(20)
	for i := 0; i < 15; i++ {
		ps2.Add(float64(100 - i))
	}
	if got := ps2.RSI(14); got != 0 {
		t.Errorf("RSI of pure losses = %f, want 0", got)
	}

	// Flat series is neutral.
	ps3 := newPriceSeries(20)
	for i := 0; i < 15; i++ {
		ps3.Add(100)
	}
	if got := ps3.RSI(14); got != 50 {
		t.Errorf("RSI of flat series = %f, want 50", got)
	}
}
