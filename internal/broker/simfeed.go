package broker

import (
	"context"
	"math/rand"
	"time"
)

// SimFeed generates random-walk ticks for paper trading and dry runs.
type SimFeed struct {
	interval   time.Duration
	startPrice float64
}

func NewSimFeed(interval time.Duration, startPrice float64) *SimFeed {
	if interval <= 0 {
		interval = 200 * time.Millisecond
	}
	if startPrice <= 0 {
		startPrice = 1000
	}
	return &SimFeed{interval: interval, startPrice: startPrice}
}

func (f *SimFeed) Stream(ctx context.Context, symbols []string, ticks chan<- Tick, _ chan<- error) error {
	rng := rand.New(rand.NewSource(time.Now().UnixNano()))

	prices := make(map[string]float64, len(symbols))
	for _, s := range symbols {
		prices[s] = f.startPrice * (0.5 + rng.Float64())
	}

	ticker := time.NewTicker(f.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			for _, s := range symbols {
				// ±0.1% step keeps the walk within plausible intraday moves
				prices[s] *= 1 + (rng.Float64()-0.5)*0.002
				tick := Tick{
					Symbol: s,
					Price:  prices[s],
					Qty:    float64(1 + rng.Intn(100)),
					Ts:     time.Now(),
				}
				select {
				case ticks <- tick:
				case <-ctx.Done():
					return ctx.Err()
				}
			}
		}
	}
}
