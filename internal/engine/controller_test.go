package engine

import (
	"context"
	"testing"
	"time"

	"algotrade-pro/internal/broker"
	"algotrade-pro/internal/cfg"
	"algotrade-pro/internal/strategy"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// scriptFeed replays a fixed set of ticks and then blocks until canceled.
type scriptFeed struct {
	ticks []broker.Tick
}

func (f *scriptFeed) Stream(ctx context.Context, _ []string, out chan<- broker.Tick, _ chan<- error) error {
	for _, t := range f.ticks {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case out <- t:
		}
	}
	<-ctx.Done()
	return ctx.Err()
}

// buyOnce emits a single BUY on the first tick it sees.
type buyOnce struct {
	strategy.Strategy
	fired bool
}

func newBuyOnce() *buyOnce {
	return &buyOnce{Strategy: strategy.NewMACrossover([]string{"RELIANCE"}, 2, 3)}
}

func (b *buyOnce) OnTick(symbol string, price, qty float64, ts time.Time) *strategy.Signal {
	if b.fired {
		return nil
	}
	b.fired = true
	return &strategy.Signal{
		Strategy: b.Name(),
		Symbol:   symbol,
		Action:   strategy.ActionBuy,
		Price:    price,
		Ts:       ts,
	}
}

func testSettings() cfg.Settings {
	return cfg.Settings{
		Symbols:        []string{"RELIANCE"},
		OrderQty:       10,
		InitialBalance: 100000,
		MaxDailyLoss:   0.05,
		MaxPosition:    100,
	}
}

func newTestController(feed broker.TickSource, strategies ...strategy.Strategy) (*Controller, *broker.Paper) {
	p := broker.NewPaper(100000)
	reg := strategy.NewRegistry()
	for _, s := range strategies {
		_ = reg.Register(s)
		s.Enable()
	}
	return New(testSettings(), p, feed, reg, nil, nil), p
}

func TestStartStopIdempotent(t *testing.T) {
	c, _ := newTestController(&scriptFeed{})

	require.NoError(t, c.StartAll())
	require.NoError(t, c.StartAll())
	assert.True(t, c.Running())

	require.NoError(t, c.StopAll())
	require.NoError(t, c.StopAll())
	assert.False(t, c.Running())
}

func TestStatusReflectsComponents(t *testing.T) {
	c, _ := newTestController(&scriptFeed{})

	st := c.Status()
	assert.Equal(t, StateStopped, st.Status)
	assert.False(t, st.Running)
	for _, name := range ComponentNames {
		assert.False(t, st.Components[name])
	}

	require.NoError(t, c.StartAll())
	defer func() { _ = c.StopAll() }()

	assert.Eventually(t, func() bool {
		st := c.Status()
		for _, name := range ComponentNames {
			if !st.Components[name] {
				return false
			}
		}
		return st.Status == StateRunning
	}, 2*time.Second, 10*time.Millisecond)

	st = c.Status()
	assert.Equal(t, "paper", st.BrokerType)
	assert.Equal(t, 100000.0, st.Balance)
}

func TestSignalPlacesOrder(t *testing.T) {
	now := time.Now()
	feed := &scriptFeed{ticks: []broker.Tick{
		{Symbol: "RELIANCE", Price: 2500, Qty: 1, Ts: now},
		{Symbol: "RELIANCE", Price: 2501, Qty: 1, Ts: now.Add(time.Second)},
	}}
	c, paper := newTestController(feed, newBuyOnce())

	require.NoError(t, c.StartAll())
	defer func() { _ = c.StopAll() }()

	assert.Eventually(t, func() bool {
		return paper.Positions()["RELIANCE"] == 10
	}, 2*time.Second, 10*time.Millisecond)
}

func TestStopDisablesStrategies(t *testing.T) {
	s := newBuyOnce()
	c, _ := newTestController(&scriptFeed{}, s)

	require.NoError(t, c.StartAll())
	assert.True(t, s.Enabled())

	require.NoError(t, c.StopAll())
	assert.False(t, s.Enabled())
	assert.Equal(t, 0, c.Status().StrategiesActive)
}

func TestEmergencyStopFlattens(t *testing.T) {
	now := time.Now()
	feed := &scriptFeed{ticks: []broker.Tick{
		{Symbol: "RELIANCE", Price: 2500, Qty: 1, Ts: now},
	}}
	c, paper := newTestController(feed, newBuyOnce())

	require.NoError(t, c.StartAll())
	assert.Eventually(t, func() bool {
		return paper.Positions()["RELIANCE"] == 10
	}, 2*time.Second, 10*time.Millisecond)

	require.NoError(t, c.EmergencyStop(context.Background()))
	assert.False(t, c.Running())
	assert.Empty(t, paper.Positions())
}

func TestRestartComponent(t *testing.T) {
	c, _ := newTestController(&scriptFeed{})

	err := c.RestartComponent("strategy_engine")
	assert.Error(t, err, "restart requires a running engine")

	require.NoError(t, c.StartAll())
	defer func() { _ = c.StopAll() }()

	assert.Error(t, c.RestartComponent("nope"))
	require.NoError(t, c.RestartComponent("strategy_engine"))

	assert.Eventually(t, func() bool {
		return c.Status().Components["strategy_engine"]
	}, 2*time.Second, 10*time.Millisecond)
}

func TestDryRunSkipsOrders(t *testing.T) {
	now := time.Now()
	feed := &scriptFeed{ticks: []broker.Tick{
		{Symbol: "RELIANCE", Price: 2500, Qty: 1, Ts: now},
	}}
	p := broker.NewPaper(100000)
	reg := strategy.NewRegistry()
	s := newBuyOnce()
	_ = reg.Register(s)
	s.Enable()

	settings := testSettings()
	settings.DryRun = true
	c := New(settings, p, feed, reg, nil, nil)

	require.NoError(t, c.StartAll())
	defer func() { _ = c.StopAll() }()

	time.Sleep(200 * time.Millisecond)
	assert.Empty(t, p.Positions())
}
