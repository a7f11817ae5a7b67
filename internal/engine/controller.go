// Package engine coordinates the trading platform's runtime components:
// the data collector, the strategy engine, the trade executor, and the
// risk manager each run as a goroutine owned by the Controller.
package engine

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"algotrade-pro/internal/broker"
	"algotrade-pro/internal/cfg"
	"algotrade-pro/internal/metrics"
	"algotrade-pro/internal/storage"
	"algotrade-pro/internal/strategy"

	"github.com/rs/zerolog/log"
)

// RunState is the engine's lifecycle state.
type RunState string

const (
	StateStopped RunState = "stopped"
	StateRunning RunState = "running"
)

// Status is a point-in-time snapshot of the engine, served by the control
// API and broadcast to dashboard clients.
type Status struct {
	Status           RunState           `json:"status"`
	Running          bool               `json:"running"`
	BrokerType       string             `json:"broker_type"`
	StrategiesActive int                `json:"strategies_active"`
	Components       map[string]bool    `json:"components"`
	Balance          float64            `json:"balance"`
	DailyPnL         float64            `json:"daily_pnl"`
	Positions        map[string]float64 `json:"positions"`
	Timestamp        time.Time          `json:"timestamp"`
}

// component is one supervised goroutine. Each has its own cancel so it can
// be restarted independently of the rest of the engine.
type component struct {
	run    func(ctx context.Context)
	cancel context.CancelFunc
	done   chan struct{}
	alive  atomic.Bool
}

// Controller owns all runtime components and the channels between them.
type Controller struct {
	config   cfg.Settings
	broker   broker.Broker
	feed     broker.TickSource
	registry *strategy.Registry
	store    *storage.Store // nil disables persistence
	metrics  *metrics.Wrapper

	mu         sync.Mutex
	running    bool
	baseCtx    context.Context
	baseCancel context.CancelFunc
	components map[string]*component

	ticks   chan broker.Tick
	signals chan strategy.Signal
	errs    chan error

	tradingAllowed atomic.Bool
	dailyPnL       atomicFloat
}

func New(c cfg.Settings, b broker.Broker, feed broker.TickSource, reg *strategy.Registry, store *storage.Store, m *metrics.Wrapper) *Controller {
	ctl := &Controller{
		config:     c,
		broker:     b,
		feed:       feed,
		registry:   reg,
		store:      store,
		metrics:    m,
		components: make(map[string]*component),
	}
	ctl.tradingAllowed.Store(true)
	return ctl
}

// ComponentNames in the order they are started.
var ComponentNames = []string{"data_collector", "strategy_engine", "trade_executor", "risk_manager"}

// StartAll starts every component. Calling it while running is a no-op.
// The engine owns its own lifecycle context so a start survives the
// request that triggered it.
func (c *Controller) StartAll() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.running {
		log.Warn().Msg("engine already running")
		return nil
	}

	c.baseCtx, c.baseCancel = context.WithCancel(context.Background())
	c.ticks = make(chan broker.Tick, 256)
	c.signals = make(chan strategy.Signal, 64)
	c.errs = make(chan error, 32)
	c.tradingAllowed.Store(true)

	runs := map[string]func(context.Context){
		"data_collector":  c.runCollector,
		"strategy_engine": c.runStrategyEngine,
		"trade_executor":  c.runExecutor,
		"risk_manager":    c.runRiskManager,
	}
	for _, name := range ComponentNames {
		c.startComponentLocked(name, runs[name])
	}

	// error drain shares the engine's lifetime but is not restartable
	go c.drainErrors(c.baseCtx)

	c.running = true
	c.metrics.EngineStartsInc()
	c.metrics.SetEngineRunning(true)
	log.Info().Str("broker", c.broker.Name()).Msg("engine started")
	return nil
}

func (c *Controller) startComponentLocked(name string, run func(ctx context.Context)) {
	ctx, cancel := context.WithCancel(c.baseCtx)
	comp := &component{run: run, cancel: cancel, done: make(chan struct{})}
	c.components[name] = comp

	go func() {
		comp.alive.Store(true)
		defer func() {
			comp.alive.Store(false)
			close(comp.done)
		}()
		log.Info().Str("component", name).Msg("component started")
		run(ctx)
		log.Info().Str("component", name).Msg("component stopped")
	}()
}

// StopAll stops every component and disables all strategies, mirroring the
// platform's behavior of leaving nothing armed after a stop.
func (c *Controller) StopAll() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if !c.running {
		log.Warn().Msg("engine not running")
		return nil
	}

	c.baseCancel()
	for name, comp := range c.components {
		select {
		case <-comp.done:
		case <-time.After(5 * time.Second):
			log.Warn().Str("component", name).Msg("component did not stop gracefully")
		}
	}
	c.components = make(map[string]*component)

	c.registry.DisableAll()
	c.metrics.SetActiveStrategies(0)

	c.running = false
	c.metrics.EngineStopsInc()
	c.metrics.SetEngineRunning(false)
	log.Info().Msg("engine stopped")
	return nil
}

// EmergencyStop stops everything and flattens all open positions.
func (c *Controller) EmergencyStop(ctx context.Context) error {
	log.Warn().Msg("emergency stop requested")
	c.metrics.EmergencyStopsInc()

	if err := c.StopAll(); err != nil {
		return err
	}
	if err := c.broker.FlattenAll(ctx); err != nil {
		c.metrics.ErrorsTotalInc()
		return fmt.Errorf("flatten positions: %w", err)
	}
	return nil
}

// RestartComponent restarts one named component while the engine keeps
// running.
func (c *Controller) RestartComponent(name string) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if !c.running {
		return fmt.Errorf("engine is not running")
	}
	comp, ok := c.components[name]
	if !ok {
		return fmt.Errorf("unknown component: %s", name)
	}

	comp.cancel()
	select {
	case <-comp.done:
	case <-time.After(5 * time.Second):
		log.Warn().Str("component", name).Msg("component did not stop before restart")
	}

	c.startComponentLocked(name, comp.run)
	log.Info().Str("component", name).Msg("component restarted")
	return nil
}

// Running reports whether the engine is currently started.
func (c *Controller) Running() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.running
}

// Status snapshots the engine for the API and websocket broadcast.
func (c *Controller) Status() Status {
	c.mu.Lock()
	running := c.running
	comps := make(map[string]bool, len(ComponentNames))
	for _, name := range ComponentNames {
		comp, ok := c.components[name]
		comps[name] = ok && comp.alive.Load()
	}
	c.mu.Unlock()

	state := StateStopped
	if running {
		state = StateRunning
	}

	return Status{
		Status:           state,
		Running:          running,
		BrokerType:       c.broker.Name(),
		StrategiesActive: c.registry.EnabledCount(),
		Components:       comps,
		Balance:          c.broker.Balance(),
		DailyPnL:         c.dailyPnL.Load(),
		Positions:        c.broker.Positions(),
		Timestamp:        time.Now(),
	}
}

// DailyPnL returns the cumulative realized P&L since start of day.
func (c *Controller) DailyPnL() float64 {
	return c.dailyPnL.Load()
}

func (c *Controller) drainErrors(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case err := <-c.errs:
			// reconnects carry their own counter inside the stream;
			// here they only count toward the error total
			log.Error().Err(err).Msg("background error")
			c.metrics.ErrorsTotalInc()
		}
	}
}

// atomicFloat is a float64 guarded by a mutex; contention is negligible at
// fill rates so this stays simpler than bit-cast atomics.
type atomicFloat struct {
	mu sync.Mutex
	v  float64
}

func (a *atomicFloat) Add(delta float64) float64 {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.v += delta
	return a.v
}

func (a *atomicFloat) Load() float64 {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.v
}
