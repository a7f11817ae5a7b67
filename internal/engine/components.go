package engine

import (
	"context"
	"strconv"
	"time"

	"algotrade-pro/internal/broker"
	"algotrade-pro/internal/storage"
	"algotrade-pro/internal/strategy"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
)

// runCollector streams market data from the tick source into the engine.
// For the paper broker it also records the last price so fills have a mark.
func (c *Controller) runCollector(ctx context.Context) {
	raw := make(chan broker.Tick, 256)

	go func() {
		if err := c.feed.Stream(ctx, c.config.Symbols, raw, c.errs); err != nil && ctx.Err() == nil {
			select {
			case c.errs <- err:
			default:
			}
		}
	}()

	paper, _ := c.broker.(*broker.Paper)

	for {
		select {
		case <-ctx.Done():
			return
		case t := <-raw:
			if paper != nil {
				paper.ObservePrice(t.Symbol, t.Price)
			}
			c.metrics.TicksReceivedInc()
			select {
			case c.ticks <- t:
			default:
				log.Warn().Str("symbol", t.Symbol).Msg("tick channel full, dropping")
			}
		}
	}
}

// runStrategyEngine feeds ticks to each enabled strategy and forwards any
// signals to the executor.
func (c *Controller) runStrategyEngine(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case t := <-c.ticks:
			for _, s := range c.registry.All() {
				if !s.Enabled() {
					continue
				}
				sig := s.OnTick(t.Symbol, t.Price, t.Qty, t.Ts)
				if sig == nil {
					continue
				}
				c.metrics.SignalsTotalInc()
				log.Debug().
					Str("strategy", sig.Strategy).
					Str("symbol", sig.Symbol).
					Str("action", string(sig.Action)).
					Float64("price", sig.Price).
					Msg("signal")
				select {
				case c.signals <- *sig:
				default:
					log.Warn().Str("strategy", sig.Strategy).Msg("signal channel full, dropping")
				}
			}
			c.metrics.SetActiveStrategies(c.registry.EnabledCount())
		}
	}
}

// runExecutor turns signals into broker orders and persists the fills.
func (c *Controller) runExecutor(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case sig := <-c.signals:
			c.execute(ctx, sig)
		}
	}
}

func (c *Controller) execute(ctx context.Context, sig strategy.Signal) {
	if !c.tradingAllowed.Load() {
		log.Warn().Str("strategy", sig.Strategy).Msg("trading halted, signal dropped")
		return
	}
	if c.config.DryRun {
		log.Info().
			Str("strategy", sig.Strategy).
			Str("symbol", sig.Symbol).
			Str("action", string(sig.Action)).
			Msg("dry-run, order skipped")
		return
	}

	side := "BUY"
	if sig.Action == strategy.ActionSell {
		side = "SELL"
	}

	// cap absolute exposure per symbol
	pos := c.broker.Positions()[sig.Symbol]
	next := pos + c.config.OrderQty
	if side == "SELL" {
		next = pos - c.config.OrderQty
	}
	if next > c.config.MaxPosition || next < -c.config.MaxPosition {
		log.Warn().Str("symbol", sig.Symbol).Float64("position", pos).Msg("position limit reached, signal dropped")
		return
	}

	start := time.Now()
	fill, err := c.broker.Place(ctx, broker.OrderReq{
		Symbol: sig.Symbol,
		Side:   side,
		Qty:    formatQty(c.config.OrderQty),
		Type:   "MARKET",
	})
	c.metrics.ObserveOrderLatency(time.Since(start))

	if err != nil {
		c.metrics.OrderFailuresInc()
		c.metrics.ErrorsTotalInc()
		log.Error().Err(err).Str("symbol", sig.Symbol).Msg("order failed")
		c.persistTrade(sig, fill, storage.StatusRejected)
		return
	}

	c.metrics.OrdersTotalInc()
	c.metrics.UpdatePositions(c.broker.Positions())
	if fill.RealizedPnL != 0 {
		total := c.dailyPnL.Add(fill.RealizedPnL)
		c.metrics.SetPnL(total)
		for _, s := range c.registry.All() {
			if s.Name() == sig.Strategy {
				s.RecordResult(fill.RealizedPnL)
			}
		}
	}
	log.Info().
		Str("order_id", fill.OrderID).
		Str("symbol", fill.Symbol).
		Str("side", fill.Side).
		Float64("qty", fill.Qty).
		Float64("price", fill.Price).
		Float64("pnl", fill.RealizedPnL).
		Msg("order filled")

	c.persistTrade(sig, fill, storage.StatusFilled)
}

func (c *Controller) persistTrade(sig strategy.Signal, fill broker.Fill, status storage.Status) {
	if c.store == nil {
		return
	}
	tr := storage.Trade{
		ID:       fill.OrderID,
		Symbol:   sig.Symbol,
		Side:     storage.Side(fill.Side),
		Qty:      fill.Qty,
		Price:    fill.Price,
		Strategy: sig.Strategy,
		Status:   status,
		PnL:      fill.RealizedPnL,
		Ts:       time.Now(),
	}
	if tr.ID == "" {
		tr.ID = uuid.NewString()
	}
	if status == storage.StatusRejected {
		tr.Side = storage.Side(sig.Action)
		tr.Qty = c.config.OrderQty
		tr.Price = sig.Price
	}
	if err := c.store.StoreTrade(tr); err != nil {
		log.Error().Err(err).Msg("store trade")
		c.metrics.ErrorsTotalInc()
	}
}

// runRiskManager snapshots equity and halts trading when the daily loss
// limit is breached.
func (c *Controller) runRiskManager(ctx context.Context) {
	ticker := time.NewTicker(5 * time.Second)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			pnl := c.dailyPnL.Load()
			balance := c.broker.Balance()

			if c.store != nil {
				if err := c.store.StoreEquity(storage.EquityPoint{
					Balance: balance,
					PnL:     pnl,
					Ts:      time.Now(),
				}); err != nil {
					log.Error().Err(err).Msg("store equity")
				}
			}

			limit := -c.config.MaxDailyLoss * c.config.InitialBalance
			if pnl < limit && c.tradingAllowed.Load() {
				c.tradingAllowed.Store(false)
				c.registry.DisableAll()
				c.metrics.SetActiveStrategies(0)
				log.Error().
					Float64("daily_pnl", pnl).
					Float64("limit", limit).
					Msg("daily loss limit breached, trading halted and strategies disabled")
			}
		}
	}
}

// broker wire format carries quantities as strings
func formatQty(q float64) string {
	return strconv.FormatFloat(q, 'f', -1, 64)
}
