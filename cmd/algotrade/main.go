package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"algotrade-pro/internal/broker"
	"algotrade-pro/internal/cfg"
	"algotrade-pro/internal/engine"
	"algotrade-pro/internal/logging"
	"algotrade-pro/internal/metrics"
	"algotrade-pro/internal/report"
	"algotrade-pro/internal/server"
	"algotrade-pro/internal/storage"
	"algotrade-pro/internal/strategy"

	"github.com/rs/zerolog/log"
)

func main() {
	c, err := cfg.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("config load failed")
	}

	logCloser := logging.Setup(os.Getenv("LOG_LEVEL"), c.LogPath)
	defer logCloser.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	m := metrics.New()
	mw := metrics.NewWrapper(m)

	store := initializeStorage(c)
	if store != nil {
		defer store.Close()
	}

	b, feed := initializeBroker(c, mw)
	registry := initializeStrategies(c)

	eng := engine.New(c, b, feed, registry, store, mw)
	srv := server.New(c.ServerPort, eng, registry, report.NewGenerator(store, c.ReportDir), mw)
	srv.Start()

	log.Info().
		Str("broker", b.Name()).
		Strs("symbols", c.Symbols).
		Int("port", c.ServerPort).
		Bool("dryRun", c.DryRun).
		Msg("algotrade-pro started")

	waitForShutdown(ctx, cancel, eng, srv)
}

// initializeStorage opens the trade store if DATA_PATH is configured.
func initializeStorage(c cfg.Settings) *storage.Store {
	if c.DataPath == "" {
		return nil
	}
	store, err := storage.New(c.DataPath)
	if err != nil {
		log.Warn().Err(err).Msg("storage initialization failed, continuing without persistence")
		return nil
	}
	return store
}

// initializeBroker wires the configured broker with its matching tick
// source: paper trading runs against the simulated feed, the REST broker
// against the live websocket stream.
func initializeBroker(c cfg.Settings, mw *metrics.Wrapper) (broker.Broker, broker.TickSource) {
	if c.Broker == "rest" {
		return broker.NewREST(c.Key, c.Secret, c.BaseURL, c.RESTTimeout),
			broker.NewWS(c.WsURL, c.Ping).CountReconnects(mw.ReconnectCounter())
	}
	return broker.NewPaper(c.InitialBalance), broker.NewSimFeed(0, 2500)
}

func initializeStrategies(c cfg.Settings) *strategy.Registry {
	registry := strategy.NewRegistry()

	for _, s := range []strategy.Strategy{
		strategy.NewMACrossover(c.Symbols, c.MAFast, c.MASlow),
		strategy.NewRSIThreshold(c.Symbols, c.RSIPeriod, c.RSIOversold, c.RSIOverbought),
		strategy.NewVWAPRevert(c.Symbols, c.VWAPWindow, c.VWAPSize, c.TickWindow),
	} {
		if err := registry.Register(s); err != nil {
			log.Fatal().Err(err).Str("strategy", s.Name()).Msg("strategy registration failed")
		}
	}
	return registry
}

// waitForShutdown blocks until a signal arrives, then stops the engine and
// the HTTP server with a bounded grace period.
func waitForShutdown(ctx context.Context, cancel context.CancelFunc, eng *engine.Controller, srv *server.Server) {
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	select {
	case <-sigChan:
		log.Info().Msg("shutdown signal received")
	case <-ctx.Done():
		log.Info().Msg("context canceled")
	}

	log.Info().Msg("shutting down gracefully...")
	cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := eng.StopAll(); err != nil {
		log.Error().Err(err).Msg("engine shutdown failed")
	}
	if err := srv.Stop(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("server shutdown failed")
	}
	log.Info().Msg("shutdown complete")
}
