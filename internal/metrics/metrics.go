// Package metrics provides Prometheus metrics collection for the trading
// platform. It covers engine lifecycle, order execution, strategy signals,
// market data intake, report generation, and dashboard connections, all
// exposed via the /metrics endpoint.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds all Prometheus metrics for the trading platform.
type Metrics struct {
	// Engine lifecycle
	EngineStarts   prometheus.Counter // Engine start operations accepted
	EngineStops    prometheus.Counter // Engine stop operations accepted
	EmergencyStops prometheus.Counter // Emergency stop operations accepted
	EngineRunning  prometheus.Gauge   // 1 while the engine is running

	// Trading
	OrdersTotal       prometheus.Counter   // Orders placed with the broker
	OrderFailures     prometheus.Counter   // Orders the broker rejected
	PnLTotal          prometheus.Gauge     // Current cumulative daily P&L
	ActivePositions   prometheus.Gauge     // Symbols with a non-zero position
	OrderPlaceLatency prometheus.Histogram // Broker order round-trip latency

	// Strategies and data
	SignalsTotal     prometheus.Counter // Signals emitted by enabled strategies
	StrategyToggles  prometheus.Counter // Strategy enable/disable operations
	ActiveStrategies prometheus.Gauge   // Currently enabled strategies
	TicksReceived    prometheus.Counter // Market ticks consumed
	WSReconnects     prometheus.Counter // Market stream reconnections

	// Dashboard and reports
	DashboardClients prometheus.Gauge     // Connected dashboard websocket clients
	ReportsBuilt     prometheus.Counter   // Excel reports generated
	ReportFailures   prometheus.Counter   // Report generation failures
	ReportDuration   prometheus.Histogram // Report build duration

	// System
	ErrorsTotal prometheus.Counter // Errors encountered anywhere in the platform
}

// New creates and registers all Prometheus metrics using the default registry.
func New() *Metrics {
	return NewWithRegistry(prometheus.DefaultRegisterer)
}

// NewWithRegistry creates metrics with a custom registry (useful for testing).
func NewWithRegistry(registerer prometheus.Registerer) *Metrics {
	factory := promauto.With(registerer)
	return &Metrics{
		EngineStarts: factory.NewCounter(prometheus.CounterOpts{
			Name: "engine_starts_total",
			Help: "Total number of engine start operations accepted",
		}),
		EngineStops: factory.NewCounter(prometheus.CounterOpts{
			Name: "engine_stops_total",
			Help: "Total number of engine stop operations accepted",
		}),
		EmergencyStops: factory.NewCounter(prometheus.CounterOpts{
			Name: "engine_emergency_stops_total",
			Help: "Total number of emergency stop operations accepted",
		}),
		EngineRunning: factory.NewGauge(prometheus.GaugeOpts{
			Name: "engine_running",
			Help: "Whether the trading engine is currently running (0 or 1)",
		}),
		OrdersTotal: factory.NewCounter(prometheus.CounterOpts{
			Name: "orders_total",
			Help: "Total number of orders placed",
		}),
		OrderFailures: factory.NewCounter(prometheus.CounterOpts{
			Name: "order_failures_total",
			Help: "Total number of orders rejected by the broker",
		}),
		PnLTotal: factory.NewGauge(prometheus.GaugeOpts{
			Name: "pnl_total",
			Help: "Current cumulative daily profit and loss",
		}),
		ActivePositions: factory.NewGauge(prometheus.GaugeOpts{
			Name: "active_positions",
			Help: "Number of symbols with a non-zero position",
		}),
		OrderPlaceLatency: factory.NewHistogram(prometheus.HistogramOpts{
			Name:    "order_place_latency_seconds",
			Help:    "Broker order placement round-trip latency in seconds",
			Buckets: prometheus.ExponentialBuckets(0.001, 2, 15),
		}),
		SignalsTotal: factory.NewCounter(prometheus.CounterOpts{
			Name: "strategy_signals_total",
			Help: "Total number of trade signals emitted by strategies",
		}),
		StrategyToggles: factory.NewCounter(prometheus.CounterOpts{
			Name: "strategy_toggles_total",
			Help: "Total number of strategy enable/disable operations",
		}),
		ActiveStrategies: factory.NewGauge(prometheus.GaugeOpts{
			Name: "active_strategies",
			Help: "Number of currently enabled strategies",
		}),
		TicksReceived: factory.NewCounter(prometheus.CounterOpts{
			Name: "ticks_received_total",
			Help: "Total number of market ticks consumed",
		}),
		WSReconnects: factory.NewCounter(prometheus.CounterOpts{
			Name: "ws_reconnects_total",
			Help: "Total number of market stream reconnections",
		}),
		DashboardClients: factory.NewGauge(prometheus.GaugeOpts{
			Name: "dashboard_clients",
			Help: "Number of connected dashboard WebSocket clients",
		}),
		ReportsBuilt: factory.NewCounter(prometheus.CounterOpts{
			Name: "reports_built_total",
			Help: "Total number of Excel reports generated",
		}),
		ReportFailures: factory.NewCounter(prometheus.CounterOpts{
			Name: "report_failures_total",
			Help: "Total number of report generation failures",
		}),
		ReportDuration: factory.NewHistogram(prometheus.HistogramOpts{
			Name:    "report_build_duration_seconds",
			Help:    "Excel report build duration in seconds",
			Buckets: prometheus.DefBuckets,
		}),
		ErrorsTotal: factory.NewCounter(prometheus.CounterOpts{
			Name: "errors_total",
			Help: "Total number of errors encountered",
		}),
	}
}

// UpdatePositions updates the active positions gauge from current position sizes.
func (m *Metrics) UpdatePositions(positions map[string]float64) {
	count := 0
	for _, pos := range positions {
		if pos != 0 {
			count++
		}
	}
	m.ActivePositions.Set(float64(count))
}
