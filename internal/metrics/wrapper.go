package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Counter is the minimal counting surface handed to packages that should
// not depend on prometheus directly.
type Counter interface {
	Inc()
}

// Wrapper provides a nil-safe view of Metrics for the engine and server.
// A nil *Wrapper drops every observation, which keeps metrics optional in
// tests and in components constructed without a registry.
type Wrapper struct {
	m *Metrics
}

func NewWrapper(m *Metrics) *Wrapper {
	return &Wrapper{m: m}
}

func (w *Wrapper) EngineStartsInc() {
	if w != nil && w.m != nil {
		w.m.EngineStarts.Inc()
	}
}

func (w *Wrapper) EngineStopsInc() {
	if w != nil && w.m != nil {
		w.m.EngineStops.Inc()
	}
}

func (w *Wrapper) EmergencyStopsInc() {
	if w != nil && w.m != nil {
		w.m.EmergencyStops.Inc()
	}
}

func (w *Wrapper) SetEngineRunning(running bool) {
	if w == nil || w.m == nil {
		return
	}
	if running {
		w.m.EngineRunning.Set(1)
	} else {
		w.m.EngineRunning.Set(0)
	}
}

func (w *Wrapper) OrdersTotalInc() {
	if w != nil && w.m != nil {
		w.m.OrdersTotal.Inc()
	}
}

func (w *Wrapper) OrderFailuresInc() {
	if w != nil && w.m != nil {
		w.m.OrderFailures.Inc()
	}
}

func (w *Wrapper) SetPnL(pnl float64) {
	if w != nil && w.m != nil {
		w.m.PnLTotal.Set(pnl)
	}
}

func (w *Wrapper) ObserveOrderLatency(d time.Duration) {
	if w != nil && w.m != nil {
		w.m.OrderPlaceLatency.Observe(d.Seconds())
	}
}

func (w *Wrapper) SignalsTotalInc() {
	if w != nil && w.m != nil {
		w.m.SignalsTotal.Inc()
	}
}

func (w *Wrapper) StrategyTogglesInc() {
	if w != nil && w.m != nil {
		w.m.StrategyToggles.Inc()
	}
}

func (w *Wrapper) SetActiveStrategies(n int) {
	if w != nil && w.m != nil {
		w.m.ActiveStrategies.Set(float64(n))
	}
}

func (w *Wrapper) TicksReceivedInc() {
	if w != nil && w.m != nil {
		w.m.TicksReceived.Inc()
	}
}

func (w *Wrapper) WSReconnectsInc() {
	if w != nil && w.m != nil {
		w.m.WSReconnects.Inc()
	}
}

func (w *Wrapper) DashboardClientsAdd(delta float64) {
	if w != nil && w.m != nil {
		w.m.DashboardClients.Add(delta)
	}
}

func (w *Wrapper) ReportsBuiltInc() {
	if w != nil && w.m != nil {
		w.m.ReportsBuilt.Inc()
	}
}

func (w *Wrapper) ReportFailuresInc() {
	if w != nil && w.m != nil {
		w.m.ReportFailures.Inc()
	}
}

func (w *Wrapper) ObserveReportDuration(d time.Duration) {
	if w != nil && w.m != nil {
		w.m.ReportDuration.Observe(d.Seconds())
	}
}

func (w *Wrapper) ErrorsTotalInc() {
	if w != nil && w.m != nil {
		w.m.ErrorsTotal.Inc()
	}
}

func (w *Wrapper) UpdatePositions(positions map[string]float64) {
	if w != nil && w.m != nil {
		w.m.UpdatePositions(positions)
	}
}

// ReconnectCounter exposes the stream reconnect counter as a plain Counter
// so the broker layer can report reconnects without depending on prometheus.
// Returns nil when metrics are disabled.
func (w *Wrapper) ReconnectCounter() Counter {
	if w == nil || w.m == nil {
		return nil
	}
	return &CounterWrapper{C: w.m.WSReconnects}
}

// CounterWrapper adapts a prometheus.Counter to the local Counter interface.
type CounterWrapper struct {
	C prometheus.Counter
}

func (cw *CounterWrapper) Inc() {
	cw.C.Inc()
}
