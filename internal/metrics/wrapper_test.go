package metrics

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestWrapper(t *testing.T) (*Wrapper, *Metrics) {
	t.Helper()
	m := NewWithRegistry(prometheus.NewRegistry())
	return NewWrapper(m), m
}

func TestNilWrapperIsSafe(t *testing.T) {
	var w *Wrapper

	// Every method must tolerate a nil receiver.
	w.EngineStartsInc()
	w.EngineStopsInc()
	w.EmergencyStopsInc()
	w.SetEngineRunning(true)
	w.OrdersTotalInc()
	w.OrderFailuresInc()
	w.SetPnL(12.5)
	w.ObserveOrderLatency(time.Millisecond)
	w.SignalsTotalInc()
	w.StrategyTogglesInc()
	w.SetActiveStrategies(3)
	w.TicksReceivedInc()
	w.WSReconnectsInc()
	w.DashboardClientsAdd(1)
	w.ReportsBuiltInc()
	w.ReportFailuresInc()
	w.ObserveReportDuration(time.Millisecond)
	w.ErrorsTotalInc()
	w.UpdatePositions(map[string]float64{"RELIANCE": 1})
}

func TestWrapperCounters(t *testing.T) {
	w, m := newTestWrapper(t)

	w.EngineStartsInc()
	w.EngineStartsInc()
	w.OrdersTotalInc()
	w.ErrorsTotalInc()

	assert.Equal(t, 2.0, testutil.ToFloat64(m.EngineStarts))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.OrdersTotal))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.ErrorsTotal))
}

func TestReconnectCounter(t *testing.T) {
	w, m := newTestWrapper(t)

	c := w.ReconnectCounter()
	require.NotNil(t, c)
	c.Inc()
	c.Inc()

	assert.Equal(t, 2.0, testutil.ToFloat64(m.WSReconnects))
}

func TestReconnectCounterNilWrapper(t *testing.T) {
	var w *Wrapper
	assert.Nil(t, w.ReconnectCounter())
}

func TestWrapperEngineRunningGauge(t *testing.T) {
	w, m := newTestWrapper(t)

	w.SetEngineRunning(true)
	assert.Equal(t, 1.0, testutil.ToFloat64(m.EngineRunning))

	w.SetEngineRunning(false)
	assert.Equal(t, 0.0, testutil.ToFloat64(m.EngineRunning))
}

func TestUpdatePositionsCountsNonZero(t *testing.T) {
	w, m := newTestWrapper(t)

	w.UpdatePositions(map[string]float64{
		"RELIANCE": 10,
		"TCS":      0,
		"INFY":     -5,
	})
	assert.Equal(t, 2.0, testutil.ToFloat64(m.ActivePositions))
}

func TestNewWithRegistryIsolated(t *testing.T) {
	// Two registries must not collide on metric names.
	m1 := NewWithRegistry(prometheus.NewRegistry())
	m2 := NewWithRegistry(prometheus.NewRegistry())
	require.NotNil(t, m1)
	require.NotNil(t, m2)

	m1.OrdersTotal.Inc()
	assert.Equal(t, 1.0, testutil.ToFloat64(m1.OrdersTotal))
	assert.Equal(t, 0.0, testutil.ToFloat64(m2.OrdersTotal))
}
