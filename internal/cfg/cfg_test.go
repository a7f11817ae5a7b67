package cfg

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// clearEnv removes every variable the loader reads so tests see defaults only.
func clearEnv(t *testing.T) {
	t.Helper()
	keys := []string{
		"CONFIG_FILE", "BROKER", "BROKER_API_KEY", "BROKER_SECRET_KEY",
		"SYMBOLS", "BASE_URL", "WS_URL", "PING_INTERVAL", "REST_TIMEOUT",
		"DATA_PATH", "REPORT_DIR", "LOG_PATH", "SERVER_PORT", "EVAL_INTERVAL",
		"ORDER_QTY", "INITIAL_BALANCE", "MAX_DAILY_LOSS", "MAX_POSITION",
		"DRY_RUN", "MA_FAST", "MA_SLOW", "RSI_PERIOD", "RSI_OVERSOLD",
		"RSI_OVERBOUGHT", "VWAP_WINDOW", "VWAP_SIZE", "TICK_WINDOW",
	}
	for _, k := range keys {
		t.Setenv(k, "")
		os.Unsetenv(k)
	}
}

func TestLoadFromEnvDefaults(t *testing.T) {
	clearEnv(t)

	s, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "paper", s.Broker)
	assert.Equal(t, []string{"RELIANCE", "TCS"}, s.Symbols)
	assert.Equal(t, 8080, s.ServerPort)
	assert.Equal(t, time.Second, s.EvalInterval)
	assert.Equal(t, 9, s.MAFast)
	assert.Equal(t, 21, s.MASlow)
	assert.Equal(t, 14, s.RSIPeriod)
	assert.Equal(t, 0.05, s.MaxDailyLoss)
	assert.Equal(t, "reports", s.ReportDir)
	assert.False(t, s.DryRun)
}

func TestLoadFromEnvOverrides(t *testing.T) {
	clearEnv(t)
	t.Setenv("SYMBOLS", "INFY,HDFCBANK")
	t.Setenv("SERVER_PORT", "9191")
	t.Setenv("ORDER_QTY", "5")
	t.Setenv("DRY_RUN", "true")

	s, err := Load()
	require.NoError(t, err)

	assert.Equal(t, []string{"INFY", "HDFCBANK"}, s.Symbols)
	assert.Equal(t, 9191, s.ServerPort)
	assert.Equal(t, 5.0, s.OrderQty)
	assert.True(t, s.DryRun)
}

func TestLoadRESTBrokerRequiresCredentials(t *testing.T) {
	clearEnv(t)
	t.Setenv("BROKER", "rest")

	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "API key and secret")
}

func TestLoadUnknownBroker(t *testing.T) {
	clearEnv(t)
	t.Setenv("BROKER", "zerodha")

	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown broker type")
}

func TestLoadFromYAML(t *testing.T) {
	clearEnv(t)

	yamlContent := `
broker:
  type: paper
trading:
  symbols: ["NIFTY50"]
  orderQty: 2
  maxDailyLoss: 0.1
strategies:
  maFast: 5
  maSlow: 15
  vwapWindow: "1m"
system:
  serverPort: 8888
  evalInterval: "500ms"
  pingInterval: "20s"
  restTimeout: "10s"
  reportDir: "out"
`
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(yamlContent), 0o600))
	t.Setenv("CONFIG_FILE", path)

	s, err := Load()
	require.NoError(t, err)

	assert.Equal(t, []string{"NIFTY50"}, s.Symbols)
	assert.Equal(t, 2.0, s.OrderQty)
	assert.Equal(t, 0.1, s.MaxDailyLoss)
	assert.Equal(t, 5, s.MAFast)
	assert.Equal(t, 15, s.MASlow)
	assert.Equal(t, time.Minute, s.VWAPWindow)
	assert.Equal(t, 8888, s.ServerPort)
	assert.Equal(t, 500*time.Millisecond, s.EvalInterval)
	assert.Equal(t, "out", s.ReportDir)
}

func TestLoadFromYAMLEnvWins(t *testing.T) {
	clearEnv(t)

	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("system:\n  serverPort: 8888\n"), 0o600))
	t.Setenv("CONFIG_FILE", path)
	t.Setenv("SERVER_PORT", "7070")

	s, err := Load()
	require.NoError(t, err)
	assert.Equal(t, 7070, s.ServerPort)
}

func TestLoadFromYAMLEnvWinsForDurations(t *testing.T) {
	clearEnv(t)

	yamlContent := `
system:
  pingInterval: "20s"
  restTimeout: "10s"
  evalInterval: "500ms"
strategies:
  vwapWindow: "1m"
`
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(yamlContent), 0o600))
	t.Setenv("CONFIG_FILE", path)
	t.Setenv("PING_INTERVAL", "45s")
	t.Setenv("REST_TIMEOUT", "3s")
	t.Setenv("EVAL_INTERVAL", "250ms")
	t.Setenv("VWAP_WINDOW", "2m")

	s, err := Load()
	require.NoError(t, err)
	assert.Equal(t, 45*time.Second, s.Ping)
	assert.Equal(t, 3*time.Second, s.RESTTimeout)
	assert.Equal(t, 250*time.Millisecond, s.EvalInterval)
	assert.Equal(t, 2*time.Minute, s.VWAPWindow)
}

func TestLoadFromYAMLMissingFile(t *testing.T) {
	clearEnv(t)
	t.Setenv("CONFIG_FILE", filepath.Join(t.TempDir(), "missing.yaml"))

	_, err := Load()
	require.Error(t, err)
}

func TestValidateSettingsRanges(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Settings)
	}{
		{"bad port", func(s *Settings) { s.ServerPort = 80 }},
		{"fast >= slow", func(s *Settings) { s.MAFast = 21; s.MASlow = 9 }},
		{"oversold >= overbought", func(s *Settings) { s.RSIOversold = 80 }},
		{"zero qty", func(s *Settings) { s.OrderQty = 0 }},
		{"daily loss too large", func(s *Settings) { s.MaxDailyLoss = 0.9 }},
		{"no symbols", func(s *Settings) { s.Symbols = nil }},
		{"eval interval too small", func(s *Settings) { s.EvalInterval = time.Millisecond }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := validBase()
			tt.mutate(&s)
			assert.Error(t, validateSettings(&s))
		})
	}
}

func validBase() Settings {
	return Settings{
		Broker:         "paper",
		Symbols:        []string{"RELIANCE"},
		Ping:           15 * time.Second,
		RESTTimeout:    5 * time.Second,
		EvalInterval:   time.Second,
		VWAPWindow:     30 * time.Second,
		ServerPort:     8080,
		VWAPSize:       600,
		TickWindow:     50,
		MAFast:         9,
		MASlow:         21,
		RSIPeriod:      14,
		RSIOversold:    30,
		RSIOverbought:  70,
		OrderQty:       1,
		InitialBalance: 100000,
		MaxDailyLoss:   0.05,
		MaxPosition:    100,
	}
}
