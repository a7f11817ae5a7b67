package cfg

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

type Settings struct {
	Broker         string
	Key, Secret    string
	Symbols        []string
	BaseURL        string
	WsURL          string
	Ping           time.Duration
	RESTTimeout    time.Duration
	DataPath       string
	ReportDir      string
	LogPath        string
	ServerPort     int
	EvalInterval   time.Duration
	OrderQty       float64
	InitialBalance float64
	MaxDailyLoss   float64
	MaxPosition    float64
	DryRun         bool
	MAFast         int
	MASlow         int
	RSIPeriod      int
	RSIOversold    float64
	RSIOverbought  float64
	VWAPWindow     time.Duration
	VWAPSize       int
	TickWindow     int
}

type ConfigFile struct {
	Broker struct {
		Type    string `yaml:"type"`
		Key     string `yaml:"key"`
		Secret  string `yaml:"secret"`
		BaseURL string `yaml:"baseURL"`
		WsURL   string `yaml:"wsURL"`
	} `yaml:"broker"`

	Trading struct {
		Symbols        []string `yaml:"symbols"`
		OrderQty       float64  `yaml:"orderQty"`
		InitialBalance float64  `yaml:"initialBalance"`
		MaxDailyLoss   float64  `yaml:"maxDailyLoss"`
		MaxPosition    float64  `yaml:"maxPosition"`
		DryRun         bool     `yaml:"dryRun"`
	} `yaml:"trading"`

	Strategies struct {
		MAFast        int     `yaml:"maFast"`
		MASlow        int     `yaml:"maSlow"`
		RSIPeriod     int     `yaml:"rsiPeriod"`
		RSIOversold   float64 `yaml:"rsiOversold"`
		RSIOverbought float64 `yaml:"rsiOverbought"`
		VWAPWindow    string  `yaml:"vwapWindow"`
		VWAPSize      int     `yaml:"vwapSize"`
		TickWindow    int     `yaml:"tickWindow"`
	} `yaml:"strategies"`

	System struct {
		DataPath     string `yaml:"dataPath"`
		ReportDir    string `yaml:"reportDir"`
		LogPath      string `yaml:"logPath"`
		ServerPort   int    `yaml:"serverPort"`
		EvalInterval string `yaml:"evalInterval"`
		PingInterval string `yaml:"pingInterval"`
		RESTTimeout  string `yaml:"restTimeout"`
	} `yaml:"system"`
}

func Load() (Settings, error) {
	// .env is optional; real env vars still win over file values
	_ = godotenv.Load()

	if configPath := os.Getenv("CONFIG_FILE"); configPath != "" {
		return loadFromYAML(configPath)
	}
	return loadFromEnv()
}

func loadFromYAML(path string) (Settings, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Settings{}, fmt.Errorf("failed to read config file %s: %w", path, err)
	}

	var config ConfigFile
	if err := yaml.Unmarshal(data, &config); err != nil {
		return Settings{}, fmt.Errorf("failed to parse config file: %w", err)
	}

	settings := Settings{
		Broker:         getEnvOrDefault("BROKER", defaultString(config.Broker.Type, "paper")),
		Key:            getEnvOrDefault("BROKER_API_KEY", config.Broker.Key),
		Secret:         getEnvOrDefault("BROKER_SECRET_KEY", config.Broker.Secret),
		Symbols:        getSymbolsFromEnvOrConfig(config.Trading.Symbols),
		BaseURL:        getEnvOrDefault("BASE_URL", config.Broker.BaseURL),
		WsURL:          getEnvOrDefault("WS_URL", config.Broker.WsURL),
		Ping:           getDurationFromEnvOrConfig("PING_INTERVAL", config.System.PingInterval, 15*time.Second),
		RESTTimeout:    getDurationFromEnvOrConfig("REST_TIMEOUT", config.System.RESTTimeout, 5*time.Second),
		DataPath:       getEnvOrDefault("DATA_PATH", config.System.DataPath),
		ReportDir:      getEnvOrDefault("REPORT_DIR", defaultString(config.System.ReportDir, "reports")),
		LogPath:        getEnvOrDefault("LOG_PATH", config.System.LogPath),
		ServerPort:     getIntFromEnvOrConfig("SERVER_PORT", config.System.ServerPort),
		EvalInterval:   getDurationFromEnvOrConfig("EVAL_INTERVAL", config.System.EvalInterval, time.Second),
		OrderQty:       getFloatFromEnvOrConfig("ORDER_QTY", config.Trading.OrderQty),
		InitialBalance: getFloatFromEnvOrConfig("INITIAL_BALANCE", config.Trading.InitialBalance),
		MaxDailyLoss:   getFloatFromEnvOrConfig("MAX_DAILY_LOSS", config.Trading.MaxDailyLoss),
		MaxPosition:    getFloatFromEnvOrConfig("MAX_POSITION", config.Trading.MaxPosition),
		DryRun:         getBoolFromEnvOrConfig("DRY_RUN", config.Trading.DryRun),
		MAFast:         getIntFromEnvOrConfig("MA_FAST", config.Strategies.MAFast),
		MASlow:         getIntFromEnvOrConfig("MA_SLOW", config.Strategies.MASlow),
		RSIPeriod:      getIntFromEnvOrConfig("RSI_PERIOD", config.Strategies.RSIPeriod),
		RSIOversold:    getFloatFromEnvOrConfig("RSI_OVERSOLD", config.Strategies.RSIOversold),
		RSIOverbought:  getFloatFromEnvOrConfig("RSI_OVERBOUGHT", config.Strategies.RSIOverbought),
		VWAPWindow:     getDurationFromEnvOrConfig("VWAP_WINDOW", config.Strategies.VWAPWindow, 30*time.Second),
		VWAPSize:       getIntFromEnvOrConfig("VWAP_SIZE", config.Strategies.VWAPSize),
		TickWindow:     getIntFromEnvOrConfig("TICK_WINDOW", config.Strategies.TickWindow),
	}
	applyDefaults(&settings)

	if err := validateSettings(&settings); err != nil {
		return Settings{}, fmt.Errorf("configuration validation failed: %w", err)
	}
	return settings, nil
}

func loadFromEnv() (Settings, error) {
	settings := Settings{
		Broker:         getEnvOrDefault("BROKER", "paper"),
		Key:            os.Getenv("BROKER_API_KEY"),
		Secret:         os.Getenv("BROKER_SECRET_KEY"),
		Symbols:        splitOrDefault(os.Getenv("SYMBOLS"), []string{"RELIANCE", "TCS"}),
		BaseURL:        getEnvOrDefault("BASE_URL", "https://api.kite.trade"),
		WsURL:          getEnvOrDefault("WS_URL", "wss://ws.kite.trade"),
		Ping:           getDurationOrDefault("PING_INTERVAL", 15*time.Second),
		RESTTimeout:    getDurationOrDefault("REST_TIMEOUT", 5*time.Second),
		DataPath:       os.Getenv("DATA_PATH"), // optional, disables persistence when empty
		ReportDir:      getEnvOrDefault("REPORT_DIR", "reports"),
		LogPath:        os.Getenv("LOG_PATH"), // optional, stderr only when empty
		ServerPort:     getIntOrDefault("SERVER_PORT", 8080),
		EvalInterval:   getDurationOrDefault("EVAL_INTERVAL", time.Second),
		OrderQty:       getFloatOrDefault("ORDER_QTY", 1),
		InitialBalance: getFloatOrDefault("INITIAL_BALANCE", 100000),
		MaxDailyLoss:   getFloatOrDefault("MAX_DAILY_LOSS", 0.05),
		MaxPosition:    getFloatOrDefault("MAX_POSITION", 100),
		DryRun:         getBoolOrDefault("DRY_RUN", false),
		MAFast:         getIntOrDefault("MA_FAST", 9),
		MASlow:         getIntOrDefault("MA_SLOW", 21),
		RSIPeriod:      getIntOrDefault("RSI_PERIOD", 14),
		RSIOversold:    getFloatOrDefault("RSI_OVERSOLD", 30),
		RSIOverbought:  getFloatOrDefault("RSI_OVERBOUGHT", 70),
		VWAPWindow:     getDurationOrDefault("VWAP_WINDOW", 30*time.Second),
		VWAPSize:       getIntOrDefault("VWAP_SIZE", 600),
		TickWindow:     getIntOrDefault("TICK_WINDOW", 50),
	}

	if err := validateSettings(&settings); err != nil {
		return Settings{}, fmt.Errorf("configuration validation failed: %w", err)
	}
	return settings, nil
}

func applyDefaults(s *Settings) {
	if s.ServerPort == 0 {
		s.ServerPort = 8080
	}
	if s.OrderQty == 0 {
		s.OrderQty = 1
	}
	if s.InitialBalance == 0 {
		s.InitialBalance = 100000
	}
	if s.MaxDailyLoss == 0 {
		s.MaxDailyLoss = 0.05
	}
	if s.MaxPosition == 0 {
		s.MaxPosition = 100
	}
	if s.MAFast == 0 {
		s.MAFast = 9
	}
	if s.MASlow == 0 {
		s.MASlow = 21
	}
	if s.RSIPeriod == 0 {
		s.RSIPeriod = 14
	}
	if s.RSIOversold == 0 {
		s.RSIOversold = 30
	}
	if s.RSIOverbought == 0 {
		s.RSIOverbought = 70
	}
	if s.VWAPSize == 0 {
		s.VWAPSize = 600
	}
	if s.TickWindow == 0 {
		s.TickWindow = 50
	}
}

func getEnvOrDefault(key, defaultValue string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return defaultValue
}

func defaultString(v, def string) string {
	if v == "" {
		return def
	}
	return v
}

func getDurationOrDefault(key string, defaultValue time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return defaultValue
}

func getIntOrDefault(key string, defaultValue int) int {
	if v := os.Getenv(key); v != "" {
		if i, err := strconv.Atoi(v); err == nil {
			return i
		}
	}
	return defaultValue
}

func getFloatOrDefault(key string, defaultValue float64) float64 {
	if v := os.Getenv(key); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			return f
		}
	}
	return defaultValue
}

func getBoolOrDefault(key string, defaultValue bool) bool {
	if v := os.Getenv(key); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			return b
		}
	}
	return defaultValue
}

func splitOrDefault(v string, def []string) []string {
	if v == "" {
		return def
	}
	return strings.Split(v, ",")
}

func getSymbolsFromEnvOrConfig(configSymbols []string) []string {
	if env := os.Getenv("SYMBOLS"); env != "" {
		return strings.Split(env, ",")
	}
	if len(configSymbols) > 0 {
		return configSymbols
	}
	return []string{"RELIANCE", "TCS"}
}

func getIntFromEnvOrConfig(key string, configValue int) int {
	if env := os.Getenv(key); env != "" {
		if val, err := strconv.Atoi(env); err == nil {
			return val
		}
	}
	return configValue
}

func getFloatFromEnvOrConfig(key string, configValue float64) float64 {
	if env := os.Getenv(key); env != "" {
		if val, err := strconv.ParseFloat(env, 64); err == nil {
			return val
		}
	}
	return configValue
}

func getDurationFromEnvOrConfig(key, configValue string, def time.Duration) time.Duration {
	if env := os.Getenv(key); env != "" {
		if d, err := time.ParseDuration(env); err == nil {
			return d
		}
	}
	if d, err := time.ParseDuration(configValue); err == nil {
		return d
	}
	return def
}

func getBoolFromEnvOrConfig(key string, configValue bool) bool {
	if env := os.Getenv(key); env != "" {
		if val, err := strconv.ParseBool(env); err == nil {
			return val
		}
	}
	return configValue
}

// validateSettings performs comprehensive validation of configuration values
func validateSettings(s *Settings) error {
	switch s.Broker {
	case "paper":
		// paper broker needs no credentials
	case "rest":
		if s.Key == "" || s.Secret == "" {
			return fmt.Errorf("rest broker requires API key and secret")
		}
		if s.BaseURL == "" {
			return fmt.Errorf("base URL cannot be empty")
		}
		if s.WsURL == "" {
			return fmt.Errorf("WebSocket URL cannot be empty")
		}
	default:
		return fmt.Errorf("unknown broker type %q (want paper or rest)", s.Broker)
	}

	if len(s.Symbols) == 0 {
		return fmt.Errorf("at least one trading symbol must be specified")
	}

	if s.Ping < time.Second || s.Ping > 5*time.Minute {
		return fmt.Errorf("ping interval must be between 1s and 5m, got %v", s.Ping)
	}
	if s.RESTTimeout < time.Second || s.RESTTimeout > time.Minute {
		return fmt.Errorf("REST timeout must be between 1s and 1m, got %v", s.RESTTimeout)
	}
	if s.EvalInterval < 100*time.Millisecond || s.EvalInterval > time.Minute {
		return fmt.Errorf("eval interval must be between 100ms and 1m, got %v", s.EvalInterval)
	}
	if s.VWAPWindow < time.Second || s.VWAPWindow > time.Hour {
		return fmt.Errorf("VWAP window must be between 1s and 1h, got %v", s.VWAPWindow)
	}

	if s.ServerPort < 1024 || s.ServerPort > 65535 {
		return fmt.Errorf("server port must be between 1024 and 65535, got %d", s.ServerPort)
	}
	if s.VWAPSize <= 0 || s.VWAPSize > 10000 {
		return fmt.Errorf("VWAP size must be between 1 and 10000, got %d", s.VWAPSize)
	}
	if s.TickWindow <= 0 || s.TickWindow > 1000 {
		return fmt.Errorf("tick window must be between 1 and 1000, got %d", s.TickWindow)
	}
	if s.MAFast <= 0 || s.MASlow <= 0 || s.MAFast >= s.MASlow {
		return fmt.Errorf("moving average periods must satisfy 0 < fast < slow, got fast=%d slow=%d", s.MAFast, s.MASlow)
	}
	if s.RSIPeriod < 2 || s.RSIPeriod > 200 {
		return fmt.Errorf("RSI period must be between 2 and 200, got %d", s.RSIPeriod)
	}
	if s.RSIOversold <= 0 || s.RSIOverbought >= 100 || s.RSIOversold >= s.RSIOverbought {
		return fmt.Errorf("RSI levels must satisfy 0 < oversold < overbought < 100, got %v/%v", s.RSIOversold, s.RSIOverbought)
	}

	if s.OrderQty <= 0 {
		return fmt.Errorf("order quantity must be positive, got %f", s.OrderQty)
	}
	if s.InitialBalance <= 0 {
		return fmt.Errorf("initial balance must be positive, got %f", s.InitialBalance)
	}
	if s.MaxDailyLoss <= 0 || s.MaxDailyLoss > 0.5 {
		return fmt.Errorf("max daily loss must be between 0 and 0.5 (50%%), got %f", s.MaxDailyLoss)
	}
	if s.MaxPosition <= 0 {
		return fmt.Errorf("max position must be positive, got %f", s.MaxPosition)
	}

	return nil
}
