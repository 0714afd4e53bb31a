package infra

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

const (
	// DefaultUserAgent is a browser-like user agent string used on outbound
	// REST calls to avoid bot detection.
	DefaultUserAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36"
)

// Config holds all application settings. Sensitive or deployment-specific
// values may be overridden by environment variables after loading.
type Config struct {
	App struct {
		Name    string `yaml:"name"`
		Version string `yaml:"version"`
	} `yaml:"app"`

	Server struct {
		Addr string `yaml:"addr"`
	} `yaml:"server"`

	Feeds struct {
		Delta struct {
			Enabled bool   `yaml:"enabled"`
			WSURL   string `yaml:"ws_url"`
		} `yaml:"delta"`
		Deribit struct {
			Enabled    bool     `yaml:"enabled"`
			WSURL      string   `yaml:"ws_url"`
			RestURL    string   `yaml:"rest_url"`
			Currencies []string `yaml:"currencies"`
		} `yaml:"deribit"`
	} `yaml:"feeds"`

	Dashboard struct {
		Symbols []string `yaml:"symbols"`
	} `yaml:"dashboard"`

	PNL struct {
		RolloverTime string `yaml:"rollover_time"` // "HH:MM" local to RolloverZone
		RolloverZone string `yaml:"rollover_zone"` // IANA zone name
	} `yaml:"pnl"`

	Storage struct {
		Path string `yaml:"path"`
	} `yaml:"storage"`

	Logging struct {
		Level string `yaml:"level"`
	} `yaml:"logging"`
}

// DefaultConfig returns the configuration used when no file overrides it.
func DefaultConfig() *Config {
	var cfg Config
	cfg.App.Name = "delta-stream"
	cfg.App.Version = "dev"
	cfg.Server.Addr = ":3000"
	cfg.Feeds.Delta.WSURL = "wss://socket.delta.exchange"
	cfg.Feeds.Deribit.WSURL = "wss://www.deribit.com/ws/api/v2"
	cfg.Feeds.Deribit.RestURL = "https://www.deribit.com/api/v2"
	cfg.Feeds.Deribit.Currencies = []string{"BTC", "ETH"}
	cfg.Dashboard.Symbols = []string{"BTCUSDT", "ETHUSDT", "SOLUSDT", "XRPUSDT", "BNBUSDT", "ADAUSDT"}
	cfg.PNL.RolloverTime = "05:30"
	cfg.PNL.RolloverZone = "Asia/Kolkata"
	cfg.Storage.Path = "data/delta-stream.db"
	cfg.Logging.Level = "info"
	return &cfg
}

// LoadConfig reads and parses the configuration file, applies environment
// overrides and validates the result.
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	cfg := DefaultConfig()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, err
	}

	overrideWithEnv(cfg)

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

// Validate checks configuration validity.
func (c *Config) Validate() error {
	if c.Server.Addr == "" {
		return fmt.Errorf("server addr is required")
	}
	if c.Feeds.Delta.Enabled && !isWSURL(c.Feeds.Delta.WSURL) {
		return fmt.Errorf("invalid delta WS URL: %s", c.Feeds.Delta.WSURL)
	}
	if c.Feeds.Deribit.Enabled {
		if !isWSURL(c.Feeds.Deribit.WSURL) {
			return fmt.Errorf("invalid deribit WS URL: %s", c.Feeds.Deribit.WSURL)
		}
		if len(c.Feeds.Deribit.Currencies) == 0 {
			return fmt.Errorf("at least one deribit currency is required")
		}
	}
	if _, _, err := ParseClock(c.PNL.RolloverTime); err != nil {
		return fmt.Errorf("invalid rollover time %q: %w", c.PNL.RolloverTime, err)
	}
	if _, err := time.LoadLocation(c.PNL.RolloverZone); err != nil {
		return fmt.Errorf("invalid rollover zone %q: %w", c.PNL.RolloverZone, err)
	}
	return nil
}

// ParseClock parses an "HH:MM" time-of-day string.
func ParseClock(s string) (hour, minute int, err error) {
	parts := strings.Split(s, ":")
	if len(parts) != 2 {
		return 0, 0, fmt.Errorf("want HH:MM, got %q", s)
	}
	hour, err = strconv.Atoi(parts[0])
	if err != nil || hour < 0 || hour > 23 {
		return 0, 0, fmt.Errorf("bad hour in %q", s)
	}
	minute, err = strconv.Atoi(parts[1])
	if err != nil || minute < 0 || minute > 59 {
		return 0, 0, fmt.Errorf("bad minute in %q", s)
	}
	return hour, minute, nil
}

func isWSURL(s string) bool {
	return strings.HasPrefix(s, "ws://") || strings.HasPrefix(s, "wss://")
}

// overrideWithEnv applies environment variable overrides when present.
func overrideWithEnv(cfg *Config) {
	if addr := os.Getenv("DELTA_STREAM_ADDR"); addr != "" {
		cfg.Server.Addr = addr
	}
	if path := os.Getenv("DELTA_STREAM_DB"); path != "" {
		cfg.Storage.Path = path
	}
	if level := os.Getenv("DELTA_STREAM_LOG_LEVEL"); level != "" {
		cfg.Logging.Level = level
	}
}
