package config

import (
	"log"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Config represents the overall application configuration.
type Config struct {
	Server   ServerConfig   `yaml:"server"`
	Database DatabaseConfig `yaml:"database"`
	Client   ClientConfig   `yaml:"client"`
	Sync     SyncConfig     `yaml:"sync"`
}

// ServerConfig holds the HTTP server configuration.
type ServerConfig struct {
	Port            int      `yaml:"port"`
	AllowedOrigins  []string `yaml:"allowed_origins"`
	AdminName       string   `yaml:"admin_name"`
	RateLimitPerSec float64  `yaml:"rate_limit_per_sec"`
	RateLimitBurst  int      `yaml:"rate_limit_burst"`
	CacheTTLSeconds int      `yaml:"cache_ttl_seconds"`
}

// DatabaseConfig holds the database connection configuration.
type DatabaseConfig struct {
	DSN                    string `yaml:"dsn"`
	MaxOpenConns           int    `yaml:"max_open_conns"`
	MaxIdleConns           int    `yaml:"max_idle_conns"`
	ConnMaxLifetimeMinutes int    `yaml:"conn_max_lifetime_minutes"`
}

// ClientConfig holds the request transport configuration.
type ClientConfig struct {
	BaseURL             string        `yaml:"base_url"`
	TimeoutSeconds      int           `yaml:"timeout_seconds"`
	MaxAttempts         int           `yaml:"max_attempts"`
	BackoffBaseMillis   int           `yaml:"backoff_base_millis"`
	ReadCacheTTLSeconds int           `yaml:"read_cache_ttl_seconds"`
	Timeout             time.Duration `yaml:"-"`
	BackoffBase         time.Duration `yaml:"-"`
	ReadCacheTTL        time.Duration `yaml:"-"`
}

// SyncConfig holds the sync orchestrator timing configuration.
type SyncConfig struct {
	IntervalSeconds   int           `yaml:"interval_seconds"`
	FocusMinGapSecs   int           `yaml:"focus_min_gap_seconds"`
	SettleDelayMillis int           `yaml:"settle_delay_millis"`
	DebounceMillis    int           `yaml:"debounce_millis"`
	Interval          time.Duration `yaml:"-"`
	FocusMinGap       time.Duration `yaml:"-"`
	SettleDelay       time.Duration `yaml:"-"`
	Debounce          time.Duration `yaml:"-"`
}

// Load reads the configuration from the given path.
func Load(path string) (*Config, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	var cfg Config
	decoder := yaml.NewDecoder(f)
	if err := decoder.Decode(&cfg); err != nil {
		return nil, err
	}

	cfg.ApplyDefaults()
	return &cfg, nil
}

// ApplyDefaults fills in zero or invalid values and derives the duration fields.
func (cfg *Config) ApplyDefaults() {
	if cfg.Server.Port <= 0 {
		cfg.Server.Port = 8080
	}
	if cfg.Server.RateLimitPerSec <= 0 {
		cfg.Server.RateLimitPerSec = 10
	}
	if cfg.Server.RateLimitBurst <= 0 {
		cfg.Server.RateLimitBurst = 5
	}
	if cfg.Server.CacheTTLSeconds <= 0 {
		cfg.Server.CacheTTLSeconds = 30
	}

	if cfg.Client.TimeoutSeconds <= 0 {
		cfg.Client.TimeoutSeconds = 30
	}
	if cfg.Client.MaxAttempts <= 0 {
		cfg.Client.MaxAttempts = 3
	}
	if cfg.Client.BackoffBaseMillis <= 0 {
		cfg.Client.BackoffBaseMillis = 500
	}
	if cfg.Client.ReadCacheTTLSeconds <= 0 {
		cfg.Client.ReadCacheTTLSeconds = 60
	}
	cfg.Client.Timeout = time.Duration(cfg.Client.TimeoutSeconds) * time.Second
	cfg.Client.BackoffBase = time.Duration(cfg.Client.BackoffBaseMillis) * time.Millisecond
	cfg.Client.ReadCacheTTL = time.Duration(cfg.Client.ReadCacheTTLSeconds) * time.Second

	if cfg.Sync.IntervalSeconds <= 0 {
		cfg.Sync.IntervalSeconds = 60
	}
	if cfg.Sync.FocusMinGapSecs <= 0 {
		cfg.Sync.FocusMinGapSecs = 30
	}
	if cfg.Sync.SettleDelayMillis <= 0 {
		cfg.Sync.SettleDelayMillis = 1000
	}
	if cfg.Sync.DebounceMillis <= 0 {
		log.Printf("sync.debounce_millis is not set or invalid; defaulting to 500")
		cfg.Sync.DebounceMillis = 500
	}
	cfg.Sync.Interval = time.Duration(cfg.Sync.IntervalSeconds) * time.Second
	cfg.Sync.FocusMinGap = time.Duration(cfg.Sync.FocusMinGapSecs) * time.Second
	cfg.Sync.SettleDelay = time.Duration(cfg.Sync.SettleDelayMillis) * time.Millisecond
	cfg.Sync.Debounce = time.Duration(cfg.Sync.DebounceMillis) * time.Millisecond
}
