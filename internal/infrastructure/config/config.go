package config

import (
	"fmt"
	"time"

	"github.com/kelseyhightower/envconfig"
)

// Config holds all engine configuration.
type Config struct {
	Server    ServerConfig
	Engine    EngineConfig
	Launch    LaunchConfig
	Logging   LogConfig
	RateLimit RateLimitConfig
}

// ServerConfig holds HTTP server configuration.
type ServerConfig struct {
	Port string `envconfig:"PORT" default:"7700"`
	Host string `envconfig:"HOST" default:"127.0.0.1"`
}

// EngineConfig holds embedding engine configuration.
type EngineConfig struct {
	DetachDelay     time.Duration `envconfig:"FOCUS_DETACH_DELAY" default:"200ms"`
	MonitorInterval time.Duration `envconfig:"MONITOR_INTERVAL" default:"1s"`
	PolicyPath      string        `envconfig:"POLICY_PATH" default:""`
}

// LaunchConfig holds launch-and-capture configuration.
type LaunchConfig struct {
	CaptureTimeout time.Duration `envconfig:"LAUNCH_CAPTURE_TIMEOUT" default:"10s"`
	PollInterval   time.Duration `envconfig:"LAUNCH_POLL_INTERVAL" default:"250ms"`
	AppRoots       []string      `envconfig:"APP_ROOTS" default:""`
}

// LogConfig holds logging configuration.
type LogConfig struct {
	Level       string `envconfig:"LOG_LEVEL" default:"info"`
	Development bool   `envconfig:"LOG_DEV" default:"false"`
}

// RateLimitConfig holds rate limiting configuration.
type RateLimitConfig struct {
	RequestsPerSecond int  `envconfig:"RATE_LIMIT_RPS" default:"100"`
	Burst             int  `envconfig:"RATE_LIMIT_BURST" default:"200"`
	Enabled           bool `envconfig:"RATE_LIMIT_ENABLED" default:"true"`
}

// Load loads configuration from environment variables.
func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	return &cfg, nil
}

// LoadOrDefault loads configuration from environment or returns default.
func LoadOrDefault() *Config {
	cfg, err := Load()
	if err != nil {
		return Default()
	}
	return cfg
}

// Default returns default configuration.
func Default() *Config {
	return &Config{
		Server: ServerConfig{
			Port: "7700",
			Host: "127.0.0.1",
		},
		Engine: EngineConfig{
			DetachDelay:     200 * time.Millisecond,
			MonitorInterval: time.Second,
		},
		Launch: LaunchConfig{
			CaptureTimeout: 10 * time.Second,
			PollInterval:   250 * time.Millisecond,
		},
		Logging: LogConfig{
			Level:       "info",
			Development: false,
		},
		RateLimit: RateLimitConfig{
			RequestsPerSecond: 100,
			Burst:             200,
			Enabled:           true,
		},
	}
}
