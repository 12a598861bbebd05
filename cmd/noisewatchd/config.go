// Package main provides the NoiseWatch server CLI.
package main

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Config represents the server configuration.
type Config struct {
	Server    ServerConfig    `yaml:"server"`
	Metrics   MetricsConfig   `yaml:"metrics"`
	Database  DatabaseConfig  `yaml:"database"`
	Monitor   MonitorConfig   `yaml:"monitor"`
	Notifier  NotifierConfig  `yaml:"notifier"`
	Retention RetentionConfig `yaml:"retention"`
	Verbose   bool            `yaml:"-"` // set via CLI flag
}

// ServerConfig contains HTTP API settings.
type ServerConfig struct {
	Address     string   `yaml:"address"`      // HTTP listen address (default: :8080)
	CORSOrigins []string `yaml:"cors_origins"` // allowed browser origins
}

// MetricsConfig contains the Prometheus listener settings.
type MetricsConfig struct {
	Enabled bool   `yaml:"enabled"`
	Address string `yaml:"address"` // metrics listen address (default: :9091)
}

// DatabaseConfig contains SQLite settings.
type DatabaseConfig struct {
	Path string `yaml:"path"` // SQLite database file (default: data/noisewatch.db)
}

// MonitorConfig contains alert monitor and poll loop settings.
type MonitorConfig struct {
	PollInterval  time.Duration `yaml:"poll_interval"`  // sample poll cadence (default: 3s)
	Cooldown      time.Duration `yaml:"cooldown"`       // min gap between alerts (default: 180s)
	ResetInterval time.Duration `yaml:"reset_interval"` // daily reset check cadence (default: 60s)
}

// NotifierConfig contains alert delivery settings.
type NotifierConfig struct {
	WebhookURL    string `yaml:"webhook_url"`     // optional webhook endpoint
	RatePerMinute int    `yaml:"rate_per_minute"` // notification rate limit (default: 10)
}

// RetentionConfig contains sample retention settings.
type RetentionConfig struct {
	MaxAge        time.Duration `yaml:"max_age"`        // sample retention (default: ~6 months)
	SweepInterval time.Duration `yaml:"sweep_interval"` // cleanup cadence (default: 24h)
}

// LoadConfig loads configuration from a YAML file.
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config file: %w", err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}

	cfg.setDefaults()

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validate config: %w", err)
	}

	return &cfg, nil
}

// DefaultConfig returns a configuration with default values.
func DefaultConfig() *Config {
	cfg := &Config{}
	cfg.setDefaults()
	return cfg
}

// setDefaults sets default values for missing config fields.
func (c *Config) setDefaults() {
	if c.Server.Address == "" {
		c.Server.Address = ":8080"
	}
	if len(c.Server.CORSOrigins) == 0 {
		c.Server.CORSOrigins = []string{"http://localhost:3000"}
	}
	if c.Metrics.Address == "" {
		c.Metrics.Address = ":9091"
	}
	if c.Database.Path == "" {
		c.Database.Path = "data/noisewatch.db"
	}
	if c.Monitor.PollInterval == 0 {
		c.Monitor.PollInterval = 3 * time.Second
	}
	if c.Monitor.Cooldown == 0 {
		c.Monitor.Cooldown = 180 * time.Second
	}
	if c.Monitor.ResetInterval == 0 {
		c.Monitor.ResetInterval = 60 * time.Second
	}
	if c.Notifier.RatePerMinute == 0 {
		c.Notifier.RatePerMinute = 10
	}
	if c.Retention.MaxAge == 0 {
		c.Retention.MaxAge = 6 * 30 * 24 * time.Hour
	}
	if c.Retention.SweepInterval == 0 {
		c.Retention.SweepInterval = 24 * time.Hour
	}
}

// Validate checks the configuration for errors.
func (c *Config) Validate() error {
	if c.Server.Address == "" {
		return fmt.Errorf("server.address is required")
	}
	if c.Monitor.PollInterval < time.Second {
		return fmt.Errorf("monitor.poll_interval must be at least 1s")
	}
	if c.Monitor.Cooldown < time.Second {
		return fmt.Errorf("monitor.cooldown must be at least 1s")
	}
	if c.Monitor.ResetInterval < time.Second {
		return fmt.Errorf("monitor.reset_interval must be at least 1s")
	}
	if c.Notifier.RatePerMinute < 0 {
		return fmt.Errorf("notifier.rate_per_minute must not be negative")
	}
	if c.Retention.MaxAge < 24*time.Hour {
		return fmt.Errorf("retention.max_age must be at least 24h")
	}
	return nil
}
