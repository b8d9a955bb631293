// Package config provides configuration loading for pland.
//
// Configuration comes from a YAML file overridden by environment variables,
// with hardcoded defaults underneath.
package config

import (
	"fmt"
	"time"
)

// Config holds the complete pland configuration.
type Config struct {
	Server        ServerConfig        `koanf:"server"`
	Logging       LoggingConfig       `koanf:"logging"`
	Observability ObservabilityConfig `koanf:"observability"`
}

// ServerConfig holds HTTP server configuration.
type ServerConfig struct {
	Host            string   `koanf:"host"`
	Port            int      `koanf:"port"`
	ShutdownTimeout Duration `koanf:"shutdown_timeout"`

	// RateLimit is requests per second per client IP. Zero disables.
	RateLimit float64 `koanf:"rate_limit"`
}

// LoggingConfig holds the logging section. Level is parsed by the logging
// package (supports "trace").
type LoggingConfig struct {
	Level  string `koanf:"level"`
	Format string `koanf:"format"`
	OTEL   bool   `koanf:"otel"`
}

// ObservabilityConfig holds OpenTelemetry configuration.
type ObservabilityConfig struct {
	Enabled        bool     `koanf:"enabled"`
	ServiceName    string   `koanf:"service_name"`
	ServiceVersion string   `koanf:"service_version"`
	Endpoint       string   `koanf:"endpoint"`
	Insecure       bool     `koanf:"insecure"`
	ExportInterval Duration `koanf:"export_interval"`
}

// NewDefaultConfig returns config with production-ready defaults.
func NewDefaultConfig() *Config {
	return &Config{
		Server: ServerConfig{
			Host:            "localhost",
			Port:            9290,
			ShutdownTimeout: Duration(10 * time.Second),
			RateLimit:       0,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "json",
		},
		Observability: ObservabilityConfig{
			Enabled:        false,
			ServiceName:    "pland",
			ServiceVersion: "dev",
			Endpoint:       "localhost:4317",
			Insecure:       true,
			ExportInterval: Duration(30 * time.Second),
		},
	}
}

// Validate checks the configuration for errors.
func (c *Config) Validate() error {
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return fmt.Errorf("server port must be 1-65535, got %d", c.Server.Port)
	}
	if c.Server.ShutdownTimeout.Duration() <= 0 {
		return fmt.Errorf("shutdown timeout must be positive")
	}
	if c.Server.RateLimit < 0 {
		return fmt.Errorf("rate limit cannot be negative")
	}
	if c.Logging.Format != "json" && c.Logging.Format != "console" {
		return fmt.Errorf("logging format must be 'json' or 'console', got %q", c.Logging.Format)
	}
	if c.Observability.Enabled && c.Observability.Endpoint == "" {
		return fmt.Errorf("observability endpoint is required when enabled")
	}
	return nil
}

// applyDefaults fills zero values with defaults after unmarshal.
func applyDefaults(cfg *Config) {
	def := NewDefaultConfig()
	if cfg.Server.Host == "" {
		cfg.Server.Host = def.Server.Host
	}
	if cfg.Server.Port == 0 {
		cfg.Server.Port = def.Server.Port
	}
	if cfg.Server.ShutdownTimeout == 0 {
		cfg.Server.ShutdownTimeout = def.Server.ShutdownTimeout
	}
	if cfg.Logging.Level == "" {
		cfg.Logging.Level = def.Logging.Level
	}
	if cfg.Logging.Format == "" {
		cfg.Logging.Format = def.Logging.Format
	}
	if cfg.Observability.ServiceName == "" {
		cfg.Observability.ServiceName = def.Observability.ServiceName
	}
	if cfg.Observability.ServiceVersion == "" {
		cfg.Observability.ServiceVersion = def.Observability.ServiceVersion
	}
	if cfg.Observability.Endpoint == "" {
		cfg.Observability.Endpoint = def.Observability.Endpoint
	}
	if cfg.Observability.ExportInterval == 0 {
		cfg.Observability.ExportInterval = def.Observability.ExportInterval
	}
}
