// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

// Package config loads fcctl configuration from defaults, a YAML file and
// FLOWCATALYST_* environment variables, in that order of precedence.
package config

import (
	"time"

	"github.com/ManuGH/flowcatalyst/internal/platform/httpx"
	"github.com/ManuGH/flowcatalyst/webhook"
)

// Config is the complete fcctl configuration.
type Config struct {
	BaseURL   string          `yaml:"base_url"`
	APIKey    string          `yaml:"api_key,omitempty"`
	Timeout   time.Duration   `yaml:"timeout"`
	RateLimit float64         `yaml:"rate_limit,omitempty"` // requests per second, 0 disables
	RateBurst int             `yaml:"rate_burst,omitempty"`
	Webhook   WebhookConfig   `yaml:"webhook"`
	Log       LogConfig       `yaml:"log"`
	Telemetry TelemetryConfig `yaml:"telemetry"`
}

// WebhookConfig configures signature checks and the delivery listener.
type WebhookConfig struct {
	Secret      string        `yaml:"secret,omitempty"`
	Tolerance   time.Duration `yaml:"tolerance"`
	FutureGrace time.Duration `yaml:"future_grace"`
	Listen      string        `yaml:"listen"`
	Path        string        `yaml:"path"`
	RateLimit   int           `yaml:"rate_limit"` // requests per minute per client IP
	RedisAddr   string        `yaml:"redis_addr,omitempty"`
	InboxPath   string        `yaml:"inbox_path,omitempty"`
}

// LogConfig configures zerolog.
type LogConfig struct {
	Level string `yaml:"level"`
}

// TelemetryConfig configures OpenTelemetry tracing.
type TelemetryConfig struct {
	Enabled      bool    `yaml:"enabled"`
	Exporter     string  `yaml:"exporter"` // grpc or http
	Endpoint     string  `yaml:"endpoint"`
	Insecure     bool    `yaml:"insecure"`
	SamplingRate float64 `yaml:"sampling_rate"`
}

// Defaults returns the built-in configuration.
func Defaults() Config {
	return Config{
		Timeout:   httpx.DefaultTimeout,
		RateBurst: 1,
		Webhook: WebhookConfig{
			Tolerance:   webhook.DefaultTolerance,
			FutureGrace: webhook.DefaultFutureGrace,
			Listen:      ":8088",
			Path:        "/webhook",
			RateLimit:   600,
		},
		Log: LogConfig{Level: "info"},
		Telemetry: TelemetryConfig{
			Exporter:     "grpc",
			Endpoint:     "localhost:4317",
			SamplingRate: 1.0,
		},
	}
}

// Redacted returns a copy with secrets masked, for display.
func (c Config) Redacted() Config {
	if c.APIKey != "" {
		c.APIKey = redactedValue
	}
	if c.Webhook.Secret != "" {
		c.Webhook.Secret = redactedValue
	}
	return c
}

const redactedValue = "***redacted***"
