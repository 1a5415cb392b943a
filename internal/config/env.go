// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package config

import (
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/ManuGH/flowcatalyst/internal/log"
)

// Environment variables read by Load.
const (
	EnvBaseURL            = "FLOWCATALYST_BASE_URL"
	EnvAPIKey             = "FLOWCATALYST_API_KEY"
	EnvTimeout            = "FLOWCATALYST_TIMEOUT"
	EnvRateLimit          = "FLOWCATALYST_RATE_LIMIT"
	EnvWebhookSecret      = "FLOWCATALYST_WEBHOOK_SECRET"
	EnvWebhookTolerance   = "FLOWCATALYST_WEBHOOK_TOLERANCE"
	EnvWebhookFutureGrace = "FLOWCATALYST_WEBHOOK_FUTURE_GRACE"
	EnvWebhookListen      = "FLOWCATALYST_WEBHOOK_LISTEN"
	EnvWebhookPath        = "FLOWCATALYST_WEBHOOK_PATH"
	EnvRedisAddr          = "FLOWCATALYST_REDIS_ADDR"
	EnvInboxPath          = "FLOWCATALYST_INBOX_PATH"
	EnvLogLevel           = "FLOWCATALYST_LOG_LEVEL"
	EnvOTelEnabled        = "FLOWCATALYST_OTEL_ENABLED"
	EnvOTelExporter       = "FLOWCATALYST_OTEL_EXPORTER"
	EnvOTelEndpoint       = "FLOWCATALYST_OTEL_ENDPOINT"
	EnvOTelSamplingRate   = "FLOWCATALYST_OTEL_SAMPLING_RATE"
)

// applyEnv overlays environment variables onto cfg.
func applyEnv(cfg *Config) {
	cfg.BaseURL = ParseString(EnvBaseURL, cfg.BaseURL)
	cfg.APIKey = ParseString(EnvAPIKey, cfg.APIKey)
	cfg.Timeout = ParseDuration(EnvTimeout, cfg.Timeout)
	cfg.RateLimit = ParseFloat(EnvRateLimit, cfg.RateLimit)

	cfg.Webhook.Secret = ParseString(EnvWebhookSecret, cfg.Webhook.Secret)
	cfg.Webhook.Tolerance = ParseDuration(EnvWebhookTolerance, cfg.Webhook.Tolerance)
	cfg.Webhook.FutureGrace = ParseDuration(EnvWebhookFutureGrace, cfg.Webhook.FutureGrace)
	cfg.Webhook.Listen = ParseString(EnvWebhookListen, cfg.Webhook.Listen)
	cfg.Webhook.Path = ParseString(EnvWebhookPath, cfg.Webhook.Path)
	cfg.Webhook.RedisAddr = ParseString(EnvRedisAddr, cfg.Webhook.RedisAddr)
	cfg.Webhook.InboxPath = ParseString(EnvInboxPath, cfg.Webhook.InboxPath)

	cfg.Log.Level = ParseString(EnvLogLevel, cfg.Log.Level)

	cfg.Telemetry.Enabled = ParseBool(EnvOTelEnabled, cfg.Telemetry.Enabled)
	cfg.Telemetry.Exporter = ParseString(EnvOTelExporter, cfg.Telemetry.Exporter)
	cfg.Telemetry.Endpoint = ParseString(EnvOTelEndpoint, cfg.Telemetry.Endpoint)
	cfg.Telemetry.SamplingRate = ParseFloat(EnvOTelSamplingRate, cfg.Telemetry.SamplingRate)
}

func sensitive(key string) bool {
	k := strings.ToLower(key)
	return strings.Contains(k, "key") || strings.Contains(k, "secret") ||
		strings.Contains(k, "token") || strings.Contains(k, "password")
}

// ParseString reads a string from the environment or returns defaultValue.
// The source is logged; values of sensitive keys are not.
func ParseString(key, defaultValue string) string {
	return parseStringWithLogger(log.WithComponent("config"), key, defaultValue)
}

func parseStringWithLogger(logger zerolog.Logger, key, defaultValue string) string {
	value, exists := os.LookupEnv(key)
	if !exists || value == "" {
		logger.Debug().
			Str("key", key).
			Str("source", "default").
			Msg("using default value")
		return defaultValue
	}
	ev := logger.Debug().Str("key", key).Str("source", "environment")
	if sensitive(key) {
		ev = ev.Bool("sensitive", true)
	} else {
		ev = ev.Str("value", value)
	}
	ev.Msg("using environment variable")
	return value
}

// ParseDuration reads a Go duration (e.g. "5s") from the environment. Invalid
// values fall back to defaultValue with a warning.
func ParseDuration(key string, defaultValue time.Duration) time.Duration {
	logger := log.WithComponent("config")
	v, ok := os.LookupEnv(key)
	if !ok || v == "" {
		return defaultValue
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		logger.Warn().
			Str("key", key).
			Str("value", v).
			Dur("default", defaultValue).
			Msg("invalid duration in environment variable, using default")
		return defaultValue
	}
	logger.Debug().Str("key", key).Dur("value", d).Str("source", "environment").Msg("using environment variable")
	return d
}

// ParseBool reads a boolean, accepting true/false, 1/0 and yes/no.
func ParseBool(key string, defaultValue bool) bool {
	logger := log.WithComponent("config")
	v, ok := os.LookupEnv(key)
	if !ok || v == "" {
		return defaultValue
	}
	switch strings.ToLower(v) {
	case "true", "1", "yes":
		logger.Debug().Str("key", key).Bool("value", true).Str("source", "environment").Msg("using environment variable")
		return true
	case "false", "0", "no":
		logger.Debug().Str("key", key).Bool("value", false).Str("source", "environment").Msg("using environment variable")
		return false
	default:
		logger.Warn().
			Str("key", key).
			Str("value", v).
			Bool("default", defaultValue).
			Msg("invalid boolean in environment variable, using default")
		return defaultValue
	}
}

// ParseFloat reads a float64 from the environment.
func ParseFloat(key string, defaultValue float64) float64 {
	logger := log.WithComponent("config")
	v, ok := os.LookupEnv(key)
	if !ok || v == "" {
		return defaultValue
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		logger.Warn().
			Str("key", key).
			Str("value", v).
			Float64("default", defaultValue).
			Msg("invalid float in environment variable, using default")
		return defaultValue
	}
	logger.Debug().Str("key", key).Float64("value", f).Str("source", "environment").Msg("using environment variable")
	return f
}
