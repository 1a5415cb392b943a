// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package config

import (
	"strings"

	"github.com/ManuGH/flowcatalyst/internal/validate"
)

// Validate checks every field and reports all failures at once. The base URL
// may be empty so that commands which never call the API still run; the
// client rejects it when it is needed.
func Validate(cfg Config) error {
	v := validate.New()

	if strings.TrimSpace(cfg.BaseURL) != "" {
		v.URL("base_url", cfg.BaseURL, []string{"http", "https"})
	}
	v.PositiveDuration("timeout", cfg.Timeout)
	if cfg.RateLimit < 0 {
		v.AddError("rate_limit", "value cannot be negative", cfg.RateLimit)
	}
	v.NonNegative("rate_burst", cfg.RateBurst)

	v.PositiveDuration("webhook.tolerance", cfg.Webhook.Tolerance)
	if cfg.Webhook.FutureGrace < 0 {
		v.AddError("webhook.future_grace", "duration cannot be negative", cfg.Webhook.FutureGrace)
	}
	v.ListenAddr("webhook.listen", cfg.Webhook.Listen)
	if !strings.HasPrefix(cfg.Webhook.Path, "/") {
		v.AddError("webhook.path", "path must start with /", cfg.Webhook.Path)
	}
	v.NonNegative("webhook.rate_limit", cfg.Webhook.RateLimit)

	if _, err := validate.ParseLogLevel(cfg.Log.Level); err != nil {
		v.OneOf("log.level", cfg.Log.Level, validate.LogLevels)
	}

	if cfg.Telemetry.Enabled {
		v.OneOf("telemetry.exporter", cfg.Telemetry.Exporter, []string{"grpc", "http"})
		v.NotEmpty("telemetry.endpoint", cfg.Telemetry.Endpoint)
	}
	v.FloatRange("telemetry.sampling_rate", cfg.Telemetry.SamplingRate, 0, 1)

	return v.Err()
}
