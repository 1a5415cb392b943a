// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package main

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/ManuGH/flowcatalyst/client"
	"github.com/ManuGH/flowcatalyst/internal/config"
	xglog "github.com/ManuGH/flowcatalyst/internal/log"
	"github.com/ManuGH/flowcatalyst/internal/telemetry"
	"github.com/ManuGH/flowcatalyst/internal/version"
)

// app carries flag values and state shared by all commands.
type app struct {
	configPath string
	baseURL    string
	apiKey     string
	timeout    time.Duration
	output     string
	logLevel   string

	loader   *config.Loader
	cfg      config.Config
	provider *telemetry.Provider
}

func newRootCmd() *cobra.Command {
	a := &app{}

	root := &cobra.Command{
		Use:           "fcctl",
		Short:         "Manage FlowCatalyst event types, subscriptions and dispatch jobs",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return a.setup(cmd)
		},
		PersistentPostRunE: func(cmd *cobra.Command, _ []string) error {
			return a.teardown(cmd.Context())
		},
	}

	flags := root.PersistentFlags()
	flags.StringVar(&a.configPath, "config", "", "path to config file (YAML)")
	flags.StringVar(&a.baseURL, "base-url", "", "platform base URL, e.g. https://fc.example.com")
	flags.StringVar(&a.apiKey, "api-key", "", "API key sent as bearer token")
	flags.DurationVar(&a.timeout, "timeout", 0, "per-request timeout (default 30s)")
	flags.StringVarP(&a.output, "output", "o", "json", "output format: json or yaml")
	flags.StringVar(&a.logLevel, "log-level", "", "log level: trace, debug, info, warn, error")

	root.AddCommand(
		newEventTypesCmd(a),
		newSubscriptionsCmd(a),
		newDispatchJobsCmd(a),
		newStatusCmd(a),
		newWebhookCmd(a),
		newConfigCmd(a),
		newVersionCmd(a),
	)
	return root
}

// setup loads configuration, applies flag overrides and configures logging
// and tracing.
func (a *app) setup(cmd *cobra.Command) error {
	if a.output != "json" && a.output != "yaml" {
		return fmt.Errorf("unsupported output format %q (want json or yaml)", a.output)
	}

	a.loader = config.NewLoader(a.configPath)
	cfg, err := a.loader.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	flags := cmd.Flags()
	if flags.Changed("base-url") {
		cfg.BaseURL = a.baseURL
	}
	if flags.Changed("api-key") {
		cfg.APIKey = a.apiKey
	}
	if flags.Changed("timeout") {
		cfg.Timeout = a.timeout
	}
	if flags.Changed("log-level") {
		cfg.Log.Level = a.logLevel
	}
	if err := config.Validate(cfg); err != nil {
		return err
	}
	a.cfg = cfg

	xglog.Configure(xglog.Config{
		Level:   cfg.Log.Level,
		Output:  cmd.ErrOrStderr(),
		Service: "fcctl",
		Version: version.Version,
	})

	a.provider, err = telemetry.NewProvider(cmd.Context(), telemetry.Config{
		Enabled:        cfg.Telemetry.Enabled,
		ServiceName:    "fcctl",
		ServiceVersion: version.Version,
		ExporterType:   cfg.Telemetry.Exporter,
		Endpoint:       cfg.Telemetry.Endpoint,
		Insecure:       cfg.Telemetry.Insecure,
		SamplingRate:   cfg.Telemetry.SamplingRate,
	})
	if err != nil {
		return fmt.Errorf("init telemetry: %w", err)
	}
	return nil
}

func (a *app) teardown(ctx context.Context) error {
	if a.provider == nil {
		return nil
	}
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 5*time.Second)
	defer cancel()
	return a.provider.Shutdown(ctx)
}

// newClient builds an API client from the effective configuration.
func (a *app) newClient() (*client.Client, error) {
	opts := []client.Option{
		client.WithAPIKey(a.cfg.APIKey),
		client.WithTimeout(a.cfg.Timeout),
		client.WithLogger(xglog.WithComponent("client")),
	}
	if a.cfg.RateLimit > 0 {
		opts = append(opts, client.WithRateLimit(a.cfg.RateLimit, a.cfg.RateBurst))
	}
	return client.New(a.cfg.BaseURL, opts...)
}

// withClient runs fn with a client that is closed afterwards.
func (a *app) withClient(fn func(*client.Client) error) error {
	c, err := a.newClient()
	if err != nil {
		return err
	}
	defer func() { _ = c.Close() }()
	return fn(c)
}
