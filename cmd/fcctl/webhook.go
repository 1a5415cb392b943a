// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/httprate"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/ManuGH/flowcatalyst/internal/cache"
	"github.com/ManuGH/flowcatalyst/internal/config"
	"github.com/ManuGH/flowcatalyst/internal/inbox"
	xglog "github.com/ManuGH/flowcatalyst/internal/log"
	"github.com/ManuGH/flowcatalyst/webhook"
)

const shutdownTimeout = 5 * time.Second

func newWebhookCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "webhook",
		Short: "Sign, verify and receive webhook deliveries",
	}
	cmd.AddCommand(
		newWebhookSignCmd(a),
		newWebhookVerifyCmd(a),
		newWebhookListenCmd(a),
		newWebhookInboxCmd(a),
	)
	return cmd
}

// secretFor returns the flag value when set, else the configured secret.
func (a *app) secretFor(flag string) (string, error) {
	if flag != "" {
		return flag, nil
	}
	if a.cfg.Webhook.Secret == "" {
		return "", errors.New("no webhook secret: set --secret, webhook.secret or FLOWCATALYST_WEBHOOK_SECRET")
	}
	return a.cfg.Webhook.Secret, nil
}

func (a *app) validator(secret string) *webhook.Validator {
	return webhook.NewValidator(secret,
		webhook.WithTolerance(a.cfg.Webhook.Tolerance),
		webhook.WithFutureGrace(a.cfg.Webhook.FutureGrace),
	)
}

// readPayload reads the named file, or stdin for "" and "-".
func readPayload(cmd *cobra.Command, path string) ([]byte, error) {
	if path == "" || path == "-" {
		return io.ReadAll(cmd.InOrStdin())
	}
	return os.ReadFile(path)
}

func newWebhookSignCmd(a *app) *cobra.Command {
	var secret, file string
	cmd := &cobra.Command{
		Use:   "sign",
		Short: "Sign a payload the way the platform signs deliveries",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			key, err := a.secretFor(secret)
			if err != nil {
				return err
			}
			body, err := readPayload(cmd, file)
			if err != nil {
				return fmt.Errorf("read payload: %w", err)
			}
			sig, ts := a.validator(key).Sign(body)
			return render(cmd.OutOrStdout(), a.output, map[string]string{
				webhook.SignatureHeader: sig,
				webhook.TimestampHeader: ts,
			})
		},
	}
	cmd.Flags().StringVar(&secret, "secret", "", "signing secret (overrides config)")
	cmd.Flags().StringVarP(&file, "file", "f", "", "payload file (default stdin)")
	return cmd
}

func newWebhookVerifyCmd(a *app) *cobra.Command {
	var secret, file, signature, timestamp string
	cmd := &cobra.Command{
		Use:   "verify",
		Short: "Verify a delivery signature",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			key, err := a.secretFor(secret)
			if err != nil {
				return err
			}
			body, err := readPayload(cmd, file)
			if err != nil {
				return fmt.Errorf("read payload: %w", err)
			}
			if err := a.validator(key).Validate(signature, timestamp, body); err != nil {
				return err
			}
			return render(cmd.OutOrStdout(), a.output, map[string]bool{"valid": true})
		},
	}
	cmd.Flags().StringVar(&secret, "secret", "", "signing secret (overrides config)")
	cmd.Flags().StringVarP(&file, "file", "f", "", "payload file (default stdin)")
	cmd.Flags().StringVar(&signature, "signature", "", "value of "+webhook.SignatureHeader)
	cmd.Flags().StringVar(&timestamp, "timestamp", "", "value of "+webhook.TimestampHeader)
	_ = cmd.MarkFlagRequired("signature")
	_ = cmd.MarkFlagRequired("timestamp")
	return cmd
}

func newWebhookInboxCmd(a *app) *cobra.Command {
	var limit int
	cmd := &cobra.Command{
		Use:   "inbox",
		Short: "Show recently received deliveries",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if a.cfg.Webhook.InboxPath == "" {
				return errors.New("no inbox configured: set webhook.inbox_path or FLOWCATALYST_INBOX_PATH")
			}
			store, err := inbox.Open(cmd.Context(), a.cfg.Webhook.InboxPath)
			if err != nil {
				return err
			}
			defer func() { _ = store.Close() }()

			entries, err := store.Recent(cmd.Context(), limit)
			if err != nil {
				return err
			}
			out := make([]inboxView, 0, len(entries))
			for _, e := range entries {
				out = append(out, newInboxView(e))
			}
			return render(cmd.OutOrStdout(), a.output, out)
		},
	}
	cmd.Flags().IntVarP(&limit, "limit", "n", 20, "number of deliveries to show")
	return cmd
}

// inboxView is the printable form of an inbox entry. Bodies that are not
// JSON are shown as strings.
type inboxView struct {
	ID         string    `json:"id"`
	ReceivedAt time.Time `json:"received_at"`
	SignedAt   time.Time `json:"signed_at"`
	Signature  string    `json:"signature"`
	Body       any       `json:"body"`
}

func newInboxView(e inbox.Entry) inboxView {
	v := inboxView{
		ID:         e.ID,
		ReceivedAt: e.ReceivedAt,
		SignedAt:   e.Timestamp,
		Signature:  e.Signature,
	}
	if json.Valid(e.Body) {
		v.Body = json.RawMessage(e.Body)
	} else {
		v.Body = string(e.Body)
	}
	return v
}

func newWebhookListenCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "listen",
		Short: "Receive and verify webhook deliveries",
		Long: "Serves the webhook path with signature, timestamp and replay checks.\n" +
			"Verified deliveries are stored in the inbox when one is configured.\n" +
			"The signing secret is reloaded when the config file changes.",
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return a.listen(cmd.Context())
		},
	}
}

// listener bundles what the webhook HTTP handler needs.
type listener struct {
	cfg       config.WebhookConfig
	validator *webhook.Validator
	guard     webhook.ReplayGuard
	store     *inbox.Store // optional
	logger    zerolog.Logger
}

func (a *app) listen(ctx context.Context) error {
	wc := a.cfg.Webhook
	if wc.Secret == "" {
		return errors.New("no webhook secret: set webhook.secret or FLOWCATALYST_WEBHOOK_SECRET")
	}
	logger := xglog.WithComponent("listener")

	l := &listener{
		cfg:       wc,
		validator: a.validator(wc.Secret),
		logger:    logger,
	}

	if wc.RedisAddr != "" {
		rs, err := cache.NewRedisStore(ctx, cache.RedisConfig{Addr: wc.RedisAddr}, logger)
		if err != nil {
			return err
		}
		l.guard = rs
	} else {
		l.guard = webhook.NewMemoryReplayGuard(time.Minute)
	}
	defer func() { _ = l.guard.Close() }()

	if wc.InboxPath != "" {
		store, err := inbox.Open(ctx, wc.InboxPath)
		if err != nil {
			return err
		}
		defer func() { _ = store.Close() }()
		l.store = store
	}

	holder := config.NewHolder(a.cfg, a.loader)
	updates := make(chan config.Config, 1)
	holder.RegisterListener(updates)
	if err := holder.StartWatcher(ctx); err != nil {
		return err
	}
	defer holder.Stop()
	go l.followSecret(ctx, updates)

	srv := &http.Server{
		Addr:              wc.Listen,
		Handler:           l.routes(),
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       2 * time.Minute,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info().
			Str(xglog.FieldEvent, "listener.start").
			Str(xglog.FieldListenAddr, wc.Listen).
			Str(xglog.FieldPath, wc.Path).
			Msg("webhook listener started")
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("listen: %w", err)
	case <-ctx.Done():
	}

	logger.Info().Str(xglog.FieldEvent, "listener.shutdown").Msg("shutting down webhook listener")
	shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	return nil
}

// followSecret applies rotated secrets from config reloads.
func (l *listener) followSecret(ctx context.Context, updates <-chan config.Config) {
	for {
		select {
		case <-ctx.Done():
			return
		case cfg := <-updates:
			if cfg.Webhook.Secret == "" {
				l.logger.Warn().Msg("reloaded config has no webhook secret, keeping current one")
				continue
			}
			l.validator.SetSecret(cfg.Webhook.Secret)
			l.logger.Info().Str(xglog.FieldEvent, "listener.secret_rotated").Msg("webhook secret updated")
		}
	}
}

func (l *listener) routes() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)

	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok\n"))
	})
	r.Handle("/metrics", promhttp.Handler())

	r.Group(func(r chi.Router) {
		if l.cfg.RateLimit > 0 {
			r.Use(httprate.LimitByIP(l.cfg.RateLimit, time.Minute))
		}
		r.Use(webhook.Middleware(l.validator,
			webhook.WithReplayGuard(l.guard),
			webhook.WithMiddlewareLogger(l.logger),
		))
		r.Post(l.cfg.Path, l.receive)
	})
	return r
}

// receive stores a verified delivery and acknowledges it.
func (l *listener) receive(w http.ResponseWriter, r *http.Request) {
	d, ok := webhook.DeliveryFromContext(r.Context())
	if !ok {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	ack := map[string]string{"status": "accepted"}
	if l.store != nil {
		e, err := l.store.Record(r.Context(), inbox.Entry{
			ReceivedAt: d.ReceivedAt,
			Signature:  d.Signature,
			Timestamp:  d.Timestamp,
			Body:       d.Body,
		})
		if err != nil {
			l.logger.Error().Err(err).Str(xglog.FieldEvent, "listener.inbox_failed").Msg("failed to store delivery")
			http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
			return
		}
		ack["id"] = e.ID
	}

	l.logger.Info().
		Str(xglog.FieldEvent, "listener.delivery").
		Str(xglog.FieldDeliveryID, ack["id"]).
		Str(xglog.FieldRequestID, middleware.GetReqID(r.Context())).
		Int("bytes", len(d.Body)).
		Msg("delivery accepted")

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusAccepted)
	_ = json.NewEncoder(w).Encode(ack)
}
