// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package webhook

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog"

	xglog "github.com/ManuGH/flowcatalyst/internal/log"
	"github.com/ManuGH/flowcatalyst/internal/metrics"
)

// DefaultMaxBodyBytes caps the body read by Verify and Middleware.
const DefaultMaxBodyBytes = 1 << 20

// ErrBodyTooLarge is returned when a delivery exceeds the body limit.
var ErrBodyTooLarge = errors.New("webhook: body too large")

// Delivery describes a verified request. Signature is in canonical form.
type Delivery struct {
	Signature  string
	Timestamp  time.Time
	ReceivedAt time.Time
	Body       []byte
}

type deliveryKey struct{}

// DeliveryFromContext returns the delivery verified by Middleware.
func DeliveryFromContext(ctx context.Context) (Delivery, bool) {
	d, ok := ctx.Value(deliveryKey{}).(Delivery)
	return d, ok
}

// Verify reads and checks r. On success the body is restored so it can be
// read again.
func (v *Validator) Verify(r *http.Request) (Delivery, error) {
	return v.verify(r, DefaultMaxBodyBytes)
}

func (v *Validator) verify(r *http.Request, limit int64) (Delivery, error) {
	hd, err := HeadersFrom(r.Header)
	if err != nil {
		return Delivery{}, err
	}

	var body []byte
	if r.Body != nil {
		body, err = io.ReadAll(io.LimitReader(r.Body, limit+1))
		_ = r.Body.Close()
		if err != nil {
			return Delivery{}, fmt.Errorf("webhook: read body: %w", err)
		}
		if int64(len(body)) > limit {
			return Delivery{}, ErrBodyTooLarge
		}
	}
	r.Body = io.NopCloser(bytes.NewReader(body))

	if err := v.Validate(hd.Signature, hd.Timestamp, body); err != nil {
		return Delivery{}, err
	}
	ts, _ := ParseTimestamp(hd.Timestamp)
	return Delivery{
		Signature:  CanonicalSignature(hd.Signature),
		Timestamp:  ts,
		ReceivedAt: v.now(),
		Body:       body,
	}, nil
}

type middlewareConfig struct {
	guard   ReplayGuard
	maxBody int64
	logger  zerolog.Logger
}

// MiddlewareOption configures Middleware.
type MiddlewareOption func(*middlewareConfig)

// WithReplayGuard rejects repeated signatures with 409.
func WithReplayGuard(g ReplayGuard) MiddlewareOption {
	return func(c *middlewareConfig) { c.guard = g }
}

// WithMaxBodyBytes overrides DefaultMaxBodyBytes.
func WithMaxBodyBytes(n int64) MiddlewareOption {
	return func(c *middlewareConfig) {
		if n > 0 {
			c.maxBody = n
		}
	}
}

// WithMiddlewareLogger sets the logger for rejected deliveries.
func WithMiddlewareLogger(l zerolog.Logger) MiddlewareOption {
	return func(c *middlewareConfig) { c.logger = l }
}

// Middleware verifies each request before calling next. Requests with a
// missing or wrong signature, or a timestamp outside the window, get 401;
// replays get 409. The verified Delivery is available to next through
// DeliveryFromContext, and the body can be read again. When next answers
// with a 5xx status the signature is released from the replay guard, so a
// redelivery of the same request is accepted.
func Middleware(v *Validator, opts ...MiddlewareOption) func(http.Handler) http.Handler {
	cfg := middlewareConfig{
		maxBody: DefaultMaxBodyBytes,
		logger:  xglog.WithComponent("webhook"),
	}
	for _, opt := range opts {
		opt(&cfg)
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			logger := cfg.logger.With().
				Str(xglog.FieldPath, r.URL.Path).
				Str(xglog.FieldRequestID, r.Header.Get("X-Request-ID")).
				Logger()

			d, err := v.verify(r, cfg.maxBody)
			if err != nil {
				result, status := classify(err)
				metrics.RecordWebhookVerification(result)
				logger.Warn().Err(err).Str(xglog.FieldEvent, "webhook.rejected").Msg("delivery rejected")
				http.Error(w, http.StatusText(status), status)
				return
			}

			if cfg.guard != nil {
				fresh, err := cfg.guard.Add(r.Context(), d.Signature, v.tolerance+v.futureGrace)
				if err != nil {
					metrics.RecordWebhookVerification("guard_error")
					logger.Error().Err(err).Msg("replay guard unavailable")
					http.Error(w, http.StatusText(http.StatusServiceUnavailable), http.StatusServiceUnavailable)
					return
				}
				if !fresh {
					metrics.RecordWebhookVerification("replay")
					logger.Warn().Str(xglog.FieldEvent, "webhook.replay").Msg("delivery replayed")
					http.Error(w, ErrReplay.Error(), http.StatusConflict)
					return
				}
			}

			metrics.RecordWebhookVerification("ok")
			ctx := context.WithValue(r.Context(), deliveryKey{}, d)
			if cfg.guard == nil {
				next.ServeHTTP(w, r.WithContext(ctx))
				return
			}

			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
			next.ServeHTTP(ww, r.WithContext(ctx))

			// A delivery the handler failed to process stays deliverable.
			if ww.Status() >= http.StatusInternalServerError {
				if err := cfg.guard.Delete(context.WithoutCancel(r.Context()), d.Signature); err != nil {
					logger.Error().Err(err).Msg("failed to release replay key")
				}
			}
		})
	}
}

func classify(err error) (string, int) {
	switch {
	case errors.Is(err, ErrMissingHeader):
		return "missing_header", http.StatusUnauthorized
	case errors.Is(err, ErrTimestampExpired):
		return "expired", http.StatusUnauthorized
	case errors.Is(err, ErrTimestampInFuture):
		return "future", http.StatusUnauthorized
	case errors.Is(err, ErrInvalidSignature):
		return "invalid_signature", http.StatusUnauthorized
	case errors.Is(err, ErrBodyTooLarge):
		return "too_large", http.StatusRequestEntityTooLarge
	default:
		return "error", http.StatusBadRequest
	}
}
