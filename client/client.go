package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/time/rate"

	xglog "github.com/ManuGH/flowcatalyst/internal/log"
	"github.com/ManuGH/flowcatalyst/internal/metrics"
	"github.com/ManuGH/flowcatalyst/internal/platform/httpx"
	"github.com/ManuGH/flowcatalyst/internal/telemetry"
	"github.com/ManuGH/flowcatalyst/internal/version"
	"github.com/ManuGH/flowcatalyst/model"
)

const (
	tracerName = "github.com/ManuGH/flowcatalyst/client"

	// HeaderRequestID carries the per-call correlation id.
	HeaderRequestID = "X-Request-ID"

	maxResponseBody = 16 << 20
)

// Client talks to one FlowCatalyst deployment over a single session.
type Client struct {
	base      string
	apiKey    string
	timeout   time.Duration
	userAgent string
	transport http.RoundTripper
	logger    zerolog.Logger
	limiter   *rate.Limiter

	tracing        bool
	tracerProvider trace.TracerProvider
	tracer         trace.Tracer

	http *http.Client
}

// New returns a Client for baseURL, e.g. "https://fc.example.com". Trailing
// slashes are stripped; paths such as /api/event-types are appended as-is.
func New(baseURL string, opts ...Option) (*Client, error) {
	base := strings.TrimRight(strings.TrimSpace(baseURL), "/")
	if base == "" {
		return nil, errors.New("flowcatalyst: base URL is required")
	}
	u, err := url.Parse(base)
	if err != nil {
		return nil, fmt.Errorf("flowcatalyst: invalid base URL %q: %w", baseURL, err)
	}
	if u.Scheme != "http" && u.Scheme != "https" || u.Host == "" {
		return nil, fmt.Errorf("flowcatalyst: invalid base URL %q: want http(s)://host", baseURL)
	}

	c := &Client{
		base:      base,
		timeout:   httpx.DefaultTimeout,
		userAgent: version.UserAgent(),
		logger:    xglog.WithComponent("client"),
		tracing:   true,
	}
	for _, opt := range opts {
		opt(c)
	}

	tp := c.tracerProvider
	if tp == nil {
		tp = otel.GetTracerProvider()
	}
	c.tracer = tp.Tracer(tracerName)

	c.http = httpx.NewSession(httpx.SessionOptions{
		Timeout:        c.timeout,
		APIKey:         c.apiKey,
		Base:           c.transport,
		Tracing:        c.tracing,
		TracerProvider: c.tracerProvider,
	})

	c.logger.Debug().
		Str(xglog.FieldBaseURL, c.base).
		Dur("timeout", c.timeout).
		Bool("authenticated", c.apiKey != "").
		Msg("client created")

	return c, nil
}

// BaseURL returns the normalised base URL.
func (c *Client) BaseURL() string { return c.base }

// Timeout returns the per-call timeout.
func (c *Client) Timeout() time.Duration { return c.timeout }

// Close releases the session's idle connections. The Client must not be used
// afterwards.
func (c *Client) Close() error {
	c.http.CloseIdleConnections()
	return nil
}

// call describes one API round trip.
type call struct {
	operation string // metrics and span name, e.g. get_subscription
	resource  string // path segment, e.g. subscriptions
	record    string // record kind the body decodes into
	method    string
	path      string
	id        string // resource id for get operations
	query     url.Values
	body      any
}

// do is the request executor: it performs the call and returns the raw JSON
// body of a 2xx response without interpreting it.
func (c *Client) do(ctx context.Context, in call) (json.RawMessage, error) {
	if c.limiter != nil {
		if err := c.limiter.Wait(ctx); err != nil {
			return nil, fmt.Errorf("flowcatalyst: %s %s: %w", in.method, in.path, err)
		}
	}

	target := c.base + in.path
	if len(in.query) > 0 {
		target += "?" + in.query.Encode()
	}

	var payload io.Reader
	if in.body != nil {
		data, err := json.Marshal(in.body)
		if err != nil {
			return nil, fmt.Errorf("flowcatalyst: marshal %s request: %w", in.operation, err)
		}
		payload = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, in.method, target, payload)
	if err != nil {
		return nil, fmt.Errorf("flowcatalyst: build %s request: %w", in.operation, err)
	}
	requestID := uuid.NewString()
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", c.userAgent)
	req.Header.Set(HeaderRequestID, requestID)
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	logger := xglog.WithContext(ctx, c.logger).With().
		Str(xglog.FieldRequestID, requestID).
		Str(xglog.FieldOperation, in.operation).
		Str(xglog.FieldMethod, in.method).
		Str(xglog.FieldPath, in.path).
		Logger()

	start := time.Now()
	res, err := c.http.Do(req)
	if err != nil {
		metrics.ObserveClientRequest(in.operation, in.method, 0, time.Since(start))
		logger.Debug().Err(err).Str(xglog.FieldEvent, "client.transport_error").Msg("request failed")
		return nil, fmt.Errorf("flowcatalyst: %s %s: %w", in.method, in.path, err)
	}
	defer func() { _ = res.Body.Close() }()

	body, readErr := io.ReadAll(io.LimitReader(res.Body, maxResponseBody))
	elapsed := time.Since(start)
	metrics.ObserveClientRequest(in.operation, in.method, res.StatusCode, elapsed)
	if readErr != nil {
		logger.Debug().Err(readErr).Int(xglog.FieldStatusCode, res.StatusCode).Msg("reading response failed")
		return nil, fmt.Errorf("flowcatalyst: %s %s: read response: %w", in.method, in.path, readErr)
	}

	logger.Debug().
		Str(xglog.FieldEvent, "client.response").
		Int(xglog.FieldStatusCode, res.StatusCode).
		Dur(xglog.FieldDuration, elapsed).
		Msg("request completed")

	if res.StatusCode < 200 || res.StatusCode > 299 {
		return nil, &HTTPError{
			Method:     in.method,
			Path:       in.path,
			StatusCode: res.StatusCode,
			Body:       string(body),
			RequestID:  requestID,
		}
	}

	if !json.Valid(body) {
		return nil, &model.ValidationError{Record: in.record, Reason: "response body is not valid JSON"}
	}
	return body, nil
}

// run wraps do with a span and decodes the body with decode.
func (c *Client) run(ctx context.Context, in call, decode func([]byte) error) error {
	ctx, span := c.startSpan(ctx, in)
	defer span.End()

	err := c.exec(ctx, in, decode)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		var he *HTTPError
		var ve *model.ValidationError
		switch {
		case errors.As(err, &he):
			span.SetAttributes(telemetry.ErrorAttributes("http_error")...)
			span.SetAttributes(telemetry.HTTPAttributes(in.method, routeOf(in), he.StatusCode)...)
		case errors.As(err, &ve):
			span.SetAttributes(telemetry.ErrorAttributes("validation_error")...)
		default:
			span.SetAttributes(telemetry.ErrorAttributes("transport_error")...)
		}
		return err
	}
	span.SetStatus(codes.Ok, "")
	return nil
}

func (c *Client) exec(ctx context.Context, in call, decode func([]byte) error) error {
	if in.path == "" {
		// Get operations with an empty id would address the collection.
		return &model.ValidationError{Record: in.record, Field: "id", Reason: "must not be empty"}
	}
	body, err := c.do(ctx, in)
	if err != nil {
		var ve *model.ValidationError
		if errors.As(err, &ve) {
			metrics.RecordValidationError(in.record)
		}
		return err
	}
	if err := decode(body); err != nil {
		metrics.RecordValidationError(in.record)
		return err
	}
	return nil
}

func (c *Client) startSpan(ctx context.Context, in call) (context.Context, trace.Span) {
	if !c.tracing {
		return ctx, trace.SpanFromContext(ctx)
	}
	return c.tracer.Start(ctx, "flowcatalyst."+in.operation,
		trace.WithSpanKind(trace.SpanKindClient),
		trace.WithAttributes(telemetry.OperationAttributes(in.operation, in.resource, in.id)...),
	)
}

func routeOf(in call) string {
	if in.id != "" {
		return "/api/" + in.resource + "/{id}"
	}
	return "/api/" + in.resource
}

// itemPath returns the path of one resource, or "" when id is empty.
func itemPath(resource, id string) string {
	if id == "" {
		return ""
	}
	return "/api/" + resource + "/" + url.PathEscape(id)
}
