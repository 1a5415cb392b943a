package client

import (
	"context"
	"errors"
	"net"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
	"go.uber.org/goleak"

	"github.com/ManuGH/flowcatalyst/model"
)

func TestTimeout(t *testing.T) {
	c, mock := newMockClient(t, WithTimeout(100*time.Millisecond))
	mock.SetDelay("/api/event-types", 2*time.Second)

	start := time.Now()
	_, err := c.ListEventTypes(context.Background())
	require.Error(t, err)
	assert.Less(t, time.Since(start), time.Second)

	var netErr net.Error
	require.True(t, errors.As(err, &netErr), "want net.Error, got %T", err)
	assert.True(t, netErr.Timeout())

	var he *HTTPError
	assert.False(t, errors.As(err, &he))
}

func TestContextCancellation(t *testing.T) {
	c, mock := newMockClient(t)
	mock.SetDelay("/api/subscriptions", 2*time.Second)

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	_, err := c.ListSubscriptions(ctx)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestTransportErrorIsWrapped(t *testing.T) {
	s := httptest.NewServer(http.NotFoundHandler())
	base := s.URL
	s.Close()

	c, err := New(base, WithoutTracing(), WithTimeout(time.Second))
	require.NoError(t, err)
	defer func() { _ = c.Close() }()

	_, err = c.ListEventTypes(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "GET /api/event-types")

	var urlErr *url.Error
	assert.True(t, errors.As(err, &urlErr))
	assert.Equal(t, 0, StatusCode(err))
}

func TestNonJSONSuccessBody(t *testing.T) {
	c, mock := newMockClient(t)
	mock.SetRawResponse("/api/event-types", http.StatusOK, "<html>ok</html>")

	_, err := c.ListEventTypes(context.Background())
	var ve *model.ValidationError
	require.True(t, errors.As(err, &ve))
	assert.Equal(t, "EventType", ve.Record)
}

func TestShapeMismatch(t *testing.T) {
	tests := []struct {
		name      string
		path      string
		body      string
		call      func(*Client) error
		wantField string
	}{
		{
			name: "object where list expected",
			path: "/api/dispatch-jobs",
			body: `{"id":"job_1"}`,
			call: func(c *Client) error { _, err := c.ListDispatchJobs(context.Background()); return err },
		},
		{
			name: "unknown status",
			path: "/api/subscriptions/sub_x",
			body: `{"id":"sub_x","event_type_id":"et","endpoint":"https://x","status":"cancelled","created_at":"2025-01-01T00:00:00Z"}`,
			call: func(c *Client) error {
				_, err := c.GetSubscription(context.Background(), "sub_x")
				return err
			},
			wantField: "status",
		},
		{
			name: "missing schema",
			path: "/api/event-types/et_x",
			body: `{"id":"et_x","name":"n","version":"1","created_at":"2025-01-01T00:00:00Z"}`,
			call: func(c *Client) error {
				_, err := c.GetEventType(context.Background(), "et_x")
				return err
			},
			wantField: "schema",
		},
		{
			name: "fractional attempts",
			path: "/api/dispatch-jobs/job_x",
			body: `{"id":"job_x","event_id":"e","subscription_id":"s","status":"pending","attempts":1.5,"created_at":"2025-01-01T00:00:00Z"}`,
			call: func(c *Client) error {
				_, err := c.GetDispatchJob(context.Background(), "job_x")
				return err
			},
			wantField: "attempts",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c, mock := newMockClient(t)
			mock.SetRawResponse(tt.path, http.StatusOK, tt.body)

			err := tt.call(c)
			var ve *model.ValidationError
			require.True(t, errors.As(err, &ve), "want ValidationError, got %v", err)
			if tt.wantField != "" {
				assert.Equal(t, tt.wantField, ve.Field)
			}
		})
	}
}

func TestHTTPError_RedactsSecrets(t *testing.T) {
	c, mock := newMockClient(t)
	body := `{"error":"bad token","api_key":"fc_live_secret","hint":"Bearer abc.def"}`
	mock.SetFailures("/api/event-types", http.StatusUnauthorized, 1, body)

	_, err := c.ListEventTypes(context.Background())
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrUnauthorized)
	assert.NotContains(t, err.Error(), "fc_live_secret")
	assert.NotContains(t, err.Error(), "abc.def")
	assert.Contains(t, err.Error(), "[REDACTED]")

	var he *HTTPError
	require.True(t, errors.As(err, &he))
	assert.Equal(t, body, he.Body, "raw body is kept")
	assert.NotEmpty(t, he.RequestID)
}

func TestHTTPError_Sentinels(t *testing.T) {
	tests := []struct {
		status int
		want   error
	}{
		{http.StatusBadRequest, ErrUnprocessable},
		{http.StatusUnauthorized, ErrUnauthorized},
		{http.StatusForbidden, ErrForbidden},
		{http.StatusNotFound, ErrNotFound},
		{http.StatusConflict, ErrConflict},
		{http.StatusUnprocessableEntity, ErrUnprocessable},
		{http.StatusTooManyRequests, ErrRateLimited},
		{http.StatusTeapot, ErrClientError},
		{http.StatusBadGateway, ErrServer},
	}
	for _, tt := range tests {
		err := error(&HTTPError{Method: "GET", Path: "/api/x", StatusCode: tt.status})
		assert.ErrorIs(t, err, tt.want, "status %d", tt.status)
	}
	assert.NoError(t, (&HTTPError{StatusCode: 302}).Unwrap())
}

func TestHTTPError_TruncatesLongBody(t *testing.T) {
	err := &HTTPError{Method: "GET", Path: "/api/x", StatusCode: 500, Body: strings.Repeat("x", 2000)}
	assert.Less(t, len(err.Error()), 700)
	assert.True(t, strings.HasSuffix(err.Error(), "..."))
}

func TestTracing_SpanPerOperation(t *testing.T) {
	sr := tracetest.NewSpanRecorder()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(sr))
	defer func() { _ = tp.Shutdown(context.Background()) }()

	mock := NewMockServer()
	defer mock.Close()
	c, err := New(mock.URL(), WithTracerProvider(tp))
	require.NoError(t, err)
	defer func() { _ = c.Close() }()

	_, err = c.ListEventTypes(context.Background())
	require.NoError(t, err)
	_, err = c.GetDispatchJob(context.Background(), "missing")
	require.Error(t, err)

	var names []string
	var failed sdktrace.ReadOnlySpan
	for _, s := range sr.Ended() {
		if strings.HasPrefix(s.Name(), "flowcatalyst.") {
			names = append(names, s.Name())
			if s.Name() == "flowcatalyst.get_dispatch_job" {
				failed = s
			}
		}
	}
	assert.Equal(t, []string{"flowcatalyst.list_event_types", "flowcatalyst.get_dispatch_job"}, names)
	require.NotNil(t, failed)
	assert.Equal(t, "Error", failed.Status().Code.String())
	assert.Greater(t, len(sr.Ended()), len(names), "transport spans are recorded too")
}

func TestMetrics_RecordedPerOperation(t *testing.T) {
	c, _ := newMockClient(t)

	_, err := c.GetSubscription(context.Background(), "sub_orders")
	require.NoError(t, err)
	_, err = c.GetSubscription(context.Background(), "nope")
	require.Error(t, err)

	n, err := testutil.GatherAndCount(prometheus.DefaultGatherer, "flowcatalyst_client_requests_total")
	require.NoError(t, err)
	assert.GreaterOrEqual(t, n, 2, "one series per status code")

	n, err = testutil.GatherAndCount(prometheus.DefaultGatherer, "flowcatalyst_client_request_duration_seconds")
	require.NoError(t, err)
	assert.GreaterOrEqual(t, n, 1)
}

func TestRateLimit_HonoursContext(t *testing.T) {
	c, mock := newMockClient(t, WithRateLimit(0.001, 1))

	_, err := c.ListEventTypes(context.Background())
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	_, err = c.ListEventTypes(ctx)
	require.Error(t, err)
	assert.Len(t, mock.Requests(), 1, "limited call never reaches the server")
}

func TestClose_NoGoroutineLeak(t *testing.T) {
	defer goleak.VerifyNone(t, goleak.IgnoreCurrent())

	mock := NewMockServer()
	c, err := New(mock.URL(), WithoutTracing(), WithAPIKey("k"))
	require.NoError(t, err)

	for i := 0; i < 3; i++ {
		_, err := c.ListDispatchJobs(context.Background())
		require.NoError(t, err)
	}
	require.NoError(t, c.Close())
	mock.Close()
}
