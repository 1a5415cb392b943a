package client

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ManuGH/flowcatalyst/model"
)

func newMockClient(t *testing.T, opts ...Option) (*Client, *MockServer) {
	t.Helper()
	mock := NewMockServer()
	t.Cleanup(mock.Close)

	opts = append([]Option{WithoutTracing()}, opts...)
	c, err := New(mock.URL(), opts...)
	require.NoError(t, err)
	t.Cleanup(func() { _ = c.Close() })
	return c, mock
}

func TestNew_BaseURL(t *testing.T) {
	tests := []struct {
		name    string
		in      string
		want    string
		wantErr bool
	}{
		{name: "plain", in: "https://fc.example.com", want: "https://fc.example.com"},
		{name: "trailing slashes", in: "https://fc.example.com//", want: "https://fc.example.com"},
		{name: "with prefix", in: "http://localhost:8080/platform/", want: "http://localhost:8080/platform"},
		{name: "empty", in: "  ", wantErr: true},
		{name: "no scheme", in: "fc.example.com", wantErr: true},
		{name: "ftp", in: "ftp://fc.example.com", wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c, err := New(tt.in)
			if tt.wantErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			defer func() { _ = c.Close() }()
			assert.Equal(t, tt.want, c.BaseURL())
		})
	}
}

func TestNew_DefaultTimeout(t *testing.T) {
	c, err := New("http://localhost")
	require.NoError(t, err)
	assert.Equal(t, 30*time.Second, c.Timeout())

	c, err = New("http://localhost", WithTimeout(-time.Second))
	require.NoError(t, err)
	assert.Equal(t, 30*time.Second, c.Timeout())

	c, err = New("http://localhost", WithTimeout(5*time.Second))
	require.NoError(t, err)
	assert.Equal(t, 5*time.Second, c.Timeout())
}

func TestListEventTypes(t *testing.T) {
	c, mock := newMockClient(t)

	got, err := c.ListEventTypes(context.Background())
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "et_order_created", got[0].ID)
	assert.Equal(t, "order.created", got[0].Name)
	assert.Equal(t, "object", got[0].Schema["type"])

	req, ok := mock.LastRequest()
	require.True(t, ok)
	assert.Equal(t, "GET", req.Method)
	assert.Equal(t, "/api/event-types", req.Path)
	assert.Equal(t, "application/json", req.Header.Get("Accept"))
	assert.NotEmpty(t, req.Header.Get(HeaderRequestID))
	assert.Empty(t, req.Header.Get("Content-Type"))
}

func TestGetEventType_NotFound(t *testing.T) {
	c, _ := newMockClient(t)

	_, err := c.GetEventType(context.Background(), "missing")
	require.Error(t, err)

	var he *HTTPError
	require.True(t, errors.As(err, &he))
	assert.Equal(t, 404, he.StatusCode)
	assert.Equal(t, "/api/event-types/missing", he.Path)
	assert.Contains(t, he.Body, "event type not found")
	assert.ErrorIs(t, err, ErrNotFound)
	assert.Equal(t, 404, StatusCode(err))
}

func TestGet_EmptyIDIsValidationError(t *testing.T) {
	c, mock := newMockClient(t)
	ctx := context.Background()

	_, err := c.GetEventType(ctx, "")
	assert.ErrorIs(t, err, model.ErrValidation)
	_, err = c.GetSubscription(ctx, "")
	assert.ErrorIs(t, err, model.ErrValidation)
	_, err = c.GetDispatchJob(ctx, "")
	assert.ErrorIs(t, err, model.ErrValidation)

	assert.Empty(t, mock.Requests(), "no request for an empty id")
}

func TestGet_EscapesID(t *testing.T) {
	c, mock := newMockClient(t)

	_, err := c.GetSubscription(context.Background(), "a/b")
	assert.ErrorIs(t, err, ErrNotFound)

	req, ok := mock.LastRequest()
	require.True(t, ok)
	assert.Equal(t, "/api/subscriptions/a%2Fb", req.Path)
}

func TestCreateEventType(t *testing.T) {
	c, mock := newMockClient(t)

	schema := map[string]any{"type": "object"}
	got, err := c.CreateEventType(context.Background(), CreateEventTypeRequest{
		Name:    "invoice.paid",
		Version: "2.1",
		Schema:  schema,
	})
	require.NoError(t, err)
	assert.NotEmpty(t, got.ID)
	assert.Equal(t, "invoice.paid", got.Name)
	assert.Equal(t, "2.1", got.Version)
	assert.False(t, got.CreatedAt.IsZero())

	req, ok := mock.LastRequest()
	require.True(t, ok)
	assert.Equal(t, "POST", req.Method)
	assert.Equal(t, "application/json", req.Header.Get("Content-Type"))

	var sent map[string]any
	require.NoError(t, json.Unmarshal(req.Body, &sent))
	want := map[string]any{"name": "invoice.paid", "version": "2.1", "schema": schema}
	if diff := cmp.Diff(want, sent); diff != "" {
		t.Errorf("request body mismatch (-want +got):\n%s", diff)
	}

	fetched, err := c.GetEventType(context.Background(), got.ID)
	require.NoError(t, err)
	assert.Equal(t, got.ID, fetched.ID)
}

func TestCreateEventType_NilSchemaSentAsObject(t *testing.T) {
	c, mock := newMockClient(t)

	_, err := c.CreateEventType(context.Background(), CreateEventTypeRequest{Name: "n", Version: "1"})
	require.NoError(t, err)

	req, _ := mock.LastRequest()
	assert.JSONEq(t, `{"name":"n","version":"1","schema":{}}`, string(req.Body))
}

func TestCreateEventType_RejectedByServer(t *testing.T) {
	c, _ := newMockClient(t)

	_, err := c.CreateEventType(context.Background(), CreateEventTypeRequest{Version: "1"})
	require.Error(t, err)
	assert.Equal(t, 422, StatusCode(err))
	assert.ErrorIs(t, err, ErrUnprocessable)
}

func TestCreateSubscription_DefaultsToActive(t *testing.T) {
	c, mock := newMockClient(t)

	got, err := c.CreateSubscription(context.Background(), CreateSubscriptionRequest{
		EventTypeID: "et_order_created",
		Endpoint:    "https://x.test/hook",
	})
	require.NoError(t, err)
	assert.Equal(t, model.SubscriptionActive, got.Status)
	assert.Equal(t, "et_order_created", got.EventTypeID)
	assert.Equal(t, "https://x.test/hook", got.Endpoint)

	req, _ := mock.LastRequest()
	assert.JSONEq(t, `{"event_type_id":"et_order_created","endpoint":"https://x.test/hook","status":"active"}`, string(req.Body))
}

func TestCreateSubscription_ExplicitStatus(t *testing.T) {
	c, _ := newMockClient(t)

	got, err := c.CreateSubscription(context.Background(), CreateSubscriptionRequest{
		EventTypeID: "et_order_created",
		Endpoint:    "https://x.test/hook",
		Status:      model.SubscriptionPaused,
	})
	require.NoError(t, err)
	assert.Equal(t, model.SubscriptionPaused, got.Status)
}

func TestCreateSubscription_UnknownStatusFailsLocally(t *testing.T) {
	c, mock := newMockClient(t)

	_, err := c.CreateSubscription(context.Background(), CreateSubscriptionRequest{
		EventTypeID: "et_order_created",
		Endpoint:    "https://x.test/hook",
		Status:      "cancelled",
	})
	var ve *model.ValidationError
	require.True(t, errors.As(err, &ve))
	assert.Equal(t, "status", ve.Field)
	assert.Empty(t, mock.Requests())
}

func TestListSubscriptions_ServerOrder(t *testing.T) {
	c, mock := newMockClient(t)
	created := time.Date(2025, 4, 1, 0, 0, 0, 0, time.UTC)
	mock.AddSubscription(model.Subscription{ID: "sub_z", EventTypeID: "et_order_created", Endpoint: "https://z.test", Status: model.SubscriptionFailed, CreatedAt: created})
	mock.AddSubscription(model.Subscription{ID: "sub_a", EventTypeID: "et_order_created", Endpoint: "https://a.test", Status: model.SubscriptionPaused, CreatedAt: created})

	got, err := c.ListSubscriptions(context.Background())
	require.NoError(t, err)

	ids := make([]string, len(got))
	for i, s := range got {
		ids[i] = s.ID
	}
	assert.Equal(t, []string{"sub_orders", "sub_z", "sub_a"}, ids)
}

func TestListDispatchJobs_ThreeInOrder(t *testing.T) {
	c, _ := newMockClient(t)

	got, err := c.ListDispatchJobs(context.Background())
	require.NoError(t, err)
	require.Len(t, got, 3)

	assert.Equal(t, "job_1", got[0].ID)
	assert.Equal(t, model.DispatchCompleted, got[0].Status)
	require.NotNil(t, got[0].CompletedAt)
	assert.Equal(t, "job_2", got[1].ID)
	assert.Equal(t, 2, got[1].Attempts)
	assert.Nil(t, got[1].CompletedAt)
	assert.Equal(t, "job_3", got[2].ID)
	assert.Equal(t, model.DispatchPending, got[2].Status)
}

func TestListDispatchJobs_Empty(t *testing.T) {
	c, mock := newMockClient(t)
	mock.SetDispatchJobs(nil)

	got, err := c.ListDispatchJobs(context.Background())
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestGetDispatchJob(t *testing.T) {
	c, _ := newMockClient(t)

	got, err := c.GetDispatchJob(context.Background(), "job_2")
	require.NoError(t, err)
	assert.Equal(t, "evt_2", got.EventID)
	assert.Equal(t, "sub_orders", got.SubscriptionID)
	assert.Equal(t, model.DispatchProcessing, got.Status)
}

func TestAuthorizationHeader(t *testing.T) {
	t.Run("with key", func(t *testing.T) {
		c, mock := newMockClient(t, WithAPIKey("fc_live_123"))
		_, err := c.ListEventTypes(context.Background())
		require.NoError(t, err)
		req, _ := mock.LastRequest()
		assert.Equal(t, "Bearer fc_live_123", req.Header.Get("Authorization"))
	})

	t.Run("without key", func(t *testing.T) {
		c, mock := newMockClient(t)
		_, err := c.ListEventTypes(context.Background())
		require.NoError(t, err)
		req, _ := mock.LastRequest()
		_, present := req.Header["Authorization"]
		assert.False(t, present)
	})
}

func TestUserAgent(t *testing.T) {
	c, mock := newMockClient(t, WithUserAgent("billing-worker/1.4"))
	_, err := c.ListDispatchJobs(context.Background())
	require.NoError(t, err)
	req, _ := mock.LastRequest()
	assert.Equal(t, "billing-worker/1.4", req.Header.Get("User-Agent"))
}

func TestRequestIDsAreUnique(t *testing.T) {
	c, mock := newMockClient(t)
	for i := 0; i < 3; i++ {
		_, err := c.ListEventTypes(context.Background())
		require.NoError(t, err)
	}
	seen := map[string]bool{}
	for _, r := range mock.Requests() {
		id := r.Header.Get(HeaderRequestID)
		assert.False(t, seen[id], "duplicate request id %s", id)
		seen[id] = true
	}
}

func TestServerErrorIsNotRetried(t *testing.T) {
	c, mock := newMockClient(t)
	mock.SetFailures("/api/dispatch-jobs", 503, 1, `{"error":"maintenance"}`)

	_, err := c.ListDispatchJobs(context.Background())
	assert.ErrorIs(t, err, ErrServer)
	assert.Len(t, mock.Requests(), 1)

	got, err := c.ListDispatchJobs(context.Background())
	require.NoError(t, err)
	assert.Len(t, got, 3)
}

func TestTrailingSlashBaseURL(t *testing.T) {
	mock := NewMockServer()
	defer mock.Close()

	c, err := New(mock.URL()+"/", WithoutTracing())
	require.NoError(t, err)
	defer func() { _ = c.Close() }()

	_, err = c.ListEventTypes(context.Background())
	require.NoError(t, err)
	req, _ := mock.LastRequest()
	assert.Equal(t, "/api/event-types", req.Path)
}
