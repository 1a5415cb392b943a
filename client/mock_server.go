// SPDX-License-Identifier: MIT

package client

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/ManuGH/flowcatalyst/api"
	"github.com/ManuGH/flowcatalyst/model"
)

// MockServer is an in-memory FlowCatalyst API for tests. It keeps records in
// insertion order, validates POST bodies against the embedded OpenAPI
// contract and records every request it receives.
type MockServer struct {
	*httptest.Server

	mu            sync.RWMutex
	eventTypes    []model.EventType
	subscriptions []model.Subscription
	dispatchJobs  []model.DispatchJob
	requests      []RecordedRequest
	failures      map[string]mockFailure
	raw           map[string]mockFailure
	delay         map[string]time.Duration
	now           func() time.Time
}

// RecordedRequest is one request seen by the MockServer.
type RecordedRequest struct {
	Method string
	Path   string
	Header http.Header
	Body   []byte
}

type mockFailure struct {
	status int
	body   string
	count  int // remaining; negative means forever
}

// NewMockServer starts a MockServer with default data.
func NewMockServer() *MockServer {
	m := &MockServer{
		failures: make(map[string]mockFailure),
		raw:      make(map[string]mockFailure),
		delay:    make(map[string]time.Duration),
		now:      func() time.Time { return time.Now().UTC() },
	}
	m.SetDefaultData()

	r := chi.NewRouter()
	r.Use(m.intercept)
	r.Route("/api", func(r chi.Router) {
		r.Get("/event-types", m.handleListEventTypes)
		r.Post("/event-types", m.handleCreateEventType)
		r.Get("/event-types/{id}", m.handleGetEventType)
		r.Get("/subscriptions", m.handleListSubscriptions)
		r.Post("/subscriptions", m.handleCreateSubscription)
		r.Get("/subscriptions/{id}", m.handleGetSubscription)
		r.Get("/dispatch-jobs", m.handleListDispatchJobs)
		r.Get("/dispatch-jobs/{id}", m.handleGetDispatchJob)
	})

	m.Server = httptest.NewServer(r)
	return m
}

// SetDefaultData replaces all records with a small realistic data set.
func (m *MockServer) SetDefaultData() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.setDefaultDataNoLock()
}

func (m *MockServer) setDefaultDataNoLock() {
	created := time.Date(2025, 3, 1, 9, 30, 0, 0, time.UTC)
	done := created.Add(2 * time.Second)

	m.eventTypes = []model.EventType{{
		ID:      "et_order_created",
		Name:    "order.created",
		Version: "1.0",
		Schema: map[string]any{
			"type":     "object",
			"required": []any{"order_id"},
		},
		CreatedAt: created,
	}}
	m.subscriptions = []model.Subscription{{
		ID:          "sub_orders",
		EventTypeID: "et_order_created",
		Endpoint:    "https://hooks.example.com/orders",
		Status:      model.SubscriptionActive,
		CreatedAt:   created,
	}}
	m.dispatchJobs = []model.DispatchJob{
		{ID: "job_1", EventID: "evt_1", SubscriptionID: "sub_orders", Status: model.DispatchCompleted, Attempts: 1, CreatedAt: created, CompletedAt: &done},
		{ID: "job_2", EventID: "evt_2", SubscriptionID: "sub_orders", Status: model.DispatchProcessing, Attempts: 2, CreatedAt: created.Add(time.Minute)},
		{ID: "job_3", EventID: "evt_3", SubscriptionID: "sub_orders", Status: model.DispatchPending, CreatedAt: created.Add(2 * time.Minute)},
	}
}

// Reset clears recorded requests, injected failures and delays, and restores
// the default data.
func (m *MockServer) Reset() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.requests = nil
	m.failures = make(map[string]mockFailure)
	m.raw = make(map[string]mockFailure)
	m.delay = make(map[string]time.Duration)
	m.setDefaultDataNoLock()
}

// AddEventType appends an event type.
func (m *MockServer) AddEventType(e model.EventType) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.eventTypes = append(m.eventTypes, e)
}

// AddSubscription appends a subscription.
func (m *MockServer) AddSubscription(s model.Subscription) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.subscriptions = append(m.subscriptions, s)
}

// SetDispatchJobs replaces the dispatch jobs, keeping their order.
func (m *MockServer) SetDispatchJobs(jobs []model.DispatchJob) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.dispatchJobs = append([]model.DispatchJob(nil), jobs...)
}

// SetFailures makes the next count requests to path answer with status and
// body. A negative count fails forever.
func (m *MockServer) SetFailures(path string, status, count int, body string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.failures[path] = mockFailure{status: status, body: body, count: count}
}

// SetRawResponse makes every request to path answer with status and the
// given body verbatim.
func (m *MockServer) SetRawResponse(path string, status int, body string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.raw[path] = mockFailure{status: status, body: body, count: -1}
}

// SetDelay holds responses to path for d, or until the request is cancelled.
func (m *MockServer) SetDelay(path string, d time.Duration) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.delay[path] = d
}

// Requests returns a copy of the requests received so far.
func (m *MockServer) Requests() []RecordedRequest {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]RecordedRequest, len(m.requests))
	copy(out, m.requests)
	return out
}

// LastRequest returns the most recent request, if any.
func (m *MockServer) LastRequest() (RecordedRequest, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if len(m.requests) == 0 {
		return RecordedRequest{}, false
	}
	return m.requests[len(m.requests)-1], true
}

// URL returns the mock server's base URL.
func (m *MockServer) URL() string {
	return m.Server.URL
}

func (m *MockServer) intercept(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		_ = r.Body.Close()
		r.Body = io.NopCloser(bytes.NewReader(body))

		m.mu.Lock()
		m.requests = append(m.requests, RecordedRequest{
			Method: r.Method,
			Path:   r.URL.EscapedPath(),
			Header: r.Header.Clone(),
			Body:   body,
		})
		delay := m.delay[r.URL.Path]
		fail, failing := m.failures[r.URL.Path]
		if failing {
			switch {
			case fail.count > 1:
				fail.count--
				m.failures[r.URL.Path] = fail
			case fail.count == 1:
				delete(m.failures, r.URL.Path)
			}
		}
		raw, hasRaw := m.raw[r.URL.Path]
		m.mu.Unlock()

		if delay > 0 {
			select {
			case <-time.After(delay):
			case <-r.Context().Done():
				return
			}
		}
		if failing && fail.count != 0 {
			writeRaw(w, fail.status, fail.body)
			return
		}
		if hasRaw {
			writeRaw(w, raw.status, raw.body)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (m *MockServer) handleListEventTypes(w http.ResponseWriter, _ *http.Request) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	writeJSON(w, http.StatusOK, append([]model.EventType{}, m.eventTypes...))
}

func (m *MockServer) handleGetEventType(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	m.mu.RLock()
	defer m.mu.RUnlock()
	for _, e := range m.eventTypes {
		if e.ID == id {
			writeJSON(w, http.StatusOK, e)
			return
		}
	}
	writeError(w, http.StatusNotFound, "event type not found: "+id)
}

func (m *MockServer) handleCreateEventType(w http.ResponseWriter, r *http.Request) {
	var req CreateEventTypeRequest
	if !decodeValidated(w, r, api.OpCreateEventType, &req) {
		return
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	e := model.EventType{
		ID:        uuid.NewString(),
		Name:      req.Name,
		Version:   req.Version,
		Schema:    req.Schema,
		CreatedAt: m.now(),
	}
	m.eventTypes = append(m.eventTypes, e)
	writeJSON(w, http.StatusCreated, e)
}

func (m *MockServer) handleListSubscriptions(w http.ResponseWriter, _ *http.Request) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	writeJSON(w, http.StatusOK, append([]model.Subscription{}, m.subscriptions...))
}

func (m *MockServer) handleGetSubscription(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	m.mu.RLock()
	defer m.mu.RUnlock()
	for _, s := range m.subscriptions {
		if s.ID == id {
			writeJSON(w, http.StatusOK, s)
			return
		}
	}
	writeError(w, http.StatusNotFound, "subscription not found: "+id)
}

func (m *MockServer) handleCreateSubscription(w http.ResponseWriter, r *http.Request) {
	var req CreateSubscriptionRequest
	if !decodeValidated(w, r, api.OpCreateSubscription, &req) {
		return
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	known := false
	for _, e := range m.eventTypes {
		if e.ID == req.EventTypeID {
			known = true
			break
		}
	}
	if !known {
		writeError(w, http.StatusUnprocessableEntity, "unknown event type: "+req.EventTypeID)
		return
	}
	status := req.Status
	if status == "" {
		status = model.SubscriptionActive
	}
	s := model.Subscription{
		ID:          uuid.NewString(),
		EventTypeID: req.EventTypeID,
		Endpoint:    req.Endpoint,
		Status:      status,
		CreatedAt:   m.now(),
	}
	m.subscriptions = append(m.subscriptions, s)
	writeJSON(w, http.StatusCreated, s)
}

func (m *MockServer) handleListDispatchJobs(w http.ResponseWriter, _ *http.Request) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	writeJSON(w, http.StatusOK, append([]model.DispatchJob{}, m.dispatchJobs...))
}

func (m *MockServer) handleGetDispatchJob(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	m.mu.RLock()
	defer m.mu.RUnlock()
	for _, j := range m.dispatchJobs {
		if j.ID == id {
			writeJSON(w, http.StatusOK, j)
			return
		}
	}
	writeError(w, http.StatusNotFound, "dispatch job not found: "+id)
}

// decodeValidated checks the body against the contract and decodes it into
// dst, answering 422 on mismatch.
func decodeValidated(w http.ResponseWriter, r *http.Request, op string, dst any) bool {
	body, err := io.ReadAll(r.Body)
	if err != nil {
		writeError(w, http.StatusBadRequest, "read body: "+err.Error())
		return false
	}
	if err := api.ValidateRequestBody(op, body); err != nil {
		writeError(w, http.StatusUnprocessableEntity, err.Error())
		return false
	}
	if err := json.Unmarshal(body, dst); err != nil {
		writeError(w, http.StatusUnprocessableEntity, err.Error())
		return false
	}
	return true
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, model.APIResponse[struct{}]{Error: &msg})
}

func writeRaw(w http.ResponseWriter, status int, body string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, _ = io.WriteString(w, body)
}
