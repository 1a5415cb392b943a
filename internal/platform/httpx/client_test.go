package httpx

import (
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewClient_DefaultTimeoutAndTransport(t *testing.T) {
	client := NewClient(0)
	if client.Timeout != DefaultTimeout {
		t.Fatalf("timeout = %v, want %v", client.Timeout, DefaultTimeout)
	}
	transport, ok := client.Transport.(*http.Transport)
	if !ok {
		t.Fatalf("transport type = %T, want *http.Transport", client.Transport)
	}
	if transport.MaxIdleConns != defaultMaxIdleConns {
		t.Fatalf("MaxIdleConns = %d, want %d", transport.MaxIdleConns, defaultMaxIdleConns)
	}
	if transport.MaxIdleConnsPerHost != defaultMaxIdleConnsPerHost {
		t.Fatalf("MaxIdleConnsPerHost = %d, want %d", transport.MaxIdleConnsPerHost, defaultMaxIdleConnsPerHost)
	}
	if transport.ResponseHeaderTimeout != DefaultTimeout {
		t.Fatalf("ResponseHeaderTimeout = %v, want %v", transport.ResponseHeaderTimeout, DefaultTimeout)
	}
}

func TestNewClient_CapsDialTimeout(t *testing.T) {
	client := NewClient(10 * time.Second)
	transport, ok := client.Transport.(*http.Transport)
	if !ok {
		t.Fatalf("transport type = %T, want *http.Transport", client.Transport)
	}
	if transport.TLSHandshakeTimeout != defaultDialTimeout {
		t.Fatalf("TLSHandshakeTimeout = %v, want %v", transport.TLSHandshakeTimeout, defaultDialTimeout)
	}

	short := NewClient(1500 * time.Millisecond)
	transport = short.Transport.(*http.Transport)
	if transport.TLSHandshakeTimeout != 1500*time.Millisecond {
		t.Fatalf("TLSHandshakeTimeout = %v, want 1.5s", transport.TLSHandshakeTimeout)
	}
}

func TestNewSession_Authorization(t *testing.T) {
	var (
		mu  sync.Mutex
		got []string
	)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		mu.Lock()
		defer mu.Unlock()
		got = append(got, r.Header.Get("Authorization"))
		w.WriteHeader(http.StatusNoContent)
	}))
	defer srv.Close()

	withKey := NewSession(SessionOptions{Timeout: time.Second, APIKey: "secret"})
	withoutKey := NewSession(SessionOptions{Timeout: time.Second})

	for _, c := range []*http.Client{withKey, withoutKey} {
		req, err := http.NewRequest(http.MethodGet, srv.URL, nil)
		require.NoError(t, err)
		resp, err := c.Do(req)
		require.NoError(t, err)
		_ = resp.Body.Close()
		assert.Empty(t, req.Header.Get("Authorization"), "caller request must not be mutated")
	}

	mu.Lock()
	defer mu.Unlock()
	require.Len(t, got, 2)
	assert.Equal(t, "Bearer secret", got[0])
	assert.Empty(t, got[1])
}

func TestNewSession_TracingWrapsTransport(t *testing.T) {
	c := NewSession(SessionOptions{Tracing: true})
	_, isPlain := c.Transport.(*http.Transport)
	assert.False(t, isPlain)

	c = NewSession(SessionOptions{Tracing: true, APIKey: "k"})
	_, isBearer := c.Transport.(*BearerTransport)
	assert.True(t, isBearer)
}
