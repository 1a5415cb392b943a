// Package httpx builds the HTTP sessions used to talk to the platform API.
package httpx

import (
	"net"
	"net/http"
	"time"

	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"go.opentelemetry.io/otel/trace"
)

const (
	DefaultTimeout = 30 * time.Second

	defaultDialTimeout           = 3 * time.Second
	defaultIdleConnTimeout       = 90 * time.Second
	defaultExpectContinueTimeout = 1 * time.Second
	defaultMaxIdleConns          = 16
	defaultMaxIdleConnsPerHost   = 8
)

// NewClient returns a hardened HTTP client whose overall deadline is timeout.
// A non-positive timeout selects DefaultTimeout.
func NewClient(timeout time.Duration) *http.Client {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}

	dialTimeout := timeout
	if dialTimeout > defaultDialTimeout {
		dialTimeout = defaultDialTimeout
	}

	return &http.Client{
		Timeout: timeout,
		Transport: &http.Transport{
			Proxy:                 http.ProxyFromEnvironment,
			DialContext:           (&net.Dialer{Timeout: dialTimeout, KeepAlive: 30 * time.Second}).DialContext,
			ForceAttemptHTTP2:     true,
			MaxIdleConns:          defaultMaxIdleConns,
			MaxIdleConnsPerHost:   defaultMaxIdleConnsPerHost,
			IdleConnTimeout:       defaultIdleConnTimeout,
			TLSHandshakeTimeout:   dialTimeout,
			ResponseHeaderTimeout: timeout,
			ExpectContinueTimeout: defaultExpectContinueTimeout,
		},
	}
}

// SessionOptions describes one API session.
type SessionOptions struct {
	Timeout time.Duration
	// APIKey, when set, is sent as a bearer token on every request.
	APIKey string
	// Base replaces the hardened transport, mostly for tests.
	Base http.RoundTripper
	// Tracing wraps the transport with otelhttp client spans.
	Tracing bool
	// TracerProvider overrides the global provider for those spans.
	TracerProvider trace.TracerProvider
}

// NewSession returns a client configured once with timeout, tracing and
// authentication. Requests issued through it need no further setup.
func NewSession(opts SessionOptions) *http.Client {
	c := NewClient(opts.Timeout)
	if opts.Base != nil {
		c.Transport = opts.Base
	}
	if opts.Tracing {
		var otelOpts []otelhttp.Option
		if opts.TracerProvider != nil {
			otelOpts = append(otelOpts, otelhttp.WithTracerProvider(opts.TracerProvider))
		}
		c.Transport = otelhttp.NewTransport(c.Transport, otelOpts...)
	}
	if opts.APIKey != "" {
		c.Transport = &BearerTransport{Token: opts.APIKey, Base: c.Transport}
	}
	return c
}

// BearerTransport adds an Authorization bearer header to each request.
type BearerTransport struct {
	Token string
	Base  http.RoundTripper
}

func (t *BearerTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	// RoundTrippers must not mutate the caller's request.
	r := req.Clone(req.Context())
	r.Header.Set("Authorization", "Bearer "+t.Token)
	return t.base().RoundTrip(r)
}

// CloseIdleConnections forwards to the wrapped transport.
func (t *BearerTransport) CloseIdleConnections() {
	type closeIdler interface{ CloseIdleConnections() }
	if ci, ok := t.base().(closeIdler); ok {
		ci.CloseIdleConnections()
	}
}

func (t *BearerTransport) base() http.RoundTripper {
	if t.Base != nil {
		return t.Base
	}
	return http.DefaultTransport
}
