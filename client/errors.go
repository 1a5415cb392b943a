package client

import (
	"errors"
	"fmt"
	"net/http"
	"regexp"
)

var (
	// Sentinel errors for errors.Is checks on *HTTPError.
	ErrUnauthorized  = errors.New("flowcatalyst: unauthorized")
	ErrForbidden     = errors.New("flowcatalyst: access forbidden")
	ErrNotFound      = errors.New("flowcatalyst: resource not found")
	ErrConflict      = errors.New("flowcatalyst: conflict")
	ErrUnprocessable = errors.New("flowcatalyst: request rejected by validation")
	ErrRateLimited   = errors.New("flowcatalyst: rate limited")
	ErrClientError   = errors.New("flowcatalyst: client error (4xx)")
	ErrServer        = errors.New("flowcatalyst: server error (5xx)")
)

const maxErrorBody = 512

// HTTPError is returned for every non-2xx response. It is never retried.
type HTTPError struct {
	Method     string
	Path       string
	StatusCode int
	Body       string // raw response body
	RequestID  string // X-Request-ID sent with the call
}

func (e *HTTPError) Error() string {
	msg := fmt.Sprintf("flowcatalyst: %s %s: HTTP %d", e.Method, e.Path, e.StatusCode)
	if e.Body != "" {
		msg = fmt.Sprintf("%s: %s", msg, redact(truncate(e.Body, maxErrorBody)))
	}
	return msg
}

// Unwrap exposes the status class sentinel.
func (e *HTTPError) Unwrap() error {
	return sentinelFor(e.StatusCode)
}

func sentinelFor(status int) error {
	switch {
	case status == http.StatusUnauthorized:
		return ErrUnauthorized
	case status == http.StatusForbidden:
		return ErrForbidden
	case status == http.StatusNotFound:
		return ErrNotFound
	case status == http.StatusConflict:
		return ErrConflict
	case status == http.StatusUnprocessableEntity || status == http.StatusBadRequest:
		return ErrUnprocessable
	case status == http.StatusTooManyRequests:
		return ErrRateLimited
	case status >= 400 && status < 500:
		return ErrClientError
	case status >= 500:
		return ErrServer
	}
	return nil
}

// StatusCode returns the HTTP status carried by err, or 0.
func StatusCode(err error) int {
	var he *HTTPError
	if errors.As(err, &he) {
		return he.StatusCode
	}
	return 0
}

var redactions = []struct {
	re   *regexp.Regexp
	repl string
}{
	{regexp.MustCompile(`(?i)\b(token|sid|password|secret|api_key|apikey)=([^\s&"']+)`), "$1=[REDACTED]"},
	{regexp.MustCompile(`(?i)"(token|access_token|password|secret|api_key|apikey)"\s*:\s*"[^"]*"`), `"$1":"[REDACTED]"`},
	{regexp.MustCompile(`(?i)\bbearer\s+[A-Za-z0-9._~+/=-]+`), "Bearer [REDACTED]"},
}

func redact(s string) string {
	for _, r := range redactions {
		s = r.re.ReplaceAllString(s, r.repl)
	}
	return s
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
