// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

// Package webhook verifies deliveries the FlowCatalyst platform sends to
// subscription endpoints.
//
// Every delivery carries two headers: X-FlowCatalyst-Timestamp, the unix
// time in seconds, and X-FlowCatalyst-Signature, the hex HMAC-SHA256 of the
// timestamp followed by the raw body, keyed with the subscription's signing
// secret.
//
//	v := webhook.NewValidator(secret)
//	http.Handle("/hooks/orders", webhook.Middleware(v)(handler))
package webhook

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"sync"
	"time"
)

const (
	// SignatureHeader carries the hex HMAC-SHA256 signature.
	SignatureHeader = "X-FlowCatalyst-Signature"
	// TimestampHeader carries the signing time in unix seconds.
	TimestampHeader = "X-FlowCatalyst-Timestamp"

	DefaultTolerance   = 300 * time.Second
	DefaultFutureGrace = 60 * time.Second
)

var (
	ErrInvalidSignature  = errors.New("webhook: invalid signature")
	ErrTimestampExpired  = errors.New("webhook: timestamp expired")
	ErrTimestampInFuture = errors.New("webhook: timestamp in the future")
	ErrMissingHeader     = errors.New("webhook: missing header")
	ErrReplay            = errors.New("webhook: delivery already received")
)

// Validator checks delivery signatures. It is safe for concurrent use and
// its secret may be rotated with SetSecret.
type Validator struct {
	mu     sync.RWMutex
	secret []byte

	tolerance   time.Duration
	futureGrace time.Duration
	now         func() time.Time
}

// ValidatorOption configures a Validator.
type ValidatorOption func(*Validator)

// WithTolerance sets the maximum accepted age of a timestamp.
func WithTolerance(d time.Duration) ValidatorOption {
	return func(v *Validator) {
		if d > 0 {
			v.tolerance = d
		}
	}
}

// WithFutureGrace sets how far ahead of the local clock a timestamp may be.
func WithFutureGrace(d time.Duration) ValidatorOption {
	return func(v *Validator) {
		if d >= 0 {
			v.futureGrace = d
		}
	}
}

// WithClock replaces time.Now.
func WithClock(now func() time.Time) ValidatorOption {
	return func(v *Validator) { v.now = now }
}

// NewValidator returns a Validator for secret with a 300s tolerance and a
// 60s future grace.
func NewValidator(secret string, opts ...ValidatorOption) *Validator {
	v := &Validator{
		secret:      []byte(secret),
		tolerance:   DefaultTolerance,
		futureGrace: DefaultFutureGrace,
		now:         time.Now,
	}
	for _, opt := range opts {
		opt(v)
	}
	return v
}

// SetSecret replaces the signing secret.
func (v *Validator) SetSecret(secret string) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.secret = []byte(secret)
}

// Tolerance returns the maximum accepted timestamp age.
func (v *Validator) Tolerance() time.Duration { return v.tolerance }

// FutureGrace returns the accepted clock skew into the future.
func (v *Validator) FutureGrace() time.Duration { return v.futureGrace }

// Validate checks signature and timestamp against body. The timestamp is
// checked first, so a stale delivery fails with ErrTimestampExpired even if
// its signature is valid.
func (v *Validator) Validate(signature, timestamp string, body []byte) error {
	if signature == "" {
		return fmt.Errorf("%w: %s", ErrMissingHeader, SignatureHeader)
	}
	if timestamp == "" {
		return fmt.Errorf("%w: %s", ErrMissingHeader, TimestampHeader)
	}
	ts, err := ParseTimestamp(timestamp)
	if err != nil {
		return err
	}
	if err := v.checkTimestamp(ts); err != nil {
		return err
	}

	expected := v.ComputeSignature(timestamp, body)
	if !hmac.Equal([]byte(expected), []byte(CanonicalSignature(signature))) {
		return fmt.Errorf("%w: signature mismatch", ErrInvalidSignature)
	}
	return nil
}

func (v *Validator) checkTimestamp(ts time.Time) error {
	now := v.now()
	if ts.Add(v.tolerance).Before(now) {
		return fmt.Errorf("%w: signed %s ago", ErrTimestampExpired, now.Sub(ts).Truncate(time.Second))
	}
	if ts.After(now.Add(v.futureGrace)) {
		return fmt.Errorf("%w: signed %s ahead", ErrTimestampInFuture, ts.Sub(now).Truncate(time.Second))
	}
	return nil
}

// CanonicalSignature returns the form of signature that Validate compares:
// trimmed and lowercased. Two headers that validate for the same delivery
// have the same canonical form.
func CanonicalSignature(signature string) string {
	return strings.ToLower(strings.TrimSpace(signature))
}

// ComputeSignature returns the hex HMAC-SHA256 of timestamp followed by body.
func (v *Validator) ComputeSignature(timestamp string, body []byte) string {
	v.mu.RLock()
	mac := hmac.New(sha256.New, v.secret)
	v.mu.RUnlock()

	mac.Write([]byte(timestamp))
	mac.Write(body)
	return hex.EncodeToString(mac.Sum(nil))
}

// Sign signs body at the current time and returns the header values.
func (v *Validator) Sign(body []byte) (signature, timestamp string) {
	timestamp = strconv.FormatInt(v.now().Unix(), 10)
	return v.ComputeSignature(timestamp, body), timestamp
}

// ParseTimestamp parses a unix-seconds header value.
func ParseTimestamp(s string) (time.Time, error) {
	secs, err := strconv.ParseInt(strings.TrimSpace(s), 10, 64)
	if err != nil || secs < 0 {
		return time.Time{}, fmt.Errorf("%w: invalid timestamp format %q", ErrInvalidSignature, s)
	}
	return time.Unix(secs, 0), nil
}
