// SPDX-License-Identifier: MIT

package webhook

import (
	"fmt"
	"net/http"
)

// Headers holds the signature headers of one delivery.
type Headers struct {
	Signature string
	Timestamp string
}

// HeadersFrom extracts the signature headers, failing with ErrMissingHeader
// when either is absent.
func HeadersFrom(h http.Header) (Headers, error) {
	sig := h.Get(SignatureHeader)
	if sig == "" {
		return Headers{}, fmt.Errorf("%w: %s", ErrMissingHeader, SignatureHeader)
	}
	ts := h.Get(TimestampHeader)
	if ts == "" {
		return Headers{}, fmt.Errorf("%w: %s", ErrMissingHeader, TimestampHeader)
	}
	return Headers{Signature: sig, Timestamp: ts}, nil
}

// Apply sets the headers on h.
func (hd Headers) Apply(h http.Header) {
	h.Set(SignatureHeader, hd.Signature)
	h.Set(TimestampHeader, hd.Timestamp)
}
