// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package model

import (
	"errors"
	"fmt"
)

// ErrValidation is the sentinel matched by every *ValidationError.
var ErrValidation = errors.New("flowcatalyst: validation failed")

// ValidationError reports the first field of a record that does not match
// its declared shape.
type ValidationError struct {
	Record string // EventType, Subscription, DispatchJob
	Field  string // wire key, empty when the whole document is wrong
	Reason string
	Err    error // underlying decode error, if any
}

func (e *ValidationError) Error() string {
	msg := "flowcatalyst: invalid " + e.Record
	if e.Field != "" {
		msg = fmt.Sprintf("%s.%s", msg, e.Field)
	}
	msg = fmt.Sprintf("%s: %s", msg, e.Reason)
	if e.Err != nil {
		msg = fmt.Sprintf("%s: %v", msg, e.Err)
	}
	return msg
}

func (e *ValidationError) Unwrap() error {
	return e.Err
}

// Is makes errors.Is(err, ErrValidation) hold for any ValidationError.
func (e *ValidationError) Is(target error) bool {
	return target == ErrValidation
}

func invalid(record, field, reason string) *ValidationError {
	return &ValidationError{Record: record, Field: field, Reason: reason}
}
