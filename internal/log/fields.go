// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package log

// Canonical field name constants for structured logging.
const (
	// Identity fields
	FieldRequestID      = "request_id"
	FieldCorrelationID  = "correlation_id"
	FieldEventTypeID    = "event_type_id"
	FieldSubscriptionID = "subscription_id"
	FieldDispatchJobID  = "dispatch_job_id"
	FieldDeliveryID     = "delivery_id"

	// Process fields
	FieldService   = "service"
	FieldVersion   = "version"
	FieldComponent = "component"
	FieldEvent     = "event"
	FieldOperation = "operation"

	// HTTP fields
	FieldMethod     = "method"
	FieldPath       = "path"
	FieldBaseURL    = "base_url"
	FieldStatusCode = "status_code"
	FieldDuration   = "duration"
	FieldListenAddr = "listen_addr"
)
