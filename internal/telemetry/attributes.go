// SPDX-License-Identifier: MIT

package telemetry

import (
	"go.opentelemetry.io/otel/attribute"
)

// Common attribute keys for consistent tracing across the SDK.
const (
	// HTTP attributes
	HTTPMethodKey     = "http.method"
	HTTPStatusCodeKey = "http.status_code"
	HTTPRouteKey      = "http.route"

	// API attributes
	OperationKey  = "flowcatalyst.operation"
	ResourceKey   = "flowcatalyst.resource"
	ResourceIDKey = "flowcatalyst.resource_id"
	ResultCount   = "flowcatalyst.result_count"
	RequestIDKey  = "flowcatalyst.request_id"

	// Webhook attributes
	WebhookResultKey = "flowcatalyst.webhook.result"

	// Error attributes
	ErrorKey     = "error"
	ErrorTypeKey = "error.type"
)

// OperationAttributes describes one facade operation. Empty id is omitted.
func OperationAttributes(operation, resource, id string) []attribute.KeyValue {
	attrs := []attribute.KeyValue{
		attribute.String(OperationKey, operation),
		attribute.String(ResourceKey, resource),
	}
	if id != "" {
		attrs = append(attrs, attribute.String(ResourceIDKey, id))
	}
	return attrs
}

// HTTPAttributes creates common HTTP span attributes.
func HTTPAttributes(method, route string, statusCode int) []attribute.KeyValue {
	return []attribute.KeyValue{
		attribute.String(HTTPMethodKey, method),
		attribute.String(HTTPRouteKey, route),
		attribute.Int(HTTPStatusCodeKey, statusCode),
	}
}

// ErrorAttributes creates error-related span attributes.
func ErrorAttributes(errorType string) []attribute.KeyValue {
	return []attribute.KeyValue{
		attribute.Bool(ErrorKey, true),
		attribute.String(ErrorTypeKey, errorType),
	}
}
