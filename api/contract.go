// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

// Package api embeds the OpenAPI description of the platform's /api surface
// and validates payloads against it.
package api

import (
	"context"
	_ "embed"
	"encoding/json"
	"fmt"
	"sync"

	"github.com/getkin/kin-openapi/openapi3"
)

//go:embed openapi.yaml
var document []byte

// Operation IDs declared in openapi.yaml.
const (
	OpListEventTypes     = "listEventTypes"
	OpGetEventType       = "getEventType"
	OpCreateEventType    = "createEventType"
	OpListSubscriptions  = "listSubscriptions"
	OpGetSubscription    = "getSubscription"
	OpCreateSubscription = "createSubscription"
	OpListDispatchJobs   = "listDispatchJobs"
	OpGetDispatchJob     = "getDispatchJob"
)

var (
	loadOnce sync.Once
	loaded   *openapi3.T
	loadErr  error
)

// Load parses and validates the embedded document.
func Load(ctx context.Context) (*openapi3.T, error) {
	loader := openapi3.NewLoader()
	loader.Context = ctx
	doc, err := loader.LoadFromData(document)
	if err != nil {
		return nil, fmt.Errorf("api: parse openapi document: %w", err)
	}
	if err := doc.Validate(ctx); err != nil {
		return nil, fmt.Errorf("api: invalid openapi document: %w", err)
	}
	return doc, nil
}

// Document returns the embedded document, loading it on first use.
func Document() (*openapi3.T, error) {
	loadOnce.Do(func() {
		loaded, loadErr = Load(context.Background())
	})
	return loaded, loadErr
}

// Raw returns the embedded YAML bytes.
func Raw() []byte {
	out := make([]byte, len(document))
	copy(out, document)
	return out
}

func operation(operationID string) (*openapi3.Operation, error) {
	doc, err := Document()
	if err != nil {
		return nil, err
	}
	for _, item := range doc.Paths.Map() {
		for _, op := range item.Operations() {
			if op.OperationID == operationID {
				return op, nil
			}
		}
	}
	return nil, fmt.Errorf("api: unknown operation %q", operationID)
}

// ValidateRequestBody checks a JSON request body against the operation's
// request schema.
func ValidateRequestBody(operationID string, body []byte) error {
	op, err := operation(operationID)
	if err != nil {
		return err
	}
	if op.RequestBody == nil || op.RequestBody.Value == nil {
		return fmt.Errorf("api: operation %q takes no request body", operationID)
	}
	media := op.RequestBody.Value.Content.Get("application/json")
	if media == nil || media.Schema == nil {
		return fmt.Errorf("api: operation %q has no JSON request schema", operationID)
	}
	return visit(media.Schema.Value, body)
}

// ValidateResponseBody checks a JSON response body against the schema
// declared for status.
func ValidateResponseBody(operationID string, status int, body []byte) error {
	op, err := operation(operationID)
	if err != nil {
		return err
	}
	ref := op.Responses.Status(status)
	if ref == nil || ref.Value == nil {
		return fmt.Errorf("api: operation %q declares no %d response", operationID, status)
	}
	media := ref.Value.Content.Get("application/json")
	if media == nil || media.Schema == nil {
		return fmt.Errorf("api: operation %q %d has no JSON schema", operationID, status)
	}
	return visit(media.Schema.Value, body)
}

func visit(schema *openapi3.Schema, body []byte) error {
	var v any
	if err := json.Unmarshal(body, &v); err != nil {
		return fmt.Errorf("api: body is not JSON: %w", err)
	}
	if err := schema.VisitJSON(v); err != nil {
		return fmt.Errorf("api: schema mismatch: %w", err)
	}
	return nil
}
