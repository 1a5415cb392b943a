// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package client

import (
	"context"
	"net/http"

	"github.com/ManuGH/flowcatalyst/model"
)

const resourceEventTypes = "event-types"

// CreateEventTypeRequest is the body of POST /api/event-types.
type CreateEventTypeRequest struct {
	Name    string         `json:"name"`
	Version string         `json:"version"`
	Schema  map[string]any `json:"schema"`
}

// ListEventTypes returns every event type in server order.
func (c *Client) ListEventTypes(ctx context.Context) ([]model.EventType, error) {
	var out []model.EventType
	err := c.run(ctx, call{
		operation: "list_event_types",
		resource:  resourceEventTypes,
		record:    "EventType",
		method:    http.MethodGet,
		path:      "/api/" + resourceEventTypes,
	}, func(body []byte) (err error) {
		out, err = model.DecodeEventTypes(body)
		return err
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// GetEventType fetches one event type. An unknown id yields an *HTTPError
// matching ErrNotFound.
func (c *Client) GetEventType(ctx context.Context, id string) (*model.EventType, error) {
	var out model.EventType
	err := c.run(ctx, call{
		operation: "get_event_type",
		resource:  resourceEventTypes,
		record:    "EventType",
		method:    http.MethodGet,
		path:      itemPath(resourceEventTypes, id),
		id:        id,
	}, func(body []byte) (err error) {
		out, err = model.DecodeEventType(body)
		return err
	})
	if err != nil {
		return nil, err
	}
	return &out, nil
}

// CreateEventType registers a new event type and returns the server's record.
// A nil schema is sent as an empty object.
func (c *Client) CreateEventType(ctx context.Context, req CreateEventTypeRequest) (*model.EventType, error) {
	if req.Schema == nil {
		req.Schema = map[string]any{}
	}
	var out model.EventType
	err := c.run(ctx, call{
		operation: "create_event_type",
		resource:  resourceEventTypes,
		record:    "EventType",
		method:    http.MethodPost,
		path:      "/api/" + resourceEventTypes,
		body:      req,
	}, func(body []byte) (err error) {
		out, err = model.DecodeEventType(body)
		return err
	})
	if err != nil {
		return nil, err
	}
	return &out, nil
}
