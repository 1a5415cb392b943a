// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package client

import (
	"context"
	"net/http"

	"github.com/ManuGH/flowcatalyst/model"
)

const resourceSubscriptions = "subscriptions"

// CreateSubscriptionRequest is the body of POST /api/subscriptions.
type CreateSubscriptionRequest struct {
	EventTypeID string                   `json:"event_type_id"`
	Endpoint    string                   `json:"endpoint"`
	Status      model.SubscriptionStatus `json:"status"`
}

// ListSubscriptions returns every subscription in server order.
func (c *Client) ListSubscriptions(ctx context.Context) ([]model.Subscription, error) {
	var out []model.Subscription
	err := c.run(ctx, call{
		operation: "list_subscriptions",
		resource:  resourceSubscriptions,
		record:    "Subscription",
		method:    http.MethodGet,
		path:      "/api/" + resourceSubscriptions,
	}, func(body []byte) (err error) {
		out, err = model.DecodeSubscriptions(body)
		return err
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// GetSubscription fetches one subscription.
func (c *Client) GetSubscription(ctx context.Context, id string) (*model.Subscription, error) {
	var out model.Subscription
	err := c.run(ctx, call{
		operation: "get_subscription",
		resource:  resourceSubscriptions,
		record:    "Subscription",
		method:    http.MethodGet,
		path:      itemPath(resourceSubscriptions, id),
		id:        id,
	}, func(body []byte) (err error) {
		out, err = model.DecodeSubscription(body)
		return err
	})
	if err != nil {
		return nil, err
	}
	return &out, nil
}

// CreateSubscription subscribes endpoint to an event type. An empty status
// is sent as active; any status outside the known set fails before the
// request is made.
func (c *Client) CreateSubscription(ctx context.Context, req CreateSubscriptionRequest) (*model.Subscription, error) {
	if req.Status == "" {
		req.Status = model.SubscriptionActive
	}
	if !req.Status.Valid() {
		return nil, &model.ValidationError{
			Record: "CreateSubscriptionRequest",
			Field:  "status",
			Reason: "unknown status " + string(req.Status),
		}
	}
	var out model.Subscription
	err := c.run(ctx, call{
		operation: "create_subscription",
		resource:  resourceSubscriptions,
		record:    "Subscription",
		method:    http.MethodPost,
		path:      "/api/" + resourceSubscriptions,
		body:      req,
	}, func(body []byte) (err error) {
		out, err = model.DecodeSubscription(body)
		return err
	})
	if err != nil {
		return nil, err
	}
	return &out, nil
}
