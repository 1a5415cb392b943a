// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

// Package client is a Go client for the FlowCatalyst platform API.
//
// Usage:
//
//	c, err := client.New("https://flowcatalyst.example.com",
//	    client.WithAPIKey("fc_..."),
//	)
//	if err != nil {
//	    return err
//	}
//	defer c.Close()
//
//	types, err := c.ListEventTypes(ctx)
//	sub, err := c.CreateSubscription(ctx, client.CreateSubscriptionRequest{
//	    EventTypeID: types[0].ID,
//	    Endpoint:    "https://hooks.example.com/orders",
//	})
//
// Every method is one blocking round trip on a session owned by the Client.
// Nothing is retried or cached. A non-2xx answer is returned as *HTTPError;
// use errors.Is with ErrNotFound and friends to branch on the status class.
// A successful answer whose body does not match the record shape is returned
// as *model.ValidationError.
//
// A Client is safe for concurrent use.
package client
