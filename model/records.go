// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

// Package model holds the records exchanged with the FlowCatalyst API.
//
// Records are value objects: they are decoded from a response, validated
// once, and handed to the caller. Identifiers are assigned by the server.
package model

import (
	"fmt"
	"time"
)

const (
	recordEventType    = "EventType"
	recordSubscription = "Subscription"
	recordDispatchJob  = "DispatchJob"
)

// EventType is a named, versioned schema describing a class of events.
type EventType struct {
	ID        string         `json:"id"`
	Name      string         `json:"name"`
	Version   string         `json:"version"`
	Schema    map[string]any `json:"schema"`
	CreatedAt time.Time      `json:"created_at"`
}

// Subscription binds an EventType to a delivery endpoint.
type Subscription struct {
	ID          string             `json:"id"`
	EventTypeID string             `json:"event_type_id"`
	Endpoint    string             `json:"endpoint"`
	Status      SubscriptionStatus `json:"status"`
	CreatedAt   time.Time          `json:"created_at"`
}

// DispatchJob records one delivery of an event to a subscription endpoint.
type DispatchJob struct {
	ID             string            `json:"id"`
	EventID        string            `json:"event_id"`
	SubscriptionID string            `json:"subscription_id"`
	Status         DispatchJobStatus `json:"status"`
	Attempts       int               `json:"attempts"`
	CreatedAt      time.Time         `json:"created_at"`
	CompletedAt    *time.Time        `json:"completed_at,omitempty"`
}

// APIResponse is the generic envelope of the platform API. The resource
// endpoints answer with bare objects and arrays, so the client never wraps
// responses in it.
type APIResponse[T any] struct {
	Data  *T      `json:"data,omitempty"`
	Error *string `json:"error,omitempty"`
}

// Validate checks required fields of an EventType.
func (e EventType) Validate() error {
	switch {
	case e.Schema == nil:
		return invalid(recordEventType, "schema", "missing required field")
	case e.CreatedAt.IsZero():
		return invalid(recordEventType, "created_at", "missing required field")
	}
	return nil
}

// Validate checks required fields and the status set of a Subscription.
func (s Subscription) Validate() error {
	switch {
	case !s.Status.Valid():
		return invalid(recordSubscription, "status", fmt.Sprintf("%q is not one of active, paused, failed", s.Status))
	case s.CreatedAt.IsZero():
		return invalid(recordSubscription, "created_at", "missing required field")
	}
	return nil
}

// Validate checks required fields and the status set of a DispatchJob.
func (j DispatchJob) Validate() error {
	switch {
	case !j.Status.Valid():
		return invalid(recordDispatchJob, "status", fmt.Sprintf("%q is not one of pending, processing, completed, failed", j.Status))
	case j.Attempts < 0:
		return invalid(recordDispatchJob, "attempts", "must not be negative")
	case j.CreatedAt.IsZero():
		return invalid(recordDispatchJob, "created_at", "missing required field")
	}
	return nil
}

// DecodeEventType builds an EventType from a JSON object.
func DecodeEventType(data []byte) (EventType, error) {
	f, err := decodeObject(recordEventType, data)
	if err != nil {
		return EventType{}, err
	}
	e := EventType{
		ID:        f.str("id"),
		Name:      f.str("name"),
		Version:   f.str("version"),
		Schema:    f.object("schema"),
		CreatedAt: f.timestamp("created_at"),
	}
	if f.err != nil {
		return EventType{}, f.err
	}
	if err := e.Validate(); err != nil {
		return EventType{}, err
	}
	return e, nil
}

// DecodeSubscription builds a Subscription from a JSON object.
func DecodeSubscription(data []byte) (Subscription, error) {
	f, err := decodeObject(recordSubscription, data)
	if err != nil {
		return Subscription{}, err
	}
	s := Subscription{
		ID:          f.str("id"),
		EventTypeID: f.str("event_type_id"),
		Endpoint:    f.str("endpoint"),
		Status:      SubscriptionStatus(f.str("status")),
		CreatedAt:   f.timestamp("created_at"),
	}
	if f.err != nil {
		return Subscription{}, f.err
	}
	if err := s.Validate(); err != nil {
		return Subscription{}, err
	}
	return s, nil
}

// DecodeDispatchJob builds a DispatchJob from a JSON object.
func DecodeDispatchJob(data []byte) (DispatchJob, error) {
	f, err := decodeObject(recordDispatchJob, data)
	if err != nil {
		return DispatchJob{}, err
	}
	j := DispatchJob{
		ID:             f.str("id"),
		EventID:        f.str("event_id"),
		SubscriptionID: f.str("subscription_id"),
		Status:         DispatchJobStatus(f.str("status")),
		Attempts:       f.integer("attempts"),
		CreatedAt:      f.timestamp("created_at"),
		CompletedAt:    f.optionalTimestamp("completed_at"),
	}
	if f.err != nil {
		return DispatchJob{}, f.err
	}
	if err := j.Validate(); err != nil {
		return DispatchJob{}, err
	}
	return j, nil
}

// DecodeEventTypes decodes a JSON array of event types in server order.
func DecodeEventTypes(data []byte) ([]EventType, error) {
	return decodeList(recordEventType, data, DecodeEventType)
}

// DecodeSubscriptions decodes a JSON array of subscriptions in server order.
func DecodeSubscriptions(data []byte) ([]Subscription, error) {
	return decodeList(recordSubscription, data, DecodeSubscription)
}

// DecodeDispatchJobs decodes a JSON array of dispatch jobs in server order.
func DecodeDispatchJobs(data []byte) ([]DispatchJob, error) {
	return decodeList(recordDispatchJob, data, DecodeDispatchJob)
}

func (e *EventType) UnmarshalJSON(data []byte) error {
	v, err := DecodeEventType(data)
	if err != nil {
		return err
	}
	*e = v
	return nil
}

func (s *Subscription) UnmarshalJSON(data []byte) error {
	v, err := DecodeSubscription(data)
	if err != nil {
		return err
	}
	*s = v
	return nil
}

func (j *DispatchJob) UnmarshalJSON(data []byte) error {
	v, err := DecodeDispatchJob(data)
	if err != nil {
		return err
	}
	*j = v
	return nil
}
