// SPDX-License-Identifier: MIT

package model

// SubscriptionStatus is the server-owned lifecycle state of a Subscription.
type SubscriptionStatus string

const (
	SubscriptionActive SubscriptionStatus = "active"
	SubscriptionPaused SubscriptionStatus = "paused"
	SubscriptionFailed SubscriptionStatus = "failed"
)

// SubscriptionStatuses lists every allowed SubscriptionStatus.
var SubscriptionStatuses = []SubscriptionStatus{SubscriptionActive, SubscriptionPaused, SubscriptionFailed}

// Valid reports whether s belongs to the closed status set.
func (s SubscriptionStatus) Valid() bool {
	switch s {
	case SubscriptionActive, SubscriptionPaused, SubscriptionFailed:
		return true
	}
	return false
}

// DispatchJobStatus is the delivery state of a DispatchJob.
type DispatchJobStatus string

const (
	DispatchPending    DispatchJobStatus = "pending"
	DispatchProcessing DispatchJobStatus = "processing"
	DispatchCompleted  DispatchJobStatus = "completed"
	DispatchFailed     DispatchJobStatus = "failed"
)

// DispatchJobStatuses lists every allowed DispatchJobStatus.
var DispatchJobStatuses = []DispatchJobStatus{DispatchPending, DispatchProcessing, DispatchCompleted, DispatchFailed}

// Valid reports whether s belongs to the closed status set.
func (s DispatchJobStatus) Valid() bool {
	switch s {
	case DispatchPending, DispatchProcessing, DispatchCompleted, DispatchFailed:
		return true
	}
	return false
}

// Terminal reports whether no further delivery attempts follow this state.
func (s DispatchJobStatus) Terminal() bool {
	return s == DispatchCompleted || s == DispatchFailed
}
