// SPDX-License-Identifier: MIT

package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	webhookVerificationsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "flowcatalyst_webhook_verifications_total",
		Help: "Webhook signature checks by result (ok, invalid_signature, expired, future, missing_header, replay)",
	}, []string{"result"})

	inboxWritesTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "flowcatalyst_inbox_writes_total",
		Help: "Verified deliveries written to the local inbox by outcome",
	}, []string{"outcome"})
)

// RecordWebhookVerification counts one verification attempt.
func RecordWebhookVerification(result string) {
	webhookVerificationsTotal.WithLabelValues(result).Inc()
}

// RecordInboxWrite counts one inbox insert (outcome: ok|error).
func RecordInboxWrite(outcome string) {
	inboxWritesTotal.WithLabelValues(outcome).Inc()
}
