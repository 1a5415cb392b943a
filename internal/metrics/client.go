// SPDX-License-Identifier: MIT

package metrics

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	clientRequestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "flowcatalyst_client_requests_total",
		Help: "API round trips by facade operation, HTTP method and status code (code=error on transport failure)",
	}, []string{"operation", "method", "code"})

	clientRequestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "flowcatalyst_client_request_duration_seconds",
		Help:    "Latency of API round trips by facade operation",
		Buckets: prometheus.DefBuckets,
	}, []string{"operation"})

	clientValidationErrors = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "flowcatalyst_client_validation_errors_total",
		Help: "Responses rejected because the body did not match the record shape",
	}, []string{"record"})
)

// ObserveClientRequest records one finished round trip. A zero status means
// no response was received.
func ObserveClientRequest(operation, method string, status int, elapsed time.Duration) {
	code := "error"
	if status > 0 {
		code = strconv.Itoa(status)
	}
	clientRequestsTotal.WithLabelValues(operation, method, code).Inc()
	clientRequestDuration.WithLabelValues(operation).Observe(elapsed.Seconds())
}

// RecordValidationError counts a response that failed record validation.
func RecordValidationError(record string) {
	clientValidationErrors.WithLabelValues(record).Inc()
}
