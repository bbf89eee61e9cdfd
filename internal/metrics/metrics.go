package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// Tracks the number of outbound SOAP calls to the billing platform.
	SOAPRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "zuora_soap_requests_total",
			Help: "Total number of Zuora SOAP requests made (by operation and status).",
		},
		[]string{"operation", "status"},
	)

	// Measures duration of SOAP calls to the billing platform.
	SOAPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "zuora_soap_request_duration_seconds",
			Help:    "Duration of Zuora SOAP requests in seconds.",
			Buckets: prometheus.ExponentialBuckets(0.001, 2, 15), // 1ms → ~16s
		},
		[]string{"operation"},
	)

	NATSMessagesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "nats_messages_total",
			Help: "Total number of NATS messages published (by subject and status).",
		},
		[]string{"subject", "status"},
	)

	NATSMessageLatency = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "nats_message_latency_seconds",
			Help:    "Latency of NATS publish calls in seconds.",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"subject"},
	)
)

// ObserveDuration records the time taken for a function and updates the given histogram.
func ObserveDuration(v any, start time.Time, labels ...string) {
	duration := time.Since(start).Seconds()

	switch metric := v.(type) {
	case *prometheus.HistogramVec:
		metric.WithLabelValues(labels...).Observe(duration)
	case *prometheus.SummaryVec:
		metric.WithLabelValues(labels...).Observe(duration)
	default:
		// counters are not duration metrics
	}
}

func IncSOAPRequest(operation, status string) {
	SOAPRequestsTotal.WithLabelValues(operation, status).Inc()
}

func IncNATSMessage(subject, status string) {
	NATSMessagesTotal.WithLabelValues(subject, status).Inc()
}

func StartServer(addr string) {
	go func() {
		http.Handle("/metrics", promhttp.Handler())
		http.ListenAndServe(addr, nil) //nolint:errcheck
	}()
}
