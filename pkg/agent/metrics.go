/*
Author: KleaSCM
Email: KleaSCM@gmail.com
File: metrics.go
Description: Prometheus collectors backing the agent's events, metrics, crash and
HTTP transaction counters. Each agent owns its registry.
*/

package agent

import (
	"fmt"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds every collector the agent updates
type Metrics struct {
	registry *prometheus.Registry

	CrashesTotal        prometheus.Counter
	HTTPTransactions    *prometheus.CounterVec
	HTTPDuration        *prometheus.HistogramVec
	HTTPBytesReceived   *prometheus.CounterVec
	NetworkFailures     *prometheus.CounterVec
	CustomEvents        *prometheus.CounterVec
	CustomMetric        *prometheus.HistogramVec
	CustomMetricLast    *prometheus.GaugeVec
	Interactions        *prometheus.CounterVec
	InteractionDuration *prometheus.HistogramVec
}

// NewMetrics registers all collectors on a fresh registry
func NewMetrics(namespace string) *Metrics {
	reg := prometheus.NewRegistry()
	factory := promauto.With(reg)

	return &Metrics{
		registry: reg,

		CrashesTotal: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "crashes_total",
			Help:      "Total number of crashes reported",
		}),
		HTTPTransactions: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "http_transactions_total",
			Help:      "Total number of completed HTTP transactions",
		}, []string{"method", "status_class"}), // status_class: 2xx, 3xx, 4xx, 5xx
		HTTPDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "http_transaction_duration_seconds",
			Help:      "Duration of completed HTTP transactions in seconds",
			Buckets:   prometheus.DefBuckets,
		}, []string{"method"}),
		HTTPBytesReceived: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "http_bytes_received_total",
			Help:      "Response bytes received by HTTP transactions",
		}, []string{"method"}),
		NetworkFailures: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "network_failures_total",
			Help:      "Total number of HTTP requests that produced no response",
		}, []string{"method"}),
		CustomEvents: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "custom_events_total",
			Help:      "Total number of custom events recorded",
		}, []string{"event_type"}),
		CustomMetric: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "custom_metric",
			Help:      "Observed values of custom metrics",
			Buckets:   []float64{0.1, 0.5, 1, 5, 10, 50, 100, 500, 1000},
		}, []string{"name", "category"}),
		CustomMetricLast: factory.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "custom_metric_last",
			Help:      "Last recorded value of each custom metric",
		}, []string{"name", "category"}),
		Interactions: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "interactions_total",
			Help:      "Interaction lifecycle steps",
		}, []string{"action"}), // action: start, rename, end
		InteractionDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "interaction_duration_seconds",
			Help:      "Duration of ended interactions in seconds",
			Buckets:   prometheus.DefBuckets,
		}, []string{"name"}),
	}
}

// Registry returns the registry holding the collectors
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// statusClass buckets an HTTP status code, e.g. 404 -> "4xx"
func statusClass(code int) string {
	switch {
	case code >= 100 && code < 600:
		return fmt.Sprintf("%dxx", code/100)
	default:
		return "unknown"
	}
}
