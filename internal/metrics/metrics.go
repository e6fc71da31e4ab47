package metrics

import (
	"errors"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

const (
	metricPrefix = "fleet_rental_"

	ResultSuccess = "success"
	ResultError   = "error"
)

var (
	registerOnce sync.Once

	operationTotal   *prometheus.CounterVec
	operationLatency *prometheus.HistogramVec

	assetsByStatus *prometheus.GaugeVec

	eventPublishFailures *prometheus.CounterVec
)

// Init registers the rental metrics with the default registry. Safe to call more than once.
func Init() {
	registerOnce.Do(func() {
		operationTotal = prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: metricPrefix + "operations_total",
				Help: "Total engine operations by operation and result",
			},
			[]string{"operation", "result"},
		)
		operationLatency = prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    metricPrefix + "operation_latency_seconds",
				Help:    "Engine operation latency in seconds, snapshot save included",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"operation"},
		)
		assetsByStatus = prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: metricPrefix + "assets",
				Help: "Fleet assets by status",
			},
			[]string{"status"},
		)
		eventPublishFailures = prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: metricPrefix + "event_publish_failures_total",
				Help: "Lifecycle events that could not be published, by event type",
			},
			[]string{"event"},
		)

		prometheus.MustRegister(
			operationTotal,
			operationLatency,
			assetsByStatus,
			eventPublishFailures,
		)
	})
}

// ObserveOperation records the result and latency of an engine operation.
// The result label is the error kind name when kind is non-empty.
func ObserveOperation(operation string, err error, kinds map[error]string, duration time.Duration) {
	if operation == "" {
		operation = "unknown"
	}
	result := ResultSuccess
	if err != nil {
		result = ResultError
		for target, name := range kinds {
			if errors.Is(err, target) {
				result = name
				break
			}
		}
	}
	if operationTotal != nil {
		operationTotal.WithLabelValues(operation, result).Inc()
	}
	if operationLatency != nil {
		operationLatency.WithLabelValues(operation).Observe(duration.Seconds())
	}
}

// SetAssetsByStatus replaces the fleet gauge values.
func SetAssetsByStatus(counts map[string]int) {
	if assetsByStatus == nil {
		return
	}
	assetsByStatus.Reset()
	for status, n := range counts {
		assetsByStatus.WithLabelValues(status).Set(float64(n))
	}
}

// IncEventPublishFailure increments the publish failure counter.
func IncEventPublishFailure(event string) {
	if event == "" {
		event = "unknown"
	}
	if eventPublishFailures != nil {
		eventPublishFailures.WithLabelValues(event).Inc()
	}
}
