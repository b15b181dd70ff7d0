// internal/app/system/metrics/metrics.go
//
// Package metrics holds the process-wide Prometheus collectors for storage
// calls and dashboard assembly.
package metrics

import (
	"errors"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.mongodb.org/mongo-driver/mongo"
)

var (
	// QueryDuration observes every storage round trip by collection and op
	// ("list", "count", "get", "aggregate", ...).
	QueryDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "listinghub_query_duration_seconds",
		Help:    "Duration of MongoDB queries and aggregations.",
		Buckets: prometheus.ExponentialBuckets(0.001, 2, 14), // 1ms .. ~8s
	}, []string{"collection", "op"})

	QueryErrors = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "listinghub_query_errors_total",
		Help: "MongoDB queries that returned an error (not-found excluded).",
	}, []string{"collection", "op"})

	DashboardTaskFailures = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "listinghub_dashboard_task_failures_total",
		Help: "Dashboard metrics that failed and were returned as null.",
	}, []string{"metric"})

	DashboardDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "listinghub_dashboard_duration_seconds",
		Help:    "Wall time to assemble one dashboard.",
		Buckets: prometheus.ExponentialBuckets(0.005, 2, 12),
	})

	EventsRecorded = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "listinghub_analytics_events_total",
		Help: "Analytics events recorded by type.",
	}, []string{"event_type"})

	RetentionDeleted = promauto.NewCounter(prometheus.CounterOpts{
		Name: "listinghub_analytics_retention_deleted_total",
		Help: "Expired analytics events removed by the retention sweeper.",
	})
)

// Observe starts a timer for one storage call. Call the returned func with
// the call's error when it finishes.
//
//	done := metrics.Observe("properties", "list")
//	defer func() { done(err) }()
func Observe(collection, op string) func(error) {
	start := time.Now()
	return func(err error) {
		QueryDuration.WithLabelValues(collection, op).Observe(time.Since(start).Seconds())
		if err != nil && !errors.Is(err, mongo.ErrNoDocuments) {
			QueryErrors.WithLabelValues(collection, op).Inc()
		}
	}
}

// Handler serves the default registry in the Prometheus text format.
func Handler() http.Handler {
	return promhttp.Handler()
}
