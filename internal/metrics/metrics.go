// internal/metrics/metrics.go
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	SearchRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "pgfinder_search_requests_total",
			Help: "Listing searches by sort key and outcome",
		},
		[]string{"sort", "outcome"},
	)

	SearchResults = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "pgfinder_search_results",
			Help:    "Listings returned per search after filtering",
			Buckets: []float64{0, 1, 5, 10, 25, 50, 100, 250},
		},
	)

	BackendRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name: "pgfinder_backend_request_duration_seconds",
			Help: "Duration of managed backend requests",
		},
		[]string{"resource", "method", "status"},
	)

	FavoritesOps = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "pgfinder_favorites_operations_total",
			Help: "Favorites add/remove/load operations",
		},
		[]string{"op", "outcome"},
	)

	NotificationsSent = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "pgfinder_notifications_total",
			Help: "Notifications dispatched by event type and outcome",
		},
		[]string{"event", "outcome"},
	)

	NotificationsQueued = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "pgfinder_notifications_in_flight",
			Help: "Notification jobs queued or running",
		},
	)
)
