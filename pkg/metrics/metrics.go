package metrics

import (
	"strings"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const (
	ResultSuccess = "success"
)

var (
	HTTPRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "studio_http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "path", "status"},
	)

	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "studio_http_request_duration_seconds",
			Help:    "HTTP request duration in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "path"},
	)

	BookingsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "studio_bookings_total",
			Help: "Booking attempts by result (success or error code)",
		},
		[]string{"result"},
	)

	CancellationsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "studio_cancellations_total",
			Help: "Cancellation attempts by result (success or error code)",
		},
		[]string{"result"},
	)

	PointsMovedTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "studio_points_moved_total",
			Help: "Points written to the ledger by direction",
		},
		[]string{"type"},
	)

	LoginsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "studio_logins_total",
			Help: "LINE logins by outcome",
		},
		[]string{"outcome"},
	)

	EventsPublishedTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "studio_events_published_total",
			Help: "Booking events published by type and result",
		},
		[]string{"type", "result"},
	)

	EventsConsumedTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "studio_events_consumed_total",
			Help: "Booking events consumed by type and result",
		},
		[]string{"type", "result"},
	)

	NotificationsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "studio_notifications_total",
			Help: "LINE push notifications by result",
		},
		[]string{"result"},
	)
)

// RoutePattern replaces document IDs in path with ":id" to keep label
// cardinality bounded. Routes use the form /<resource>/id/<id>/...
func RoutePattern(path string) string {
	parts := strings.Split(path, "/")
	for i := 1; i < len(parts); i++ {
		if parts[i-1] == "id" && parts[i] != "" {
			parts[i] = ":id"
		}
	}
	return strings.Join(parts, "/")
}
