package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	httpRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "endpoint", "status"},
	)

	httpRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "HTTP request duration in seconds",
			Buckets: []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
		},
		[]string{"method", "endpoint", "status"},
	)

	reservationsCreatedTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "reservations_created_total",
			Help: "Total number of reservations created",
		},
	)

	reservationsConfirmedTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "reservations_confirmed_total",
			Help: "Total number of reservations confirmed",
		},
	)

	reservationsCanceledTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "reservations_canceled_total",
			Help: "Total number of reservations canceled",
		},
	)

	reservationsExpiredTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "reservations_expired_total",
			Help: "Total number of pending reservations expired by the sweep",
		},
	)

	capacityRejectionsTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "reservation_capacity_rejections_total",
			Help: "Total number of reservations rejected for lack of seats",
		},
	)

	eventsPublishedTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "events_published_total",
			Help: "Total number of events published",
		},
	)

	eventsCanceledTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "events_canceled_total",
			Help: "Total number of events canceled",
		},
	)
)

func RecordHTTPRequest(method, endpoint string, statusCode int, duration time.Duration) {
	status := strconv.Itoa(statusCode)
	httpRequestsTotal.WithLabelValues(method, endpoint, status).Inc()
	httpRequestDuration.WithLabelValues(method, endpoint, status).Observe(duration.Seconds())
}

func RecordReservationCreated()   { reservationsCreatedTotal.Inc() }
func RecordReservationConfirmed() { reservationsConfirmedTotal.Inc() }
func RecordReservationCanceled()  { reservationsCanceledTotal.Inc() }

func RecordReservationsExpired(n int) {
	reservationsExpiredTotal.Add(float64(n))
}

func RecordCapacityRejection() { capacityRejectionsTotal.Inc() }
func RecordEventPublished()    { eventsPublishedTotal.Inc() }
func RecordEventCanceled()     { eventsCanceledTotal.Inc() }

// Handler returns the Prometheus scrape endpoint.
func Handler() http.Handler {
	return promhttp.Handler()
}
