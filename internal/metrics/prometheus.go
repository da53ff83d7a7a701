// Package metrics contains middlewares and counters for metrics gathering.
package metrics

import (
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// HTTP Requests total counter
var totalRequests = prometheus.NewCounterVec(
	prometheus.CounterOpts{
		Name: "http_requests_total",
		Help: "HTTP Requests.",
	},
	[]string{"path", "method", "status"},
)

// HTTP Requests duration
var duration = prometheus.NewHistogramVec(
	prometheus.HistogramOpts{
		Name: "http_duration_seconds",
		Help: "HTTP Requests Duration",
	},
	[]string{"path", "method"},
)

var bookings = prometheus.NewCounterVec(
	prometheus.CounterOpts{
		Name: "appointment_bookings_total",
		Help: "Booking attempts by outcome.",
	},
	[]string{"outcome"},
)

var transitions = prometheus.NewCounterVec(
	prometheus.CounterOpts{
		Name: "appointment_transitions_total",
		Help: "Appointment status transitions by target status.",
	},
	[]string{"status"},
)

var reminders = prometheus.NewCounterVec(
	prometheus.CounterOpts{
		Name: "appointment_reminders_total",
		Help: "Reminder deliveries by result.",
	},
	[]string{"result"},
)

// Booking outcomes.
const (
	BookingCreated  = "created"
	BookingRefused  = "refused"
	BookingLostRace = "lost_race"
	BookingFailed   = "failed"
)

// Reminder results.
const (
	ReminderSent    = "sent"
	ReminderFailed  = "failed"
	ReminderSkipped = "skipped"
)

const unmatchedRouteName = "unmatched"

func init() {
	prometheus.MustRegister(totalRequests, duration, bookings, transitions, reminders)
}

// PrometheusMiddleware instruments the given request and register metrics. Requests are
// labeled by route pattern, so path parameters don't explode the label cardinality.
func PrometheusMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		timer := prometheus.NewTimer(prometheus.ObserverFunc(func(v float64) {
			duration.WithLabelValues(routePattern(r), r.Method).Observe(v)
		}))
		next.ServeHTTP(ww, r)
		totalRequests.WithLabelValues(routePattern(r), r.Method, strconv.Itoa(ww.Status())).Inc()
		timer.ObserveDuration()
	})
}

func routePattern(r *http.Request) string {
	rctx := chi.RouteContext(r.Context())
	if rctx == nil {
		return unmatchedRouteName
	}
	if pattern := rctx.RoutePattern(); pattern != "" {
		return pattern
	}
	return unmatchedRouteName
}

// Handler exposes the registered metrics.
func Handler() http.Handler {
	return promhttp.Handler()
}

// ObserveBooking counts a booking attempt with the given outcome.
func ObserveBooking(outcome string) {
	bookings.WithLabelValues(outcome).Inc()
}

// ObserveTransition counts an appointment moved into the given status.
func ObserveTransition(status string) {
	transitions.WithLabelValues(status).Inc()
}

// ObserveReminder counts a reminder delivery with the given result.
func ObserveReminder(result string) {
	reminders.WithLabelValues(result).Inc()
}
