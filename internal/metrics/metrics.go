// Package metrics defines the prometheus collectors of the authentication
// service. Collectors are package-level so handlers and services can record
// without holding a reference; RegisterMetrics attaches them to a registry.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Outcome labels for auth events.
const (
	OutcomeSuccess = "success"
	OutcomeFailure = "failure"
)

// Auth event labels.
const (
	EventRegister       = "register"
	EventLogin          = "login"
	EventLogout         = "logout"
	EventForgotPassword = "forgot_password"
	EventResetPassword  = "reset_password"
	EventDirectReset    = "direct_reset_password"
	EventSessionCheck   = "session_check"
)

// AuthEvents counts authentication events by event and outcome.
var AuthEvents = prometheus.NewCounterVec(
	prometheus.CounterOpts{
		Name: "authflow_auth_events_total",
		Help: "Total number of authentication events",
	},
	[]string{"event", "outcome"},
)

// HTTPRequests counts handled requests by method, route pattern and status.
var HTTPRequests = prometheus.NewCounterVec(
	prometheus.CounterOpts{
		Name: "authflow_http_requests_total",
		Help: "Total number of HTTP requests",
	},
	[]string{"method", "route", "status"},
)

// HTTPDuration observes request latency by method and route pattern.
var HTTPDuration = prometheus.NewHistogramVec(
	prometheus.HistogramOpts{
		Name:    "authflow_http_request_duration_seconds",
		Help:    "HTTP request duration in seconds",
		Buckets: prometheus.DefBuckets,
	},
	[]string{"method", "route"},
)

// RateLimited counts requests rejected by the rate limiter.
var RateLimited = prometheus.NewCounterVec(
	prometheus.CounterOpts{
		Name: "authflow_rate_limited_total",
		Help: "Total number of requests rejected by the rate limiter",
	},
	[]string{"route"},
)

// CleanupRemoved counts rows removed by the maintenance task.
var CleanupRemoved = prometheus.NewCounterVec(
	prometheus.CounterOpts{
		Name: "authflow_cleanup_removed_total",
		Help: "Total number of expired sessions and reset tokens removed",
	},
	[]string{"kind"},
)

// RegisterMetrics registers the package collectors with reg.
// Panics if registration fails (following prometheus convention).
func RegisterMetrics(reg prometheus.Registerer) {
	reg.MustRegister(AuthEvents)
	reg.MustRegister(HTTPRequests)
	reg.MustRegister(HTTPDuration)
	reg.MustRegister(RateLimited)
	reg.MustRegister(CleanupRemoved)
}

// NewRegistry creates a registry with the Go and process collectors and the
// package collectors.
func NewRegistry() *prometheus.Registry {
	registry := prometheus.NewRegistry()
	registry.MustRegister(collectors.NewGoCollector())
	registry.MustRegister(collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	RegisterMetrics(registry)
	return registry
}

// Handler serves the metrics of gatherer.
func Handler(gatherer prometheus.Gatherer) http.Handler {
	return promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{
		EnableOpenMetrics: true,
	})
}

// RecordAuthEvent increments the auth event counter.
func RecordAuthEvent(event string, success bool) {
	outcome := OutcomeSuccess
	if !success {
		outcome = OutcomeFailure
	}
	AuthEvents.WithLabelValues(event, outcome).Inc()
}

// RecordHTTPRequest records one handled request.
func RecordHTTPRequest(method, route string, status int, duration time.Duration) {
	HTTPRequests.WithLabelValues(method, route, strconv.Itoa(status)).Inc()
	HTTPDuration.WithLabelValues(method, route).Observe(duration.Seconds())
}

// RecordRateLimited increments the rate limiter rejection counter.
func RecordRateLimited(route string) {
	RateLimited.WithLabelValues(route).Inc()
}

// RecordCleanup adds removed rows of kind to the cleanup counter.
func RecordCleanup(kind string, removed int64) {
	if removed > 0 {
		CleanupRemoved.WithLabelValues(kind).Add(float64(removed))
	}
}
