// Package metrics holds the Prometheus collectors exported on /metrics.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const (
	ResultOK    = "ok"
	ResultError = "error"
)

var (
	// HTTPRequests counts served requests by route pattern and status code.
	HTTPRequests = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "inkpost_http_requests_total",
		Help: "Total HTTP requests by method, route and status",
	}, []string{"method", "route", "status"})

	// HTTPDuration records request latency by route pattern.
	HTTPDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "inkpost_http_request_duration_seconds",
		Help:    "HTTP request latency in seconds",
		Buckets: prometheus.DefBuckets,
	}, []string{"method", "route"})

	// MirrorOperations counts calls against the remote post mirror.
	MirrorOperations = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "inkpost_mirror_operations_total",
		Help: "Remote post mirror operations by operation and result",
	}, []string{"operation", "result"})

	// Dispatches counts push messages handed to the messaging gateway.
	Dispatches = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "inkpost_push_dispatches_total",
		Help: "Push notification dispatches by target kind and result",
	}, []string{"target", "result"})

	// AuthFailures counts rejected bearer tokens by guard and error kind.
	AuthFailures = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "inkpost_auth_failures_total",
		Help: "Rejected authentication attempts by guard and kind",
	}, []string{"guard", "kind"})
)

// Result maps an error to a result label.
func Result(err error) string {
	if err != nil {
		return ResultError
	}
	return ResultOK
}

// ObserveMirror records the outcome of one mirror call.
func ObserveMirror(operation string, err error) {
	MirrorOperations.WithLabelValues(operation, Result(err)).Inc()
}

// ObserveDispatch records the outcome of one push dispatch.
func ObserveDispatch(target string, err error) {
	Dispatches.WithLabelValues(target, Result(err)).Inc()
}

// ObserveRequest records one finished HTTP request.
func ObserveRequest(method, route, status string, start time.Time) {
	HTTPRequests.WithLabelValues(method, route, status).Inc()
	HTTPDuration.WithLabelValues(method, route).Observe(time.Since(start).Seconds())
}

// Handler serves the default registry.
func Handler() http.Handler {
	return promhttp.Handler()
}
