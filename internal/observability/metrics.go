// Package observability exposes Prometheus collectors for client traffic,
// view emission, assignment conflicts and activity fetches.
package observability

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics owns one set of collectors registered against a registry. It
// satisfies the observer interfaces of the remote, playback, assignment and
// activity packages.
type Metrics struct {
	registry *prometheus.Registry

	requestsTotal  *prometheus.CounterVec
	requestLatency *prometheus.HistogramVec
	viewsTotal     *prometheus.CounterVec
	conflictsTotal prometheus.Counter
	fetchesTotal   prometheus.Counter
	staleDiscarded prometheus.Counter
}

// New registers the collectors on a fresh registry.
func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		requestsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "vidash_api_requests_total",
			Help: "Total number of Remote API requests by route and status.",
		}, []string{"route", "status"}),
		requestLatency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "vidash_api_request_seconds",
			Help:    "Latency distribution for Remote API requests.",
			Buckets: []float64{0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1.0, 2.0},
		}, []string{"route"}),
		viewsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "vidash_view_events_total",
			Help: "View events emitted by the player, by outcome.",
		}, []string{"outcome"}),
		conflictsTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "vidash_assignment_conflicts_total",
			Help: "Assignment requests rejected because the video was already assigned.",
		}),
		fetchesTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "vidash_activity_fetches_total",
			Help: "Activity log page requests issued.",
		}),
		staleDiscarded: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "vidash_activity_stale_responses_total",
			Help: "Activity log responses discarded because a newer request superseded them.",
		}),
	}
	m.registry.MustRegister(
		m.requestsTotal,
		m.requestLatency,
		m.viewsTotal,
		m.conflictsTotal,
		m.fetchesTotal,
		m.staleDiscarded,
	)
	return m
}

// Registry returns the underlying registry.
func (m *Metrics) Registry() *prometheus.Registry { return m.registry }

// Handler serves the scrape endpoint.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}

// ObserveRequest records one Remote API exchange. Status 0 means the request
// never produced a response.
func (m *Metrics) ObserveRequest(_ string, route string, status int, elapsed time.Duration) {
	label := "error"
	if status > 0 {
		label = strconv.Itoa(status)
	}
	m.requestsTotal.WithLabelValues(route, label).Inc()
	m.requestLatency.WithLabelValues(route).Observe(elapsed.Seconds())
}

// ObserveView records a view emission attempt.
func (m *Metrics) ObserveView(err error) {
	outcome := "ok"
	if err != nil {
		outcome = "failed"
	}
	m.viewsTotal.WithLabelValues(outcome).Inc()
}

// ObserveConflict records an assignment conflict.
func (m *Metrics) ObserveConflict() { m.conflictsTotal.Inc() }

// ObserveFetch records an activity page request.
func (m *Metrics) ObserveFetch() { m.fetchesTotal.Inc() }

// ObserveStale records a discarded activity response.
func (m *Metrics) ObserveStale() { m.staleDiscarded.Inc() }
