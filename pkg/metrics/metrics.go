// Package metrics holds the prometheus instruments each service exposes at /metrics.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/tdeslauriers/tandem/pkg/connect"
)

// Metrics is one service's registry and instruments. Each service gets its own
// registry so tests can build many without duplicate registration panics.
type Metrics struct {
	registry *prometheus.Registry

	RequestsTotal   *prometheus.CounterVec
	RequestDuration *prometheus.HistogramVec
	UpstreamTotal   *prometheus.CounterVec
	UpstreamLatency *prometheus.HistogramVec
}

// New creates the instruments for service, labelled with its version.
func New(service, version string) *Metrics {

	reg := prometheus.NewRegistry()
	constLabels := prometheus.Labels{"service": service, "version": version}

	m := &Metrics{
		registry: reg,
		RequestsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name:        "http_requests_total",
			Help:        "Total number of http requests served, by route pattern and status code",
			ConstLabels: constLabels,
		}, []string{"route", "code"}),
		RequestDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:        "http_request_duration_seconds",
			Help:        "Time spent serving http requests, by route pattern",
			ConstLabels: constLabels,
			Buckets:     prometheus.DefBuckets,
		}, []string{"route"}),
		UpstreamTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name:        "upstream_calls_total",
			Help:        "Total number of calls to upstream dependencies, by target and outcome",
			ConstLabels: constLabels,
		}, []string{"target", "outcome"}),
		UpstreamLatency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:        "upstream_call_duration_seconds",
			Help:        "Latency of calls to upstream dependencies, by target",
			ConstLabels: constLabels,
			Buckets:     []float64{.005, .01, .025, .05, .1, .25, .5, 1, 2, 5},
		}, []string{"target"}),
	}

	reg.MustRegister(
		m.RequestsTotal,
		m.RequestDuration,
		m.UpstreamTotal,
		m.UpstreamLatency,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	return m
}

var _ connect.Observer = (*Metrics)(nil)

// ObserveUpstream records one upstream call.
func (m *Metrics) ObserveUpstream(target, outcome string, elapsed time.Duration) {
	m.UpstreamTotal.WithLabelValues(target, outcome).Inc()
	m.UpstreamLatency.WithLabelValues(target).Observe(elapsed.Seconds())
}

// Handler serves this registry in the prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}

// Registry exposes the underlying registry, mostly for tests.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// Instrument is chi middleware counting requests by matched route pattern,
// so query strings and parameter names never become label values.
func (m *Metrics) Instrument(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {

		start := time.Now()
		rw := connect.NewResponseWriter(w)

		next.ServeHTTP(rw, r)

		route := "unmatched"
		if rctx := chi.RouteContext(r.Context()); rctx != nil {
			if pattern := rctx.RoutePattern(); pattern != "" {
				route = pattern
			}
		}

		m.RequestsTotal.WithLabelValues(route, strconv.Itoa(rw.Status())).Inc()
		m.RequestDuration.WithLabelValues(route).Observe(time.Since(start).Seconds())
	})
}
