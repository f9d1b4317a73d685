// Package telemetry exposes Prometheus metrics for the scheduler.
package telemetry

import (
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"netsched/internal/schedule"
)

// Metrics holds the collectors for one process. Each instance owns its
// registry so tests can create as many as they like.
type Metrics struct {
	registry *prometheus.Registry

	CatalogNets  prometheus.Gauge
	NetsLive     prometheus.Gauge
	NetsSoon     prometheus.Gauge
	NetsUpcoming prometheus.Gauge
	Ticks        prometheus.Counter

	HTTPRequests *prometheus.CounterVec
	HTTPDuration *prometheus.HistogramVec
}

// New registers the collectors on a fresh registry.
func New() *Metrics {
	reg := prometheus.NewRegistry()
	m := &Metrics{
		registry: reg,
		CatalogNets: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "netsched",
			Name:      "catalog_nets",
			Help:      "Number of nets in the loaded catalog.",
		}),
		NetsLive: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "netsched",
			Name:      "nets_live",
			Help:      "Nets currently on the air.",
		}),
		NetsSoon: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "netsched",
			Name:      "nets_soon",
			Help:      "Nets starting within 30 minutes.",
		}),
		NetsUpcoming: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "netsched",
			Name:      "nets_upcoming",
			Help:      "Nets starting within 2 hours but not within 30 minutes.",
		}),
		Ticks: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "netsched",
			Name:      "monitor_ticks_total",
			Help:      "Completed monitor refreshes.",
		}),
		HTTPRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "netsched",
			Name:      "http_requests_total",
			Help:      "HTTP requests by route and status code.",
		}, []string{"route", "code"}),
		HTTPDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "netsched",
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request latency by route.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"route"}),
	}

	reg.MustRegister(
		m.CatalogNets, m.NetsLive, m.NetsSoon, m.NetsUpcoming, m.Ticks,
		m.HTTPRequests, m.HTTPDuration,
	)
	return m
}

// ObserveBuckets records the sizes of a classification.
func (m *Metrics) ObserveBuckets(b schedule.Buckets) {
	m.NetsLive.Set(float64(len(b.Live)))
	m.NetsSoon.Set(float64(len(b.Soon)))
	m.NetsUpcoming.Set(float64(len(b.Upcoming)))
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// responseWriter wraps http.ResponseWriter to capture status code.
type responseWriter struct {
	http.ResponseWriter
	statusCode int
	written    bool
}

func (rw *responseWriter) WriteHeader(code int) {
	if !rw.written {
		rw.statusCode = code
		rw.written = true
		rw.ResponseWriter.WriteHeader(code)
	}
}

func (rw *responseWriter) Write(b []byte) (int, error) {
	if !rw.written {
		rw.WriteHeader(http.StatusOK)
	}
	return rw.ResponseWriter.Write(b)
}

// Middleware tracks request counts and latency per chi route pattern.
func (m *Metrics) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		wrapped := &responseWriter{ResponseWriter: w, statusCode: http.StatusOK}

		next.ServeHTTP(wrapped, r)

		route := r.URL.Path
		if rc := chi.RouteContext(r.Context()); rc != nil {
			if p := rc.RoutePattern(); p != "" {
				route = p
			}
		}
		m.HTTPRequests.WithLabelValues(route, strconv.Itoa(wrapped.statusCode)).Inc()
		m.HTTPDuration.WithLabelValues(route).Observe(time.Since(start).Seconds())
	})
}
