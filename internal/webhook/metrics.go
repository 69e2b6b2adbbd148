package webhook

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics are the Prometheus collectors of the server.
type Metrics struct {
	registry        *prometheus.Registry
	sidebarRequests *prometheus.CounterVec
	sidebarDuration prometheus.Histogram
	actionRequests  *prometheus.CounterVec
	rateLimited     prometheus.Counter
}

// NewMetrics registers the server collectors on a fresh registry, together
// with the Go runtime and process collectors.
func NewMetrics() *Metrics {
	reg := prometheus.NewRegistry()
	m := &Metrics{
		registry: reg,
		sidebarRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "deskpanel_sidebar_requests_total",
			Help: "Sidebar requests by outcome.",
		}, []string{"outcome"}),
		sidebarDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "deskpanel_sidebar_duration_seconds",
			Help:    "Time to build a sidebar response.",
			Buckets: []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5},
		}),
		actionRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "deskpanel_action_requests_total",
			Help: "Signed action requests by outcome.",
		}, []string{"outcome"}),
		rateLimited: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "deskpanel_rate_limited_total",
			Help: "Requests rejected by the per-IP rate limiter.",
		}),
	}
	reg.MustRegister(
		m.sidebarRequests,
		m.sidebarDuration,
		m.actionRequests,
		m.rateLimited,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return m
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}
