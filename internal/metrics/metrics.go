package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics groups the service collectors. It implements flow.Observer.
type Metrics struct {
	registry *prometheus.Registry

	FlowRuns     *prometheus.CounterVec
	FlowDuration *prometheus.HistogramVec
	HTTPRequests *prometheus.CounterVec
	RateLimited  prometheus.Counter
}

// New registers the collectors on reg. A nil reg gets a fresh registry.
func New(reg *prometheus.Registry) *Metrics {
	if reg == nil {
		reg = prometheus.NewRegistry()
	}
	factory := promauto.With(reg)

	return &Metrics{
		registry: reg,
		FlowRuns: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "careercraft_flow_runs_total",
				Help: "Total number of flow runs by outcome",
			},
			[]string{"flow", "outcome"},
		),
		FlowDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "careercraft_flow_duration_seconds",
				Help:    "Duration of flow runs in seconds",
				Buckets: []float64{0.1, 0.5, 1, 2.5, 5, 10, 20, 40, 80},
			},
			[]string{"flow"},
		),
		HTTPRequests: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "careercraft_http_requests_total",
				Help: "Total number of HTTP requests by route and status code",
			},
			[]string{"route", "code"},
		),
		RateLimited: factory.NewCounter(
			prometheus.CounterOpts{
				Name: "careercraft_rate_limited_total",
				Help: "Total number of flow submissions rejected by the rate limiter",
			},
		),
	}
}

// ObserveFlow records one finished flow run.
func (m *Metrics) ObserveFlow(flow, outcome string, elapsed time.Duration) {
	m.FlowRuns.WithLabelValues(flow, outcome).Inc()
	m.FlowDuration.WithLabelValues(flow).Observe(elapsed.Seconds())
}

func (m *Metrics) ObserveRequest(route string, code int) {
	m.HTTPRequests.WithLabelValues(route, strconv.Itoa(code)).Inc()
}

// Handler serves the registry in the Prometheus text format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}

func (m *Metrics) Registry() *prometheus.Registry { return m.registry }
