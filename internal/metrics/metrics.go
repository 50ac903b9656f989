// Package metrics exposes Prometheus counters for the auth flows.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics contains the service's custom Prometheus metrics.
type Metrics struct {
	registry *prometheus.Registry

	RegistrationsTotal *prometheus.CounterVec
	SignInsTotal       *prometheus.CounterVec
	GateRedirectsTotal prometheus.Counter
	RequestDuration    *prometheus.HistogramVec
}

// New creates a private registry with Go/process collectors and the custom
// metrics registered on it.
func New() *Metrics {
	registry := prometheus.NewRegistry()
	registry.MustRegister(collectors.NewGoCollector())
	registry.MustRegister(collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	m := &Metrics{
		registry: registry,
		RegistrationsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "hermes_registrations_total",
				Help: "Registration attempts by outcome",
			},
			[]string{"outcome"},
		),
		SignInsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "hermes_signins_total",
				Help: "Sign-in attempts by credential kind and outcome",
			},
			[]string{"kind", "outcome"},
		),
		GateRedirectsTotal: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "hermes_gate_redirects_total",
				Help: "Requests for protected paths sent to sign-in",
			},
		),
		RequestDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "hermes_http_request_duration_seconds",
				Help:    "HTTP request latency by method and status",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"method", "status"},
		),
	}

	registry.MustRegister(m.RegistrationsTotal)
	registry.MustRegister(m.SignInsTotal)
	registry.MustRegister(m.GateRedirectsTotal)
	registry.MustRegister(m.RequestDuration)
	return m
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{EnableOpenMetrics: true})
}

// ObserveRegistration counts a registration attempt.
func (m *Metrics) ObserveRegistration(outcome string) {
	if m == nil {
		return
	}
	m.RegistrationsTotal.WithLabelValues(outcome).Inc()
}

// ObserveSignIn counts a sign-in attempt.
func (m *Metrics) ObserveSignIn(kind, outcome string) {
	if m == nil {
		return
	}
	m.SignInsTotal.WithLabelValues(kind, outcome).Inc()
}

// ObserveGateRedirect counts a gate redirect.
func (m *Metrics) ObserveGateRedirect(*http.Request) {
	if m == nil {
		return
	}
	m.GateRedirectsTotal.Inc()
}

// ObserveRequest records the latency of one HTTP request.
func (m *Metrics) ObserveRequest(method string, status int, elapsed time.Duration) {
	if m == nil {
		return
	}
	m.RequestDuration.WithLabelValues(method, strconv.Itoa(status)).Observe(elapsed.Seconds())
}
