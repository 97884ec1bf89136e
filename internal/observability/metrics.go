// Package observability exposes the service's Prometheus metrics.
package observability

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds the worker lifecycle instruments. A nil *Metrics is
// valid and records nothing, so callers don't need to care whether the
// metrics endpoint is enabled.
type Metrics struct {
	started prometheus.Counter
	exited  prometheus.Counter
	failed  prometheus.Counter
	running prometheus.Gauge
}

// NewMetrics registers the worker instruments with reg and returns
// them.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		started: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "workerd",
			Name:      "workers_started_total",
			Help:      "Workers successfully spawned.",
		}),
		exited: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "workerd",
			Name:      "workers_exited_total",
			Help:      "Workers whose command ran and exited.",
		}),
		failed: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "workerd",
			Name:      "workers_failed_total",
			Help:      "Workers that failed before the command ran.",
		}),
		running: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "workerd",
			Name:      "workers_running",
			Help:      "Workers currently running.",
		}),
	}

	reg.MustRegister(m.started, m.exited, m.failed, m.running)

	return m
}

// Handler returns the HTTP handler serving reg's metrics.
func Handler(reg *prometheus.Registry) http.Handler {
	return promhttp.HandlerFor(reg, promhttp.HandlerOpts{})
}

// WorkerStarted records a successful spawn.
func (m *Metrics) WorkerStarted() {
	if m == nil {
		return
	}

	m.started.Inc()
	m.running.Inc()
}

// WorkerExited records a worker whose command exited.
func (m *Metrics) WorkerExited() {
	if m == nil {
		return
	}

	m.exited.Inc()
	m.running.Dec()
}

// WorkerFailed records a spawned worker that failed during isolation
// setup.
func (m *Metrics) WorkerFailed() {
	if m == nil {
		return
	}

	m.failed.Inc()
	m.running.Dec()
}

// WorkerSpawnFailed records a worker that never spawned.
func (m *Metrics) WorkerSpawnFailed() {
	if m == nil {
		return
	}

	m.failed.Inc()
}
