package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics wraps Prometheus collectors for ollama-stack watch mode.
type Metrics struct {
	registry                 *prometheus.Registry
	cycleDurationSeconds     prometheus.Histogram
	servicesTotal            *prometheus.GaugeVec
	notificationsTotal       *prometheus.CounterVec
	engineErrorsTotal        prometheus.Counter
	lastSuccessfulCycleGauge prometheus.Gauge
}

// New initializes a Metrics registry with all collectors registered.
func New() *Metrics {
	registry := prometheus.NewRegistry()
	m := &Metrics{
		registry: registry,
		cycleDurationSeconds: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "ollama_stack_cycle_duration_seconds",
			Help:    "Duration of status evaluation cycles in seconds.",
			Buckets: prometheus.DefBuckets,
		}),
		servicesTotal: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name: "ollama_stack_services_total",
			Help: "Total services by stack and health status.",
		}, []string{"stack", "status"}),
		notificationsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "ollama_stack_notifications_total",
			Help: "Total transition notifications emitted by stack and outcome.",
		}, []string{"stack", "outcome"}),
		engineErrorsTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "ollama_stack_engine_errors_total",
			Help: "Total Docker engine query errors.",
		}),
		lastSuccessfulCycleGauge: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "ollama_stack_last_successful_cycle_timestamp",
			Help: "Unix timestamp of the last successful cycle.",
		}),
	}

	registry.MustRegister(
		m.cycleDurationSeconds,
		m.servicesTotal,
		m.notificationsTotal,
		m.engineErrorsTotal,
		m.lastSuccessfulCycleGauge,
	)

	return m
}

// Handler returns a Prometheus HTTP handler for this registry.
func (m *Metrics) Handler() http.Handler {
	if m == nil {
		return promhttp.Handler()
	}
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// ObserveCycleDuration records the duration of a completed cycle.
func (m *Metrics) ObserveCycleDuration(duration time.Duration) {
	if m == nil {
		return
	}
	m.cycleDurationSeconds.Observe(duration.Seconds())
}

// SetServicesTotal sets the services gauge for the given stack/status.
func (m *Metrics) SetServicesTotal(stack string, status string, value int) {
	if m == nil {
		return
	}
	m.servicesTotal.WithLabelValues(stack, status).Set(float64(value))
}

// IncNotificationsTotal increments the notifications counter for the given stack/outcome.
func (m *Metrics) IncNotificationsTotal(stack string, outcome string) {
	if m == nil {
		return
	}
	m.notificationsTotal.WithLabelValues(stack, outcome).Inc()
}

// IncEngineErrors increments the Docker engine error counter.
func (m *Metrics) IncEngineErrors() {
	if m == nil {
		return
	}
	m.engineErrorsTotal.Inc()
}

// SetLastSuccessfulCycleTimestamp sets the last successful cycle time.
func (m *Metrics) SetLastSuccessfulCycleTimestamp(t time.Time) {
	if m == nil {
		return
	}
	m.lastSuccessfulCycleGauge.Set(float64(t.Unix()))
}
