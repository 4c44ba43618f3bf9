// Package metrics métricas Prometheus del barrido de facturas recurrentes y de la API.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics agrupa los colectores registrados.
type Metrics struct {
	// Barrido
	SweepsTotal          prometheus.Counter
	SweepDuration        prometheus.Histogram
	TemplatesTotal       *prometheus.CounterVec
	TemplateDuration     *prometheus.HistogramVec
	NotificationFailures prometheus.Counter

	// HTTP
	HTTPRequestsTotal   *prometheus.CounterVec
	HTTPRequestDuration *prometheus.HistogramVec

	registry *prometheus.Registry
}

// NewMetrics crea y registra los colectores. registry nil crea uno nuevo.
func NewMetrics(registry *prometheus.Registry) *Metrics {
	if registry == nil {
		registry = prometheus.NewRegistry()
	}
	m := &Metrics{
		SweepsTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "recurring_sweeps_total",
			Help: "Barridos de facturas recurrentes ejecutados",
		}),
		SweepDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "recurring_sweep_duration_seconds",
			Help:    "Duración de un barrido completo",
			Buckets: prometheus.ExponentialBuckets(0.05, 2, 12),
		}),
		TemplatesTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "recurring_templates_processed_total",
				Help: "Plantillas procesadas por resultado",
			},
			[]string{"outcome"},
		),
		TemplateDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "recurring_template_duration_seconds",
				Help:    "Duración del procesamiento de una plantilla",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"outcome"},
		),
		NotificationFailures: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "recurring_notification_failures_total",
			Help: "Envíos automáticos de factura fallidos",
		}),
		HTTPRequestsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "recurring_http_requests_total",
				Help: "Peticiones HTTP atendidas",
			},
			[]string{"method", "route", "status"},
		),
		HTTPRequestDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "recurring_http_request_duration_seconds",
				Help:    "Duración de las peticiones HTTP",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"method", "route"},
		),
		registry: registry,
	}

	registry.MustRegister(
		m.SweepsTotal,
		m.SweepDuration,
		m.TemplatesTotal,
		m.TemplateDuration,
		m.NotificationFailures,
		m.HTTPRequestsTotal,
		m.HTTPRequestDuration,
	)
	return m
}

// ObserveSweep registra un barrido terminado.
func (m *Metrics) ObserveSweep(d time.Duration) {
	m.SweepsTotal.Inc()
	m.SweepDuration.Observe(d.Seconds())
}

// ObserveTemplate registra el resultado de una plantilla (generated, completed, not_started, skipped, failed).
func (m *Metrics) ObserveTemplate(outcome string, d time.Duration) {
	m.TemplatesTotal.WithLabelValues(outcome).Inc()
	m.TemplateDuration.WithLabelValues(outcome).Observe(d.Seconds())
}

// NotificationFailed cuenta un envío fallido.
func (m *Metrics) NotificationFailed() {
	m.NotificationFailures.Inc()
}

// ObserveHTTP registra una petición atendida.
func (m *Metrics) ObserveHTTP(method, route, status string, d time.Duration) {
	m.HTTPRequestsTotal.WithLabelValues(method, route, status).Inc()
	m.HTTPRequestDuration.WithLabelValues(method, route).Observe(d.Seconds())
}

// Handler expone el registro en formato Prometheus.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}
