// Package metrics expone los contadores del núcleo en formato Prometheus.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/jhoicas/pos-ledger/internal/application/ports"
)

var _ ports.Metrics = (*Prometheus)(nil)

// Prometheus recolector con registro propio (no usa el global).
type Prometheus struct {
	registry *prometheus.Registry

	ledgerOps     *prometheus.CounterVec
	denials       *prometheus.CounterVec
	compensations *prometheus.CounterVec

	rateFetches  *prometheus.CounterVec
	breakerState *prometheus.GaugeVec
	rateValue    prometheus.Gauge

	mirrorPublished *prometheus.CounterVec
	mirrorDropped   prometheus.Counter

	httpRequests *prometheus.CounterVec
	httpDuration *prometheus.HistogramVec
}

// New registra las métricas bajo el namespace dado (ej. "pos").
func New(namespace string) *Prometheus {
	registry := prometheus.NewRegistry()
	registry.MustRegister(collectors.NewGoCollector())
	registry.MustRegister(collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	m := &Prometheus{registry: registry}

	m.ledgerOps = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "ledger_operations_total",
		Help:      "Operaciones de libro por resultado",
	}, []string{"ledger", "op", "status"})

	m.denials = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "access_denied_total",
		Help:      "Denegaciones por capacidad",
	}, []string{"capability"})

	m.compensations = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "saga_compensations_total",
		Help:      "Compensaciones de operaciones compuestas por resultado",
	}, []string{"action", "outcome"})

	m.rateFetches = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "rate_fetches_total",
		Help:      "Consultas a proveedores de tasa",
	}, []string{"source", "status"})

	m.breakerState = prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "rate_breaker_state",
		Help:      "Estado del breaker por proveedor (0=cerrado, 1=semiabierto, 2=abierto)",
	}, []string{"source"})

	m.rateValue = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "rate_ves_per_usd",
		Help:      "Tasa VES/USD vigente",
	})

	m.mirrorPublished = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "mirror_messages_total",
		Help:      "Mensajes enviados al espejo remoto",
	}, []string{"status"})

	m.mirrorDropped = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "mirror_dropped_total",
		Help:      "Avisos descartados por buffer lleno",
	})

	m.httpRequests = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "http_requests_total",
		Help:      "Peticiones HTTP",
	}, []string{"method", "path", "status"})

	m.httpDuration = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "http_request_duration_seconds",
		Help:      "Duración de peticiones HTTP",
		Buckets:   []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1, 2.5},
	}, []string{"method", "path"})

	registry.MustRegister(
		m.ledgerOps, m.denials, m.compensations,
		m.rateFetches, m.breakerState, m.rateValue,
		m.mirrorPublished, m.mirrorDropped,
		m.httpRequests, m.httpDuration,
	)
	return m
}

// Handler endpoint de scraping.
func (m *Prometheus) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{EnableOpenMetrics: true})
}

// Registry registro subyacente.
func (m *Prometheus) Registry() *prometheus.Registry { return m.registry }

func (m *Prometheus) ObserveOp(ledger, op string, err error) {
	m.ledgerOps.WithLabelValues(ledger, op, status(err == nil)).Inc()
}

func (m *Prometheus) Denied(capability string) {
	m.denials.WithLabelValues(capability).Inc()
}

func (m *Prometheus) SagaCompensation(action, outcome string) {
	m.compensations.WithLabelValues(action, outcome).Inc()
}

// RateFetched cuenta una consulta a un proveedor.
func (m *Prometheus) RateFetched(source string, ok bool) {
	m.rateFetches.WithLabelValues(source, status(ok)).Inc()
}

// BreakerState publica el estado del breaker de un proveedor.
func (m *Prometheus) BreakerState(source string, state int) {
	m.breakerState.WithLabelValues(source).Set(float64(state))
}

// RateValue publica la tasa vigente.
func (m *Prometheus) RateValue(v float64) { m.rateValue.Set(v) }

// MirrorPublished cuenta un envío al espejo.
func (m *Prometheus) MirrorPublished(ok bool) {
	m.mirrorPublished.WithLabelValues(status(ok)).Inc()
}

// MirrorDropped cuenta un aviso descartado.
func (m *Prometheus) MirrorDropped() { m.mirrorDropped.Inc() }

// ObserveHTTP registra una petición atendida.
func (m *Prometheus) ObserveHTTP(method, path string, code int, d time.Duration) {
	m.httpRequests.WithLabelValues(method, path, strconv.Itoa(code)).Inc()
	m.httpDuration.WithLabelValues(method, path).Observe(d.Seconds())
}

func status(ok bool) string {
	if ok {
		return "success"
	}
	return "error"
}
