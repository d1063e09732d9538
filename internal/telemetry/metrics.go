// Package telemetry собирает метрики Prometheus и настраивает трассировку.
package telemetry

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/Leganyst/mci-platform/internal/apperrors"
	"github.com/Leganyst/mci-platform/internal/model"
)

const namespace = "mci"

// Metrics — счётчики операций ядра. nil-значение безопасно: методы ничего не делают.
type Metrics struct {
	registry *prometheus.Registry

	operations    *prometheus.CounterVec
	duration      *prometheus.HistogramVec
	auditFailures *prometheus.CounterVec
	rateLimited   prometheus.Counter
}

func NewMetrics() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		operations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "operations_total",
			Help:      "Engine operations by name and result kind.",
		}, []string{"operation", "result"}),
		duration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "operation_duration_seconds",
			Help:      "Engine operation latency including the transaction.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"operation"}),
		auditFailures: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "audit_write_failures_total",
			Help:      "Audit entries that could not be written; the business mutation was kept.",
		}, []string{"kind", "action"}),
		rateLimited: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "login_rate_limited_total",
			Help:      "Login attempts rejected by the attempt tracker.",
		}),
	}
	m.registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		m.operations,
		m.duration,
		m.auditFailures,
		m.rateLimited,
	)
	return m
}

// ObserveOperation учитывает завершённую операцию; err == nil даёт result="ok".
func (m *Metrics) ObserveOperation(operation string, err error, elapsed time.Duration) {
	if m == nil {
		return
	}
	result := "ok"
	if err != nil {
		result = string(apperrors.KindOf(err))
	}
	m.operations.WithLabelValues(operation, result).Inc()
	m.duration.WithLabelValues(operation).Observe(elapsed.Seconds())
}

// AuditFailure подходит как audit.FailureHook.
func (m *Metrics) AuditFailure(kind model.EntityKind, action model.AuditAction, _ error) {
	if m == nil {
		return
	}
	m.auditFailures.WithLabelValues(string(kind), string(action)).Inc()
}

func (m *Metrics) RateLimited() {
	if m == nil {
		return
	}
	m.rateLimited.Inc()
}

// Handler отдаёт /metrics.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}
