// Package metrics exposes Prometheus counters for the intake pipeline.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/Lllllllleong/intakeledger/internal/models"
)

const namespace = "intake"

// Metrics holds the pipeline collectors on a private registry.
type Metrics struct {
	registry *prometheus.Registry

	documents     *prometheus.CounterVec
	rejections    *prometheus.CounterVec
	scoring       *prometheus.CounterVec
	ledger        *prometheus.CounterVec
	notifications *prometheus.CounterVec
	auditFailures prometheus.Counter
	duration      *prometheus.HistogramVec
}

// New creates and registers all collectors.
func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),

		documents: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "documents_total",
			Help:      "Documents processed by channel and category.",
		}, []string{"channel", "category"}),
		rejections: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "rejections_total",
			Help:      "Submissions rejected before processing, by reason.",
		}, []string{"reason"}),
		scoring: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "scoring_total",
			Help:      "Scoring outcomes by status and reason.",
		}, []string{"status", "reason"}),
		ledger: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "ledger_total",
			Help:      "Ledger outcomes by status.",
		}, []string{"status"}),
		notifications: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "notifications_total",
			Help:      "Notification attempts by kind and result.",
		}, []string{"kind", "result"}),
		auditFailures: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "audit_failures_total",
			Help:      "Audit records that could not be written.",
		}),
		duration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "pipeline_duration_seconds",
			Help:      "Wall time of one document pipeline run.",
			Buckets:   prometheus.ExponentialBuckets(0.25, 2, 8),
		}, []string{"channel"}),
	}
	m.registry.MustRegister(m.documents, m.rejections, m.scoring, m.ledger, m.notifications, m.auditFailures, m.duration)
	return m
}

// Handler serves the registry in the Prometheus text format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// ObserveResult records the terminal state of one pipeline run.
func (m *Metrics) ObserveResult(r *models.PipelineResult, elapsed time.Duration) {
	if m == nil {
		return
	}
	m.documents.WithLabelValues(string(r.Channel), string(r.Category)).Inc()
	m.scoring.WithLabelValues(string(r.Scoring.Status), r.Scoring.Reason).Inc()
	m.ledger.WithLabelValues(string(r.Ledger.Status)).Inc()
	m.duration.WithLabelValues(string(r.Channel)).Observe(elapsed.Seconds())
}

// ObserveNotification records one dispatch attempt.
func (m *Metrics) ObserveNotification(kind models.NotificationKind, err error) {
	if m == nil || kind == models.NotifyNone {
		return
	}
	result := "sent"
	if err != nil {
		result = "failed"
	}
	m.notifications.WithLabelValues(string(kind), result).Inc()
}

// ObserveRejection records an input rejection.
func (m *Metrics) ObserveRejection(reason string) {
	if m == nil {
		return
	}
	m.rejections.WithLabelValues(reason).Inc()
}

// ObserveAuditFailure records a failed audit write.
func (m *Metrics) ObserveAuditFailure() {
	if m == nil {
		return
	}
	m.auditFailures.Inc()
}
