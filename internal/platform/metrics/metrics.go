package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds all Prometheus metrics for the custody core.
type Metrics struct {
	EvidenceLogged     prometheus.Counter
	Transfers          *prometheus.CounterVec
	Notifications      *prometheus.CounterVec
	AuditWriteFailures prometheus.Counter
	TransferDuration   prometheus.Histogram
	RequestDuration    *prometheus.HistogramVec
}

// New creates and registers all metrics on the default registry.
func New() *Metrics {
	return &Metrics{
		EvidenceLogged: promauto.NewCounter(prometheus.CounterOpts{
			Name: "custodia_evidence_logged_total",
			Help: "Total number of evidence items logged",
		}),
		Transfers: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "custodia_transfers_total",
			Help: "Total custody transfer attempts by result",
		}, []string{"result"}),
		Notifications: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "custodia_notifications_total",
			Help: "Total notification attempts by ledger status",
		}, []string{"status"}),
		AuditWriteFailures: promauto.NewCounter(prometheus.CounterOpts{
			Name: "custodia_audit_write_failures_total",
			Help: "Audit ledger writes that failed and were absorbed",
		}),
		TransferDuration: promauto.NewHistogram(prometheus.HistogramOpts{
			Name:    "custodia_transfer_duration_seconds",
			Help:    "Latency of the locked transfer transaction",
			Buckets: []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5},
		}),
		RequestDuration: promauto.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "custodia_http_request_duration_seconds",
			Help:    "HTTP request latency by route",
			Buckets: prometheus.DefBuckets,
		}, []string{"route", "method"}),
	}
}

// RecordTransfer counts one transfer attempt with its outcome label
// ("committed", "no_op", "rejected", "failed").
func (m *Metrics) RecordTransfer(result string) {
	if m == nil {
		return
	}
	m.Transfers.WithLabelValues(result).Inc()
}

// RecordNotification counts one notification attempt by ledger status.
func (m *Metrics) RecordNotification(status string) {
	if m == nil {
		return
	}
	m.Notifications.WithLabelValues(status).Inc()
}

// IncrementEvidenceLogged counts a successfully logged evidence item.
func (m *Metrics) IncrementEvidenceLogged() {
	if m == nil {
		return
	}
	m.EvidenceLogged.Inc()
}

// IncrementAuditWriteFailure counts an absorbed audit store failure.
func (m *Metrics) IncrementAuditWriteFailure() {
	if m == nil {
		return
	}
	m.AuditWriteFailures.Inc()
}

// ObserveTransferDuration records the duration of a locked transfer
// transaction.
func (m *Metrics) ObserveTransferDuration(d time.Duration) {
	if m == nil {
		return
	}
	m.TransferDuration.Observe(d.Seconds())
}
