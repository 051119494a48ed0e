package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds all Prometheus metrics.
// All helper methods are safe to call on a nil *Metrics.
type Metrics struct {
	// Transfer metrics
	TransfersTotal         *prometheus.CounterVec
	TransferDuration       prometheus.Histogram
	TransferAmount         prometheus.Histogram
	TransferErrors         *prometheus.CounterVec
	Compensations          *prometheus.CounterVec
	ReconciliationRequired prometheus.Counter
	HistoryWriteFailures   prometheus.Counter

	// Account and request metrics
	AccountsLinked       prometheus.Counter
	MoneyRequestsCreated prometheus.Counter
	DirectoryLookups     *prometheus.CounterVec

	// API metrics
	HTTPRequests *prometheus.CounterVec
	HTTPDuration *prometheus.HistogramVec

	// Outbox metrics
	OutboxPublished *prometheus.CounterVec
	OutboxFailures  *prometheus.CounterVec

	// Authentication metrics
	AuthAttempts *prometheus.CounterVec
}

// New creates all metrics and registers them with reg.
// A nil reg registers with the default registry.
func New(reg prometheus.Registerer) *Metrics {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	factory := promauto.With(reg)

	return &Metrics{
		TransfersTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "upiledger_transfers_total",
				Help: "Total transfer attempts by final status",
			},
			[]string{"status"},
		),
		TransferDuration: factory.NewHistogram(prometheus.HistogramOpts{
			Name:    "upiledger_transfer_duration_seconds",
			Help:    "Duration of transfer operations",
			Buckets: prometheus.DefBuckets,
		}),
		TransferAmount: factory.NewHistogram(prometheus.HistogramOpts{
			Name:    "upiledger_transfer_amount",
			Help:    "Amounts of successful transfers",
			Buckets: []float64{1, 10, 100, 1000, 10000, 100000, 1000000},
		}),
		TransferErrors: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "upiledger_transfer_errors_total",
				Help: "Total number of rejected or failed transfers by type",
			},
			[]string{"error_type"},
		),
		Compensations: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "upiledger_compensations_total",
				Help: "Compensating credits to senders by result",
			},
			[]string{"result"},
		),
		ReconciliationRequired: factory.NewCounter(prometheus.CounterOpts{
			Name: "upiledger_reconciliation_required_total",
			Help: "Transfers escalated for manual reconciliation",
		}),
		HistoryWriteFailures: factory.NewCounter(prometheus.CounterOpts{
			Name: "upiledger_history_write_failures_total",
			Help: "Transfer records that could not be written after money moved",
		}),

		AccountsLinked: factory.NewCounter(prometheus.CounterOpts{
			Name: "upiledger_accounts_linked_total",
			Help: "Total number of accounts linked",
		}),
		MoneyRequestsCreated: factory.NewCounter(prometheus.CounterOpts{
			Name: "upiledger_money_requests_created_total",
			Help: "Total number of money requests created",
		}),
		DirectoryLookups: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "upiledger_directory_lookups_total",
				Help: "Handle resolutions by cache result",
			},
			[]string{"cache"},
		),

		HTTPRequests: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "upiledger_http_requests_total",
				Help: "Total HTTP requests",
			},
			[]string{"method", "path", "status"},
		),
		HTTPDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "upiledger_http_duration_seconds",
				Help:    "HTTP request duration",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"method", "path"},
		),

		OutboxPublished: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "upiledger_outbox_published_total",
				Help: "Outbox events published by type",
			},
			[]string{"event_type"},
		),
		OutboxFailures: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "upiledger_outbox_failures_total",
				Help: "Outbox events that failed to publish by type",
			},
			[]string{"event_type"},
		),

		AuthAttempts: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "upiledger_auth_attempts_total",
				Help: "Authentication attempts by operation and result",
			},
			[]string{"operation", "result"},
		),
	}
}

// ObserveTransfer records the outcome of one transfer attempt.
func (m *Metrics) ObserveTransfer(status string, amount float64, elapsed time.Duration) {
	if m == nil {
		return
	}
	m.TransfersTotal.WithLabelValues(status).Inc()
	m.TransferDuration.Observe(elapsed.Seconds())
	if status == "SUCCESS" {
		m.TransferAmount.Observe(amount)
	}
}

func (m *Metrics) TransferRejected(errorType string) {
	if m == nil {
		return
	}
	m.TransferErrors.WithLabelValues(errorType).Inc()
}

func (m *Metrics) Compensation(succeeded bool) {
	if m == nil {
		return
	}
	result := "failed"
	if succeeded {
		result = "succeeded"
	}
	m.Compensations.WithLabelValues(result).Inc()
}

func (m *Metrics) Reconciliation() {
	if m == nil {
		return
	}
	m.ReconciliationRequired.Inc()
}

func (m *Metrics) HistoryWriteFailed() {
	if m == nil {
		return
	}
	m.HistoryWriteFailures.Inc()
}

func (m *Metrics) AccountLinked() {
	if m == nil {
		return
	}
	m.AccountsLinked.Inc()
}

func (m *Metrics) MoneyRequestCreated() {
	if m == nil {
		return
	}
	m.MoneyRequestsCreated.Inc()
}

// DirectoryLookup records a handle resolution, hit or miss.
func (m *Metrics) DirectoryLookup(hit bool) {
	if m == nil {
		return
	}
	label := "miss"
	if hit {
		label = "hit"
	}
	m.DirectoryLookups.WithLabelValues(label).Inc()
}

// ObserveHTTP records one served request.
func (m *Metrics) ObserveHTTP(method, path, status string, elapsed time.Duration) {
	if m == nil {
		return
	}
	m.HTTPRequests.WithLabelValues(method, path, status).Inc()
	m.HTTPDuration.WithLabelValues(method, path).Observe(elapsed.Seconds())
}

func (m *Metrics) OutboxEvent(eventType string, err error) {
	if m == nil {
		return
	}
	if err != nil {
		m.OutboxFailures.WithLabelValues(eventType).Inc()
		return
	}
	m.OutboxPublished.WithLabelValues(eventType).Inc()
}

func (m *Metrics) AuthAttempt(operation string, err error) {
	if m == nil {
		return
	}
	result := "success"
	if err != nil {
		result = "failure"
	}
	m.AuthAttempts.WithLabelValues(operation, result).Inc()
}
