package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds all Prometheus metrics for the application. A nil *Metrics is
// valid and makes every method a no-op, so tests can skip registration.
type Metrics struct {
	ContactsCreated *prometheus.CounterVec
	ChainMerges     prometheus.Counter
	TxRetries       prometheus.Counter
	RequestDuration *prometheus.HistogramVec
}

// New creates and registers all Prometheus metrics on the default registry.
// Call once per process.
func New() *Metrics {
	return &Metrics{
		ContactsCreated: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "contactlink_contacts_created_total",
			Help: "Contacts created, labeled by link precedence.",
		}, []string{"precedence"}),
		ChainMerges: promauto.NewCounter(prometheus.CounterOpts{
			Name: "contactlink_chain_merges_total",
			Help: "Chain merges performed (absorbed primaries demoted).",
		}),
		TxRetries: promauto.NewCounter(prometheus.CounterOpts{
			Name: "contactlink_identify_tx_retries_total",
			Help: "Identify transactions retried after a store conflict.",
		}),
		RequestDuration: promauto.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "contactlink_http_request_duration_seconds",
			Help:    "HTTP request latency by method, route and status.",
			Buckets: prometheus.DefBuckets,
		}, []string{"method", "route", "status"}),
	}
}

// IncContactCreated records a contact creation by precedence.
func (m *Metrics) IncContactCreated(precedence string) {
	if m == nil {
		return
	}
	m.ContactsCreated.WithLabelValues(precedence).Inc()
}

// IncChainMerge records a demoted primary during a merge.
func (m *Metrics) IncChainMerge() {
	if m == nil {
		return
	}
	m.ChainMerges.Inc()
}

// IncTxRetry records a conflict-triggered retry of an identify transaction.
func (m *Metrics) IncTxRetry() {
	if m == nil {
		return
	}
	m.TxRetries.Inc()
}

// ObserveRequest records a completed HTTP request.
func (m *Metrics) ObserveRequest(method, route, status string, elapsed time.Duration) {
	if m == nil {
		return
	}
	m.RequestDuration.WithLabelValues(method, route, status).Observe(elapsed.Seconds())
}
