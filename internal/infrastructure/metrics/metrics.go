package metrics

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	globalMetrics *Metrics
	metricsOnce   sync.Once
)

// Metrics holds Prometheus metrics for the orchestrator.
type Metrics struct {
	// Lifecycle transitions
	TransitionsTotal *prometheus.CounterVec

	// Ledger failure classification
	LedgerFailuresTotal *prometheus.CounterVec

	// Transaction monitor
	MonitorTrackedTotal  prometheus.Counter
	MonitorResolvedTotal *prometheus.CounterVec
	MonitorQueueDepth    prometheus.Gauge

	// Reconciliation
	ReconcileBackfilledTotal prometheus.Counter
	ReconcileUnsyncableTotal prometheus.Counter
}

// New creates and registers orchestrator metrics. Registration happens once
// per process; subsequent calls return the same instance.
func New() *Metrics {
	metricsOnce.Do(func() {
		globalMetrics = &Metrics{
			TransitionsTotal: promauto.NewCounterVec(
				prometheus.CounterOpts{
					Name: "questledger_transitions_total",
					Help: "Total lifecycle transitions by operation and outcome",
				},
				[]string{"operation", "outcome"},
			),
			LedgerFailuresTotal: promauto.NewCounterVec(
				prometheus.CounterOpts{
					Name: "questledger_ledger_failures_total",
					Help: "Total classified ledger failures",
				},
				[]string{"class"},
			),
			MonitorTrackedTotal: promauto.NewCounter(
				prometheus.CounterOpts{
					Name: "questledger_monitor_tracked_total",
					Help: "Total transactions handed to the monitor",
				},
			),
			MonitorResolvedTotal: promauto.NewCounterVec(
				prometheus.CounterOpts{
					Name: "questledger_monitor_resolved_total",
					Help: "Total monitor resolutions by terminal state",
				},
				[]string{"state"},
			),
			MonitorQueueDepth: promauto.NewGauge(
				prometheus.GaugeOpts{
					Name: "questledger_monitor_queue_depth",
					Help: "Unresolved pending-transaction rows",
				},
			),
			ReconcileBackfilledTotal: promauto.NewCounter(
				prometheus.CounterOpts{
					Name: "questledger_reconcile_backfilled_total",
					Help: "Total records backfilled from the ledger",
				},
			),
			ReconcileUnsyncableTotal: promauto.NewCounter(
				prometheus.CounterOpts{
					Name: "questledger_reconcile_unsyncable_total",
					Help: "Total ledger records that could not be backfilled without violating phase ordering",
				},
			),
		}
	})
	return globalMetrics
}
