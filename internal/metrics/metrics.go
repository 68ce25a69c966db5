// Package metrics exposes Prometheus instruments for the billing core.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics holds the application-level counters.
type Metrics struct {
	usageRecorded     *prometheus.CounterVec
	usageDeduplicated prometheus.Counter
	usageRejected     *prometheus.CounterVec
	storageFloor      prometheus.Counter
	periodRollovers   prometheus.Counter
	periodConflicts   prometheus.Counter
	quotaDenied       prometheus.Counter
	sweepRuns         prometheus.Counter
	sweepErrors       prometheus.Counter
	chargeReady       prometheus.Counter
}

// New registers the billing counters on the given registerer.
func New(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		usageRecorded: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "postloom_usage_records_total",
			Help: "Accepted usage records by category.",
		}, []string{"category"}),
		usageDeduplicated: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "postloom_usage_deduplicated_total",
			Help: "Usage records answered from a prior idempotency key.",
		}),
		usageRejected: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "postloom_usage_rejected_total",
			Help: "Usage records rejected at validation.",
		}, []string{"reason"}),
		storageFloor: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "postloom_storage_floor_total",
			Help: "Summaries whose storage balance was clamped to zero.",
		}),
		periodRollovers: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "postloom_period_rollovers_total",
			Help: "Billing periods closed and reopened.",
		}),
		periodConflicts: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "postloom_period_conflicts_total",
			Help: "Concurrent period creations resolved by re-read.",
		}),
		quotaDenied: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "postloom_ingest_quota_denied_total",
			Help: "Usage ingests denied by the monthly abuse cap.",
		}),
		sweepRuns: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "postloom_sweep_runs_total",
			Help: "Scheduler sweep executions.",
		}),
		sweepErrors: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "postloom_sweep_errors_total",
			Help: "Scheduler sweep executions that returned an error.",
		}),
		chargeReady: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "postloom_charge_ready_total",
			Help: "Billing decisions that crossed the minimum charge threshold.",
		}),
	}

	reg.MustRegister(
		m.usageRecorded,
		m.usageDeduplicated,
		m.usageRejected,
		m.storageFloor,
		m.periodRollovers,
		m.periodConflicts,
		m.quotaDenied,
		m.sweepRuns,
		m.sweepErrors,
		m.chargeReady,
	)
	return m
}

func (m *Metrics) IncUsageRecorded(category string) {
	if m == nil {
		return
	}
	m.usageRecorded.WithLabelValues(category).Inc()
}

func (m *Metrics) IncUsageDeduplicated() {
	if m == nil {
		return
	}
	m.usageDeduplicated.Inc()
}

func (m *Metrics) IncUsageRejected(reason string) {
	if m == nil {
		return
	}
	m.usageRejected.WithLabelValues(reason).Inc()
}

func (m *Metrics) IncStorageFloor() {
	if m == nil {
		return
	}
	m.storageFloor.Inc()
}

func (m *Metrics) IncPeriodRollover() {
	if m == nil {
		return
	}
	m.periodRollovers.Inc()
}

func (m *Metrics) IncPeriodConflict() {
	if m == nil {
		return
	}
	m.periodConflicts.Inc()
}

func (m *Metrics) IncQuotaDenied() {
	if m == nil {
		return
	}
	m.quotaDenied.Inc()
}

func (m *Metrics) IncSweepRun() {
	if m == nil {
		return
	}
	m.sweepRuns.Inc()
}

func (m *Metrics) IncSweepError() {
	if m == nil {
		return
	}
	m.sweepErrors.Inc()
}

func (m *Metrics) IncChargeReady() {
	if m == nil {
		return
	}
	m.chargeReady.Inc()
}
