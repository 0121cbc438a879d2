// Package metrics declares the Prometheus collectors of the billing core.
// Collectors register with the default registry, which /metrics serves.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "billing"

// Outcome label values.
const (
	OutcomeOK       = "ok"
	OutcomeRejected = "rejected"
	OutcomeError    = "error"
	OutcomeReplayed = "replayed"
)

// ─── Ledger ─────────────────────────────────────────────────────────────────

// LedgerOperations counts ledger primitives by operation and outcome.
var LedgerOperations = promauto.NewCounterVec(prometheus.CounterOpts{
	Namespace: namespace,
	Subsystem: "ledger",
	Name:      "operations_total",
	Help:      "Ledger primitives executed, by operation and outcome.",
}, []string{"operation", "outcome"})

// LedgerMovedMicro sums the micro-units moved by each operation.
var LedgerMovedMicro = promauto.NewCounterVec(prometheus.CounterOpts{
	Namespace: namespace,
	Subsystem: "ledger",
	Name:      "moved_micro_total",
	Help:      "Micro-units moved by ledger primitives, by operation.",
}, []string{"operation"})

// DebtsCreated counts refunds that could not be fully covered.
var DebtsCreated = promauto.NewCounter(prometheus.CounterOpts{
	Namespace: namespace,
	Subsystem: "ledger",
	Name:      "debts_created_total",
	Help:      "Refund shortfalls recorded as debt.",
})

// LedgerDrift counts balance reads where a pool's computed balance differs
// from the post balance of its latest entry.
var LedgerDrift = promauto.NewCounter(prometheus.CounterOpts{
	Namespace: namespace,
	Subsystem: "ledger",
	Name:      "balance_drift_total",
	Help:      "Balance reads whose pool balance disagreed with the entry log.",
})

// ─── Referrals & bonuses ────────────────────────────────────────────────────

// ReferralRegistrations counts registration attempts by outcome code.
var ReferralRegistrations = promauto.NewCounterVec(prometheus.CounterOpts{
	Namespace: namespace,
	Subsystem: "referral",
	Name:      "registrations_total",
	Help:      "Referral registration attempts, by outcome.",
}, []string{"outcome"})

// BonusesIssued counts bonuses issued or skipped by reason.
var BonusesIssued = promauto.NewCounterVec(prometheus.CounterOpts{
	Namespace: namespace,
	Subsystem: "earnings",
	Name:      "bonuses_total",
	Help:      "Qualifying actions processed, by result.",
}, []string{"result"})

// BonusesSettled counts bonuses moved to settled by the sweep.
var BonusesSettled = promauto.NewCounter(prometheus.CounterOpts{
	Namespace: namespace,
	Subsystem: "earnings",
	Name:      "bonuses_settled_total",
	Help:      "Bonuses settled after their maturation window.",
})

// BonusesClawedBack counts clawbacks.
var BonusesClawedBack = promauto.NewCounter(prometheus.CounterOpts{
	Namespace: namespace,
	Subsystem: "earnings",
	Name:      "bonuses_clawed_back_total",
	Help:      "Bonuses clawed back.",
})

// SettlementRuns tracks the settlement sweep.
var SettlementRuns = promauto.NewCounterVec(prometheus.CounterOpts{
	Namespace: namespace,
	Subsystem: "earnings",
	Name:      "settlement_runs_total",
	Help:      "Settlement sweeps executed, by outcome.",
}, []string{"outcome"})

// ─── Payouts ────────────────────────────────────────────────────────────────

// PayoutRequests counts payout requests by outcome code.
var PayoutRequests = promauto.NewCounterVec(prometheus.CounterOpts{
	Namespace: namespace,
	Subsystem: "payout",
	Name:      "requests_total",
	Help:      "Payout requests, by outcome.",
}, []string{"outcome"})

// PayoutTransitions counts completions and failures.
var PayoutTransitions = promauto.NewCounterVec(prometheus.CounterOpts{
	Namespace: namespace,
	Subsystem: "payout",
	Name:      "transitions_total",
	Help:      "Payout state transitions, by target status.",
}, []string{"status"})

// ─── HTTP ───────────────────────────────────────────────────────────────────

// HTTPRequests counts requests served by the internal API.
var HTTPRequests = promauto.NewCounterVec(prometheus.CounterOpts{
	Namespace: namespace,
	Subsystem: "http",
	Name:      "requests_total",
	Help:      "HTTP requests, by method, route and status.",
}, []string{"method", "route", "status"})

// HTTPRequestDuration observes request latency.
var HTTPRequestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
	Namespace: namespace,
	Subsystem: "http",
	Name:      "request_duration_seconds",
	Help:      "HTTP request latency.",
	Buckets:   prometheus.DefBuckets,
}, []string{"method", "route"})
