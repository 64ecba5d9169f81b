// Package observability exposes Prometheus metrics for the back-office
// daemon: pipeline movement, ledger activity, concurrency conflicts, and
// the reconcile sweep. Metrics are registered once at package load and
// served on /metrics by the API server.
package observability

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// ─── Pipeline Metrics ───────────────────────────────────────────────────────

// StageTransitions counts committed stage moves by direction.
var StageTransitions = promauto.NewCounterVec(prometheus.CounterOpts{
	Namespace: "mortd",
	Subsystem: "pipeline",
	Name:      "stage_transitions_total",
	Help:      "Total committed stage transitions by direction.",
}, []string{"direction"})

// InvalidTransitions counts rejected boundary moves.
var InvalidTransitions = promauto.NewCounter(prometheus.CounterOpts{
	Namespace: "mortd",
	Subsystem: "pipeline",
	Name:      "invalid_transitions_total",
	Help:      "Total stage moves rejected at a pipeline boundary.",
})

// StageOccupancy tracks how many customers sit at each stage.
var StageOccupancy = promauto.NewGaugeVec(prometheus.GaugeOpts{
	Namespace: "mortd",
	Subsystem: "pipeline",
	Name:      "stage_occupancy",
	Help:      "Current number of customers at each pipeline stage.",
}, []string{"stage"})

// EnquiryConversions counts enquiries turned into customers.
var EnquiryConversions = promauto.NewCounter(prometheus.CounterOpts{
	Namespace: "mortd",
	Subsystem: "pipeline",
	Name:      "enquiry_conversions_total",
	Help:      "Total enquiries converted into pipeline customers.",
})

// ─── Ledger Metrics ─────────────────────────────────────────────────────────

// FeeOperations counts fee mutations by kind (add, status, remove).
var FeeOperations = promauto.NewCounterVec(prometheus.CounterOpts{
	Namespace: "mortd",
	Subsystem: "ledger",
	Name:      "fee_operations_total",
	Help:      "Total fee ledger mutations by operation.",
}, []string{"operation"})

// FeesMarkedPaid counts fees moved into the PAID status.
var FeesMarkedPaid = promauto.NewCounter(prometheus.CounterOpts{
	Namespace: "mortd",
	Subsystem: "ledger",
	Name:      "fees_marked_paid_total",
	Help:      "Total fees marked paid.",
})

// ─── Concurrency Metrics ────────────────────────────────────────────────────

// VersionConflicts counts optimistic-concurrency rejections.
var VersionConflicts = promauto.NewCounter(prometheus.CounterOpts{
	Namespace: "mortd",
	Subsystem: "store",
	Name:      "version_conflicts_total",
	Help:      "Total writes rejected because the expected version was stale.",
})

// DuplicateRequests counts idempotency-key replays served from the
// original result.
var DuplicateRequests = promauto.NewCounterVec(prometheus.CounterOpts{
	Namespace: "mortd",
	Subsystem: "store",
	Name:      "duplicate_requests_total",
	Help:      "Total idempotent replays answered with the original result.",
}, []string{"kind"})

// ─── Reconcile Metrics ──────────────────────────────────────────────────────

// ReconcileSweeps counts completed consistency sweeps.
var ReconcileSweeps = promauto.NewCounter(prometheus.CounterOpts{
	Namespace: "mortd",
	Subsystem: "reconcile",
	Name:      "sweeps_total",
	Help:      "Total completed torn-transition sweeps.",
})

// TornTransitions counts customers found with a stage that disagrees with
// their latest history entry. Any nonzero rate needs investigation.
var TornTransitions = promauto.NewCounter(prometheus.CounterOpts{
	Namespace: "mortd",
	Subsystem: "reconcile",
	Name:      "torn_transitions_total",
	Help:      "Total torn transitions detected by the reconcile sweep.",
})

// ─── HTTP Metrics ───────────────────────────────────────────────────────────

// HTTPRequests counts API requests by route and status class.
var HTTPRequests = promauto.NewCounterVec(prometheus.CounterOpts{
	Namespace: "mortd",
	Subsystem: "http",
	Name:      "requests_total",
	Help:      "Total HTTP requests by route and status class.",
}, []string{"route", "status"})

// HTTPDuration tracks request latency by route.
var HTTPDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
	Namespace: "mortd",
	Subsystem: "http",
	Name:      "request_duration_ms",
	Help:      "HTTP request duration in milliseconds.",
	Buckets:   []float64{1, 5, 10, 25, 50, 100, 250, 500, 1000},
}, []string{"route"})
