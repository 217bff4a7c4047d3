// Package metrics defines the Prometheus counters and histograms this
// service exposes: ledger operations, loot claims, and contention.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	LedgerOpsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "invledger_ledger_ops_total",
		Help: "Total number of ledger primitive invocations by operation and outcome.",
	}, []string{"op", "outcome"})

	ContentionRetriesTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "invledger_contention_retries_total",
		Help: "Total number of composite-action retries triggered by ledger unique-violations.",
	})

	ContentionExceededTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "invledger_contention_exceeded_total",
		Help: "Total number of composite actions that exhausted their retry budget.",
	})

	ClaimsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "invledger_claims_total",
		Help: "Total number of consumption-filter claim attempts by result.",
	}, []string{"result"})

	FilterCASRetriesTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "invledger_filter_cas_retries_total",
		Help: "Total number of consumption-filter CAS retries.",
	})

	LedgerOpDuration = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "invledger_ledger_op_duration_seconds",
		Help:    "Time taken by a ledger primitive invocation.",
		Buckets: prometheus.ExponentialBuckets(0.0005, 2, 10),
	}, []string{"op"})

	InventorySize = prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "invledger_inventory_size",
		Help:    "Number of active stacks returned by a get_inventory call.",
		Buckets: prometheus.ExponentialBuckets(1, 2, 8),
	})
)

func init() {
	prometheus.MustRegister(
		LedgerOpsTotal,
		ContentionRetriesTotal,
		ContentionExceededTotal,
		ClaimsTotal,
		FilterCASRetriesTotal,
		LedgerOpDuration,
		InventorySize,
	)
}

// Handler returns the HTTP handler serving the Prometheus exposition format.
func Handler() http.Handler {
	return promhttp.Handler()
}
