package service

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Allocation run outcomes.
const (
	resultAllocated = "allocated"
	resultNoOrders  = "no_orders"
	resultNoStock   = "no_stock"
	resultLockBusy  = "lock_busy"
	resultNotFound  = "not_found"
	resultFailed    = "failed"
)

var (
	AllocationRuns = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "allocation_runs_total",
		Help: "Total allocation runs by result.",
	}, []string{"result"})

	AllocationUnitsGranted = promauto.NewCounter(prometheus.CounterOpts{
		Name: "allocation_units_granted_total",
		Help: "Total units granted to orders by allocation runs.",
	})

	AllocationRunDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "allocation_run_duration_seconds",
		Help:    "Duration of allocation runs, including lock wait.",
		Buckets: prometheus.DefBuckets,
	})

	AllocationPolicyFallback = promauto.NewCounter(prometheus.CounterOpts{
		Name: "allocation_policy_fallback_total",
		Help: "Allocation runs that fell back to the default policy because the configured name was unknown.",
	})

	StockMovements = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "stock_movements_total",
		Help: "Recorded stock movements by kind.",
	}, []string{"kind"})

	SalesRecorded = promauto.NewCounter(prometheus.CounterOpts{
		Name: "sales_recorded_total",
		Help: "Direct sales recorded.",
	})

	LowStockEvents = promauto.NewCounter(prometheus.CounterOpts{
		Name: "stock_low_events_total",
		Help: "Low-stock notifications emitted after a stock decrement.",
	})
)
