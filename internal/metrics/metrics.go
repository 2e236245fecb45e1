package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Collectors are registered with the default registry on import.

var (
	// BindFailures counts rejected parameter lists, labeled by error kind
	// (shape, name_type, value_type).
	BindFailures = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "graphbind_bind_failures_total",
			Help: "Total number of parameter lists rejected before reaching the engine",
		},
		[]string{"reason"},
	)

	// Executions counts engine calls by outcome (ok, error).
	Executions = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "graphbind_executions_total",
			Help: "Total number of queries handed to the engine",
		},
		[]string{"outcome"},
	)

	ExecutionDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "graphbind_execution_duration_seconds",
			Help:    "Time from execute call until a cursor is available",
			Buckets: []float64{0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1, 2.5, 5, 10},
		},
	)

	OpenCursors = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "graphbind_open_cursors",
			Help: "Number of result cursors not yet closed",
		},
	)

	RowsFetched = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "graphbind_rows_fetched_total",
			Help: "Total number of rows returned through cursors",
		},
	)

	// HTTPRequestsTotal counts HTTP requests by method, path and status code.
	HTTPRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "graphbind_http_requests_total",
			Help: "Total number of HTTP requests processed",
		},
		[]string{"method", "path", "status"},
	)
)
