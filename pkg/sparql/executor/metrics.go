package executor

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// query outcomes used as the "outcome" label
const (
	outcomeOK       = "ok"
	outcomeRejected = "rejected"
	outcomeFailed   = "failed"
)

type executorMetrics struct {
	queries        *prometheus.CounterVec
	rowsReturned   prometheus.Counter
	latencySeconds prometheus.Summary
}

var metrics = executorMetrics{
	queries: promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "plantkg",
		Subsystem: "query",
		Name:      "executions_total",
		Help: `The number of queries evaluated, by outcome.

"rejected" covers syntax, structural and prefix resolution errors, which
are detected before any join work. "failed" covers storage errors.
`,
	}, []string{"outcome"}),
	rowsReturned: promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "plantkg",
		Subsystem: "query",
		Name:      "rows_total",
		Help:      "The number of result rows returned by successful queries.",
	}),
	latencySeconds: promauto.NewSummary(prometheus.SummaryOpts{
		Namespace:  "plantkg",
		Subsystem:  "query",
		Name:       "latency_seconds",
		Help:       "The time it takes to evaluate a query, including failed ones.",
		Objectives: map[float64]float64{0.5: 0.05, 0.9: 0.01, 0.99: 0.001},
	}),
}
