package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// Planner metrics
	PlanRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "venue_router_plan_requests_total",
			Help: "Total number of funding/withdrawal plan computations",
		},
		[]string{"venue", "result"},
	)

	DustAbsorbed = promauto.NewCounter(prometheus.CounterOpts{
		Name: "venue_router_dust_absorbed_total",
		Help: "Number of plans that absorbed a sub-fee fragment as dust",
	})

	// Optimizer metrics
	OptimizerIterations = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "venue_router_optimizer_iterations",
		Help:    "Number of ternary-search iterations per split optimization",
		Buckets: []float64{1, 2, 3, 5, 7, 10},
	})

	OptimizerQuoteFailures = promauto.NewCounter(prometheus.CounterOpts{
		Name: "venue_router_optimizer_quote_failures_total",
		Help: "Quote calls that failed during split optimization",
	})

	QuoteDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "venue_router_quote_duration_seconds",
			Help:    "Venue quote call duration in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"venue"},
	)

	// Execution metrics
	ExecutionSteps = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "venue_router_execution_steps_total",
			Help: "Execution steps by venue, kind and terminal status",
		},
		[]string{"venue", "kind", "status"},
	)

	Executions = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "venue_router_executions_total",
			Help: "Completed executions by outcome",
		},
		[]string{"result"},
	)

	ExecutionDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "venue_router_execution_duration_seconds",
			Help:    "Full pipeline execution duration in seconds",
			Buckets: []float64{0.1, 0.5, 1, 2, 5, 10, 30, 60},
		},
		[]string{"venue"},
	)

	CombinedCustodyMoves = promauto.NewCounter(prometheus.CounterOpts{
		Name: "venue_router_combined_custody_moves_total",
		Help: "Split executions that merged both venues' custody movement into one call",
	})

	// HTTP metrics
	HTTPRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "venue_router_http_requests_total",
			Help: "Total HTTP requests",
		},
		[]string{"method", "path", "status"},
	)

	HTTPDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "venue_router_http_duration_seconds",
			Help:    "HTTP request duration in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "path"},
	)
)
