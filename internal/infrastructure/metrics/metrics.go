package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds all Prometheus metrics.
type Metrics struct {
	// Scheduler metrics
	SchedulerRuns         *prometheus.CounterVec
	SchedulerRunDuration  prometheus.Histogram
	SchedulerLastRun      prometheus.Gauge
	InstructionsEvaluated prometheus.Counter
	InstructionsDue       prometheus.Counter
	TransfersExecuted     prometheus.Counter
	TransfersSkipped      prometheus.Counter
	TransferFailures      *prometheus.CounterVec
	TransferAmount        prometheus.Histogram

	// Schedule history metrics
	ScheduleReconstructions *prometheus.CounterVec
	ReconstructionDuration  prometheus.Histogram

	// Dues cache metrics
	DuesCacheLookups *prometheus.CounterVec

	// API metrics
	HTTPRequests         *prometheus.CounterVec
	HTTPDuration         *prometheus.HistogramVec
	HTTPRequestsInFlight prometheus.Gauge
}

// Scheduler run results.
const (
	RunCompleted      = "completed"
	RunPartialFailure = "partial_failure"
	RunError          = "error"
	RunLocked         = "locked"
)

// New creates all metrics and registers them with reg.
func New(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)

	return &Metrics{
		SchedulerRuns: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "loanledger_scheduler_runs_total",
				Help: "Standing instruction scheduler passes by result",
			},
			[]string{"result"},
		),
		SchedulerRunDuration: factory.NewHistogram(prometheus.HistogramOpts{
			Name:    "loanledger_scheduler_run_duration_seconds",
			Help:    "Duration of a scheduler pass",
			Buckets: []float64{.1, .5, 1, 5, 15, 30, 60, 300, 900},
		}),
		SchedulerLastRun: factory.NewGauge(prometheus.GaugeOpts{
			Name: "loanledger_scheduler_last_run_timestamp_seconds",
			Help: "Unix time of the last finished scheduler pass",
		}),
		InstructionsEvaluated: factory.NewCounter(prometheus.CounterOpts{
			Name: "loanledger_instructions_evaluated_total",
			Help: "Active standing instructions looked at by the scheduler",
		}),
		InstructionsDue: factory.NewCounter(prometheus.CounterOpts{
			Name: "loanledger_instructions_due_total",
			Help: "Standing instructions that were due on the run date",
		}),
		TransfersExecuted: factory.NewCounter(prometheus.CounterOpts{
			Name: "loanledger_instruction_transfers_executed_total",
			Help: "Scheduled transfers posted successfully",
		}),
		TransfersSkipped: factory.NewCounter(prometheus.CounterOpts{
			Name: "loanledger_instruction_transfers_skipped_total",
			Help: "Due instructions skipped because the amount was not positive",
		}),
		TransferFailures: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "loanledger_instruction_transfer_failures_total",
				Help: "Failed scheduled transfers by failure kind",
			},
			[]string{"kind"},
		),
		TransferAmount: factory.NewHistogram(prometheus.HistogramOpts{
			Name:    "loanledger_instruction_transfer_amount",
			Help:    "Amounts of posted scheduled transfers",
			Buckets: []float64{1, 10, 100, 1000, 10000, 100000, 1000000},
		}),

		ScheduleReconstructions: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "loanledger_schedule_reconstructions_total",
				Help: "Archived schedule reconstructions by result",
			},
			[]string{"result"},
		),
		ReconstructionDuration: factory.NewHistogram(prometheus.HistogramOpts{
			Name:    "loanledger_schedule_reconstruction_duration_seconds",
			Help:    "Duration of archived schedule reconstructions",
			Buckets: prometheus.DefBuckets,
		}),

		DuesCacheLookups: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "loanledger_dues_cache_lookups_total",
				Help: "Loan dues cache lookups by result",
			},
			[]string{"result"},
		),

		HTTPRequests: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "loanledger_http_requests_total",
				Help: "Total HTTP requests",
			},
			[]string{"method", "path", "status"},
		),
		HTTPDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "loanledger_http_duration_seconds",
				Help:    "HTTP request duration",
				Buckets: []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5, 10},
			},
			[]string{"method", "path"},
		),
		HTTPRequestsInFlight: factory.NewGauge(prometheus.GaugeOpts{
			Name: "loanledger_http_requests_in_flight",
			Help: "Number of HTTP requests currently being processed",
		}),
	}
}
