// Package observability provides Prometheus metrics for engine calls and runs.
package observability

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"fund-economics-lab/internal/domain"
)

// Engine label values.
const (
	EngineAntiDilution = "antidilution"
	EngineConversion   = "conversion"
	EngineFees         = "fees"
	EngineCarry        = "carry"
	EngineWaterfall    = "waterfall"
	EngineBenchmark    = "benchmark"
)

// Metrics holds all Prometheus metrics for the application.
// A nil *Metrics records nothing.
type Metrics struct {
	// Engine metrics
	EngineCalls  *prometheus.CounterVec
	EngineErrors *prometheus.CounterVec

	// Run metrics
	RunsTotal          *prometheus.CounterVec
	RunDuration        prometheus.Histogram
	ScenariosEvaluated prometheus.Counter
	LastSuccessfulRun  prometheus.Gauge

	// Store metrics
	StoreWriteDuration *prometheus.HistogramVec
	StoreErrors        *prometheus.CounterVec
}

// NewMetrics creates a Metrics instance registered with reg.
func NewMetrics(reg prometheus.Registerer, namespace string) *Metrics {
	if namespace == "" {
		namespace = "fund_economics"
	}
	factory := promauto.With(reg)

	return &Metrics{
		EngineCalls: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "engine",
			Name:      "calls_total",
			Help:      "Total number of engine operations by engine and status",
		}, []string{"engine", "status"}),
		EngineErrors: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "engine",
			Name:      "errors_total",
			Help:      "Total number of engine errors by engine and error kind",
		}, []string{"engine", "kind"}),

		RunsTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "orchestrator",
			Name:      "runs_total",
			Help:      "Total number of orchestrator runs by status",
		}, []string{"status"}),
		RunDuration: factory.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "orchestrator",
			Name:      "run_duration_seconds",
			Help:      "Duration of orchestrator runs",
			Buckets:   []float64{0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1, 5},
		}),
		ScenariosEvaluated: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "orchestrator",
			Name:      "scenarios_evaluated_total",
			Help:      "Total number of scenarios evaluated",
		}),
		LastSuccessfulRun: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "orchestrator",
			Name:      "last_successful_run_timestamp",
			Help:      "Unix timestamp of the last successful run",
		}),

		StoreWriteDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "store",
			Name:      "write_duration_seconds",
			Help:      "Duration of store writes",
			Buckets:   prometheus.DefBuckets,
		}, []string{"store"}),
		StoreErrors: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "store",
			Name:      "errors_total",
			Help:      "Total number of failed store writes",
		}, []string{"store"}),
	}
}

// RecordEngineCall counts one engine operation and, on failure, its error kind.
func (m *Metrics) RecordEngineCall(engine string, err error) {
	if m == nil {
		return
	}
	if err == nil {
		m.EngineCalls.WithLabelValues(engine, "ok").Inc()
		return
	}
	m.EngineCalls.WithLabelValues(engine, "error").Inc()

	kind, ok := domain.KindOf(err)
	if !ok {
		kind = "unknown"
	}
	m.EngineErrors.WithLabelValues(engine, string(kind)).Inc()
}

// RecordRun records a finished orchestrator run.
func (m *Metrics) RecordRun(scenarios int, duration time.Duration, err error) {
	if m == nil {
		return
	}
	m.RunDuration.Observe(duration.Seconds())
	if err != nil {
		m.RunsTotal.WithLabelValues("error").Inc()
		return
	}
	m.RunsTotal.WithLabelValues("ok").Inc()
	m.ScenariosEvaluated.Add(float64(scenarios))
	m.LastSuccessfulRun.SetToCurrentTime()
}

// RecordStoreWrite records a store write.
func (m *Metrics) RecordStoreWrite(store string, duration time.Duration, err error) {
	if m == nil {
		return
	}
	m.StoreWriteDuration.WithLabelValues(store).Observe(duration.Seconds())
	if err != nil {
		m.StoreErrors.WithLabelValues(store).Inc()
	}
}
