// Package metrics provides internal Prometheus metrics collection for the
// agent-orchestration core. This package is internal and should not be
// imported by external projects.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"go.uber.org/zap"

	"github.com/kingkillery/pk-code-sub001/internal/agentcore/logging"
	"github.com/kingkillery/pk-code-sub001/internal/agentcore/model"
)

// Collector records routing, execution, aggregation, and orchestration
// metrics for the agent-orchestration core.
type Collector struct {
	routingTotal    *prometheus.CounterVec
	routingDuration *prometheus.HistogramVec

	executionsTotal         *prometheus.CounterVec
	executionDuration       *prometheus.HistogramVec
	circuitBreakerState     *prometheus.GaugeVec
	circuitBreakerTripped   *prometheus.CounterVec

	aggregationDuration       *prometheus.HistogramVec
	recommendationStrength    prometheus.Histogram

	orchestrationsTotal   *prometheus.CounterVec
	orchestrationDuration *prometheus.HistogramVec
	budgetWarningsTotal   *prometheus.CounterVec

	logger *zap.Logger
}

// NewCollector registers every metric under namespace and returns a
// Collector ready to record.
func NewCollector(namespace string, logger *zap.Logger) *Collector {
	logger = logging.OrDefault(logger)
	c := &Collector{
		logger: logger.With(zap.String("component", "metrics")),
	}

	c.routingTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "routing_decisions_total",
			Help:      "Total number of routing decisions by mode and confidence bucket",
		},
		[]string{"mode", "confidence"},
	)

	c.routingDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "routing_duration_seconds",
			Help:      "Router decision latency in seconds",
			Buckets:   []float64{0.0005, 0.001, 0.005, 0.01, 0.05, 0.1, 0.5},
		},
		[]string{"mode"},
	)

	c.executionsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "agent_executions_total",
			Help:      "Total number of agent executions by status",
		},
		[]string{"agent", "status"},
	)

	c.executionDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "agent_execution_duration_seconds",
			Help:      "Agent execution duration in seconds",
			Buckets:   []float64{0.1, 0.5, 1, 2, 5, 10, 30, 60, 120},
		},
		[]string{"agent"},
	)

	c.circuitBreakerState = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "circuit_breaker_state",
			Help:      "Current circuit-breaker state per agent (0=CLOSED, 1=HALF_OPEN, 2=OPEN)",
		},
		[]string{"agent"},
	)

	c.circuitBreakerTripped = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "circuit_breaker_tripped_total",
			Help:      "Total number of times an agent's circuit breaker opened",
		},
		[]string{"agent"},
	)

	c.aggregationDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "aggregation_duration_seconds",
			Help:      "Result aggregation latency in seconds",
			Buckets:   []float64{0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1},
		},
		[]string{"strategy"},
	)

	c.recommendationStrength = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "recommendation_strength",
			Help:      "Distribution of the aggregator's recommendationStrength scalar",
			Buckets:   prometheus.LinearBuckets(0, 0.1, 10),
		},
	)

	c.orchestrationsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "orchestrations_total",
			Help:      "Total number of process() calls by effective mode",
		},
		[]string{"mode"},
	)

	c.orchestrationDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "orchestration_duration_seconds",
			Help:      "End-to-end process() duration in seconds",
			Buckets:   []float64{0.1, 0.5, 1, 2, 5, 10, 30},
		},
		[]string{"mode"},
	)

	c.budgetWarningsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "budget_warnings_total",
			Help:      "Total number of budget warnings raised by process()",
		},
		[]string{"budget"},
	)

	logger.Info("metrics collector initialized", zap.String("namespace", namespace))

	return c
}

// RecordRouting records one routeSingle/routeMulti decision.
func (c *Collector) RecordRouting(mode string, confidence model.Confidence, duration time.Duration) {
	c.routingTotal.WithLabelValues(mode, confidenceLabel(confidence)).Inc()
	c.routingDuration.WithLabelValues(mode).Observe(duration.Seconds())
}

// RecordExecution records one agent's ExecutionResult.
func (c *Collector) RecordExecution(agent string, status model.ExecutionStatus, duration time.Duration) {
	c.executionsTotal.WithLabelValues(agent, string(status)).Inc()
	c.executionDuration.WithLabelValues(agent).Observe(duration.Seconds())
}

// RecordCircuitBreakerState sets the current gauge value and, when state
// transitions into OPEN, increments the tripped counter.
func (c *Collector) RecordCircuitBreakerState(agent string, state model.BreakerState, justTripped bool) {
	c.circuitBreakerState.WithLabelValues(agent).Set(breakerStateValue(state))
	if justTripped {
		c.circuitBreakerTripped.WithLabelValues(agent).Inc()
	}
}

// RecordAggregation records one ResultAggregator.Aggregate call.
func (c *Collector) RecordAggregation(strategy string, duration time.Duration, recommendationStrength float64) {
	c.aggregationDuration.WithLabelValues(strategy).Observe(duration.Seconds())
	c.recommendationStrength.Observe(recommendationStrength)
}

// RecordOrchestration records one Orchestrator.Process call and any
// budget warnings it raised.
func (c *Collector) RecordOrchestration(mode model.Mode, duration time.Duration, warnings []model.BudgetWarning) {
	c.orchestrationsTotal.WithLabelValues(string(mode)).Inc()
	c.orchestrationDuration.WithLabelValues(string(mode)).Observe(duration.Seconds())
	for _, w := range warnings {
		c.budgetWarningsTotal.WithLabelValues(w.Budget).Inc()
	}
}

func confidenceLabel(c model.Confidence) string {
	switch {
	case c >= model.ConfidenceExact:
		return "exact"
	case c >= model.ConfidenceHigh:
		return "high"
	case c >= model.ConfidenceMedium:
		return "medium"
	case c >= model.ConfidenceLow:
		return "low"
	default:
		return "none"
	}
}

func breakerStateValue(state model.BreakerState) float64 {
	switch state {
	case model.BreakerHalfOpen:
		return 1
	case model.BreakerOpen:
		return 2
	default:
		return 0
	}
}
