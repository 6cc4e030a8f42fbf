// Package orchestrator is the façade composing the Loader/Registry output
// with Router, Executor, and ResultAggregator into one process() entry
// point that a CLI collaborator calls with a raw query.
package orchestrator

import (
	"context"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"

	"github.com/kingkillery/pk-code-sub001/internal/agentcore/aggregator"
	"github.com/kingkillery/pk-code-sub001/internal/agentcore/errs"
	"github.com/kingkillery/pk-code-sub001/internal/agentcore/executor"
	"github.com/kingkillery/pk-code-sub001/internal/agentcore/logging"
	"github.com/kingkillery/pk-code-sub001/internal/agentcore/model"
	"github.com/kingkillery/pk-code-sub001/internal/agentcore/router"
	"github.com/kingkillery/pk-code-sub001/internal/metrics"
	"github.com/kingkillery/pk-code-sub001/internal/telemetry"
)

// AgentSource is the read-only agent lookup the Orchestrator depends on.
// The Registry satisfies this directly; it has the same method set as
// router.AgentSource and includes aggregator.AgentLookup, so one Registry
// value wires all three.
type AgentSource interface {
	Get(name string) (*model.Agent, bool)
	List() []*model.Agent
}

// Orchestrator composes Router, Executor, and Aggregator behind one
// process() call, resolving mode selection and budget warnings along the
// way.
type Orchestrator struct {
	source       AgentSource
	router       *router.Router
	executor     *executor.Executor
	aggregator   *aggregator.Aggregator
	fallbackAgent string
	logger       *zap.Logger
	metrics      *metrics.Collector
	tracer       trace.Tracer
	telemetry    *telemetry.Providers
	executorOpts []executor.Option
}

// Option configures optional Orchestrator collaborators not needed by
// every caller (metrics, tracing). Tests and simple embedders can omit
// them entirely.
type Option func(*Orchestrator)

// WithMetrics attaches a Collector that records routing/execution/
// aggregation/orchestration observations made during Process.
func WithMetrics(c *metrics.Collector) Option {
	return func(o *Orchestrator) { o.metrics = c }
}

// WithTracing attaches a telemetry.Providers whose Tracer wraps the
// routing/execution/aggregation stages of Process in spans. A nil or
// disabled Providers yields a tracer from the global otel provider (a
// no-op unless one has been installed), so this is safe to call
// unconditionally.
func WithTracing(p *telemetry.Providers) Option {
	return func(o *Orchestrator) {
		o.tracer = p.Tracer("orchestrator")
		o.telemetry = p
	}
}

// WithExecutorRateLimit bounds every agent call the Executor makes to
// ratePerSecond sustained, burst instantaneous, since every agent is
// assumed to share one underlying model endpoint. Omit for unlimited calls.
func WithExecutorRateLimit(ratePerSecond float64, burst int) Option {
	return func(o *Orchestrator) {
		o.executorOpts = append(o.executorOpts, executor.WithRateLimit(ratePerSecond, burst))
	}
}

// New creates an Orchestrator. defaultFactory supplies model-endpoint
// generators for the Executor. A nil logger defaults to a no-op logger.
func New(source AgentSource, defaultFactory executor.GeneratorFactory, logger *zap.Logger, opts ...Option) *Orchestrator {
	logger = logging.OrDefault(logger).With(zap.String("component", "orchestrator"))
	fallback := resolveFallback(source.List())

	o := &Orchestrator{
		source:        source,
		router:        router.New(source, router.Options{FallbackAgent: fallback}, logger),
		aggregator:    aggregator.New(source, logger),
		fallbackAgent: fallback,
		logger:        logger,
		tracer:        otel.Tracer("orchestrator"),
	}
	for _, opt := range opts {
		opt(o)
	}
	o.executor = executor.New(defaultFactory, logger, o.executorOpts...)
	return o
}

// Process implements the orchestrator contract: mode selection, routing,
// execution, aggregation (when multi-agent), and non-fatal budget warnings.
func (o *Orchestrator) Process(ctx context.Context, query string, opts Options) (*model.OrchestrationResult, *errs.Error) {
	requestID := uuid.New().String()
	ctx, span := o.tracer.Start(ctx, "orchestrator.Process", trace.WithAttributes(attribute.String("request_id", requestID)))
	defer span.End()
	requestLogger := o.logger.With(zap.String("request_id", requestID))
	requestLogger.Debug("processing request", zap.String("query", query), zap.String("requested_mode", string(opts.Mode)))

	opts = opts.withDefaults()
	totalStart := time.Now()

	mode, _ := resolveMode(query, opts.Mode)

	result := &model.OrchestrationResult{Query: query, EffectiveMode: mode}

	var execErr *errs.Error
	switch mode {
	case model.ModeMultiAgent:
		execErr = o.processMulti(ctx, query, opts, result)
	default:
		execErr = o.processSingle(ctx, query, opts, result)
	}
	if execErr != nil {
		return nil, execErr
	}

	result.Timing.TotalMs = time.Since(totalStart).Milliseconds()
	result.Timing.OverheadMs = result.Timing.TotalMs - result.Timing.RoutingMs - result.Timing.ExecutionMs - result.Timing.AggregationMs
	if result.Timing.OverheadMs < 0 {
		result.Timing.OverheadMs = 0
	}

	result.Warnings = checkBudgets(result.Timing, opts.MaxExecutionTimeMs)

	if o.metrics != nil {
		o.metrics.RecordOrchestration(mode, time.Duration(result.Timing.TotalMs)*time.Millisecond, result.Warnings)
	}
	if o.telemetry != nil {
		o.telemetry.RecordProcessCall(ctx, string(mode))
	}
	return result, nil
}

func (o *Orchestrator) processSingle(ctx context.Context, query string, opts Options, result *model.OrchestrationResult) *errs.Error {
	ctx, routeSpan := o.tracer.Start(ctx, "orchestrator.routeSingle")
	routingStart := time.Now()
	routing, err := o.router.RouteSingle(query)
	routingDuration := time.Since(routingStart)
	result.Timing.RoutingMs = routingDuration.Milliseconds()
	routeSpan.End()
	if err != nil {
		return err
	}
	result.RoutingResult = routing
	if o.metrics != nil {
		o.metrics.RecordRouting(string(model.ModeSingleAgent), routing.Confidence, routingDuration)
	}

	ctx, execSpan := o.tracer.Start(ctx, "orchestrator.executeSingle")
	execStart := time.Now()
	execResult, err := o.executor.ExecuteSingle(ctx, routing, query, opts.ExecutorOptions)
	execDuration := time.Since(execStart)
	result.Timing.ExecutionMs = execDuration.Milliseconds()
	execSpan.End()
	if err != nil {
		return err
	}
	result.Execution = execResult
	if o.metrics != nil && routing.Agent != nil {
		o.metrics.RecordExecution(routing.Agent.Name, execResult.Status, execDuration)
	}

	result.Metadata.Aggregated = false
	if execResult.Status == model.StatusSuccess {
		result.Metadata.SuccessfulAgents = 1
		result.Answer = model.FinalAnswer{
			Text:         execResult.Response.Content,
			Confidence:   routing.Confidence,
			Alternatives: routing.Alternatives,
		}
	} else {
		result.Metadata.FailedAgents = 1
		result.Answer = model.FinalAnswer{Confidence: model.ConfidenceNone}
	}
	return nil
}

func (o *Orchestrator) processMulti(ctx context.Context, query string, opts Options, result *model.OrchestrationResult) *errs.Error {
	ctx, routeSpan := o.tracer.Start(ctx, "orchestrator.routeMulti")
	routingStart := time.Now()
	routing, err := o.router.RouteMulti(query, opts.MaxAgents)
	routingDuration := time.Since(routingStart)
	result.Timing.RoutingMs = routingDuration.Milliseconds()
	routeSpan.End()
	if err != nil {
		return err
	}
	result.MultiRouting = routing
	if o.metrics != nil {
		o.metrics.RecordRouting(string(model.ModeMultiAgent), model.ConfidenceHigh, routingDuration)
	}

	ctx, execSpan := o.tracer.Start(ctx, "orchestrator.executeMulti")
	execStart := time.Now()
	execResult, err := o.executor.ExecuteMulti(ctx, routing, query, opts.ExecutorOptions)
	execDuration := time.Since(execStart)
	result.Timing.ExecutionMs = execDuration.Milliseconds()
	execSpan.End()
	if err != nil {
		return err
	}
	result.MultiExecution = execResult
	if o.metrics != nil {
		for _, r := range execResult.Results {
			o.metrics.RecordExecution(r.Agent, r.Status, time.Duration(r.DurationMs)*time.Millisecond)
		}
	}

	counts := model.CountStatuses(execResult.Results)
	result.Metadata.SuccessfulAgents = counts.Successful
	result.Metadata.FailedAgents = counts.Failed + counts.Timeout + counts.Cancelled

	confidences := confidenceByRoutingTier(routing)

	_, aggSpan := o.tracer.Start(ctx, "orchestrator.aggregate")
	aggStart := time.Now()
	aggregated, aggErr := o.aggregator.Aggregate(execResult, query, confidences, opts.AggregatorOptions)
	aggDuration := time.Since(aggStart)
	result.Timing.AggregationMs = aggDuration.Milliseconds()
	aggSpan.End()
	if aggErr != nil {
		result.Answer = model.FinalAnswer{Confidence: model.ConfidenceNone}
		result.Metadata.Aggregated = false
		return nil
	}

	result.Metadata.Aggregated = true
	strength := aggregated.RecommendationStrength
	result.Answer = model.FinalAnswer{
		Text:                   aggregated.Primary.Content,
		Confidence:             aggregated.Confidence,
		Alternatives:           aggregated.Alternatives,
		Summary:                aggregated.Summary,
		RecommendationStrength: &strength,
	}
	if o.metrics != nil {
		o.metrics.RecordAggregation(aggregated.Structured.Metadata.Strategy, aggDuration, strength)
	}
	return nil
}

// confidenceByRoutingTier assigns HIGH confidence to primary agents and
// MEDIUM to secondary agents, mirroring the bucket each was selected
// under in routeMulti. MultiAgentRoutingResult does not carry a per-agent
// score, only the tier each agent cleared.
func confidenceByRoutingTier(routing *model.MultiAgentRoutingResult) []aggregator.AgentConfidence {
	out := make([]aggregator.AgentConfidence, 0, len(routing.Primary)+len(routing.Secondary))
	for _, a := range routing.Primary {
		out = append(out, aggregator.AgentConfidence{Agent: a.Name, Confidence: model.ConfidenceHigh})
	}
	for _, a := range routing.Secondary {
		out = append(out, aggregator.AgentConfidence{Agent: a.Name, Confidence: model.ConfidenceMedium})
	}
	return out
}

// checkBudgets compares the assembled timing breakdown against the
// caller's max-execution-time budget and the fixed 400ms core-overhead
// budget, reporting warnings rather than failing the call.
func checkBudgets(timing model.TimingBreakdown, maxExecutionTimeMs int64) []model.BudgetWarning {
	var warnings []model.BudgetWarning
	if maxExecutionTimeMs > 0 && timing.TotalMs > maxExecutionTimeMs {
		warnings = append(warnings, model.BudgetWarning{Budget: "maxExecutionTimeMs", LimitMs: maxExecutionTimeMs, ActualMs: timing.TotalMs})
	}
	if timing.OverheadMs > coreOverheadBudgetMs {
		warnings = append(warnings, model.BudgetWarning{Budget: "coreOverheadMs", LimitMs: coreOverheadBudgetMs, ActualMs: timing.OverheadMs})
	}
	return warnings
}
