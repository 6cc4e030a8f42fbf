// Package executor runs agents against a model-endpoint collaborator
// under timeouts, cancellation, a per-agent circuit breaker, and one of
// three scheduling strategies (sequential, parallel, prioritized).
package executor

import (
	"context"
	"errors"
	"sync"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/semaphore"
	"golang.org/x/time/rate"

	"github.com/kingkillery/pk-code-sub001/internal/agentcore/errs"
	"github.com/kingkillery/pk-code-sub001/internal/agentcore/logging"
	"github.com/kingkillery/pk-code-sub001/internal/agentcore/model"
)

var (
	errTotalTimeout  = errors.New("total timeout exceeded")
	errExternalCancel = errors.New("externally cancelled")
)

// Executor runs one or more agents and returns their results. A single
// Executor owns the circuit-breaker state for every agent name it has
// ever seen.
type Executor struct {
	logger         *zap.Logger
	breakers       *circuitBreakers
	defaultFactory GeneratorFactory
	limiter        *rate.Limiter
}

// Option configures optional Executor behavior not needed by every
// caller (endpoint-wide rate shaping).
type Option func(*Executor)

// WithRateLimit bounds every agent call this Executor ever makes to
// ratePerSecond sustained, burst instantaneous, token-bucket shaped. All
// agents share the one limiter since they are assumed to hit the same
// underlying model endpoint; callers that front distinct endpoints
// should use distinct Executors. Omit this option for unlimited calls.
func WithRateLimit(ratePerSecond float64, burst int) Option {
	return func(ex *Executor) { ex.limiter = rate.NewLimiter(rate.Limit(ratePerSecond), burst) }
}

// New creates an Executor. defaultFactory is used whenever a call's
// Options does not supply its own ContentGeneratorFactory; it may be nil
// if every call supplies one. A nil logger defaults to a no-op logger.
func New(defaultFactory GeneratorFactory, logger *zap.Logger, opts ...Option) *Executor {
	ex := &Executor{
		logger:         logging.OrDefault(logger).With(zap.String("component", "executor")),
		breakers:       newCircuitBreakers(defaultBreakerConfig()),
		defaultFactory: defaultFactory,
	}
	for _, opt := range opts {
		opt(ex)
	}
	return ex
}

// DrainRateLimit consumes one token from the rate limiter configured via
// WithRateLimit, if any. It exists for tests that need to force the next
// call to wait for the bucket to refill; production callers never need it.
func (ex *Executor) DrainRateLimit(ctx context.Context) error {
	if ex.limiter == nil {
		return nil
	}
	return ex.limiter.Wait(ctx)
}

// ExecuteSingle runs the single agent named by routing. When routing was
// produced by an explicit `use <agent>: "..."` invocation, ContinueOnError
// defaults to false rather than true.
func (ex *Executor) ExecuteSingle(ctx context.Context, routing *model.RoutingResult, query string, opts Options) (*model.ExecutionResult, *errs.Error) {
	if routing == nil || routing.Agent == nil {
		return nil, errs.New(errs.KindNoAgent, "routing result carries no agent")
	}
	opts = opts.withDefaults(routing.ExplicitInvocation)
	rootCtx, cancel := ex.buildRootContext(ctx, opts)
	defer cancel()

	return ex.runAgent(rootCtx, routing.Agent, query, opts), nil
}

// ExecuteMulti runs every primary and secondary agent in routing under
// the strategy it names. When routing came from an explicit `use <agent>:
// "..."` invocation run sequentially, ContinueOnError defaults to false
// rather than true.
func (ex *Executor) ExecuteMulti(ctx context.Context, routing *model.MultiAgentRoutingResult, query string, opts Options) (*model.MultiAgentExecutionResult, *errs.Error) {
	if routing == nil {
		return nil, errs.New(errs.KindNoAgent, "no multi-agent routing result supplied")
	}
	sequentialWithExplicitIntent := routing.ExplicitInvocation && routing.Strategy == model.StrategySequential
	opts = opts.withDefaults(sequentialWithExplicitIntent)
	rootCtx, cancel := ex.buildRootContext(ctx, opts)
	defer cancel()

	var results []*model.ExecutionResult
	switch routing.Strategy {
	case model.StrategySequential:
		results = ex.runSequential(rootCtx, append(append([]*model.Agent{}, routing.Primary...), routing.Secondary...), query, opts)
	case model.StrategyPrioritized:
		results = ex.runPrioritized(rootCtx, routing.Primary, routing.Secondary, query, opts)
	default:
		all := append(append([]*model.Agent{}, routing.Primary...), routing.Secondary...)
		results = ex.runParallel(rootCtx, all, query, opts, opts.MaxConcurrency)
	}

	counts := model.CountStatuses(results)
	status := model.BatchFailed
	switch {
	case len(results) > 0 && counts.Successful == len(results):
		status = model.BatchSuccess
	case counts.Successful > 0:
		status = model.BatchPartial
	}

	multi := &model.MultiAgentExecutionResult{Results: results, Status: status}
	if opts.AggregateResults {
		multi.Aggregated = synthesizeAggregate(results)
	}
	return multi, nil
}

// buildRootContext composes the external-cancel and total-timeout
// cancellation sources into one context, tagging each with a distinct
// cause so runAgent can tell a total-timeout expiry from an external
// cancellation from the caller's own ctx cancellation.
func (ex *Executor) buildRootContext(ctx context.Context, opts Options) (context.Context, context.CancelFunc) {
	root := ctx
	if opts.ExternalCancel != nil {
		var cancelCause context.CancelCauseFunc
		root, cancelCause = context.WithCancelCause(root)
		go func() {
			select {
			case <-opts.ExternalCancel:
				cancelCause(errExternalCancel)
			case <-root.Done():
			}
		}()
	}
	return context.WithTimeoutCause(root, opts.totalTimeout(), errTotalTimeout)
}

// runAgent executes one agent call under opts.TimeoutMs, classifying the
// outcome against the circuit breaker and the root context's cancellation
// cause.
func (ex *Executor) runAgent(ctx context.Context, agent *model.Agent, query string, opts Options) *model.ExecutionResult {
	start := time.Now()
	result := &model.ExecutionResult{Agent: agent.Name, StartTime: start}

	if !ex.breakers.allow(agent.Name) {
		result.Status = model.StatusError
		result.Err = errs.New(errs.KindCircuitBreakerOpen, "circuit breaker open").WithAgent(agent.Name)
		result.EndTime = time.Now()
		result.DurationMs = result.EndTime.Sub(start).Milliseconds()
		result.Metadata = ex.breakers.snapshot(agent.Name)
		return result
	}

	generator := ex.generatorFor(agent.Name, opts)
	req := BuildRequest(agent.Model, agent.SystemPrompt, query, agent.Temperature, agent.MaxTokens)

	callCtx, cancel := context.WithTimeout(ctx, opts.timeout())
	defer cancel()

	if ex.limiter != nil {
		if err := ex.limiter.Wait(callCtx); err != nil {
			result.Status = model.StatusTimeout
			result.Err = errs.New(errs.KindTimeout, "rate limit wait exceeded call timeout").WithAgent(agent.Name)
			result.EndTime = time.Now()
			result.DurationMs = result.EndTime.Sub(start).Milliseconds()
			result.Metadata = ex.breakers.snapshot(agent.Name)
			return result
		}
	}

	var resp *Response
	var err error
	if generator == nil {
		err = errors.New("no generator configured for agent")
	} else if cancelAware, ok := generator.(CancelAwareGenerator); ok && opts.ExternalCancel != nil {
		resp, err = cancelAware.GenerateWithCancel(callCtx, req, opts.ExternalCancel)
	} else {
		resp, err = generator.Generate(callCtx, req)
	}

	end := time.Now()
	result.EndTime = end
	result.DurationMs = end.Sub(start).Milliseconds()

	if err != nil {
		cause := context.Cause(callCtx)
		switch {
		case errors.Is(cause, errExternalCancel):
			result.Status = model.StatusCancelled
			result.Err = errs.New(errs.KindCancelled, "execution cancelled").WithAgent(agent.Name)
		case errors.Is(cause, errTotalTimeout):
			result.Status = model.StatusTimeout
			result.Err = errs.New(errs.KindTotalTimeout, "total timeout exceeded").WithAgent(agent.Name)
			if *opts.CountTimeoutAsFailure {
				ex.breakers.recordFailure(agent.Name)
			}
		case errors.Is(callCtx.Err(), context.DeadlineExceeded):
			result.Status = model.StatusTimeout
			result.Err = errs.New(errs.KindTimeout, "agent call timed out").WithAgent(agent.Name)
			if *opts.CountTimeoutAsFailure {
				ex.breakers.recordFailure(agent.Name)
			}
		default:
			result.Status = model.StatusError
			result.Err = errs.Wrap(errs.KindExecutionError, "agent generator failed", err).WithAgent(agent.Name)
			ex.breakers.recordFailure(agent.Name)
		}
		result.Metadata = ex.breakers.snapshot(agent.Name)
		return result
	}

	ex.breakers.recordSuccess(agent.Name)
	meta := ex.breakers.snapshot(agent.Name)
	if resp.ExecutionTimeMs > 0 {
		overhead := result.DurationMs - resp.ExecutionTimeMs
		if overhead < 0 {
			overhead = 0
		}
		meta.OverheadMs = overhead
	}
	result.Metadata = meta
	result.Status = model.StatusSuccess
	result.Response = &model.Response{Agent: agent.Name, Content: resp.Text()}
	return result
}

func (ex *Executor) generatorFor(agentName string, opts Options) Generator {
	if opts.ContentGeneratorFactory != nil {
		return opts.ContentGeneratorFactory(agentName)
	}
	if ex.defaultFactory != nil {
		return ex.defaultFactory(agentName)
	}
	return nil
}

// runSequential runs agents one at a time, stopping early when
// ContinueOnError is false and an agent does not succeed.
func (ex *Executor) runSequential(ctx context.Context, agents []*model.Agent, query string, opts Options) []*model.ExecutionResult {
	results := make([]*model.ExecutionResult, 0, len(agents))
	for _, a := range agents {
		r := ex.runAgent(ctx, a, query, opts)
		results = append(results, r)
		ex.notifyProgress(opts, r)
		if !*opts.ContinueOnError && r.Status != model.StatusSuccess {
			break
		}
	}
	return results
}

// runParallel runs every agent concurrently, bounded by maxConcurrency,
// writing each result into its input-order slot so callers never need to
// re-sort.
func (ex *Executor) runParallel(ctx context.Context, agents []*model.Agent, query string, opts Options, maxConcurrency int) []*model.ExecutionResult {
	if maxConcurrency <= 0 {
		maxConcurrency = 1
	}
	results := make([]*model.ExecutionResult, len(agents))
	sem := semaphore.NewWeighted(int64(maxConcurrency))
	var wg sync.WaitGroup

	for i, a := range agents {
		i, a := i, a
		wg.Add(1)
		go func() {
			defer wg.Done()
			if err := sem.Acquire(ctx, 1); err != nil {
				results[i] = ex.runAgent(ctx, a, query, opts)
				ex.notifyProgress(opts, results[i])
				return
			}
			defer sem.Release(1)
			r := ex.runAgent(ctx, a, query, opts)
			results[i] = r
			ex.notifyProgress(opts, r)
		}()
	}
	wg.Wait()
	return results
}

// runPrioritized runs primary agents in parallel (capped at 3), then
// secondary agents in parallel (capped at 2) only if at least one
// primary agent succeeded.
func (ex *Executor) runPrioritized(ctx context.Context, primary, secondary []*model.Agent, query string, opts Options) []*model.ExecutionResult {
	primaryResults := ex.runParallel(ctx, primary, query, opts, min(3, len(primary)))

	anySuccess := false
	for _, r := range primaryResults {
		if r.Status == model.StatusSuccess {
			anySuccess = true
			break
		}
	}

	results := primaryResults
	if anySuccess && len(secondary) > 0 {
		secondaryResults := ex.runParallel(ctx, secondary, query, opts, min(2, len(secondary)))
		results = append(results, secondaryResults...)
	}
	return results
}

func (ex *Executor) notifyProgress(opts Options, r *model.ExecutionResult) {
	if opts.OnProgress != nil {
		opts.OnProgress(&ResultEnvelope{Agent: r.Agent, Status: string(r.Status)})
	}
}

// synthesizeAggregate builds the minimal AggregatedResponse the executor
// returns when AggregateResults is true: the first successful result
// (agents are ordered primary-then-secondary, itself confidence-ordered
// by the router) becomes Primary, the remaining successes become
// Supporting.
func synthesizeAggregate(results []*model.ExecutionResult) *model.AggregatedResponse {
	var successes []*model.ExecutionResult
	for _, r := range results {
		if r.Status == model.StatusSuccess {
			successes = append(successes, r)
		}
	}
	if len(successes) == 0 {
		return nil
	}
	agg := &model.AggregatedResponse{Primary: *successes[0].Response}
	for _, s := range successes[1:] {
		agg.Supporting = append(agg.Supporting, *s.Response)
	}
	return agg
}
