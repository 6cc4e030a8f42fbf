// Package router turns a natural-language query into a routing decision:
// which agent (or agents) should handle it, and with what confidence.
// Scoring is a deterministic function of registry state and query text;
// the same inputs always produce the same outputs.
package router

import (
	"sort"

	"go.uber.org/zap"

	"github.com/kingkillery/pk-code-sub001/internal/agentcore/errs"
	"github.com/kingkillery/pk-code-sub001/internal/agentcore/logging"
	"github.com/kingkillery/pk-code-sub001/internal/agentcore/model"
)

// AgentSource is the read-only agent lookup the Router depends on. The
// Registry satisfies this directly.
type AgentSource interface {
	Get(name string) (*model.Agent, bool)
	List() []*model.Agent
}

// Options configures a Router at construction time.
type Options struct {
	// FallbackAgent names the agent routeSingle returns with LOW
	// confidence when no candidate clears the LOW threshold. Empty means
	// no fallback is configured.
	FallbackAgent string
	MaxAgents     int
}

// DefaultMaxAgents is routeMulti's default cap on primary+secondary
// agents when Options.MaxAgents is unset.
const DefaultMaxAgents = 3

// Router selects agents for a query by scoring every registered agent
// against deterministic query-analysis heuristics.
type Router struct {
	source AgentSource
	opts   Options
	logger *zap.Logger
}

// New creates a Router bound to source. A nil logger defaults to a no-op
// logger.
func New(source AgentSource, opts Options, logger *zap.Logger) *Router {
	if opts.MaxAgents <= 0 {
		opts.MaxAgents = DefaultMaxAgents
	}
	return &Router{
		source: source,
		opts:   opts,
		logger: logging.OrDefault(logger).With(zap.String("component", "router")),
	}
}

// candidate is one agent's composite score, carried alongside its
// index in the source's List order for deterministic tie-breaking.
type candidate struct {
	agent *model.Agent
	score float64
	index int
}

// rankedCandidates scores every agent in the registry against analysis
// and returns them sorted by score descending; ties broken by ascending
// Priority, then by position in the source's List order.
func (r *Router) rankedCandidates(analysis model.QueryAnalysis) []candidate {
	agents := r.source.List()
	candidates := make([]candidate, len(agents))
	for i, a := range agents {
		candidates[i] = candidate{agent: a, score: compositeScore(a, analysis), index: i}
	}
	sort.SliceStable(candidates, func(i, j int) bool {
		if candidates[i].score != candidates[j].score {
			return candidates[i].score > candidates[j].score
		}
		if candidates[i].agent.Priority != candidates[j].agent.Priority {
			return candidates[i].agent.Priority < candidates[j].agent.Priority
		}
		return candidates[i].index < candidates[j].index
	})
	return candidates
}

// RouteSingle selects exactly one agent for query.
func (r *Router) RouteSingle(query string) (*model.RoutingResult, *errs.Error) {
	analysis := analyzeQuery(query)

	if analysis.ExplicitAgent != "" {
		if agent, ok := r.source.Get(analysis.ExplicitAgent); ok {
			return &model.RoutingResult{
				Agent:              agent,
				Confidence:         model.ConfidenceExact,
				Reason:             "explicit invocation",
				ExplicitInvocation: true,
			}, nil
		}
	}

	candidates := r.rankedCandidates(analysis)

	var eligible []candidate
	for _, c := range candidates {
		if confidenceFor(c.score) != model.ConfidenceNone {
			eligible = append(eligible, c)
		}
	}

	if len(eligible) == 0 {
		if r.opts.FallbackAgent != "" {
			if agent, ok := r.source.Get(r.opts.FallbackAgent); ok {
				return &model.RoutingResult{
					Agent:      agent,
					Confidence: model.ConfidenceLow,
					Reason:     "fallback: no candidate cleared the minimum confidence threshold",
				}, nil
			}
		}
		return nil, errs.New(errs.KindNoAgent, "no agent matched the query and no fallback is configured")
	}

	best := eligible[0]
	result := &model.RoutingResult{
		Agent:      best.agent,
		Confidence: confidenceFor(best.score),
		Reason:     "composite score ranking",
	}
	for _, c := range eligible[1:] {
		result.Alternatives = append(result.Alternatives, model.Alternative{Agent: c.agent.Name, Score: c.score})
	}
	return result, nil
}

// RouteMulti selects up to maxAgents agents, split into primary (HIGH
// bucket) and secondary (MEDIUM bucket, filling remaining slots).
func (r *Router) RouteMulti(query string, maxAgents int) (*model.MultiAgentRoutingResult, *errs.Error) {
	if maxAgents <= 0 {
		maxAgents = r.opts.MaxAgents
	}

	analysis := analyzeQuery(query)

	if analysis.ExplicitAgent != "" {
		if agent, ok := r.source.Get(analysis.ExplicitAgent); ok {
			return &model.MultiAgentRoutingResult{
				Primary:             []*model.Agent{agent},
				Strategy:            model.StrategySequential,
				EstimatedDurationMs: estimatedDuration([]*model.Agent{agent}, nil, analysis),
				ExplicitInvocation:  true,
			}, nil
		}
	}

	candidates := r.rankedCandidates(analysis)

	var high, medium []candidate
	for _, c := range candidates {
		switch confidenceFor(c.score) {
		case model.ConfidenceHigh, model.ConfidenceExact:
			high = append(high, c)
		case model.ConfidenceMedium:
			medium = append(medium, c)
		}
	}

	if len(high) == 0 && len(medium) == 0 {
		return nil, errs.New(errs.KindNoAgent, "no agent cleared HIGH or MEDIUM confidence for multi-agent routing")
	}

	var primary, secondary []*model.Agent
	for _, c := range high {
		if len(primary) >= maxAgents {
			break
		}
		primary = append(primary, c.agent)
	}
	remaining := maxAgents - len(primary)
	for _, c := range medium {
		if remaining <= 0 {
			break
		}
		secondary = append(secondary, c.agent)
		remaining--
	}

	strategy := selectStrategy(len(primary), analysis.Complexity)

	return &model.MultiAgentRoutingResult{
		Primary:             primary,
		Secondary:           secondary,
		Strategy:            strategy,
		EstimatedDurationMs: estimatedDuration(primary, secondary, analysis),
	}, nil
}

// selectStrategy picks routeMulti's scheduling strategy: sequential
// whenever exactly one agent cleared HIGH (secondary's size does not
// matter — a single primary agent never benefits from parallel/
// prioritized dispatch), prioritized for high-complexity queries with
// any other primary count (zero included), else parallel.
func selectStrategy(primaryCount int, complexity float64) model.Strategy {
	switch {
	case primaryCount == 1:
		return model.StrategySequential
	case complexity > 7:
		return model.StrategyPrioritized
	default:
		return model.StrategyParallel
	}
}

// estimatedDuration implements the routeMulti timing estimate: a fixed
// base plus 100ms per tool across every selected agent, discounted 30%
// when more than one agent is involved.
func estimatedDuration(primary, secondary []*model.Agent, _ model.QueryAnalysis) int64 {
	var toolCount int
	for _, a := range primary {
		toolCount += len(a.Tools)
	}
	for _, a := range secondary {
		toolCount += len(a.Tools)
	}
	base := 2000.0 + float64(toolCount)*100.0
	if len(primary)+len(secondary) > 1 {
		base *= 0.7
	}
	return int64(base)
}

// ValidateAgentCapability re-exports the capability check for callers
// that already hold a QueryAnalysis (e.g. the orchestrator).
func ValidateAgentCapability(a *model.Agent, analysis model.QueryAnalysis) bool {
	return validateAgentCapability(a, analysis)
}

// AnalyzeQuery re-exports the query-analysis pipeline for callers that
// need it independent of a routing decision (e.g. the orchestrator's
// mode-selection heuristic).
func AnalyzeQuery(query string) model.QueryAnalysis {
	return analyzeQuery(query)
}
