// Package aggregator combines the per-agent results of a multi-agent
// execution into a single ranked, structured answer.
package aggregator

import (
	"go.uber.org/zap"

	"github.com/kingkillery/pk-code-sub001/internal/agentcore/errs"
	"github.com/kingkillery/pk-code-sub001/internal/agentcore/logging"
	"github.com/kingkillery/pk-code-sub001/internal/agentcore/model"
)

const (
	defaultMinConfidence  = 0.3
	defaultMaxAlternatives = 3
)

// AgentConfidence is one entry of the routingResults[] input: the routing
// confidence assigned to a single agent for this query.
type AgentConfidence struct {
	Agent      string
	Confidence model.Confidence
}

// AgentLookup resolves an agent record by name, used to compute the
// expertise component of INTELLIGENT_MERGE.
type AgentLookup interface {
	Get(name string) (*model.Agent, bool)
}

// Options configures a single Aggregate call.
type Options struct {
	Strategy        Strategy
	Weights         Weights
	ExpertPriority  map[string]int // lower value = higher priority, for EXPERT_PRIORITY
	MinConfidence   float64
	MaxAlternatives int
}

func (o Options) withDefaults() Options {
	out := o
	if out.Strategy == "" {
		out.Strategy = StrategyIntelligentMerge
	}
	if (out.Weights == Weights{}) {
		out.Weights = DefaultWeights()
	}
	if out.MinConfidence == 0 {
		out.MinConfidence = defaultMinConfidence
	}
	if out.MaxAlternatives == 0 {
		out.MaxAlternatives = defaultMaxAlternatives
	}
	return out
}

// Aggregator combines execution results into a ranked AggregatedResponse.
type Aggregator struct {
	agents AgentLookup
	logger *zap.Logger
}

// New creates an Aggregator. A nil logger defaults to a no-op logger.
func New(agents AgentLookup, logger *zap.Logger) *Aggregator {
	return &Aggregator{agents: agents, logger: logging.OrDefault(logger).With(zap.String("component", "aggregator"))}
}

// Aggregate combines multiExec's results for query into one ranked
// response. It fails with no-successful-results if no successful result
// clears opts.MinConfidence (including when every agent failed).
func (ag *Aggregator) Aggregate(multiExec *model.MultiAgentExecutionResult, query string, routingResults []AgentConfidence, opts Options) (*model.AggregatedResponse, *errs.Error) {
	opts = opts.withDefaults()

	confidenceByAgent := make(map[string]model.Confidence, len(routingResults))
	for _, rr := range routingResults {
		confidenceByAgent[rr.Agent] = rr.Confidence
	}

	var candidates []candidate
	var maxDuration int64
	for _, r := range multiExec.Results {
		if r.Status != model.StatusSuccess {
			continue
		}
		confidence := confidenceByAgent[r.Agent]
		if float64(confidence) < opts.MinConfidence {
			continue
		}
		if r.DurationMs > maxDuration {
			maxDuration = r.DurationMs
		}
		var a *model.Agent
		if ag.agents != nil {
			a, _ = ag.agents.Get(r.Agent)
		}
		candidates = append(candidates, candidate{
			result:     r,
			confidence: confidence,
			quality:    scoreQuality(r.Response.Content, query),
			priority:   opts.ExpertPriority[r.Agent],
			expertise:  expertiseScore(a),
		})
	}

	if len(candidates) == 0 {
		return nil, errs.New(errs.KindNoSuccessfulResults, "no successful agent results cleared minConfidence")
	}

	primary, supporting := selectPrimary(opts.Strategy, candidates, opts.Weights, maxDuration)
	if len(supporting) > opts.MaxAlternatives {
		supporting = supporting[:opts.MaxAlternatives]
	}

	var named []namedResponse
	for _, c := range candidates {
		named = append(named, namedResponse{agent: c.result.Agent, content: c.result.Response.Content})
	}
	conflicts := analyzeConflicts(named)

	recommendation := recommendationStrength(primary, supporting, conflicts)

	resp := &model.AggregatedResponse{
		Primary:          *primary.result.Response,
		Confidence:       primary.confidence,
		Summary:          summarize(primary, opts.Strategy),
		PrimaryQuality:   primary.quality,
		ConflictAnalysis: conflicts,
		RecommendationStrength: recommendation,
		PerformanceMetrics: model.PerformanceMetrics{
			TotalAgents:      len(multiExec.Results),
			SuccessfulAgents: len(candidates),
		},
	}
	for _, s := range supporting {
		resp.Supporting = append(resp.Supporting, *s.result.Response)
		resp.SupportingQualities = append(resp.SupportingQualities, s.quality)
		resp.Alternatives = append(resp.Alternatives, model.Alternative{Agent: s.result.Agent, Score: s.quality.Overall})
	}

	resp.Structured = buildStructured(primary, supporting, conflicts, recommendation, string(opts.Strategy), query, resp.PerformanceMetrics)
	return resp, nil
}

// recommendationStrength implements the spec's final scalar: weighted
// primary confidence and quality, plus small bonuses for consensus and
// other high-quality supporting answers, minus a conflict penalty.
func recommendationStrength(primary candidate, supporting []candidate, conflicts model.ConflictAnalysis) float64 {
	var conflictCount int
	if conflicts.HasCodeConflicts {
		conflictCount++
	}
	if conflicts.HasApproachConflicts {
		conflictCount++
	}

	var otherHighQuality int
	for _, s := range supporting {
		if s.quality.Overall >= 0.7 {
			otherHighQuality++
		}
	}

	strength := 0.4*float64(primary.confidence) +
		0.4*primary.quality.Overall +
		0.05*float64(len(conflicts.Consensus)) -
		0.1*float64(conflictCount) +
		0.05*float64(otherHighQuality)

	return clamp01(strength)
}

// summarize produces a short human-readable line describing the primary
// pick, the way a CLI would render it above the full response.
func summarize(primary candidate, strategy Strategy) string {
	return primary.result.Agent + " selected via " + string(strategy)
}

func buildStructured(primary candidate, supporting []candidate, conflicts model.ConflictAnalysis, recommendation float64, strategy, query string, perf model.PerformanceMetrics) model.StructuredResponse {
	structured := model.StructuredResponse{
		Version: "1.0",
		Primary: model.StructuredPrimary{
			Agent:           primary.result.Agent,
			Confidence:      primary.confidence,
			Content:         primary.result.Response.Content,
			Quality:         primary.quality.Overall,
			ExecutionTimeMs: primary.result.DurationMs,
		},
		Metadata: model.StructuredMetadata{
			Strategy: strategy,
			Query:    query,
		},
	}
	for _, s := range supporting {
		structured.Supporting = append(structured.Supporting, model.StructuredSupporting{
			Agent:           s.result.Agent,
			Confidence:      s.confidence,
			Content:         s.result.Response.Content,
			Quality:         s.quality.Overall,
			ExecutionTimeMs: s.result.DurationMs,
		})
	}
	for _, c := range conflicts.Consensus {
		structured.Analysis.Consensus = append(structured.Analysis.Consensus, c.Term)
	}
	if conflicts.HasCodeConflicts {
		structured.Analysis.Conflicts = append(structured.Analysis.Conflicts, "code-conflict")
	}
	if conflicts.HasApproachConflicts {
		structured.Analysis.Conflicts = append(structured.Analysis.Conflicts, "approach-conflict")
	}
	structured.Analysis.RecommendationStrength = recommendation
	structured.Analysis.Performance = perf
	return structured
}
