package model

// Mode selects whether a query is routed to one agent or several.
type Mode string

const (
	ModeAuto        Mode = "auto"
	ModeSingleAgent Mode = "single_agent"
	ModeMultiAgent  Mode = "multi_agent"
)

// TimingBreakdown is the per-stage wall-clock cost of one process() call.
type TimingBreakdown struct {
	RoutingMs     int64
	ExecutionMs   int64
	AggregationMs int64
	OverheadMs    int64
	TotalMs       int64
}

// FinalAnswer is the orchestrator's top-level answer shape, flattened out
// of either a single ExecutionResult or an AggregatedResponse.
type FinalAnswer struct {
	Text                   string
	Confidence             Confidence
	Alternatives           []Alternative
	Summary                string
	RecommendationStrength *float64
}

// OrchestrationMetadata carries the counts and flags a caller needs to
// judge how much to trust FinalAnswer.
type OrchestrationMetadata struct {
	SuccessfulAgents int
	FailedAgents     int
	Aggregated       bool
}

// BudgetWarning names a budget that process() found exceeded; it is
// informational only and never fails the call.
type BudgetWarning struct {
	Budget  string
	LimitMs int64
	ActualMs int64
}

// OrchestrationResult is process()'s full return value: the query, the
// mode actually used, a summary of what was routed and executed, the
// final answer, timing, metadata, and any budget warnings.
type OrchestrationResult struct {
	Query          string
	EffectiveMode  Mode
	RoutingResult  *RoutingResult
	MultiRouting   *MultiAgentRoutingResult
	Execution      *ExecutionResult
	MultiExecution *MultiAgentExecutionResult
	Answer         FinalAnswer
	Timing         TimingBreakdown
	Metadata       OrchestrationMetadata
	Warnings       []BudgetWarning
}
