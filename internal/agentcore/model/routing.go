package model

// Confidence is a bucketed scalar representing the router's certainty
// about an agent-query match.
type Confidence float64

const (
	ConfidenceNone   Confidence = 0.0
	ConfidenceLow    Confidence = 0.4
	ConfidenceMedium Confidence = 0.6
	ConfidenceHigh   Confidence = 0.8
	ConfidenceExact  Confidence = 1.0
)

// Strategy is the scheduling discipline chosen for a multi-agent routing
// decision.
type Strategy string

const (
	StrategySequential Strategy = "sequential"
	StrategyParallel   Strategy = "parallel"
	StrategyPrioritized Strategy = "prioritized"
)

// Alternative names a candidate agent the router considered but did not
// select, together with the score that placed it in the running.
type Alternative struct {
	Agent string
	Score float64
}

// RoutingResult is the outcome of routeSingle: one selected agent with a
// confidence bucket, a human-readable reason, and the runners-up.
type RoutingResult struct {
	Agent        *Agent
	Confidence   Confidence
	Reason       string
	Alternatives []Alternative

	// ExplicitInvocation is true when the query named its agent directly
	// (`use <agent>: "..."`) rather than being scored against the registry.
	ExplicitInvocation bool
}

// MultiAgentRoutingResult is the outcome of routeMulti: a primary set to
// run first, a secondary set to fill remaining slots, the scheduling
// strategy, and an estimated wall-clock duration.
type MultiAgentRoutingResult struct {
	Primary             []*Agent
	Secondary           []*Agent
	Strategy            Strategy
	EstimatedDurationMs int64

	// ExplicitInvocation is true when the query named its agent directly
	// (`use <agent>: "..."`) rather than being scored against the registry.
	ExplicitInvocation bool
}
