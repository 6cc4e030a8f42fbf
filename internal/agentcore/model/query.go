package model

// Intent is the closed set of query intents the Router detects.
type Intent string

const (
	IntentCodeGeneration Intent = "code-generation"
	IntentDebugging      Intent = "debugging"
	IntentTesting        Intent = "testing"
	IntentDocumentation  Intent = "documentation"
	IntentAnalysis       Intent = "analysis"
	IntentGeneral        Intent = "general"
)

// QueryAnalysis is the derived, per-request analysis of a natural-language
// query. It is never stored; it lives for the duration of a single routing
// decision.
type QueryAnalysis struct {
	Keywords      []string
	Intent        Intent
	Complexity    float64 // in [1, 10]
	Technologies  []string
	ExplicitAgent string // agent name parsed from `use <agent>: "<query>"`, if any
}
