package aggregator

import (
	"regexp"
	"strings"

	"github.com/kingkillery/pk-code-sub001/internal/agentcore/model"
)

// approachVerbs open the "main approach" sentence a response leads with.
var approachVerbs = []string{
	"use", "implement", "create", "build", "add", "apply", "refactor",
	"introduce", "replace", "migrate", "adopt", "leverage",
}

var sentenceSplitRe = regexp.MustCompile(`[.!?]\s+`)

// architectureVocabulary is the fixed set of terms consensus themes are
// detected against.
var architectureVocabulary = []string{
	"microservice", "monolith", "singleton", "factory", "observer",
	"middleware", "repository", "event-driven", "rest", "graphql",
	"cache", "queue", "dependency injection", "interface", "goroutine",
	"concurrency", "database", "transaction",
}

// extractMainApproach returns the first sentence beginning with a known
// approach verb, or "" if none is found.
func extractMainApproach(content string) string {
	sentences := sentenceSplitRe.Split(content, -1)
	for _, s := range sentences {
		trimmed := strings.TrimSpace(s)
		lower := strings.ToLower(trimmed)
		for _, v := range approachVerbs {
			if strings.HasPrefix(lower, v+" ") {
				return lower
			}
		}
	}
	return ""
}

// analyzeConflicts compares every pair of successful responses for
// disagreement signals and records shared architecture-vocabulary themes.
func analyzeConflicts(successes []namedResponse) model.ConflictAnalysis {
	var analysis model.ConflictAnalysis

	var codeCount int
	approaches := make(map[string]bool)
	for _, r := range successes {
		if codeFenceRe.MatchString(r.content) {
			codeCount++
		}
		if approach := extractMainApproach(r.content); approach != "" {
			approaches[approach] = true
		}
	}
	analysis.HasCodeConflicts = codeCount > 1
	analysis.HasApproachConflicts = len(approaches) > 1

	termAgents := make(map[string][]string)
	for _, term := range architectureVocabulary {
		for _, r := range successes {
			if strings.Contains(strings.ToLower(r.content), term) {
				termAgents[term] = append(termAgents[term], r.agent)
			}
		}
	}
	for _, term := range architectureVocabulary {
		agents := termAgents[term]
		if len(agents) >= 2 {
			analysis.Consensus = append(analysis.Consensus, model.ConsensusTheme{Term: term, Agents: agents})
		}
	}

	return analysis
}

// namedResponse pairs a successful ExecutionResult's agent and content for
// the conflict/consensus pass, avoiding a second model.ExecutionResult
// dependency in this file.
type namedResponse struct {
	agent   string
	content string
}
