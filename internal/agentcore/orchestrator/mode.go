package orchestrator

import (
	"regexp"
	"strings"

	"github.com/kingkillery/pk-code-sub001/internal/agentcore/model"
	"github.com/kingkillery/pk-code-sub001/internal/agentcore/router"
)

// explicitMultiCueRe matches lexical cues that force MULTI_AGENT mode
// regardless of the computed complexity score.
var explicitMultiCueRe = regexp.MustCompile(`(?i)\b(compare|alternatives?|different approaches|pros and cons)\b`)

// complexMarkerRe matches vocabulary associated with architecturally
// involved requests, used alongside technology count in the AUTO heuristic.
var complexMarkerRe = regexp.MustCompile(`(?i)\b(architecture|scalab\w+|distributed|concurrency|concurrent|security|performance|migrat\w+|integrat\w+|optimi[sz]e|refactor)\b`)

var connectiveRe = regexp.MustCompile(`(?i)\b(and|or|but|then|also|additionally|furthermore)\b`)

// resolveMode implements the AUTO mode-selection heuristic: a
// query-complexity score derived from length, question marks, connectives,
// complex markers, and technology count, with explicit lexical cues
// forcing MULTI_AGENT regardless of score.
func resolveMode(query string, requested model.Mode) (model.Mode, model.QueryAnalysis) {
	analysis := router.AnalyzeQuery(query)

	if requested != model.ModeAuto {
		return requested, analysis
	}

	if explicitMultiCueRe.MatchString(query) {
		return model.ModeMultiAgent, analysis
	}

	score := queryComplexityScore(query, analysis)
	complexMarkers := len(complexMarkerRe.FindAllString(query, -1))

	if score > 7 || (len(analysis.Technologies) >= 3 && complexMarkers >= 3) {
		return model.ModeMultiAgent, analysis
	}
	return model.ModeSingleAgent, analysis
}

// queryComplexityScore is the orchestrator's own 1-10 complexity figure,
// distinct from the router's per-agent QueryAnalysis.Complexity: it adds
// question-mark and technology-count terms the router does not need for
// per-agent scoring.
func queryComplexityScore(query string, analysis model.QueryAnalysis) float64 {
	score := 1.0

	switch {
	case len(query) > 400:
		score += 3
	case len(query) > 200:
		score += 2
	case len(query) > 100:
		score += 1
	}

	score += float64(strings.Count(query, "?"))
	score += float64(len(connectiveRe.FindAllString(query, -1))) * 0.5
	score += float64(len(complexMarkerRe.FindAllString(query, -1)))
	score += float64(len(analysis.Technologies)) * 0.5

	if score > 10 {
		score = 10
	}
	return score
}
