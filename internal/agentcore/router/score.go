package router

import (
	"strings"

	"github.com/kingkillery/pk-code-sub001/internal/agentcore/model"
)

const (
	weightKeyword    = 0.40
	weightIntent     = 0.30
	weightTechnology = 0.20
	weightTool       = 0.10
)

// agentText concatenates an agent's name, description, and keywords into a
// single lowercased blob for lexicon and technology matching.
func agentText(a *model.Agent) string {
	var b strings.Builder
	b.WriteString(a.Name)
	b.WriteString(" ")
	b.WriteString(a.Description)
	b.WriteString(" ")
	b.WriteString(strings.Join(a.Keywords, " "))
	return strings.ToLower(b.String())
}

// keywordScore: direct set-overlap is weighted 0.6, partial/substring hits
// against name, description and keywords 0.32 (0.4*0.8), and a density
// bonus over all matched keywords 0.08 (0.2*0.4).
func keywordScore(a *model.Agent, keywords []string) float64 {
	if len(keywords) == 0 {
		return 0
	}

	agentKeywordSet := make(map[string]bool, len(a.Keywords))
	for _, k := range a.Keywords {
		agentKeywordSet[strings.ToLower(k)] = true
	}

	text := agentText(a)

	var direct, partial int
	for _, kw := range keywords {
		if agentKeywordSet[kw] {
			direct++
			continue
		}
		if strings.Contains(text, kw) {
			partial++
		}
	}

	directRatio := float64(direct) / float64(len(keywords))
	partialRatio := float64(partial) / float64(len(keywords))
	density := float64(direct+partial) / float64(len(keywords))

	score := directRatio*0.6 + partialRatio*0.4*0.8 + density*0.2*0.4
	if score > 1 {
		score = 1
	}
	return score
}

// intentLexicon lists words strongly associated with each intent, used to
// detect intent-specific vocabulary in an agent's own text.
var intentLexicon = map[model.Intent][]string{
	model.IntentCodeGeneration: {"generate", "write", "create", "implement", "build", "scaffold", "code"},
	model.IntentDebugging:      {"debug", "fix", "error", "bug", "troubleshoot", "diagnose"},
	model.IntentTesting:        {"test", "testing", "coverage", "unit", "integration", "assert"},
	model.IntentDocumentation:  {"document", "docs", "readme", "explain", "describe"},
	model.IntentAnalysis:       {"analyze", "review", "audit", "evaluate", "assess"},
	model.IntentGeneral:        {"general", "assistant", "help"},
}

func intentScore(a *model.Agent, intent model.Intent) float64 {
	lexicon := intentLexicon[intent]
	if len(lexicon) == 0 {
		return 0
	}
	text := agentText(a)
	var hits int
	for _, w := range lexicon {
		if strings.Contains(text, w) {
			hits++
		}
	}
	score := float64(hits) / float64(len(lexicon))
	if score > 1 {
		score = 1
	}
	return score
}

func technologyScore(a *model.Agent, technologies []string) float64 {
	if len(technologies) == 0 {
		return 1.0
	}
	text := agentText(a)
	var hits int
	for _, t := range technologies {
		if strings.Contains(text, strings.ToLower(t)) {
			hits++
		}
	}
	return float64(hits) / float64(len(technologies))
}

func toolScore(a *model.Agent, intent model.Intent) float64 {
	required := requiredToolsByIntent[intent]
	if len(required) == 0 {
		return 1.0
	}
	have := make(map[string]bool, len(a.Tools))
	for _, t := range a.ToolNames() {
		have[strings.ToLower(t)] = true
	}
	var hits int
	for _, r := range required {
		if have[r] {
			hits++
		}
	}
	return float64(hits) / float64(len(required))
}

// compositeScore combines the four weighted components into [0,1].
func compositeScore(a *model.Agent, analysis model.QueryAnalysis) float64 {
	return weightKeyword*keywordScore(a, analysis.Keywords) +
		weightIntent*intentScore(a, analysis.Intent) +
		weightTechnology*technologyScore(a, analysis.Technologies) +
		weightTool*toolScore(a, analysis.Intent)
}

// confidenceFor buckets a composite score per the fixed thresholds.
func confidenceFor(score float64) model.Confidence {
	switch {
	case score >= 0.9:
		return model.ConfidenceExact
	case score >= 0.7:
		return model.ConfidenceHigh
	case score >= 0.5:
		return model.ConfidenceMedium
	case score >= 0.3:
		return model.ConfidenceLow
	default:
		return model.ConfidenceNone
	}
}

// validateAgentCapability reports whether agent is capable of handling a
// query given its analysis: all required tools for the detected intent
// must be present, and if any technology was detected at least one must
// appear in the agent's text.
func validateAgentCapability(a *model.Agent, analysis model.QueryAnalysis) bool {
	required := requiredToolsByIntent[analysis.Intent]
	if len(required) > 0 {
		have := make(map[string]bool, len(a.Tools))
		for _, t := range a.ToolNames() {
			have[strings.ToLower(t)] = true
		}
		for _, r := range required {
			if !have[r] {
				return false
			}
		}
	}
	if len(analysis.Technologies) == 0 {
		return true
	}
	text := agentText(a)
	for _, t := range analysis.Technologies {
		if strings.Contains(text, strings.ToLower(t)) {
			return true
		}
	}
	return false
}
