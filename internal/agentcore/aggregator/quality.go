package aggregator

import (
	"regexp"
	"strings"

	"github.com/kingkillery/pk-code-sub001/internal/agentcore/model"
)

var (
	hedgingPhrases = []string{
		"might be", "could be", "perhaps", "possibly", "usually",
		"sometimes", "maybe", "it depends", "not sure",
	}
	specificityMarkers = []string{
		"specifically", "for example", "in particular", "namely", "e.g.",
	}
	orderedFlowMarkers = []string{
		"first", "second", "third", "then", "next", "finally", "after that",
	}
	codeFenceRe    = regexp.MustCompile("```")
	structuralRe   = regexp.MustCompile(`(?m)^\s*([-*]|\d+\.)\s`)
	functionDefRe  = regexp.MustCompile(`(?i)\b(func|function|def|class)\b`)
	commentRe      = regexp.MustCompile(`(//|#|/\*)`)
	errorHandleRe  = regexp.MustCompile(`(?i)\b(try|catch|except|error|err\s*!=\s*nil|panic|recover)\b`)
	testMarkerRe   = regexp.MustCompile(`(?i)\b(test|assert|expect|describe\(|it\()\b`)
)

// scoreQuality computes the full Quality breakdown for a single response
// against the original query text.
func scoreQuality(content, query string) model.Quality {
	q := model.Quality{}
	q.Length = lengthScore(content)
	q.Completeness = completenessScore(content, query)
	q.Specificity = specificityScore(content)
	q.Coherence = coherenceScore(content)

	q.HasCode = codeFenceRe.MatchString(content)
	if q.HasCode {
		q.CodeQuality = codeQualityScore(content)
		q.Overall = 0.15*q.Length + 0.35*q.Completeness + 0.25*q.Specificity + 0.25*q.Coherence
		q.Overall = (q.Overall*0.9 + 0.10*q.CodeQuality)
	} else {
		q.Overall = 0.15*q.Length + 0.35*q.Completeness + 0.25*q.Specificity + 0.25*q.Coherence
	}
	q.Overall = clamp01(q.Overall)
	return q
}

func lengthScore(content string) float64 {
	n := len(content)
	switch {
	case n < 20:
		return 0.1
	case n < 100:
		return 0.3 + 0.7*float64(n-20)/80.0
	case n <= 2000:
		return 1.0
	case n <= 4000:
		return 1.0 - 0.5*float64(n-2000)/2000.0
	default:
		return 0.3
	}
}

func completenessScore(content, query string) float64 {
	words := significantWords(query)
	if len(words) == 0 {
		return 0.5
	}
	lower := strings.ToLower(content)
	var hits int
	for _, w := range words {
		if strings.Contains(lower, w) {
			hits++
		}
	}
	return clamp01(float64(hits) / float64(len(words)))
}

func significantWords(text string) []string {
	fields := strings.Fields(strings.ToLower(text))
	out := make([]string, 0, len(fields))
	for _, f := range fields {
		f = strings.Trim(f, ".,!?;:\"'()")
		if len(f) > 3 {
			out = append(out, f)
		}
	}
	return out
}

func specificityScore(content string) float64 {
	lower := strings.ToLower(content)
	score := 0.5
	for _, h := range hedgingPhrases {
		if strings.Contains(lower, h) {
			score -= 0.1
		}
	}
	for _, m := range specificityMarkers {
		if strings.Contains(lower, m) {
			score += 0.1
		}
	}
	return clamp01(score)
}

func coherenceScore(content string) float64 {
	lower := strings.ToLower(content)
	score := 0.6
	for _, m := range orderedFlowMarkers {
		if strings.Contains(lower, m) {
			score += 0.2
			break
		}
	}
	if strings.Contains(content, "\n") || structuralRe.MatchString(content) {
		score += 0.2
	}
	return clamp01(score)
}

func codeQualityScore(content string) float64 {
	score := 0.5
	if functionDefRe.MatchString(content) {
		score += 0.2
	}
	if commentRe.MatchString(content) {
		score += 0.1
	}
	if errorHandleRe.MatchString(content) {
		score += 0.1
	}
	if testMarkerRe.MatchString(content) {
		score += 0.1
	}
	return clamp01(score)
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
