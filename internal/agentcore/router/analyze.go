package router

import (
	"regexp"

	"github.com/kingkillery/pk-code-sub001/internal/agentcore/model"
)

// explicitInvocationRe matches `use <agentName>: "<text>"`, binding the
// agent name to the identifier rule from the data model and the quoted
// text to the remainder of the query.
var explicitInvocationRe = regexp.MustCompile(`(?i)^\s*use\s+([A-Za-z0-9_-]+)\s*:\s*"(.*)"\s*$`)

// parseExplicitInvocation extracts the agent name and free text from the
// explicit routing syntax, if the query matches it.
func parseExplicitInvocation(query string) (agentName, text string, ok bool) {
	m := explicitInvocationRe.FindStringSubmatch(query)
	if m == nil {
		return "", "", false
	}
	return m[1], m[2], true
}

// intentPattern pairs an Intent with the ordered regex family that detects
// it. Order matters: the first family to match wins.
type intentPattern struct {
	intent  model.Intent
	pattern *regexp.Regexp
}

var intentFamilies = []intentPattern{
	{model.IntentTesting, regexp.MustCompile(`(?i)\b(test|tests|testing|unit test|integration test|spec|assert|coverage)\b`)},
	{model.IntentDebugging, regexp.MustCompile(`(?i)\b(debug|bug|error|exception|crash|fail(ing|ure)?|stack trace|fix|broken)\b`)},
	{model.IntentDocumentation, regexp.MustCompile(`(?i)\b(document|documentation|docs|readme|comment|explain|describe)\b`)},
	{model.IntentCodeGeneration, regexp.MustCompile(`(?i)\b(write|create|generate|implement|build|add|scaffold)\b`)},
	{model.IntentAnalysis, regexp.MustCompile(`(?i)\b(analy[sz]e|review|audit|assess|evaluate|investigate)\b`)},
}

// detectIntent returns the first matching intent family, or IntentGeneral
// if none match.
func detectIntent(query string) model.Intent {
	for _, fam := range intentFamilies {
		if fam.pattern.MatchString(query) {
			return fam.intent
		}
	}
	return model.IntentGeneral
}

// requiredToolsByIntent names the tool set a capable agent should declare
// for each intent.
var requiredToolsByIntent = map[model.Intent][]string{
	model.IntentCodeGeneration: {"edit", "write", "create"},
	model.IntentDebugging:      {"read", "grep", "shell", "debug"},
	model.IntentTesting:        {"shell", "read", "test"},
	model.IntentDocumentation:  {"read", "write", "edit"},
	model.IntentAnalysis:       {"read", "grep", "search"},
	model.IntentGeneral:        {},
}

var connectiveRe = regexp.MustCompile(`(?i)\b(and|but|then|also|además|plus|as well as)\b`)

// complexityScore computes a 1-10 complexity estimate from keyword count,
// query length, and connective-conjunction count.
func complexityScore(query string, keywords []string) float64 {
	score := 1.0
	score += keywordCountFactor(len(keywords))
	score += lengthFactor(len(query))
	score += float64(len(connectiveRe.FindAllString(query, -1)))
	if score > 10 {
		score = 10
	}
	return score
}

func keywordCountFactor(n int) float64 {
	switch {
	case n >= 8:
		return 3
	case n >= 5:
		return 2
	case n >= 2:
		return 1
	default:
		return 0
	}
}

func lengthFactor(n int) float64 {
	switch {
	case n >= 400:
		return 3
	case n >= 200:
		return 2
	case n >= 80:
		return 1
	default:
		return 0
	}
}

// techPattern pairs a canonical technology name with a detection regex.
type techPattern struct {
	name    string
	pattern *regexp.Regexp
}

var technologyPatterns = []techPattern{
	{"react", regexp.MustCompile(`(?i)\breact\b`)},
	{"vue", regexp.MustCompile(`(?i)\bvue(\.js)?\b`)},
	{"angular", regexp.MustCompile(`(?i)\bangular\b`)},
	{"next.js", regexp.MustCompile(`(?i)\bnext\.?js\b`)},
	{"node.js", regexp.MustCompile(`(?i)\bnode(\.js)?\b`)},
	{"go", regexp.MustCompile(`(?i)\bgo(lang)?\b`)},
	{"python", regexp.MustCompile(`(?i)\bpython\b`)},
	{"typescript", regexp.MustCompile(`(?i)\btypescript\b`)},
	{"javascript", regexp.MustCompile(`(?i)\bjavascript\b`)},
	{"rust", regexp.MustCompile(`(?i)\brust\b`)},
	{"java", regexp.MustCompile(`(?i)\bjava\b`)},
	{"docker", regexp.MustCompile(`(?i)\bdocker\b`)},
	{"kubernetes", regexp.MustCompile(`(?i)\bkubernetes|k8s\b`)},
	{"aws", regexp.MustCompile(`(?i)\baws\b`)},
	{"gcp", regexp.MustCompile(`(?i)\bgcp|google cloud\b`)},
	{"azure", regexp.MustCompile(`(?i)\bazure\b`)},
	{"postgres", regexp.MustCompile(`(?i)\bpostgres(ql)?\b`)},
	{"mysql", regexp.MustCompile(`(?i)\bmysql\b`)},
	{"mongodb", regexp.MustCompile(`(?i)\bmongo(db)?\b`)},
	{"redis", regexp.MustCompile(`(?i)\bredis\b`)},
	{"graphql", regexp.MustCompile(`(?i)\bgraphql\b`)},
}

// detectTechnologies returns the canonical names of every technology
// pattern matched by query, in fixed declaration order.
func detectTechnologies(query string) []string {
	var found []string
	for _, tp := range technologyPatterns {
		if tp.pattern.MatchString(query) {
			found = append(found, tp.name)
		}
	}
	return found
}

// analyzeQuery runs the full deterministic query-analysis pipeline.
func analyzeQuery(query string) model.QueryAnalysis {
	if agentName, text, ok := parseExplicitInvocation(query); ok {
		keywords := tokenize(text)
		return model.QueryAnalysis{
			Keywords:      keywords,
			Intent:        detectIntent(text),
			Complexity:    complexityScore(text, keywords),
			Technologies:  detectTechnologies(text),
			ExplicitAgent: agentName,
		}
	}

	keywords := tokenize(query)
	return model.QueryAnalysis{
		Keywords:     keywords,
		Intent:       detectIntent(query),
		Complexity:   complexityScore(query, keywords),
		Technologies: detectTechnologies(query),
	}
}
