package aggregator

import (
	"sort"

	"github.com/kingkillery/pk-code-sub001/internal/agentcore/model"
)

// Strategy is the closed set of consensus strategies ResultAggregator can
// use to choose the primary response among successes.
type Strategy string

const (
	StrategyHighestConfidence Strategy = "HIGHEST_CONFIDENCE"
	StrategyFastestSuccess    Strategy = "FASTEST_SUCCESS"
	StrategyExpertPriority    Strategy = "EXPERT_PRIORITY"
	StrategyMajorityConsensus Strategy = "MAJORITY_CONSENSUS"
	StrategyIntelligentMerge  Strategy = "INTELLIGENT_MERGE"
)

// Weights configures INTELLIGENT_MERGE's composite score.
type Weights struct {
	Confidence float64
	Speed      float64
	Expertise  float64
	Quality    float64
}

// DefaultWeights matches the spec's default INTELLIGENT_MERGE weighting.
func DefaultWeights() Weights {
	return Weights{Confidence: 0.4, Speed: 0.2, Expertise: 0.2, Quality: 0.2}
}

// candidate is one successful result carrying everything a consensus
// strategy needs to rank it.
type candidate struct {
	result     *model.ExecutionResult
	confidence model.Confidence
	quality    model.Quality
	priority   int // lower is better; only meaningful for EXPERT_PRIORITY
	expertise  float64
}

// selectPrimary picks the primary candidate and returns the remainder in
// ranked order as supporting candidates.
func selectPrimary(strategy Strategy, candidates []candidate, weights Weights, maxDurationMs int64) (candidate, []candidate) {
	ranked := make([]candidate, len(candidates))
	copy(ranked, candidates)

	switch strategy {
	case StrategyHighestConfidence:
		sort.SliceStable(ranked, func(i, j int) bool { return ranked[i].confidence > ranked[j].confidence })
	case StrategyFastestSuccess:
		sort.SliceStable(ranked, func(i, j int) bool { return ranked[i].result.DurationMs < ranked[j].result.DurationMs })
	case StrategyExpertPriority:
		sort.SliceStable(ranked, func(i, j int) bool {
			if ranked[i].priority != ranked[j].priority {
				return ranked[i].priority < ranked[j].priority
			}
			return ranked[i].quality.Overall > ranked[j].quality.Overall
		})
	case StrategyMajorityConsensus:
		ranked = majorityConsensusOrder(ranked)
	default: // StrategyIntelligentMerge
		sort.SliceStable(ranked, func(i, j int) bool {
			return compositeScore(ranked[i], weights, maxDurationMs) > compositeScore(ranked[j], weights, maxDurationMs)
		})
	}

	return ranked[0], ranked[1:]
}

// majorityConsensusOrder keeps only candidates whose confidence is within
// 80% of the top confidence, ranks those by quality, then appends the
// rest (still quality-ranked) so callers always get a complete ordering.
func majorityConsensusOrder(ranked []candidate) []candidate {
	var topConfidence model.Confidence
	for _, c := range ranked {
		if c.confidence > topConfidence {
			topConfidence = c.confidence
		}
	}
	threshold := topConfidence * 0.8

	var inMajority, rest []candidate
	for _, c := range ranked {
		if float64(c.confidence) >= float64(threshold) {
			inMajority = append(inMajority, c)
		} else {
			rest = append(rest, c)
		}
	}
	byQuality := func(s []candidate) {
		sort.SliceStable(s, func(i, j int) bool { return s[i].quality.Overall > s[j].quality.Overall })
	}
	byQuality(inMajority)
	byQuality(rest)
	return append(inMajority, rest...)
}

// compositeScore implements INTELLIGENT_MERGE's weighted blend.
func compositeScore(c candidate, w Weights, maxDurationMs int64) float64 {
	speed := 1.0
	if maxDurationMs > 0 {
		speed = 1.0 - float64(c.result.DurationMs)/float64(maxDurationMs)
	}
	speed = clamp01(speed)
	return w.Confidence*float64(c.confidence) + w.Speed*speed + w.Expertise*c.expertise + w.Quality*c.quality.Overall
}

// expertiseScore derives an agent's "expertise surface" from the size of
// its declared tools, keywords, examples, and system prompt, normalized
// into [0,1] against generous fixed caps.
func expertiseScore(a *model.Agent) float64 {
	if a == nil {
		return 0
	}
	toolScore := clamp01(float64(len(a.Tools)) / 10.0)
	keywordScore := clamp01(float64(len(a.Keywords)) / 10.0)
	exampleScore := clamp01(float64(len(a.Examples)) / 5.0)
	promptScore := clamp01(float64(len(a.SystemPrompt)) / 1000.0)
	return clamp01((toolScore + keywordScore + exampleScore + promptScore) / 4.0)
}
