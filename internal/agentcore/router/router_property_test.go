package router

import (
	"testing"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"

	"github.com/kingkillery/pk-code-sub001/internal/agentcore/model"
)

// TestProperty_CompositeScoreBounded validates that the composite score
// always lands in [0,1] regardless of how many query keywords overlap an
// agent's declared keywords and description.
func TestProperty_CompositeScoreBounded(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 200

	properties := gopter.NewProperties(parameters)

	properties.Property("composite score stays within [0,1]", prop.ForAll(
		func(agentKeywords []string, queryKeywords []string, description string) bool {
			a := &model.Agent{
				Name:        "property-agent",
				Description: description,
				Keywords:    agentKeywords,
				Priority:    model.NoPriority,
			}
			analysis := model.QueryAnalysis{
				Keywords:     queryKeywords,
				Intent:       model.IntentGeneral,
				Technologies: nil,
			}
			score := compositeScore(a, analysis)
			return score >= 0 && score <= 1
		},
		gen.SliceOf(gen.AlphaString()),
		gen.SliceOf(gen.AlphaString()),
		gen.AlphaString(),
	))

	properties.TestingRun(t)
}

// TestProperty_ConfidenceBucketingIsMonotonic validates that a higher
// composite score never maps to a lower confidence bucket.
func TestProperty_ConfidenceBucketingIsMonotonic(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 200

	properties := gopter.NewProperties(parameters)

	properties.Property("confidence bucketing is monotonic in score", prop.ForAll(
		func(a, b float64) bool {
			lo, hi := a, b
			if lo > hi {
				lo, hi = hi, lo
			}
			return confidenceFor(lo) <= confidenceFor(hi)
		},
		gen.Float64Range(0, 1),
		gen.Float64Range(0, 1),
	))

	properties.TestingRun(t)
}
