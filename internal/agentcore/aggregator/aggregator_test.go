package aggregator

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kingkillery/pk-code-sub001/internal/agentcore/errs"
	"github.com/kingkillery/pk-code-sub001/internal/agentcore/model"
)

type fakeAgents struct {
	byName map[string]*model.Agent
}

func (f fakeAgents) Get(name string) (*model.Agent, bool) {
	a, ok := f.byName[name]
	return a, ok
}

func newAgents(names ...string) fakeAgents {
	byName := make(map[string]*model.Agent, len(names))
	for _, n := range names {
		byName[n] = &model.Agent{
			Name:     n,
			Tools:    []model.Tool{{Name: "read_file"}, {Name: "write_file"}},
			Keywords: []string{"go", "test"},
		}
	}
	return fakeAgents{byName: byName}
}

func result(agent string, status model.ExecutionStatus, content string, durationMs int64) *model.ExecutionResult {
	return &model.ExecutionResult{
		Agent:      agent,
		Status:     status,
		Response:   &model.Response{Agent: agent, Content: content},
		DurationMs: durationMs,
	}
}

const longAnswer = `First, use a repository pattern to isolate persistence.

` + "```go\nfunc Save(ctx context.Context, r Record) error {\n\treturn nil\n}\n```" + `

This keeps the database concern out of the handler.`

func TestAggregate_NoSuccessfulResults(t *testing.T) {
	ag := New(newAgents(), nil)
	multi := &model.MultiAgentExecutionResult{Results: []*model.ExecutionResult{
		result("a", model.StatusError, "", 10),
		result("b", model.StatusTimeout, "", 10),
	}}

	resp, err := ag.Aggregate(multi, "how do I persist records", nil, Options{})
	require.Nil(t, resp)
	require.NotNil(t, err)
	assert.Equal(t, errs.KindNoSuccessfulResults, err.Kind)
}

func TestAggregate_FiltersByMinConfidence(t *testing.T) {
	ag := New(newAgents("a", "b"), nil)
	multi := &model.MultiAgentExecutionResult{Results: []*model.ExecutionResult{
		result("a", model.StatusSuccess, longAnswer, 100),
		result("b", model.StatusSuccess, longAnswer, 100),
	}}
	confidences := []AgentConfidence{
		{Agent: "a", Confidence: model.ConfidenceHigh},
		{Agent: "b", Confidence: model.Confidence(0.1)},
	}

	resp, err := ag.Aggregate(multi, "how do I persist records", confidences, Options{MinConfidence: 0.3})
	require.Nil(t, err)
	require.NotNil(t, resp)
	assert.Equal(t, "a", resp.Structured.Primary.Agent)
	assert.Empty(t, resp.Supporting)
	assert.Equal(t, 1, resp.PerformanceMetrics.SuccessfulAgents)
}

func TestAggregate_HighestConfidencePicksPrimary(t *testing.T) {
	ag := New(newAgents("a", "b"), nil)
	multi := &model.MultiAgentExecutionResult{Results: []*model.ExecutionResult{
		result("a", model.StatusSuccess, longAnswer, 100),
		result("b", model.StatusSuccess, longAnswer, 100),
	}}
	confidences := []AgentConfidence{
		{Agent: "a", Confidence: model.ConfidenceMedium},
		{Agent: "b", Confidence: model.ConfidenceHigh},
	}

	resp, err := ag.Aggregate(multi, "records", confidences, Options{Strategy: StrategyHighestConfidence})
	require.Nil(t, err)
	assert.Equal(t, "b", resp.Structured.Primary.Agent)
	require.Len(t, resp.Supporting, 1)
	assert.Equal(t, "a", resp.Alternatives[0].Agent)
}

func TestAggregate_FastestSuccessPicksPrimary(t *testing.T) {
	ag := New(newAgents("a", "b"), nil)
	multi := &model.MultiAgentExecutionResult{Results: []*model.ExecutionResult{
		result("a", model.StatusSuccess, longAnswer, 500),
		result("b", model.StatusSuccess, longAnswer, 50),
	}}
	confidences := []AgentConfidence{
		{Agent: "a", Confidence: model.ConfidenceHigh},
		{Agent: "b", Confidence: model.ConfidenceHigh},
	}

	resp, err := ag.Aggregate(multi, "records", confidences, Options{Strategy: StrategyFastestSuccess})
	require.Nil(t, err)
	assert.Equal(t, "b", resp.Structured.Primary.Agent)
}

func TestAggregate_ExpertPriorityPicksLowestPriorityNumber(t *testing.T) {
	ag := New(newAgents("a", "b"), nil)
	multi := &model.MultiAgentExecutionResult{Results: []*model.ExecutionResult{
		result("a", model.StatusSuccess, longAnswer, 100),
		result("b", model.StatusSuccess, longAnswer, 100),
	}}
	confidences := []AgentConfidence{
		{Agent: "a", Confidence: model.ConfidenceHigh},
		{Agent: "b", Confidence: model.ConfidenceHigh},
	}

	resp, err := ag.Aggregate(multi, "records", confidences, Options{
		Strategy:       StrategyExpertPriority,
		ExpertPriority: map[string]int{"a": 2, "b": 1},
	})
	require.Nil(t, err)
	assert.Equal(t, "b", resp.Structured.Primary.Agent)
}

func TestAggregate_MajorityConsensusPrefersCluster(t *testing.T) {
	ag := New(newAgents("a", "b", "c"), nil)
	multi := &model.MultiAgentExecutionResult{Results: []*model.ExecutionResult{
		result("a", model.StatusSuccess, longAnswer, 100),
		result("b", model.StatusSuccess, longAnswer, 100),
		result("c", model.StatusSuccess, "short", 100),
	}}
	confidences := []AgentConfidence{
		{Agent: "a", Confidence: model.ConfidenceHigh},
		{Agent: "b", Confidence: model.ConfidenceHigh},
		{Agent: "c", Confidence: model.ConfidenceExact},
	}

	resp, err := ag.Aggregate(multi, "records", confidences, Options{Strategy: StrategyMajorityConsensus})
	require.Nil(t, err)
	assert.Contains(t, []string{"a", "b"}, resp.Structured.Primary.Agent)
}

func TestAggregate_IntelligentMergeIsDefaultStrategy(t *testing.T) {
	ag := New(newAgents("a", "b"), nil)
	multi := &model.MultiAgentExecutionResult{Results: []*model.ExecutionResult{
		result("a", model.StatusSuccess, longAnswer, 100),
		result("b", model.StatusSuccess, "short", 5000),
	}}
	confidences := []AgentConfidence{
		{Agent: "a", Confidence: model.ConfidenceHigh},
		{Agent: "b", Confidence: model.ConfidenceHigh},
	}

	resp, err := ag.Aggregate(multi, "how do I persist records with a repository", confidences, Options{})
	require.Nil(t, err)
	assert.Equal(t, "a", resp.Structured.Primary.Agent)
	assert.Equal(t, "1.0", resp.Structured.Version)
}

func TestAggregate_ConflictDetectionAndMaxAlternatives(t *testing.T) {
	codeAnswer := "```go\nfunc A() {}\n```"
	otherCodeAnswer := "```python\ndef a(): pass\n```"
	agents := newAgents("a", "b", "c", "d")
	ag := New(agents, nil)
	multi := &model.MultiAgentExecutionResult{Results: []*model.ExecutionResult{
		result("a", model.StatusSuccess, codeAnswer, 10),
		result("b", model.StatusSuccess, otherCodeAnswer, 10),
		result("c", model.StatusSuccess, longAnswer, 10),
		result("d", model.StatusSuccess, longAnswer, 10),
	}}
	confidences := []AgentConfidence{
		{Agent: "a", Confidence: model.ConfidenceHigh},
		{Agent: "b", Confidence: model.ConfidenceHigh},
		{Agent: "c", Confidence: model.ConfidenceHigh},
		{Agent: "d", Confidence: model.ConfidenceHigh},
	}

	resp, err := ag.Aggregate(multi, "code", confidences, Options{MaxAlternatives: 1})
	require.Nil(t, err)
	assert.True(t, resp.ConflictAnalysis.HasCodeConflicts)
	assert.Len(t, resp.Supporting, 1)
	assert.LessOrEqual(t, len(resp.Alternatives), 1)
}

func TestRecommendationStrength_PenalizesConflicts(t *testing.T) {
	base := candidate{
		result:     &model.ExecutionResult{Agent: "a"},
		confidence: model.ConfidenceHigh,
		quality:    model.Quality{Overall: 0.8},
	}
	withConflicts := recommendationStrength(base, nil, model.ConflictAnalysis{HasCodeConflicts: true, HasApproachConflicts: true})
	withoutConflicts := recommendationStrength(base, nil, model.ConflictAnalysis{})
	assert.Less(t, withConflicts, withoutConflicts)
}

func TestRecommendationStrength_BonusForConsensusAndSupportingQuality(t *testing.T) {
	base := candidate{
		result:     &model.ExecutionResult{Agent: "a"},
		confidence: model.ConfidenceHigh,
		quality:    model.Quality{Overall: 0.6},
	}
	supporting := []candidate{{quality: model.Quality{Overall: 0.9}}}
	consensus := model.ConflictAnalysis{Consensus: []model.ConsensusTheme{{Term: "cache"}}}

	plain := recommendationStrength(base, nil, model.ConflictAnalysis{})
	withBonus := recommendationStrength(base, supporting, consensus)
	assert.Greater(t, withBonus, plain)
}

func TestRecommendationStrength_NeverExceedsBounds(t *testing.T) {
	base := candidate{
		result:     &model.ExecutionResult{Agent: "a"},
		confidence: model.ConfidenceExact,
		quality:    model.Quality{Overall: 1.0},
	}
	many := make([]candidate, 10)
	for i := range many {
		many[i] = candidate{quality: model.Quality{Overall: 1.0}}
	}
	strength := recommendationStrength(base, many, model.ConflictAnalysis{Consensus: make([]model.ConsensusTheme, 10)})
	assert.LessOrEqual(t, strength, 1.0)
	assert.GreaterOrEqual(t, strength, 0.0)
}

func TestAggregate_NilAgentLookupDoesNotPanic(t *testing.T) {
	ag := New(nil, nil)
	multi := &model.MultiAgentExecutionResult{Results: []*model.ExecutionResult{
		result("a", model.StatusSuccess, longAnswer, 100),
	}}
	confidences := []AgentConfidence{{Agent: "a", Confidence: model.ConfidenceHigh}}

	resp, err := ag.Aggregate(multi, "records", confidences, Options{})
	require.Nil(t, err)
	require.NotNil(t, resp)
}

func TestAggregate_StructuredMetadataCarriesQueryAndStrategy(t *testing.T) {
	ag := New(newAgents("a"), nil)
	multi := &model.MultiAgentExecutionResult{Results: []*model.ExecutionResult{
		result("a", model.StatusSuccess, longAnswer, 100),
	}}
	confidences := []AgentConfidence{{Agent: "a", Confidence: model.ConfidenceHigh}}

	resp, err := ag.Aggregate(multi, "persist records", confidences, Options{Strategy: StrategyFastestSuccess})
	require.Nil(t, err)
	assert.Equal(t, "persist records", resp.Structured.Metadata.Query)
	assert.Equal(t, string(StrategyFastestSuccess), resp.Structured.Metadata.Strategy)
}
