package react

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kingkillery/pk-code-sub001/internal/agentcore/executor"
	"github.com/kingkillery/pk-code-sub001/internal/agentcore/model"
)

func textResponse(text string) *executor.Response {
	return &executor.Response{Candidates: []executor.Candidate{
		{Content: executor.Content{Parts: []executor.Part{{Text: text}}}},
	}}
}

func TestParseResponse_NativeToolCall(t *testing.T) {
	resp := &executor.Response{Candidates: []executor.Candidate{
		{Content: executor.Content{Parts: []executor.Part{
			{Text: "I'll use the search tool"},
			{FunctionCall: &executor.FunctionCall{Name: "search", Args: map[string]any{"q": "go"}}},
		}}},
	}}

	step, malformed, err := ParseResponse(resp)
	require.NoError(t, err)
	assert.False(t, malformed)
	assert.Equal(t, ActionTool, step.Action.Type)
	assert.Equal(t, "search", step.Action.Tool.Name)
	assert.Equal(t, "I'll use the search tool", step.Thought)
}

func TestParseResponse_StructuredJSON(t *testing.T) {
	resp := textResponse(`{"thought": "checking docs", "action": {"type": "response", "content": "here is the answer"}}`)

	step, malformed, err := ParseResponse(resp)
	require.NoError(t, err)
	assert.False(t, malformed)
	assert.Equal(t, "checking docs", step.Thought)
	assert.Equal(t, ActionResponse, step.Action.Type)
	assert.Equal(t, "here is the answer", step.Action.Content)
}

func TestParseResponse_StructuredJSONMissingRequiredFieldIsMalformed(t *testing.T) {
	resp := textResponse(`{"thought": "x", "action": {"type": "tool"}}`)

	_, malformed, err := ParseResponse(resp)
	assert.True(t, malformed)
	assert.Error(t, err)
}

func TestParseResponse_PatternFallbackThoughtAndTool(t *testing.T) {
	resp := textResponse("Thought: I need more context\nUsing tool: file_search")

	step, malformed, err := ParseResponse(resp)
	require.NoError(t, err)
	assert.False(t, malformed)
	assert.Equal(t, "I need more context", step.Thought)
	assert.Equal(t, ActionTool, step.Action.Type)
	assert.Equal(t, "file_search", step.Action.Tool.Name)
}

func TestParseResponse_PatternFallbackClarification(t *testing.T) {
	resp := textResponse("Which file should I modify?")

	step, malformed, err := ParseResponse(resp)
	require.NoError(t, err)
	assert.False(t, malformed)
	assert.Equal(t, ActionClarification, step.Action.Type)
}

func TestParseResponse_PatternFallbackDefaultsToResponse(t *testing.T) {
	resp := textResponse("Here is a plain-text answer with no markers.")

	step, malformed, err := ParseResponse(resp)
	require.NoError(t, err)
	assert.False(t, malformed)
	assert.Equal(t, ActionResponse, step.Action.Type)
	assert.Equal(t, "Here is a plain-text answer with no markers.", step.Action.Content)
}

type scriptedGenerator struct {
	texts []string
	calls int
}

func (g *scriptedGenerator) Generate(ctx context.Context, req executor.Request) (*executor.Response, error) {
	if g.calls >= len(g.texts) {
		return nil, errors.New("no more scripted responses")
	}
	text := g.texts[g.calls]
	g.calls++
	return textResponse(text), nil
}

func testAgent() *model.Agent {
	return &model.Agent{
		Name:         "coder",
		Description: "writes code",
		Keywords:     []string{"go"},
		Model:        "gpt-test",
		Provider:     model.ProviderOpenAI,
		Examples:     []model.Example{{Input: "x", Output: "y"}},
		Tools:        []model.Tool{{Name: "search"}},
	}
}

func TestAdapter_SucceedsOnFirstTry(t *testing.T) {
	gen := &scriptedGenerator{texts: []string{
		`{"thought": "done", "action": {"type": "response", "content": "ok"}}`,
	}}
	step, err := New(nil).Execute(context.Background(), gen, testAgent(), "do it", Options{})
	require.NoError(t, err)
	assert.Equal(t, ActionResponse, step.Action.Type)
	assert.Equal(t, 1, gen.calls)
}

func TestAdapter_RepromptsOnMalformedThenSucceeds(t *testing.T) {
	gen := &scriptedGenerator{texts: []string{
		`{"thought": "x", "action": {"type": "tool"}}`,
		`{"thought": "retry", "action": {"type": "response", "content": "fixed"}}`,
	}}
	step, err := New(nil).Execute(context.Background(), gen, testAgent(), "do it", Options{MaxReprompts: 2})
	require.NoError(t, err)
	assert.Equal(t, "fixed", step.Action.Content)
	assert.Equal(t, 2, gen.calls)
}

func TestAdapter_ReturnsErrorActionAfterExhaustingReprompts(t *testing.T) {
	gen := &scriptedGenerator{texts: []string{
		`{"thought": "x", "action": {"type": "tool"}}`,
		`{"thought": "x", "action": {"type": "tool"}}`,
	}}
	step, err := New(nil).Execute(context.Background(), gen, testAgent(), "do it", Options{MaxReprompts: 1})
	require.NoError(t, err)
	assert.Equal(t, ActionError, step.Action.Type)
	assert.Equal(t, 2, gen.calls)
}

func TestBuildSystemMessage_IncludesExamplesAndTools(t *testing.T) {
	msg := BuildSystemMessage([]model.Example{{Input: "a", Output: "b"}}, []string{"search", "edit"})
	assert.Contains(t, msg, "Input: a")
	assert.Contains(t, msg, "search, edit")
}
