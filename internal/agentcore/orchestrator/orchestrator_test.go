package orchestrator

import (
	"context"
	"fmt"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kingkillery/pk-code-sub001/internal/agentcore/executor"
	"github.com/kingkillery/pk-code-sub001/internal/agentcore/model"
	"github.com/kingkillery/pk-code-sub001/internal/metrics"
	"github.com/kingkillery/pk-code-sub001/internal/telemetry"
	"go.uber.org/zap"
)

type fakeSource struct {
	byName map[string]*model.Agent
	order  []*model.Agent
}

func (f *fakeSource) Get(name string) (*model.Agent, bool) {
	a, ok := f.byName[name]
	return a, ok
}

func (f *fakeSource) List() []*model.Agent { return f.order }

func newSource(agents ...*model.Agent) *fakeSource {
	s := &fakeSource{byName: make(map[string]*model.Agent)}
	for _, a := range agents {
		s.byName[a.Name] = a
		s.order = append(s.order, a)
	}
	return s
}

func testAgent(name string, keywords ...string) *model.Agent {
	return &model.Agent{
		Name:        name,
		Description: "a test agent used in orchestrator tests",
		Keywords:    keywords,
		Model:       "gpt-test",
		Provider:    model.ProviderOpenAI,
		Examples:    []model.Example{{Input: "x", Output: "y"}},
		SystemPrompt: "you are a helpful assistant",
		Priority:    model.NoPriority,
	}
}

var orchestratorTestNamespaceSeq uint64

func nextOrchestratorTestNamespace() string {
	n := atomic.AddUint64(&orchestratorTestNamespaceSeq, 1)
	return fmt.Sprintf("orchestrator_test_%d", n)
}

func staticFactory(content string) executor.GeneratorFactory {
	return func(string) executor.Generator {
		return stubGenerator{content: content}
	}
}

type stubGenerator struct{ content string }

func (s stubGenerator) Generate(ctx context.Context, req executor.Request) (*executor.Response, error) {
	return &executor.Response{Candidates: []executor.Candidate{{Content: executor.Content{Parts: []executor.Part{{Text: s.content}}}}}}, nil
}

func TestProcess_SingleAgentMode(t *testing.T) {
	source := newSource(testAgent("coder", "go", "code"))
	orc := New(source, staticFactory("package main"), nil)

	result, err := orc.Process(context.Background(), "write a go function", Options{Mode: model.ModeSingleAgent})
	require.Nil(t, err)
	assert.Equal(t, model.ModeSingleAgent, result.EffectiveMode)
	assert.Equal(t, "package main", result.Answer.Text)
	assert.Equal(t, 1, result.Metadata.SuccessfulAgents)
	assert.False(t, result.Metadata.Aggregated)
}

func TestProcess_MultiAgentModeAggregates(t *testing.T) {
	source := newSource(
		testAgent("coder", "go", "code", "architecture"),
		testAgent("reviewer", "go", "review", "architecture"),
	)
	orc := New(source, staticFactory("use a repository pattern for persistence"), nil)

	result, err := orc.Process(context.Background(), "compare different approaches to structuring a go service", Options{Mode: model.ModeAuto})
	require.Nil(t, err)
	assert.Equal(t, model.ModeMultiAgent, result.EffectiveMode)
	assert.True(t, result.Metadata.Aggregated)
	assert.NotEmpty(t, result.Answer.Text)
	require.NotNil(t, result.Answer.RecommendationStrength)
}

func TestProcess_WithMetricsAndTracingRecordsObservations(t *testing.T) {
	source := newSource(testAgent("coder", "go", "code"))
	collector := metrics.NewCollector(nextOrchestratorTestNamespace(), zap.NewNop())
	providers, err := telemetry.Init(telemetry.Config{Enabled: false}, zap.NewNop())
	require.NoError(t, err)

	orc := New(source, staticFactory("package main"), nil, WithMetrics(collector), WithTracing(providers))

	result, procErr := orc.Process(context.Background(), "write a go function", Options{Mode: model.ModeSingleAgent})
	require.Nil(t, procErr)
	assert.Equal(t, "package main", result.Answer.Text)
}

func TestProcess_WithEnabledTelemetryRecordsProcessCounter(t *testing.T) {
	source := newSource(testAgent("coder", "go", "code"))
	providers, err := telemetry.Init(telemetry.Config{Enabled: true, ServiceName: "orchestrator-test"}, zap.NewNop())
	require.NoError(t, err)
	t.Cleanup(func() { _ = providers.Shutdown(context.Background()) })

	orc := New(source, staticFactory("package main"), nil, WithTracing(providers))

	result, procErr := orc.Process(context.Background(), "write a go function", Options{Mode: model.ModeSingleAgent})
	require.Nil(t, procErr)
	assert.Equal(t, "package main", result.Answer.Text)
}

func TestProcess_ExecutorRateLimitSurfacesAsTimeout(t *testing.T) {
	source := newSource(testAgent("coder", "go", "code"))
	orc := New(source, staticFactory("package main"), nil, WithExecutorRateLimit(1.0/60.0, 1))
	orc.executor.DrainRateLimit(context.Background())

	result, err := orc.Process(context.Background(), "write a go function", Options{Mode: model.ModeSingleAgent})
	require.Nil(t, err)
	assert.Equal(t, model.StatusTimeout, result.Execution.Status)
}

func TestResolveMode_ExplicitCueForcesMulti(t *testing.T) {
	mode, _ := resolveMode("can you compare the pros and cons of these two approaches", model.ModeAuto)
	assert.Equal(t, model.ModeMultiAgent, mode)
}

func TestResolveMode_ShortSimpleQueryStaysSingle(t *testing.T) {
	mode, _ := resolveMode("fix this typo", model.ModeAuto)
	assert.Equal(t, model.ModeSingleAgent, mode)
}

func TestResolveMode_RequestedModeBypassesHeuristic(t *testing.T) {
	mode, _ := resolveMode("fix this typo", model.ModeMultiAgent)
	assert.Equal(t, model.ModeMultiAgent, mode)
}

func TestResolveFallback_PrefersGeneralKeyword(t *testing.T) {
	agents := []*model.Agent{testAgent("coder", "go"), testAgent("helper", "general", "assistant")}
	assert.Equal(t, "helper", resolveFallback(agents))
}

func TestResolveFallback_FirstAgentWhenNoneMatch(t *testing.T) {
	agents := []*model.Agent{testAgent("coder", "go"), testAgent("tester", "test")}
	assert.Equal(t, "coder", resolveFallback(agents))
}

func TestResolveFallback_EmptyWhenNoAgents(t *testing.T) {
	assert.Equal(t, "", resolveFallback(nil))
}

func TestCheckBudgets_WarnsOnExceededOverhead(t *testing.T) {
	timing := model.TimingBreakdown{TotalMs: 1000, RoutingMs: 10, ExecutionMs: 100, AggregationMs: 10, OverheadMs: 880}
	warnings := checkBudgets(timing, 0)
	require.Len(t, warnings, 1)
	assert.Equal(t, "coreOverheadMs", warnings[0].Budget)
}

func TestCheckBudgets_WarnsOnExceededMaxExecutionTime(t *testing.T) {
	timing := model.TimingBreakdown{TotalMs: 5000}
	warnings := checkBudgets(timing, 1000)
	require.Len(t, warnings, 1)
	assert.Equal(t, "maxExecutionTimeMs", warnings[0].Budget)
}

func TestCheckBudgets_NoWarningsWithinBudget(t *testing.T) {
	timing := model.TimingBreakdown{TotalMs: 500, OverheadMs: 50}
	warnings := checkBudgets(timing, 1000)
	assert.Empty(t, warnings)
}
