package registry

import (
	"fmt"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kingkillery/pk-code-sub001/internal/agentcore/model"
)

const sampleAgent = `---
name: %s
description: A sample agent used for registry tests exercising reload paths.
keywords: [sample, test]
model: gpt-test
provider: openai
examples:
  - input: "x"
    output: "y"
---
sample system prompt
`

func writeAgent(t *testing.T, dir, fileName, agentName string) {
	t.Helper()
	content := fmt.Sprintf(sampleAgent, agentName)
	require.NoError(t, os.WriteFile(filepath.Join(dir, fileName), []byte(content), 0o644))
}

func mustAgent(t *testing.T, name string) *model.Agent {
	t.Helper()
	return &model.Agent{
		Name:        name,
		Description: "A sample agent used for registry tests.",
		Keywords:    []string{"sample", "test"},
		Model:       "gpt-test",
		Provider:    model.ProviderOpenAI,
		Priority:    model.NoPriority,
		Examples:    []model.Example{{Input: "x", Output: "y"}},
	}
}

func TestRegistry_InitPopulatesFromLoader(t *testing.T) {
	root := t.TempDir()
	dir := filepath.Join(root, ".pk", "agents")
	require.NoError(t, os.MkdirAll(dir, 0o755))
	writeAgent(t, dir, "a.md", "agent-a")

	r := New(root, nil)
	defer r.Dispose()

	result := r.Init()
	assert.Empty(t, result.Errors)
	assert.Equal(t, 1, r.Size())

	agent, ok := r.Get("agent-a")
	require.True(t, ok)
	assert.Equal(t, "agent-a", agent.Name)
}

func TestRegistry_RegisterIdempotent(t *testing.T) {
	root := t.TempDir()
	r := New(root, nil)
	defer r.Dispose()

	agent := mustAgent(t, "agent-a")
	r.Register(agent)
	r.Register(agent)
	assert.Equal(t, 1, r.Size())
}

func TestRegistry_HotReload_AddAndRemove(t *testing.T) {
	root := t.TempDir()
	dir := filepath.Join(root, ".pk", "agents")
	require.NoError(t, os.MkdirAll(dir, 0o755))
	writeAgent(t, dir, "a.md", "agent-a")

	r := New(root, nil)
	defer r.Dispose()
	r.Init()
	require.Equal(t, 1, r.Size())

	writeAgent(t, dir, "b.md", "agent-b")

	require.Eventually(t, func() bool {
		return r.Size() == 2
	}, 2*time.Second, 20*time.Millisecond)

	_, ok := r.Get("agent-b")
	assert.True(t, ok)

	require.NoError(t, os.Remove(filepath.Join(dir, "b.md")))

	require.Eventually(t, func() bool {
		_, stillThere := r.Get("agent-b")
		return !stillThere
	}, 2*time.Second, 20*time.Millisecond)
}

func TestRegistry_ReloadFile_UnregistersOnParseFailure(t *testing.T) {
	root := t.TempDir()
	dir := filepath.Join(root, ".pk", "agents")
	require.NoError(t, os.MkdirAll(dir, 0o755))
	path := filepath.Join(dir, "a.md")
	writeAgent(t, dir, "a.md", "agent-a")

	r := New(root, nil)
	defer r.Dispose()
	r.Init()
	require.Equal(t, 1, r.Size())

	require.NoError(t, os.WriteFile(path, []byte("not a valid agent file"), 0o644))
	err := r.ReloadFile(path)
	require.NotNil(t, err)
	assert.Equal(t, 0, r.Size())
}

func TestRegistry_SearchText(t *testing.T) {
	root := t.TempDir()
	r := New(root, nil)
	defer r.Dispose()
	r.Register(mustAgent(t, "agent-a"))

	found := r.SearchText("sample agent")
	assert.Len(t, found, 1)
}
