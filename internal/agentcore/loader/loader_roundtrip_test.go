package loader

import (
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"
	"pgregory.net/rapid"

	"github.com/kingkillery/pk-code-sub001/internal/agentcore/model"
)

// nameGen produces strings matching Agent.Name's permitted shape.
func nameGen() *rapid.Generator[string] {
	return rapid.StringMatching(`^[A-Za-z][A-Za-z0-9_-]{2,30}$`)
}

// descriptionGen produces strings within the 10-500 char bound.
func descriptionGen() *rapid.Generator[string] {
	return rapid.StringN(10, 200, -1)
}

// TestLoadAgentFile_RoundTripsArbitraryValidAgents checks that for any
// Agent satisfying the §3 schema, serializing it to a front-matter file
// and loading it back yields an Agent with the same field values —
// Loader ∘ serialize(Agent) = Agent, for every field the front-matter
// carries.
func TestLoadAgentFile_RoundTripsArbitraryValidAgents(t *testing.T) {
	dir := t.TempDir()

	rapid.Check(t, func(rt *rapid.T) {
		name := nameGen().Draw(rt, "name")
		description := descriptionGen().Draw(rt, "description")
		keywords := rapid.SliceOfN(rapid.StringMatching(`^[a-z][a-z0-9]{1,10}$`), 1, 5).Draw(rt, "keywords")
		modelName := rapid.StringMatching(`^[a-z0-9-]{3,20}$`).Draw(rt, "model")
		provider := rapid.SampledFrom([]model.Provider{
			model.ProviderOpenAI, model.ProviderAnthropic, model.ProviderGemini, model.ProviderLocal,
		}).Draw(rt, "provider")
		examples := rapid.SliceOfN(rapid.Custom(func(rt *rapid.T) exampleEntry {
			return exampleEntry{
				Input:  rapid.StringN(1, 40, -1).Draw(rt, "example_input"),
				Output: rapid.StringN(1, 40, -1).Draw(rt, "example_output"),
			}
		}), 1, 3).Draw(rt, "examples")
		hasTemperature := rapid.Bool().Draw(rt, "has_temperature")
		hasMaxTokens := rapid.Bool().Draw(rt, "has_max_tokens")

		fm := frontMatter{
			Name:        name,
			Description: description,
			Keywords:    keywords,
			Model:       modelName,
			Provider:    string(provider),
			Examples:    examples,
		}
		if hasTemperature {
			temp := rapid.Float64Range(0, 2).Draw(rt, "temperature")
			fm.Temperature = &temp
		}
		if hasMaxTokens {
			tokens := rapid.IntRange(1, 32768).Draw(rt, "max_tokens")
			fm.MaxTokens = &tokens
		}

		content := renderFrontMatterFile(rt, fm)
		path := filepath.Join(dir, fmt.Sprintf("agent-%s.md", name))
		require.NoError(rt, os.WriteFile(path, []byte(content), 0o644))
		defer os.Remove(path)

		loaded, loadErr := New(nil).LoadAgentFile(path)
		require.Nil(rt, loadErr, "expected a valid agent to load without error")

		require.Equal(rt, fm.Name, loaded.Name)
		require.Equal(rt, fm.Description, loaded.Description)
		require.Equal(rt, fm.Keywords, loaded.Keywords)
		require.Equal(rt, fm.Model, loaded.Model)
		require.Equal(rt, provider, loaded.Provider)
		require.Len(rt, loaded.Examples, len(fm.Examples))
		for i, e := range fm.Examples {
			require.Equal(rt, e.Input, loaded.Examples[i].Input)
			require.Equal(rt, e.Output, loaded.Examples[i].Output)
		}
		if hasTemperature {
			require.NotNil(rt, loaded.Temperature)
			require.InDelta(rt, *fm.Temperature, *loaded.Temperature, 1e-9)
		}
		if hasMaxTokens {
			require.NotNil(rt, loaded.MaxTokens)
			require.Equal(rt, *fm.MaxTokens, *loaded.MaxTokens)
		}
	})
}

// renderFrontMatterFile marshals fm as YAML front-matter wrapped in the
// `---` delimiters the loader expects, with no trailing body (so
// SystemPrompt stays whatever fm declared).
func renderFrontMatterFile(rt *rapid.T, fm frontMatter) string {
	data, err := yaml.Marshal(fm)
	require.NoError(rt, err)
	return delimiter + "\n" + string(data) + delimiter + "\n"
}
