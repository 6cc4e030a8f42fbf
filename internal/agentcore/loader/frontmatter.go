package loader

import (
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/kingkillery/pk-code-sub001/internal/agentcore/errs"
)

// delimiter is the fenced front-matter boundary marker.
const delimiter = "---"

// frontMatter is the permitted set of front-matter keys, matching the
// Agent schema in the data model exactly.
type frontMatter struct {
	Name         string         `yaml:"name"`
	Description  string         `yaml:"description"`
	Keywords     []string       `yaml:"keywords"`
	Priority     *int           `yaml:"priority"`
	Tools        []toolEntry    `yaml:"tools"`
	Model        string         `yaml:"model"`
	Provider     string         `yaml:"provider"`
	Examples     []exampleEntry `yaml:"examples"`
	SystemPrompt string         `yaml:"systemPrompt"`
	Temperature  *float64       `yaml:"temperature"`
	MaxTokens    *int           `yaml:"maxTokens"`
}

type toolEntry struct {
	Name        string         `yaml:"name"`
	Description string         `yaml:"description"`
	Parameters  map[string]any `yaml:"parameters"`
}

type exampleEntry struct {
	Input       string `yaml:"input"`
	Output      string `yaml:"output"`
	Description string `yaml:"description"`
}

// splitFrontMatter separates a file's raw content into its front-matter
// block and trailing body. Line endings may be LF or CRLF. Front-matter
// MUST be present; its absence is a parse error.
func splitFrontMatter(raw string) (fm string, body string, err error) {
	normalized := strings.ReplaceAll(raw, "\r\n", "\n")
	trimmed := strings.TrimLeft(normalized, "\n")
	if !strings.HasPrefix(trimmed, delimiter) {
		return "", "", errs.New(errs.KindParseError, "file does not begin with a front-matter delimiter")
	}
	rest := trimmed[len(delimiter):]
	rest = strings.TrimPrefix(rest, "\n")

	idx := strings.Index(rest, "\n"+delimiter)
	if idx < 0 {
		return "", "", errs.New(errs.KindParseError, "front-matter block is not closed")
	}
	fm = rest[:idx]
	after := rest[idx+1+len(delimiter):]
	after = strings.TrimPrefix(after, "\n")
	return fm, after, nil
}

// parseFrontMatter decodes the front-matter block as structured key/value
// data. It must yield an object (a YAML mapping), matching the contract
// in §6.
func parseFrontMatter(fm string) (*frontMatter, error) {
	var parsed frontMatter
	if err := yaml.Unmarshal([]byte(fm), &parsed); err != nil {
		return nil, errs.Wrap(errs.KindParseError, "front-matter is not valid structured data", err)
	}
	return &parsed, nil
}
