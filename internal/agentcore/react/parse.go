package react

import (
	"encoding/json"
	"errors"
	"regexp"
	"strings"

	"github.com/kingkillery/pk-code-sub001/internal/agentcore/executor"
)

var errMalformed = errors.New("response did not match the required {thought, action} shape")

var (
	thoughtMarkerRe = regexp.MustCompile(`(?im)^\s*thought\s*:\s*(.+)$`)
	toolMarkerRe    = regexp.MustCompile(`(?im)^\s*using tool\s*:\s*([A-Za-z0-9_-]+)\s*$`)
)

// ParseResponse implements the strict-order inbound parsing rule: native
// tool-call parts first, then the structured {thought, action} shape, then
// pattern-extraction fallback. malformed is true only when the response
// looked like an attempted structured reply but failed to parse or
// validate — that is the one case the Adapter reprompts for; any other
// response degrades gracefully via the pattern-extraction fallback.
func ParseResponse(resp *executor.Response) (step Step, malformed bool, parseErr error) {
	if s, ok := parseNativeToolCall(resp); ok {
		return s, false, nil
	}

	text := resp.Text()
	trimmed := strings.TrimSpace(stripCodeFence(text))

	if looksStructured(trimmed) {
		s, err := parseStructured(trimmed)
		if err != nil {
			return Step{}, true, err
		}
		return s, false, nil
	}

	return parsePatternFallback(text), false, nil
}

func stripCodeFence(text string) string {
	trimmed := strings.TrimSpace(text)
	trimmed = strings.TrimPrefix(trimmed, "```json")
	trimmed = strings.TrimPrefix(trimmed, "```")
	trimmed = strings.TrimSuffix(trimmed, "```")
	return strings.TrimSpace(trimmed)
}

func looksStructured(trimmed string) bool {
	return strings.HasPrefix(trimmed, "{") && strings.Contains(trimmed, `"action"`)
}

// parseNativeToolCall uses the first function-call part of the first
// candidate, if present.
func parseNativeToolCall(resp *executor.Response) (Step, bool) {
	if resp == nil || len(resp.Candidates) == 0 {
		return Step{}, false
	}
	parts := resp.Candidates[0].Content.Parts
	for _, p := range parts {
		if p.FunctionCall == nil {
			continue
		}
		thought := strings.TrimSpace(resp.Text())
		if thought == "" {
			thought = "Selecting tool: " + p.FunctionCall.Name
		}
		return Step{
			Thought: thought,
			Action: Action{
				Type: ActionTool,
				Tool: &ToolCall{Name: p.FunctionCall.Name, Parameters: p.FunctionCall.Args},
			},
		}, true
	}
	return Step{}, false
}

// parseStructured decodes trimmed as the {thought, action} JSON shape and
// validates the action's required fields.
func parseStructured(trimmed string) (Step, error) {
	var step Step
	if err := json.Unmarshal([]byte(trimmed), &step); err != nil {
		return Step{}, errMalformed
	}
	if err := validateAction(step.Action); err != nil {
		return Step{}, err
	}
	return step, nil
}

// validateAction checks that the fields required by Action.Type are
// present.
func validateAction(a Action) error {
	switch a.Type {
	case ActionTool:
		if a.Tool == nil || a.Tool.Name == "" {
			return errors.New("tool action requires tool.name")
		}
	case ActionResponse:
		if a.Content == "" {
			return errors.New("response action requires content")
		}
	case ActionClarification:
		if a.Question == "" {
			return errors.New("clarification action requires question")
		}
	case ActionError:
		if a.Message == "" {
			return errors.New("error action requires message")
		}
	default:
		return errors.New("action.type must be one of tool, response, clarification, error")
	}
	return nil
}

// parsePatternFallback applies the heuristic regex extraction: a
// "thought:" marker, a "using tool:" marker, and question-mark detection
// for clarifications; defaults to response{content=text}.
func parsePatternFallback(text string) Step {
	thought := ""
	if m := thoughtMarkerRe.FindStringSubmatch(text); len(m) > 1 {
		thought = strings.TrimSpace(m[1])
	}

	if m := toolMarkerRe.FindStringSubmatch(text); len(m) > 1 {
		return Step{
			Thought: orDefault(thought, "Selecting tool: "+m[1]),
			Action:  Action{Type: ActionTool, Tool: &ToolCall{Name: m[1]}},
		}
	}

	trimmed := strings.TrimSpace(text)
	if strings.HasSuffix(trimmed, "?") {
		return Step{
			Thought: orDefault(thought, "Requesting clarification"),
			Action:  Action{Type: ActionClarification, Question: trimmed},
		}
	}

	return Step{
		Thought: orDefault(thought, "Responding directly"),
		Action:  Action{Type: ActionResponse, Content: text},
	}
}

func orDefault(s, def string) string {
	if s == "" {
		return def
	}
	return s
}
