package react

import (
	"strings"

	"github.com/kingkillery/pk-code-sub001/internal/agentcore/model"
)

const systemInstruction = `You must respond with a single JSON object of the shape {"thought": string, "action": {...}}.
"action" must be exactly one of:
  {"type": "tool", "tool": {"name": string, "parameters": object}}
  {"type": "response", "content": string}
  {"type": "clarification", "question": string}
  {"type": "error", "message": string}
Do not include any text outside the JSON object.`

// BuildSystemMessage composes the fixed ReAct instruction, optional example
// interactions, and the list of available tool names.
func BuildSystemMessage(examples []model.Example, toolNames []string) string {
	var b strings.Builder
	b.WriteString(systemInstruction)

	if len(examples) > 0 {
		b.WriteString("\n\nExamples:\n")
		for _, ex := range examples {
			b.WriteString("Input: ")
			b.WriteString(ex.Input)
			b.WriteString("\nOutput: ")
			b.WriteString(ex.Output)
			b.WriteString("\n")
		}
	}

	if len(toolNames) > 0 {
		b.WriteString("\nAvailable tools: ")
		b.WriteString(strings.Join(toolNames, ", "))
	}

	return b.String()
}

// buildRepromptMessage composes a reprompt after a parse failure: the
// received text and the validation error, asking for a corrected reply.
func buildRepromptMessage(received string, parseErr error) string {
	var b strings.Builder
	b.WriteString("Your previous response could not be parsed as the required JSON shape.\n\nYour response was:\n")
	b.WriteString(received)
	b.WriteString("\n\nParse error: ")
	b.WriteString(parseErr.Error())
	b.WriteString("\n\nRespond again with only the corrected JSON object.")
	return b.String()
}
