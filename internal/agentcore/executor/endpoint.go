package executor

import "context"

// Part is one piece of a Content turn: exactly one of Text, InlineData, or
// FunctionCall is set.
type Part struct {
	Text         string
	InlineData   *InlineData
	FunctionCall *FunctionCall
}

// InlineData carries raw bytes (as base64-ready data) with a MIME type.
type InlineData struct {
	MimeType string
	Data     string
}

// FunctionCall names a tool invocation a model chose to make.
type FunctionCall struct {
	Name string
	Args map[string]any
}

// Content is one turn in a generation request.
type Content struct {
	Role  string
	Parts []Part
}

// GenerationConfig carries the numeric generation settings sourced from
// the Agent record.
type GenerationConfig struct {
	Temperature     *float64
	MaxOutputTokens *int
}

// Request is the model-endpoint request shape, stable across providers.
type Request struct {
	Model    string
	Contents []Content
	Config   GenerationConfig
}

// Candidate is one generated completion.
type Candidate struct {
	Content Content
}

// Response is the model-endpoint response shape.
type Response struct {
	Candidates []Candidate
	// ExecutionTimeMs, when > 0, is the generator's self-reported
	// execution time; used to compute overheadMs in ExecutionMetadata.
	ExecutionTimeMs int64
}

// Text returns the first non-empty text part of the first candidate, or
// empty if none is present.
func (r *Response) Text() string {
	if r == nil || len(r.Candidates) == 0 {
		return ""
	}
	for _, p := range r.Candidates[0].Content.Parts {
		if p.Text != "" {
			return p.Text
		}
	}
	return ""
}

// Generator is the model-endpoint collaborator the Executor consumes. It
// is an external interface the core never implements concretely.
type Generator interface {
	Generate(ctx context.Context, req Request) (*Response, error)
}

// CancelAwareGenerator is optionally implemented by a Generator that can
// natively accept a cancellation channel instead of relying solely on
// context cancellation.
type CancelAwareGenerator interface {
	Generator
	GenerateWithCancel(ctx context.Context, req Request, cancel <-chan struct{}) (*Response, error)
}

// GeneratorFactory produces the Generator to use for a given agent name.
type GeneratorFactory func(agentName string) Generator

// BuildRequest assembles the stable request shape for an agent call: the
// model name from the agent record and a single user turn of
// "<systemPrompt>\n\nUser Query: <query>", or of the bare query when
// systemPrompt is empty.
func BuildRequest(model, systemPrompt, query string, temperature *float64, maxTokens *int) Request {
	text := query
	if systemPrompt != "" {
		text = systemPrompt + "\n\nUser Query: " + query
	}
	return Request{
		Model: model,
		Contents: []Content{
			{Role: "user", Parts: []Part{{Text: text}}},
		},
		Config: GenerationConfig{
			Temperature:     temperature,
			MaxOutputTokens: maxTokens,
		},
	}
}
