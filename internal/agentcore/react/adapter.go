package react

import (
	"context"

	"go.uber.org/zap"

	"github.com/kingkillery/pk-code-sub001/internal/agentcore/executor"
	"github.com/kingkillery/pk-code-sub001/internal/agentcore/logging"
	"github.com/kingkillery/pk-code-sub001/internal/agentcore/model"
)

// DefaultMaxReprompts is the reprompt budget used when Options.MaxReprompts
// is unset.
const DefaultMaxReprompts = 2

// Options configures a single Adapter.Execute call.
type Options struct {
	MaxReprompts int
}

func (o Options) withDefaults() Options {
	if o.MaxReprompts <= 0 {
		o.MaxReprompts = DefaultMaxReprompts
	}
	return o
}

// Adapter wraps a model-endpoint Generator so the caller gets back a
// structured Step instead of raw text, reprompting on malformed replies.
type Adapter struct {
	logger *zap.Logger
}

// New creates an Adapter. A nil logger defaults to a no-op logger.
func New(logger *zap.Logger) *Adapter {
	return &Adapter{logger: logging.OrDefault(logger).With(zap.String("component", "react_adapter"))}
}

// Execute builds the outbound ReAct prompt for agent and query, calls
// generator, and returns the parsed Step — reprompting up to
// opts.MaxReprompts times on malformed structured replies before giving up
// with an error action.
func (a *Adapter) Execute(ctx context.Context, generator executor.Generator, agent *model.Agent, query string, opts Options) (Step, error) {
	opts = opts.withDefaults()

	systemMessage := BuildSystemMessage(agent.Examples, agent.ToolNames())
	req := executor.BuildRequest(agent.Model, systemMessage, query, agent.Temperature, agent.MaxTokens)

	var lastText string
	var lastErr error

	for attempt := 0; attempt <= opts.MaxReprompts; attempt++ {
		resp, err := generator.Generate(ctx, req)
		if err != nil {
			return Step{}, err
		}

		step, malformed, parseErr := ParseResponse(resp)
		if !malformed {
			return step, nil
		}

		lastText = resp.Text()
		lastErr = parseErr
		a.logger.Debug("reprompting after malformed ReAct reply", zap.Int("attempt", attempt), zap.Error(parseErr))

		req = appendReprompt(req, lastText, parseErr)
	}

	return Step{
		Thought: "Unable to obtain a well-formed response after reprompting",
		Action:  Action{Type: ActionError, Message: buildRepromptMessage(lastText, lastErr)},
	}, nil
}

// appendReprompt adds one more user turn asking for a corrected reply,
// keeping the original system turn intact.
func appendReprompt(req executor.Request, receivedText string, parseErr error) executor.Request {
	req.Contents = append(req.Contents, executor.Content{
		Role:  "user",
		Parts: []executor.Part{{Text: buildRepromptMessage(receivedText, parseErr)}},
	})
	return req
}
