package orchestrator

import (
	"github.com/kingkillery/pk-code-sub001/internal/agentcore/aggregator"
	"github.com/kingkillery/pk-code-sub001/internal/agentcore/executor"
	"github.com/kingkillery/pk-code-sub001/internal/agentcore/model"
)

const coreOverheadBudgetMs = 400

// Options configures a single process() call.
type Options struct {
	Mode            model.Mode
	MaxAgents       int
	MaxExecutionTimeMs int64
	ExecutorOptions executor.Options
	AggregatorOptions aggregator.Options
	OnProgress      func(*executor.ResultEnvelope)
	ExternalCancel  <-chan struct{}
}

func (o Options) withDefaults() Options {
	out := o
	if out.Mode == "" {
		out.Mode = model.ModeAuto
	}
	if out.MaxAgents <= 0 {
		out.MaxAgents = 3
	}
	if out.OnProgress != nil {
		out.ExecutorOptions.OnProgress = out.OnProgress
	}
	if out.ExternalCancel != nil {
		out.ExecutorOptions.ExternalCancel = out.ExternalCancel
	}
	return out
}
