package model

import "time"

// ExecutionStatus is the closed set of terminal states an agent execution
// may reach.
type ExecutionStatus string

const (
	StatusSuccess   ExecutionStatus = "success"
	StatusError     ExecutionStatus = "error"
	StatusTimeout   ExecutionStatus = "timeout"
	StatusCancelled ExecutionStatus = "cancelled"
)

// BreakerState is the circuit-breaker state machine's current phase.
type BreakerState string

const (
	BreakerClosed   BreakerState = "CLOSED"
	BreakerOpen     BreakerState = "OPEN"
	BreakerHalfOpen BreakerState = "HALF_OPEN"
)

// CircuitBreakerState is the per-agent failure-gate bookkeeping owned by
// the Executor for the lifetime of the process.
type CircuitBreakerState struct {
	Failures          int
	LastFailureTimeMs int64
	State             BreakerState
}

// ExecutionMetadata carries the circuit-breaker state observed at call
// time plus the scheduling overhead not attributable to the generator
// itself.
type ExecutionMetadata struct {
	OverheadMs     int64
	BreakerState   BreakerState
	BreakerFailure int
}

// Response is a single agent's generated answer, prior to aggregation.
type Response struct {
	Agent   string
	Content string
}

// ExecutionResult is the outcome of running one agent via the
// model-endpoint interface.
type ExecutionResult struct {
	Agent     string
	Status    ExecutionStatus
	Response  *Response
	Err       error
	StartTime time.Time
	EndTime   time.Time
	DurationMs int64
	Metadata  ExecutionMetadata
}

// MultiAgentExecutionResult is the outcome of running a set of agents
// under one of the scheduling strategies.
type MultiAgentExecutionResult struct {
	Results   []*ExecutionResult
	Status    BatchStatus
	Aggregated *AggregatedResponse // set only when Options.AggregateResults is true
}

// BatchStatus summarizes a multi-agent execution: all agents succeeded,
// some did, or none did.
type BatchStatus string

const (
	BatchSuccess BatchStatus = "success"
	BatchPartial BatchStatus = "partial"
	BatchFailed  BatchStatus = "failed"
)

// Counts tallies ExecutionResult statuses, used to enforce the invariant
// successful+failed+timeout+cancelled == total.
type Counts struct {
	Successful int
	Failed     int
	Timeout    int
	Cancelled  int
}

// CountStatuses tallies results by status.
func CountStatuses(results []*ExecutionResult) Counts {
	var c Counts
	for _, r := range results {
		switch r.Status {
		case StatusSuccess:
			c.Successful++
		case StatusError:
			c.Failed++
		case StatusTimeout:
			c.Timeout++
		case StatusCancelled:
			c.Cancelled++
		}
	}
	return c
}
