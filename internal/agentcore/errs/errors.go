// Package errs defines the typed error taxonomy shared across the
// agent-orchestration core. Every component surfaces failures as a *Error
// with a stable Kind rather than an ambient exception, so callers can
// switch on Kind without string matching.
package errs

import "fmt"

// Kind identifies the category of a core error.
type Kind string

const (
	// Loader kinds.
	KindParseError      Kind = "parse-error"
	KindValidationError Kind = "validation-error"
	KindSchemaError     Kind = "schema-error"
	KindFileError       Kind = "file-error"

	// Router kinds.
	KindNoAgent Kind = "no-agent"

	// Executor kinds.
	KindTimeout           Kind = "timeout"
	KindTotalTimeout      Kind = "total-timeout"
	KindCancelled         Kind = "cancelled"
	KindExecutionError    Kind = "execution-error"
	KindCircuitBreakerOpen Kind = "circuit-breaker-open"

	// Aggregator kinds.
	KindNoSuccessfulResults Kind = "no-successful-results"
)

// Error is the structured error type returned across component boundaries.
type Error struct {
	Kind    Kind
	Message string
	Path    string // file path, when relevant (loader errors)
	Agent   string // agent name, when relevant (executor errors)
	Cause   error
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e.Path != "" {
		if e.Cause != nil {
			return fmt.Sprintf("[%s] %s (%s): %v", e.Kind, e.Message, e.Path, e.Cause)
		}
		return fmt.Sprintf("[%s] %s (%s)", e.Kind, e.Message, e.Path)
	}
	if e.Cause != nil {
		return fmt.Sprintf("[%s] %s: %v", e.Kind, e.Message, e.Cause)
	}
	return fmt.Sprintf("[%s] %s", e.Kind, e.Message)
}

// Unwrap returns the underlying cause, if any.
func (e *Error) Unwrap() error {
	return e.Cause
}

// New creates an Error of the given kind.
func New(kind Kind, message string) *Error {
	return &Error{Kind: kind, Message: message}
}

// Wrap creates an Error of the given kind wrapping cause.
func Wrap(kind Kind, message string, cause error) *Error {
	return &Error{Kind: kind, Message: message, Cause: cause}
}

// WithPath attaches a file path to the error and returns it.
func (e *Error) WithPath(path string) *Error {
	e.Path = path
	return e
}

// WithAgent attaches an agent name to the error and returns it.
func (e *Error) WithAgent(agent string) *Error {
	e.Agent = agent
	return e
}

// Is reports whether err has the given Kind, unwrapping as needed.
func Is(err error, kind Kind) bool {
	var e *Error
	for err != nil {
		if ce, ok := err.(*Error); ok {
			e = ce
			break
		}
		u, ok := err.(interface{ Unwrap() error })
		if !ok {
			return false
		}
		err = u.Unwrap()
	}
	return e != nil && e.Kind == kind
}
