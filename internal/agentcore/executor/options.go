package executor

import "time"

const (
	defaultTimeoutMs      = 30000
	minTimeoutMs          = 5000
	maxTimeoutMs          = 300000
	defaultMaxConcurrency = 5
)

// Options configures a single executeSingle/executeMulti call. Every
// field is optional; zero values are replaced with the defaults below.
type Options struct {
	TimeoutMs       int64
	TotalTimeoutMs  int64
	MaxConcurrency  int
	ContinueOnError *bool
	AggregateResults bool

	ContentGeneratorFactory GeneratorFactory
	OnProgress              func(*ResultEnvelope)

	// ExternalCancel, when non-nil, is closed by the caller to request
	// cooperative cancellation of every in-flight agent call.
	ExternalCancel <-chan struct{}

	// CountTimeoutAsFailure controls whether a timeout increments the
	// circuit breaker's failure count. Cancellation never counts.
	CountTimeoutAsFailure *bool

	breakerCfg breakerConfig
}

// ResultEnvelope is passed to OnProgress once per completed agent call,
// in completion order.
type ResultEnvelope struct {
	Agent  string
	Status string
}

// withDefaults returns a copy of opts with every unset field replaced by
// its documented default, clamping TimeoutMs to [5000, 300000].
func (o Options) withDefaults(sequentialWithExplicitIntent bool) Options {
	out := o
	if out.TimeoutMs <= 0 {
		out.TimeoutMs = defaultTimeoutMs
	}
	if out.TimeoutMs < minTimeoutMs {
		out.TimeoutMs = minTimeoutMs
	}
	if out.TimeoutMs > maxTimeoutMs {
		out.TimeoutMs = maxTimeoutMs
	}
	if out.TotalTimeoutMs <= 0 {
		out.TotalTimeoutMs = 2 * out.TimeoutMs
	}
	if out.MaxConcurrency <= 0 {
		out.MaxConcurrency = defaultMaxConcurrency
	}
	if out.ContinueOnError == nil {
		def := !sequentialWithExplicitIntent
		out.ContinueOnError = &def
	}
	if out.CountTimeoutAsFailure == nil {
		def := true
		out.CountTimeoutAsFailure = &def
	}
	out.breakerCfg = defaultBreakerConfig()
	return out
}

func (o Options) timeout() time.Duration      { return time.Duration(o.TimeoutMs) * time.Millisecond }
func (o Options) totalTimeout() time.Duration { return time.Duration(o.TotalTimeoutMs) * time.Millisecond }
