package executor

import (
	"sync"
	"time"

	"github.com/kingkillery/pk-code-sub001/internal/agentcore/model"
)

const (
	defaultFailureThreshold = 5
	defaultMonitoringWindow = 300 * time.Second
	defaultResetTimeout     = 60 * time.Second
)

// breakerConfig configures the per-agent circuit-breaker state machine.
type breakerConfig struct {
	FailureThreshold int
	MonitoringWindow time.Duration
	ResetTimeout     time.Duration
}

func defaultBreakerConfig() breakerConfig {
	return breakerConfig{
		FailureThreshold: defaultFailureThreshold,
		MonitoringWindow: defaultMonitoringWindow,
		ResetTimeout:     defaultResetTimeout,
	}
}

// breakerEntry is the mutable state for a single agent's circuit breaker,
// written only by the Executor and guarded by circuitBreakers.mu.
type breakerEntry struct {
	state           model.BreakerState
	failures        int
	windowStart     time.Time
	lastFailureTime time.Time
	halfOpenProbing bool
}

// circuitBreakers owns the per-agent breaker map. Writes happen at
// success or failure of a single agent call and are atomic per key under
// the shared mutex.
type circuitBreakers struct {
	mu      sync.Mutex
	entries map[string]*breakerEntry
	cfg     breakerConfig
}

func newCircuitBreakers(cfg breakerConfig) *circuitBreakers {
	return &circuitBreakers{entries: make(map[string]*breakerEntry), cfg: cfg}
}

func (c *circuitBreakers) entry(agent string) *breakerEntry {
	e, ok := c.entries[agent]
	if !ok {
		e = &breakerEntry{state: model.BreakerClosed}
		c.entries[agent] = e
	}
	return e
}

// allow reports whether a call to agent should proceed, transitioning
// OPEN → HALF_OPEN once resetTimeout has elapsed.
func (c *circuitBreakers) allow(agent string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	e := c.entry(agent)

	switch e.state {
	case model.BreakerOpen:
		if time.Since(e.lastFailureTime) >= c.cfg.ResetTimeout {
			e.state = model.BreakerHalfOpen
			e.halfOpenProbing = true
			return true
		}
		return false
	case model.BreakerHalfOpen:
		if e.halfOpenProbing {
			return false
		}
		e.halfOpenProbing = true
		return true
	default:
		return true
	}
}

// recordSuccess resets the breaker to CLOSED with zero failures.
func (c *circuitBreakers) recordSuccess(agent string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	e := c.entry(agent)
	e.state = model.BreakerClosed
	e.failures = 0
	e.halfOpenProbing = false
	e.windowStart = time.Time{}
}

// recordFailure increments the failure count (resetting the monitoring
// window if it has expired) and opens the breaker once the threshold is
// reached within the window. A failure observed while HALF_OPEN reopens
// the breaker immediately.
func (c *circuitBreakers) recordFailure(agent string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	e := c.entry(agent)
	now := time.Now()

	if e.state == model.BreakerHalfOpen {
		e.state = model.BreakerOpen
		e.lastFailureTime = now
		e.halfOpenProbing = false
		e.failures++
		return
	}

	if e.windowStart.IsZero() || now.Sub(e.windowStart) > c.cfg.MonitoringWindow {
		e.windowStart = now
		e.failures = 0
	}
	e.failures++
	e.lastFailureTime = now

	if e.failures >= c.cfg.FailureThreshold {
		e.state = model.BreakerOpen
	}
}

// snapshot returns the observable state for inclusion in ExecutionMetadata.
func (c *circuitBreakers) snapshot(agent string) model.ExecutionMetadata {
	c.mu.Lock()
	defer c.mu.Unlock()
	e := c.entry(agent)
	return model.ExecutionMetadata{BreakerState: e.state, BreakerFailure: e.failures}
}
