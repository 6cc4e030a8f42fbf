// Package logging provides the contextual zap logger used throughout the
// agent-orchestration core, following the nil-logger-falls-back-to-Nop
// convention used across the teacher's constructors.
package logging

import (
	"context"

	"go.uber.org/zap"
)

type contextKey string

const loggerKey contextKey = "agentcore_logger"

// NewNop returns a logger that discards all output, used as the default
// when a caller passes a nil *zap.Logger into a component constructor.
func NewNop() *zap.Logger {
	return zap.NewNop()
}

// OrDefault returns logger if non-nil, otherwise a no-op logger. Every
// component constructor in this module calls this before storing a logger
// field, matching the defaulting idiom used throughout the corpus.
func OrDefault(logger *zap.Logger) *zap.Logger {
	if logger == nil {
		return NewNop()
	}
	return logger
}

// WithContext returns a copy of ctx carrying logger.
func WithContext(ctx context.Context, logger *zap.Logger) context.Context {
	return context.WithValue(ctx, loggerKey, logger)
}

// FromContext returns the logger stored in ctx, or a no-op logger if none
// was set.
func FromContext(ctx context.Context) *zap.Logger {
	if logger, ok := ctx.Value(loggerKey).(*zap.Logger); ok && logger != nil {
		return logger
	}
	return NewNop()
}
