// Package telemetry wraps OTel SDK setup for the orchestration core's
// tracing spans. No OTLP exporter is wired: spans and metrics stay
// in-process, matching the core's "no external transport" boundary — the
// CLI collaborator that embeds this core is responsible for attaching a
// real exporter if it wants spans shipped anywhere.
package telemetry

import (
	"context"
	"runtime/debug"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/propagation"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.26.0"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/multierr"
	"go.uber.org/zap"

	"github.com/kingkillery/pk-code-sub001/internal/agentcore/logging"
)

// Config controls whether the orchestration core's spans/metrics are
// collected at all.
type Config struct {
	Enabled     bool
	ServiceName string
	SampleRate  float64 // ratio in [0,1]; ignored when Enabled is false
}

// Providers holds the OTel SDK TracerProvider and MeterProvider. When
// telemetry is disabled, both fields are nil and every method is a no-op.
type Providers struct {
	tp             *sdktrace.TracerProvider
	mp             *sdkmetric.MeterProvider
	processCounter metric.Int64Counter
}

// Init builds Providers for cfg. When cfg.Enabled is false, it returns a
// noop Providers without touching the global otel state.
func Init(cfg Config, logger *zap.Logger) (*Providers, error) {
	logger = logging.OrDefault(logger)
	if !cfg.Enabled {
		logger.Info("telemetry disabled, using noop providers")
		return &Providers{}, nil
	}

	ctx := context.Background()
	res, err := resource.New(ctx,
		resource.WithAttributes(
			semconv.ServiceNameKey.String(cfg.ServiceName),
			semconv.ServiceVersionKey.String(buildVersion()),
		),
	)
	if err != nil {
		return nil, err
	}

	rate := cfg.SampleRate
	if rate <= 0 {
		rate = 1.0
	}

	tp := sdktrace.NewTracerProvider(
		sdktrace.WithResource(res),
		sdktrace.WithSampler(sdktrace.TraceIDRatioBased(rate)),
	)
	mp := sdkmetric.NewMeterProvider(sdkmetric.WithResource(res))

	otel.SetTracerProvider(tp)
	otel.SetMeterProvider(mp)
	otel.SetTextMapPropagator(propagation.NewCompositeTextMapPropagator(
		propagation.TraceContext{},
		propagation.Baggage{},
	))

	logger.Info("telemetry initialized",
		zap.String("service_name", cfg.ServiceName),
		zap.Float64("sample_rate", rate),
	)

	counter, err := mp.Meter("orchestrator").Int64Counter(
		"orchestrator.process.count",
		metric.WithDescription("number of Process calls completed, by effective mode"),
	)
	if err != nil {
		return nil, err
	}

	return &Providers{tp: tp, mp: mp, processCounter: counter}, nil
}

// Tracer returns a named tracer. When telemetry is disabled, it returns
// a tracer from the global otel provider (a no-op unless one has been
// installed), so callers never need to check p == nil before starting a
// span.
func (p *Providers) Tracer(name string) trace.Tracer {
	if p == nil || p.tp == nil {
		return otel.Tracer(name)
	}
	return p.tp.Tracer(name)
}

// RecordProcessCall increments the orchestrator.process.count counter,
// tagged by effective mode. A no-op when telemetry is disabled or p is nil.
func (p *Providers) RecordProcessCall(ctx context.Context, mode string) {
	if p == nil || p.processCounter == nil {
		return
	}
	p.processCounter.Add(ctx, 1, metric.WithAttributes(attribute.String("mode", mode)))
}

// Shutdown flushes pending spans/metrics. Safe to call on a noop Providers
// or a nil pointer.
func (p *Providers) Shutdown(ctx context.Context) error {
	if p == nil {
		return nil
	}
	var err error
	if p.tp != nil {
		err = multierr.Append(err, p.tp.Shutdown(ctx))
	}
	if p.mp != nil {
		err = multierr.Append(err, p.mp.Shutdown(ctx))
	}
	return err
}

// buildVersion extracts the module version from Go build info, falling
// back to "dev" when unavailable (e.g. `go run`).
func buildVersion() string {
	info, ok := debug.ReadBuildInfo()
	if !ok {
		return "dev"
	}
	if info.Main.Version != "" && info.Main.Version != "(devel)" {
		return info.Main.Version
	}
	return "dev"
}
