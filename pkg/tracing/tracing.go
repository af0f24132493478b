// Package tracing wires the ambient OpenTelemetry instrumentation (§2.1 of
// SPEC_FULL): the runner and executor open one span per scenario and one per
// action; StartTask exists but has no caller. Disabling it via
// RunSpec.Tracing.Enabled changes no observable behavior of the core — spans
// are a read-only side channel, never consulted for control flow.
package tracing

import (
	"context"
	"fmt"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/exporters/stdout/stdouttrace"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.26.0"
	"go.opentelemetry.io/otel/trace"

	"github.com/embench/evalcore/pkg/runspec"
)

// Provider owns the run's tracer and its shutdown hook.
type Provider struct {
	Tracer   trace.Tracer
	shutdown func(context.Context) error
}

// Setup configures the global TracerProvider per cfg. When cfg.Enabled is
// false, Setup installs nothing and returns a tracer from the current global
// TracerProvider (OTel's no-op one unless something else set it), so every
// call site can unconditionally start spans without checking a flag (gomind's
// NewAutoOTEL "noop Tracer" fallback idiom, adapted to this package's
// narrower scope).
func Setup(ctx context.Context, runName string, cfg runspec.TracingConfig) (*Provider, error) {
	if !cfg.Enabled {
		tracer := otel.Tracer("evalcore")
		return &Provider{Tracer: tracer, shutdown: func(context.Context) error { return nil }}, nil
	}

	exporter, err := stdouttrace.New(stdouttrace.WithPrettyPrint())
	if err != nil {
		return nil, fmt.Errorf("tracing: creating exporter %q: %w", cfg.Exporter, err)
	}

	res, err := resource.New(ctx,
		resource.WithAttributes(
			semconv.ServiceName("evalcore"),
			semconv.ServiceInstanceID(runName),
		),
	)
	if err != nil {
		return nil, fmt.Errorf("tracing: building resource: %w", err)
	}

	tp := sdktrace.NewTracerProvider(
		sdktrace.WithBatcher(exporter),
		sdktrace.WithResource(res),
	)
	otel.SetTracerProvider(tp)

	return &Provider{
		Tracer:   tp.Tracer("evalcore"),
		shutdown: tp.Shutdown,
	}, nil
}

// Shutdown flushes and releases the exporter. Safe to call on a disabled
// Provider (no-op).
func (p *Provider) Shutdown(ctx context.Context) error {
	return p.shutdown(ctx)
}

// StartScenario opens the span that wraps one scenario runner invocation (C5).
func (p *Provider) StartScenario(ctx context.Context, scenarioID string) (context.Context, trace.Span) {
	return p.Tracer.Start(ctx, "scenario", withScenarioID(scenarioID))
}

// StartTask opens the span that wraps one task (or combined super-task) execution (C4).
func (p *Provider) StartTask(ctx context.Context, scenarioID string, taskIndex int) (context.Context, trace.Span) {
	return p.Tracer.Start(ctx, "task", withScenarioID(scenarioID), withTaskIndex(taskIndex))
}

// StartAction opens the span that wraps one describe→decide→apply step (C4).
func (p *Provider) StartAction(ctx context.Context, scenarioID string, taskIndex, actionIndex int) (context.Context, trace.Span) {
	return p.Tracer.Start(ctx, "action", withScenarioID(scenarioID), withTaskIndex(taskIndex), withActionIndex(actionIndex))
}
