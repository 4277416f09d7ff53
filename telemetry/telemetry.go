// Package telemetry constructs the tracing objects the engine is handed at
// startup. Tracers are passed explicitly rather than installed as a process
// global, so tests and embedded uses can run with a no-op tracer without
// touching shared state.
package telemetry

import (
	"context"
	"fmt"

	"go.opentelemetry.io/otel/exporters/stdout/stdouttrace"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/trace"
	"go.opentelemetry.io/otel/trace/noop"
)

const tracerName = "kitchenmesh"

// Config selects the tracing backend.
type Config struct {
	Enabled  bool
	Exporter string // "stdout" or "noop"
}

// Setup builds a tracer per the config and returns it together with a
// shutdown function flushing any pending spans.
func Setup(cfg Config) (trace.Tracer, func(context.Context) error, error) {
	noopShutdown := func(context.Context) error { return nil }

	if !cfg.Enabled {
		return noop.NewTracerProvider().Tracer(tracerName), noopShutdown, nil
	}

	switch cfg.Exporter {
	case "stdout":
		exporter, err := stdouttrace.New(stdouttrace.WithPrettyPrint())
		if err != nil {
			return nil, nil, fmt.Errorf("create stdout exporter: %w", err)
		}
		tp := sdktrace.NewTracerProvider(
			sdktrace.WithBatcher(exporter),
			sdktrace.WithSampler(sdktrace.AlwaysSample()),
		)
		return tp.Tracer(tracerName), tp.Shutdown, nil
	case "noop", "":
		return noop.NewTracerProvider().Tracer(tracerName), noopShutdown, nil
	default:
		return nil, nil, fmt.Errorf("unsupported exporter: %s", cfg.Exporter)
	}
}
