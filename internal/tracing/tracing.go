// Package tracing builds the OpenTelemetry tracer provider used to record
// host command spans.
package tracing

import (
	"context"
	"fmt"
	"io"
	"os"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracegrpc"
	"go.opentelemetry.io/otel/exporters/stdout/stdouttrace"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/trace"
	"go.opentelemetry.io/otel/trace/noop"

	"github.com/zjrosen/gitglance/internal/config"
	"github.com/zjrosen/gitglance/internal/log"
)

// ServiceName is reported as service.name on every span.
const ServiceName = "gitglance"

// Provider is a TracerProvider that must be shut down to flush spans.
type Provider struct {
	trace.TracerProvider
	shutdown func(context.Context) error
}

// Shutdown flushes buffered spans and stops the exporter.
func (p *Provider) Shutdown(ctx context.Context) error {
	if p.shutdown == nil {
		return nil
	}
	return p.shutdown(ctx)
}

// Setup builds a provider for cfg. Spans from the stdout exporter are
// written to out, or stderr when out is nil.
func Setup(ctx context.Context, cfg config.TracingConfig, out io.Writer) (*Provider, error) {
	var (
		exp sdktrace.SpanExporter
		err error
	)
	switch cfg.Exporter {
	case "", config.ExporterNone:
		return &Provider{TracerProvider: noop.NewTracerProvider()}, nil
	case config.ExporterStdout:
		if out == nil {
			out = os.Stderr
		}
		exp, err = stdouttrace.New(stdouttrace.WithWriter(out))
	case config.ExporterOTLP:
		opts := []otlptracegrpc.Option{otlptracegrpc.WithInsecure()}
		if cfg.Endpoint != "" {
			opts = append(opts, otlptracegrpc.WithEndpoint(cfg.Endpoint))
		}
		exp, err = otlptracegrpc.New(ctx, opts...)
	default:
		return nil, fmt.Errorf("unknown tracing exporter %q", cfg.Exporter)
	}
	if err != nil {
		return nil, fmt.Errorf("creating %s exporter: %w", cfg.Exporter, err)
	}

	tp := sdktrace.NewTracerProvider(
		sdktrace.WithBatcher(exp),
		sdktrace.WithResource(resource.NewSchemaless(
			attribute.String("service.name", ServiceName),
		)),
	)
	log.Debug(log.CatTrace, "Tracing enabled", "exporter", cfg.Exporter, "endpoint", cfg.Endpoint)
	return &Provider{TracerProvider: tp, shutdown: tp.Shutdown}, nil
}
