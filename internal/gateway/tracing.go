package gateway

import (
	"context"
	"encoding/json"

	"go.opentelemetry.io/otel/attribute"
	otelcodes "go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

const tracerName = "github.com/zjrosen/gitglance/internal/gateway"

type tracingInvoker struct {
	next   Invoker
	tracer trace.Tracer
}

// WithTracing wraps inv so that every call is recorded as a span.
func WithTracing(inv Invoker, tp trace.TracerProvider) Invoker {
	return &tracingInvoker{next: inv, tracer: tp.Tracer(tracerName)}
}

func (t *tracingInvoker) Invoke(ctx context.Context, name string, args Args) (json.RawMessage, error) {
	ctx, span := t.tracer.Start(ctx, "invoke "+name,
		trace.WithSpanKind(trace.SpanKindClient),
		trace.WithAttributes(
			attribute.String("gitglance.command", name),
			attribute.Int("gitglance.args.count", len(args)),
		))
	defer span.End()

	raw, err := t.next.Invoke(ctx, name, args)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(otelcodes.Error, err.Error())
		switch {
		case IsHost(err):
			span.SetAttributes(attribute.String("gitglance.error.kind", "host"))
		case IsTransport(err):
			span.SetAttributes(attribute.String("gitglance.error.kind", "transport"))
		}
		return nil, err
	}
	span.SetAttributes(attribute.Int("gitglance.result.bytes", len(raw)))
	return raw, nil
}
