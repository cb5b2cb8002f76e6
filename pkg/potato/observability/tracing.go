package observability

import (
	"context"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

var tracer = otel.Tracer("potato")

// SpanManager handles trace span lifecycle.
// Use NewSpanManager() for OTel tracing or NoopSpanManager{} when disabled.
type SpanManager interface {
	// StartCompileSpan starts a span covering one compilation.
	StartCompileSpan(ctx context.Context, exprID, source string) (context.Context, trace.Span)

	// StartEvaluateSpan starts a span covering one evaluation of the
	// compiled source text.
	StartEvaluateSpan(ctx context.Context, source string) (context.Context, trace.Span)

	// EndSpanWithError completes a span, optionally recording an error.
	EndSpanWithError(span trace.Span, err error)

	// AddSpanEvent adds an event to the current span in context.
	AddSpanEvent(ctx context.Context, name string, attrs ...attribute.KeyValue)
}

type otelSpanManager struct{}

// NewSpanManager returns a SpanManager that uses the global OTel tracer
// provider.
func NewSpanManager() SpanManager {
	return otelSpanManager{}
}

func (otelSpanManager) StartCompileSpan(ctx context.Context, exprID, source string) (context.Context, trace.Span) {
	return StartCompileSpan(ctx, exprID, source)
}

func (otelSpanManager) StartEvaluateSpan(ctx context.Context, source string) (context.Context, trace.Span) {
	return StartEvaluateSpan(ctx, source)
}

func (otelSpanManager) EndSpanWithError(span trace.Span, err error) {
	EndSpanWithError(span, err)
}

func (otelSpanManager) AddSpanEvent(ctx context.Context, name string, attrs ...attribute.KeyValue) {
	AddSpanEvent(ctx, name, attrs...)
}

// StartCompileSpan starts a compile span on the package tracer.
func StartCompileSpan(ctx context.Context, exprID, source string) (context.Context, trace.Span) {
	return tracer.Start(ctx, "potato.compile",
		trace.WithAttributes(
			attribute.String("expression.id", exprID),
			attribute.String("expression.source", source),
		),
		trace.WithSpanKind(trace.SpanKindInternal),
	)
}

// StartEvaluateSpan starts an evaluation span on the package tracer.
func StartEvaluateSpan(ctx context.Context, source string) (context.Context, trace.Span) {
	return tracer.Start(ctx, "potato.evaluate",
		trace.WithAttributes(
			attribute.String("expression.source", source),
		),
		trace.WithSpanKind(trace.SpanKindInternal),
	)
}

// EndSpanWithError completes a span, optionally recording an error.
func EndSpanWithError(span trace.Span, err error) {
	if span == nil {
		return
	}
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	} else {
		span.SetStatus(codes.Ok, "")
	}
	span.End()
}

// AddSpanEvent adds an event to the current span in context.
func AddSpanEvent(ctx context.Context, name string, attrs ...attribute.KeyValue) {
	span := trace.SpanFromContext(ctx)
	if !span.IsRecording() {
		return
	}
	span.AddEvent(name, trace.WithAttributes(attrs...))
}
