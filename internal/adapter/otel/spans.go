package otel

import (
	"context"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

const tracerName = "planforge"

// StartGenerateSpan starts the span covering one plan generation.
func StartGenerateSpan(ctx context.Context, horizonDays int) (context.Context, trace.Span) {
	return otel.Tracer(tracerName).Start(ctx, "plan.generate",
		trace.WithAttributes(attribute.Int("plan.horizon_days", horizonDays)),
	)
}

// StartGeneratorSpan starts the span around the external task generator call.
func StartGeneratorSpan(ctx context.Context, provider string) (context.Context, trace.Span) {
	return otel.Tracer(tracerName).Start(ctx, "generator.call",
		trace.WithSpanKind(trace.SpanKindClient),
		trace.WithAttributes(attribute.String("generator.provider", provider)),
	)
}

// EndSpan records err on span, if any, and ends it.
func EndSpan(span trace.Span, err error) {
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
	span.End()
}
