package observability

import (
	"context"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

var tracer = otel.Tracer(instrumentationName)

// StartRunSpan starts the span covering one full monitoring run.
func StartRunSpan(ctx context.Context) (context.Context, trace.Span) {
	return tracer.Start(ctx, "monitoring.run")
}

// StartWorkerSpan starts the span covering a single bookmark's processing,
// tagged with the bookmark's id and target for correlation with logs.
func StartWorkerSpan(ctx context.Context, bookmarkID int64, targetValue string) (context.Context, trace.Span) {
	return tracer.Start(ctx, "monitoring.worker.process",
		trace.WithAttributes(
			attribute.Int64("bookmark.id", bookmarkID),
			attribute.String("bookmark.target_value", targetValue),
		),
	)
}

// EndWithError records err on the span (if non-nil) and sets the span
// status accordingly, then ends it. Safe to call with a nil error.
func EndWithError(span trace.Span, err error) {
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
	span.End()
}
