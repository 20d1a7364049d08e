// Package tracing opens an OpenTelemetry span around each dispatch.
package tracing

import (
	"context"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

const tracerName = "junglebus-tracer"

// StartDispatchSpan opens a span for one message dispatch, child of ctx's
// current span (or a fresh root span if none is present).
func StartDispatchSpan(ctx context.Context, messageType, receiptHandle string) (context.Context, trace.Span) {
	tracer := otel.Tracer(tracerName)
	ctx, span := tracer.Start(ctx, "Dispatch")
	span.SetAttributes(
		attribute.String("junglebus.message_type", messageType),
		attribute.String("junglebus.receipt_handle", receiptHandle),
	)
	return ctx, span
}
