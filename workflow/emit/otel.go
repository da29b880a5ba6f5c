package emit

import (
	"context"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// OTelEmitter turns each event into an immediately-ended OpenTelemetry span,
// so a run's progress stream shows up in whatever tracing backend the host
// application has wired its TracerProvider to (Jaeger, Zipkin, ...).
//
// Events represent points in time, not durations, so every span starts and
// ends within Emit; there is no open span left for a node's full
// execution — the driver already reports that via the running/completed
// event pair.
type OTelEmitter struct {
	tracer trace.Tracer
}

// NewOTelEmitter returns an OTelEmitter using tracer (e.g.
// otel.Tracer("workflow")).
func NewOTelEmitter(tracer trace.Tracer) *OTelEmitter {
	return &OTelEmitter{tracer: tracer}
}

func (o *OTelEmitter) Emit(event Event) {
	_, span := o.tracer.Start(context.Background(), string(event.Type))
	defer span.End()
	o.annotate(span, event)
}

func (o *OTelEmitter) annotate(span trace.Span, event Event) {
	attrs := []attribute.KeyValue{
		attribute.String("run_id", event.RunID),
		attribute.Int("seq", event.Seq),
	}
	if event.NodeID != "" {
		attrs = append(attrs, attribute.String("node_id", event.NodeID))
	}
	if event.Status != "" {
		attrs = append(attrs, attribute.String("status", string(event.Status)))
	}
	if event.Count != 0 {
		attrs = append(attrs, attribute.Int("token_count", event.Count))
	}
	span.SetAttributes(attrs...)
	if event.Err != nil {
		span.SetStatus(codes.Error, event.Err.Error())
		span.RecordError(event.Err)
	}
}

func (o *OTelEmitter) EmitBatch(_ context.Context, events []Event) error {
	for _, e := range events {
		o.Emit(e)
	}
	return nil
}

// Flush is a no-op: spans are handed to the configured TracerProvider's
// SpanProcessor immediately in Emit, which owns its own batching/export
// flush cycle (shut down that provider to force delivery).
func (o *OTelEmitter) Flush(context.Context) error { return nil }
