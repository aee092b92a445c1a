package logger

import (
	"context"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"
)

const tracerName = "planforge.app/anvil"

// SpanContext pairs a started span with the context carrying it, so a
// call site holds one value instead of two.
type SpanContext struct {
	ctx  context.Context
	span trace.Span
}

// StartSpan opens a span under whatever trace the context already
// carries. End must be called.
func StartSpan(ctx context.Context, name string, opts ...trace.SpanStartOption) *SpanContext {
	return start(ctx, name, opts...)
}

// StartSpanFromTraceID opens a span under a trace that arrived as a bare
// hex ID, which is how trace context crosses the Redis stream. An empty
// or malformed ID degrades to a plain root span.
func StartSpanFromTraceID(ctx context.Context, traceID string, name string, opts ...trace.SpanStartOption) *SpanContext {
	remote, ok := remoteSpanContext(traceID)
	if !ok {
		return start(ctx, name, opts...)
	}
	opts = append(opts, trace.WithLinks(trace.Link{SpanContext: remote}))
	return start(trace.ContextWithRemoteSpanContext(ctx, remote), name, opts...)
}

func start(ctx context.Context, name string, opts ...trace.SpanStartOption) *SpanContext {
	ctx, span := otel.Tracer(tracerName).Start(ctx, name, opts...)
	return &SpanContext{ctx: ctx, span: span}
}

// remoteSpanContext rebuilds a sampled remote span context from a hex
// trace ID. Only the trace ID survives the queue hop, not the span ID,
// so the new span also links the remote context instead of claiming a
// parent span.
func remoteSpanContext(traceID string) (trace.SpanContext, bool) {
	if traceID == "" {
		return trace.SpanContext{}, false
	}
	id, err := trace.TraceIDFromHex(traceID)
	if err != nil {
		return trace.SpanContext{}, false
	}
	return trace.NewSpanContext(trace.SpanContextConfig{
		TraceID:    id,
		TraceFlags: trace.FlagsSampled,
		Remote:     true,
	}), true
}

// Context returns the context with the span attached.
func (sc *SpanContext) Context() context.Context {
	return sc.ctx
}

// End completes the span. Safe to call more than once.
func (sc *SpanContext) End() {
	if sc.span != nil {
		sc.span.End()
	}
}

// RecordError records err on the span. Nil errors are ignored.
func (sc *SpanContext) RecordError(err error) {
	if sc.span != nil && err != nil {
		sc.span.RecordError(err)
	}
}

// Span exposes the underlying span for attribute setting.
func (sc *SpanContext) Span() trace.Span {
	return sc.span
}
