// Package logger configures slog for anvil binaries: text in
// development, JSON in production, the otelslog bridge when a collector
// is configured, and automatic record enrichment from trace context and
// LogFields.
package logger

import (
	"context"
	"log/slog"
	"os"

	"go.opentelemetry.io/contrib/bridges/otelslog"
	"go.opentelemetry.io/otel/log/global"
	"go.opentelemetry.io/otel/trace"

	"planforge.app/anvil/core/config"
)

// Setup installs the process-wide default logger. Development logs at
// debug, production at info.
func Setup(cfg config.Config) {
	opts := &slog.HandlerOptions{Level: slog.LevelInfo}
	if cfg.IsDevelopment() {
		opts.Level = slog.LevelDebug
	}

	var handler slog.Handler
	switch {
	case cfg.IsProduction() && cfg.OTel.Enabled():
		// The bridge carries trace context natively, so records only need
		// the LogFields half of the enrichment.
		handler = newFieldsHandler(otelslog.NewHandler(
			cfg.OTel.ServiceName,
			otelslog.WithLoggerProvider(global.GetLoggerProvider()),
		))
	case cfg.IsProduction():
		handler = NewTraceHandler(slog.NewJSONHandler(os.Stdout, opts))
	default:
		handler = NewTraceHandler(slog.NewTextHandler(os.Stdout, opts))
	}

	slog.SetDefault(slog.New(handler))
}

// TraceHandler decorates another handler with whatever LogFields the
// context carries and, unless built by newFieldsHandler, the active
// trace and span IDs.
type TraceHandler struct {
	slog.Handler
	spanIDs bool
}

// NewTraceHandler enriches records with trace_id/span_id plus LogFields.
func NewTraceHandler(h slog.Handler) *TraceHandler {
	return &TraceHandler{Handler: h, spanIDs: true}
}

func newFieldsHandler(h slog.Handler) *TraceHandler {
	return &TraceHandler{Handler: h}
}

func (h *TraceHandler) Handle(ctx context.Context, r slog.Record) error {
	if h.spanIDs {
		if sc := trace.SpanFromContext(ctx).SpanContext(); sc.IsValid() {
			r.AddAttrs(
				slog.String("trace_id", sc.TraceID().String()),
				slog.String("span_id", sc.SpanID().String()),
			)
		}
	}
	r.AddAttrs(GetLogFields(ctx).attrs()...)
	return h.Handler.Handle(ctx, r)
}

func (h *TraceHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	return &TraceHandler{Handler: h.Handler.WithAttrs(attrs), spanIDs: h.spanIDs}
}

func (h *TraceHandler) WithGroup(name string) slog.Handler {
	return &TraceHandler{Handler: h.Handler.WithGroup(name), spanIDs: h.spanIDs}
}
