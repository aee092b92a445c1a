package logger

import (
	"context"
	"log/slog"
)

type logFieldsKey struct{}

// LogFields is the business context a log line should carry without the
// call site spelling it out. TraceHandler reads it back out of the
// context on every record.
type LogFields struct {
	ProjectID   *int64
	SessionID   *int64
	ChecklistID *int64
	QuoteID     *int64
	MessageID   *string // Redis stream entry ID
	TaskType    *string
	Component   string // dotted component name, e.g. "anvil.worker.publisher"
}

// WithLogFields layers fields over whatever the context already carries.
// Set fields win; nil and empty ones keep the existing value.
func WithLogFields(ctx context.Context, fields LogFields) context.Context {
	return context.WithValue(ctx, logFieldsKey{}, GetLogFields(ctx).merge(fields))
}

// GetLogFields returns the fields stored in ctx, or the zero value.
func GetLogFields(ctx context.Context) LogFields {
	fields, _ := ctx.Value(logFieldsKey{}).(LogFields)
	return fields
}

func (f LogFields) merge(over LogFields) LogFields {
	if over.ProjectID != nil {
		f.ProjectID = over.ProjectID
	}
	if over.SessionID != nil {
		f.SessionID = over.SessionID
	}
	if over.ChecklistID != nil {
		f.ChecklistID = over.ChecklistID
	}
	if over.QuoteID != nil {
		f.QuoteID = over.QuoteID
	}
	if over.MessageID != nil {
		f.MessageID = over.MessageID
	}
	if over.TaskType != nil {
		f.TaskType = over.TaskType
	}
	if over.Component != "" {
		f.Component = over.Component
	}
	return f
}

// attrs renders the set fields as slog attributes.
func (f LogFields) attrs() []slog.Attr {
	attrs := make([]slog.Attr, 0, 7)
	if f.ProjectID != nil {
		attrs = append(attrs, slog.Int64("project_id", *f.ProjectID))
	}
	if f.SessionID != nil {
		attrs = append(attrs, slog.Int64("session_id", *f.SessionID))
	}
	if f.ChecklistID != nil {
		attrs = append(attrs, slog.Int64("checklist_id", *f.ChecklistID))
	}
	if f.QuoteID != nil {
		attrs = append(attrs, slog.Int64("quote_id", *f.QuoteID))
	}
	if f.MessageID != nil {
		attrs = append(attrs, slog.String("message_id", *f.MessageID))
	}
	if f.TaskType != nil {
		attrs = append(attrs, slog.String("task_type", *f.TaskType))
	}
	if f.Component != "" {
		attrs = append(attrs, slog.String("component", f.Component))
	}
	return attrs
}

// Truncate caps s at maxLen bytes, appending "..." when it cuts. Meant
// for logging upstream response bodies and prompts.
func Truncate(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	return s[:maxLen] + "..."
}
