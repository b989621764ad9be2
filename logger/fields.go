package logger

import (
	"context"

	"go.uber.org/zap"
)

// Standard field names for structured logging. Use these instead of raw
// strings so log queries work across components.
const (
	FieldRequestID = "request_id"
	FieldUserID    = "user_id"
	FieldTaskID    = "task_id"
	FieldComponent = "component"
	FieldService   = "service"

	FieldMethod     = "method"
	FieldPath       = "path"
	FieldStatus     = "status"
	FieldDurationMS = "duration_ms"
	FieldRemoteAddr = "remote_addr"

	FieldError = "error"
	FieldCount = "count"
	FieldFile  = "file"
	FieldStep  = "step"

	FieldAddress = "address"
	FieldTopic   = "topic"
)

type contextKey string

const requestIDKey contextKey = "logger_request_id"

// WithRequestID adds a request ID to the context for logging
func WithRequestID(ctx context.Context, requestID string) context.Context {
	return context.WithValue(ctx, requestIDKey, requestID)
}

// RequestIDFromContext returns the request ID stored by WithRequestID, if any.
func RequestIDFromContext(ctx context.Context) string {
	id, _ := ctx.Value(requestIDKey).(string)
	return id
}

// LoggerFromContext returns the global logger enriched with context fields.
func LoggerFromContext(ctx context.Context) *zap.SugaredLogger {
	if id := RequestIDFromContext(ctx); id != "" {
		return Logger.With(FieldRequestID, id)
	}
	return Logger
}

// ComponentLogger returns a named logger for a specific component.
// Prefer injecting this over calling the package-level helpers.
//
//	repo := &SQLiteTaskRepository{db: db, logger: logger.ComponentLogger("repository")}
func ComponentLogger(name string) *zap.SugaredLogger {
	return Logger.Named(name)
}
