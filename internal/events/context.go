package events

import (
	"context"
	"os"
)

type contextKey int

const (
	loggerKey contextKey = iota
	notePathKey
	operationKey
)

// FromContext extracts the logger from context, falling back to the default.
func FromContext(ctx context.Context) *Logger {
	if l, ok := ctx.Value(loggerKey).(*Logger); ok {
		return l
	}
	return defaultLogger
}

// WithLogger adds a logger to the context.
func WithLogger(ctx context.Context, logger *Logger) context.Context {
	return context.WithValue(ctx, loggerKey, logger)
}

// WithNotePath tags the context logger with the note being processed.
func WithNotePath(ctx context.Context, path string) context.Context {
	logger := FromContext(ctx).WithField("note", path)
	ctx = context.WithValue(ctx, notePathKey, path)
	return WithLogger(ctx, logger)
}

// WithOperation tags the context logger with a ledger operation ID.
func WithOperation(ctx context.Context, id string) context.Context {
	logger := FromContext(ctx).WithField("operation_id", id)
	ctx = context.WithValue(ctx, operationKey, id)
	return WithLogger(ctx, logger)
}

// GetNotePath retrieves the note path from context.
func GetNotePath(ctx context.Context) string {
	if p, ok := ctx.Value(notePathKey).(string); ok {
		return p
	}
	return ""
}

var defaultLogger = &Logger{
	level:  InfoLevel,
	format: "text",
	output: os.Stderr,
	fields: make(map[string]interface{}),
}

// SetDefault sets the default logger.
func SetDefault(logger *Logger) {
	defaultLogger = logger
}
