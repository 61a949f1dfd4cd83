package logger

import (
	"context"
	"log/slog"
	"time"
)

// ContextKey is the type for context keys used in logging
type ContextKey string

const (
	RequestIDKey ContextKey = "request_id"
	UserIDKey    ContextKey = "user_id"
	OperationKey ContextKey = "operation"

	// Business context keys, OTel semantic-convention style
	PostIDKey   ContextKey = "inkwell.post.id"
	TaskNameKey ContextKey = "inkwell.task.name"
	TaskIDKey   ContextKey = "inkwell.task.id"
)

// GlobalContext is the global ContextLogger instance
var GlobalContext *ContextLogger

// ContextLogger wraps a slog.Logger to add context-aware logging
type ContextLogger struct {
	logger *slog.Logger
}

// NewContextLogger creates a new ContextLogger wrapping the provided logger
func NewContextLogger(logger *slog.Logger) *ContextLogger {
	return &ContextLogger{logger: logger}
}

// WithContext adds context values to log entries and returns a new logger
func (cl *ContextLogger) WithContext(ctx context.Context) *slog.Logger {
	args := make([]any, 0)

	if requestID := ctx.Value(RequestIDKey); requestID != nil {
		args = append(args, "request_id", requestID.(string))
	}

	if userID := ctx.Value(UserIDKey); userID != nil {
		args = append(args, "user_id", userID.(string))
	}

	if operation := ctx.Value(OperationKey); operation != nil {
		args = append(args, "operation", operation.(string))
	}

	if postID := ctx.Value(PostIDKey); postID != nil {
		args = append(args, string(PostIDKey), postID.(string))
	}

	if taskName := ctx.Value(TaskNameKey); taskName != nil {
		args = append(args, string(TaskNameKey), taskName.(string))
	}

	if taskID := ctx.Value(TaskIDKey); taskID != nil {
		args = append(args, string(TaskIDKey), taskID.(string))
	}

	return cl.logger.With(args...)
}

// LogDuration logs an operation completion with duration in milliseconds
func (cl *ContextLogger) LogDuration(ctx context.Context, operation string, durationMs int64) {
	cl.WithContext(ctx).Info("operation completed",
		"operation", operation,
		"duration_ms", durationMs,
	)
}

// LogDurationTime is a convenience function that takes time.Duration
func (cl *ContextLogger) LogDurationTime(ctx context.Context, operation string, duration time.Duration) {
	cl.LogDuration(ctx, operation, duration.Milliseconds())
}

// LogError logs an operation failure with error details
func (cl *ContextLogger) LogError(ctx context.Context, operation string, err error) {
	cl.WithContext(ctx).Error("operation failed",
		"operation", operation,
		"error", err,
	)
}

// WithPostID adds post ID to context for observability
func WithPostID(ctx context.Context, postID string) context.Context {
	return context.WithValue(ctx, PostIDKey, postID)
}

// WithTaskName adds the executing task name to context for observability
func WithTaskName(ctx context.Context, name string) context.Context {
	return context.WithValue(ctx, TaskNameKey, name)
}

// WithTaskID adds the task delivery ID to context for observability
func WithTaskID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, TaskIDKey, id)
}
