package common

import (
	"context"
	"time"
)

// Context keys for storing values in context
type contextKey string

const (
	ContextKeyRequestID contextKey = "request_id"
	ContextKeySource    contextKey = "source"
)

// WithRequestID adds a request ID to the context
func WithRequestID(ctx context.Context, requestID string) context.Context {
	return context.WithValue(ctx, ContextKeyRequestID, requestID)
}

// RequestIDFromContext extracts the request ID from context
func RequestIDFromContext(ctx context.Context) string {
	if requestID, ok := ctx.Value(ContextKeyRequestID).(string); ok {
		return requestID
	}
	return ""
}

// WithSource tags the context with the input being processed (path or message id).
func WithSource(ctx context.Context, source string) context.Context {
	return context.WithValue(ctx, ContextKeySource, source)
}

// SourceFromContext extracts the input source from context
func SourceFromContext(ctx context.Context) string {
	if source, ok := ctx.Value(ContextKeySource).(string); ok {
		return source
	}
	return ""
}

// WithTimeout creates a context with the specified timeout
func WithTimeout(parent context.Context, timeout time.Duration) (context.Context, context.CancelFunc) {
	return context.WithTimeout(parent, timeout)
}
