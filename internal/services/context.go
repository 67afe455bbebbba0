package services

import "context"

type contextKey string

const (
	requestIDKey contextKey = "request_id"
	codeKey      contextKey = "code"
)

// WithRequestID annotates context with a correlation identifier.
func WithRequestID(ctx context.Context, id string) context.Context {
	if id == "" {
		return ctx
	}
	return context.WithValue(ctx, requestIDKey, id)
}

// RequestIDFromContext extracts the correlation identifier if present.
func RequestIDFromContext(ctx context.Context) (string, bool) {
	if v, ok := ctx.Value(requestIDKey).(string); ok && v != "" {
		return v, true
	}
	return "", false
}

// WithCode annotates context with the media code currently being processed.
func WithCode(ctx context.Context, code string) context.Context {
	if code == "" {
		return ctx
	}
	return context.WithValue(ctx, codeKey, code)
}

// CodeFromContext returns the media code if present.
func CodeFromContext(ctx context.Context) (string, bool) {
	if v, ok := ctx.Value(codeKey).(string); ok && v != "" {
		return v, true
	}
	return "", false
}
