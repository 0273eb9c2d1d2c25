// Package context carries per-request values that must survive across
// layer boundaries without widening every signature.
package context

import "context"

type requestIDKey struct{}

// WithRequestID stores the request id used to correlate logs, audit
// entries and outbox trace ids.
func WithRequestID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, requestIDKey{}, id)
}

// GetRequestID returns the stored request id, or "" outside a request.
func GetRequestID(ctx context.Context) string {
	if s, ok := ctx.Value(requestIDKey{}).(string); ok {
		return s
	}
	return ""
}
