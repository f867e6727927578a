// Package requestcontext provides HTTP-independent context accessors for
// request-scoped values. Middleware sets them, services read them, and tests
// inject them without running the HTTP stack.
package requestcontext

import (
	"context"
	"time"
)

type (
	requestIDKey   struct{}
	requestTimeKey struct{}
)

// RequestID retrieves the request ID from the context.
func RequestID(ctx context.Context) string {
	if reqID, ok := ctx.Value(requestIDKey{}).(string); ok {
		return reqID
	}
	return ""
}

// WithRequestID injects a request ID into the context.
func WithRequestID(ctx context.Context, requestID string) context.Context {
	return context.WithValue(ctx, requestIDKey{}, requestID)
}

// Now retrieves the request-scoped time from context. Falls back to
// time.Now() for non-HTTP contexts (workers, tests).
func Now(ctx context.Context) time.Time {
	if t, ok := ctx.Value(requestTimeKey{}).(time.Time); ok {
		return t
	}
	return time.Now()
}

// WithTime injects a specific time into a context. Useful for service unit
// tests that don't run the middleware chain.
func WithTime(ctx context.Context, t time.Time) context.Context {
	return context.WithValue(ctx, requestTimeKey{}, t)
}
