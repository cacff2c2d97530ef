// Package requestcontext provides HTTP-independent context accessors for
// request-scoped values.
//
// This package defines context keys and getter/setter functions for values
// that are typically set by middleware but consumed by services. By keeping
// this package free of net/http dependencies, services and sweep tasks can
// import only what they need without pulling in HTTP-related code.
//
// Usage in services (read values):
//
//	actor := requestcontext.ActorID(ctx)
//	requestID := requestcontext.RequestID(ctx)
//	now := requestcontext.Now(ctx)
//
// Usage in middleware and sweeps (set values):
//
//	ctx = requestcontext.WithRequestID(ctx, requestID)
//	ctx = requestcontext.WithTime(ctx, tickTime)
package requestcontext

import (
	"context"
	"time"
)

// Context key types (unexported for encapsulation).
type (
	actorIDKey     struct{}
	requestIDKey   struct{}
	requestTimeKey struct{}
)

// Exported context keys for direct use in tests that need context.WithValue.
var (
	ContextKeyActorID     = actorIDKey{}
	ContextKeyRequestID   = requestIDKey{}
	ContextKeyRequestTime = requestTimeKey{}
)

// ActorID retrieves the acting staff user or system identity from the
// context. Returns the empty string if not set.
func ActorID(ctx context.Context) string {
	if actor, ok := ctx.Value(ContextKeyActorID).(string); ok {
		return actor
	}
	return ""
}

// WithActorID injects the acting identity into the context.
func WithActorID(ctx context.Context, actor string) context.Context {
	return context.WithValue(ctx, ContextKeyActorID, actor)
}

// RequestID retrieves the correlation ID from the context.
func RequestID(ctx context.Context) string {
	if reqID, ok := ctx.Value(ContextKeyRequestID).(string); ok {
		return reqID
	}
	return ""
}

// WithRequestID injects a request ID into the context.
func WithRequestID(ctx context.Context, requestID string) context.Context {
	return context.WithValue(ctx, ContextKeyRequestID, requestID)
}

// Now retrieves the request-scoped time from context.
// Falls back to time.Now() if not set (for non-HTTP contexts like tests).
//
// Sweep tasks always set this at the top of a tick so that every
// threshold-crossing check within the tick observes the same instant.
func Now(ctx context.Context) time.Time {
	if t, ok := ctx.Value(ContextKeyRequestTime).(time.Time); ok {
		return t
	}
	return time.Now()
}

// WithTime injects a specific time into a context.
// Useful for:
//   - Service unit tests that don't run the full HTTP middleware chain
//   - Sweeps that need a consistent time within a batch operation
func WithTime(ctx context.Context, t time.Time) context.Context {
	return context.WithValue(ctx, ContextKeyRequestTime, t)
}
