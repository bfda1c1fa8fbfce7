// Package requestcontext provides HTTP-independent accessors for
// request-scoped values.
//
// Middleware sets these; services and recorders read them. Keeping the
// package free of net/http lets workers and tests inject values without an
// HTTP stack:
//
//	ctx = requestcontext.WithIdentity(ctx, userID, "officer", "J. Doe")
//	ctx = requestcontext.WithTime(ctx, fixedTime)
package requestcontext

import (
	"context"
	"time"

	id "custodia/pkg/domain"
)

type (
	userIDKey      struct{}
	roleKey        struct{}
	displayNameKey struct{}
	requestIDKey   struct{}
	clientIPKey    struct{}
	userAgentKey   struct{}
	deviceKey      struct{}
	requestTimeKey struct{}
)

// UserID retrieves the authenticated user ID, or the nil ID if unset.
func UserID(ctx context.Context) id.UserID {
	if v, ok := ctx.Value(userIDKey{}).(id.UserID); ok {
		return v
	}
	return id.UserID{}
}

// Role retrieves the authenticated role string ("officer", "admin").
func Role(ctx context.Context) string {
	if v, ok := ctx.Value(roleKey{}).(string); ok {
		return v
	}
	return ""
}

// DisplayName retrieves the authenticated display name.
func DisplayName(ctx context.Context) string {
	if v, ok := ctx.Value(displayNameKey{}).(string); ok {
		return v
	}
	return ""
}

// WithIdentity injects the resolved identity into the context.
func WithIdentity(ctx context.Context, userID id.UserID, role, displayName string) context.Context {
	ctx = context.WithValue(ctx, userIDKey{}, userID)
	ctx = context.WithValue(ctx, roleKey{}, role)
	return context.WithValue(ctx, displayNameKey{}, displayName)
}

// RequestID retrieves the request correlation ID.
func RequestID(ctx context.Context) string {
	if v, ok := ctx.Value(requestIDKey{}).(string); ok {
		return v
	}
	return ""
}

// WithRequestID injects a request correlation ID.
func WithRequestID(ctx context.Context, requestID string) context.Context {
	return context.WithValue(ctx, requestIDKey{}, requestID)
}

// ClientIP retrieves the originating network address.
func ClientIP(ctx context.Context) string {
	if v, ok := ctx.Value(clientIPKey{}).(string); ok {
		return v
	}
	return ""
}

// UserAgent retrieves the raw User-Agent header value.
func UserAgent(ctx context.Context) string {
	if v, ok := ctx.Value(userAgentKey{}).(string); ok {
		return v
	}
	return ""
}

// Device retrieves the condensed device description derived from the
// User-Agent ("Chrome 120 / Linux"). Recorded on audit entries.
func Device(ctx context.Context) string {
	if v, ok := ctx.Value(deviceKey{}).(string); ok {
		return v
	}
	return ""
}

// WithClientMetadata injects client IP, User-Agent and device description.
func WithClientMetadata(ctx context.Context, clientIP, userAgent, device string) context.Context {
	ctx = context.WithValue(ctx, clientIPKey{}, clientIP)
	ctx = context.WithValue(ctx, userAgentKey{}, userAgent)
	return context.WithValue(ctx, deviceKey{}, device)
}

// Now retrieves the request-scoped time, falling back to time.Now for
// non-HTTP contexts such as workers and tests.
func Now(ctx context.Context) time.Time {
	if v, ok := ctx.Value(requestTimeKey{}).(time.Time); ok {
		return v
	}
	return time.Now()
}

// WithTime pins the request-scoped time. Used by the request-time middleware
// and by tests that need deterministic timestamps.
func WithTime(ctx context.Context, t time.Time) context.Context {
	return context.WithValue(ctx, requestTimeKey{}, t)
}
