// Package requestcontext provides HTTP-independent context accessors for
// request-scoped values.
//
// Context keys and getter/setter pairs live here so handlers can consume
// values the gateway middleware set without importing HTTP wiring, and tests
// can inject them directly.
//
// Usage in handlers (read values):
//
//	userID := requestcontext.UserID(ctx)
//	role := requestcontext.Role(ctx)
//
// Usage in middleware (set values):
//
//	ctx = requestcontext.WithUserID(ctx, userID)
//
// Usage in tests (inject values):
//
//	ctx = requestcontext.WithRole(ctx, domain.RoleAdmin)
package requestcontext

import (
	"context"

	"pressroom/pkg/domain"
)

// Context key types (unexported for encapsulation).
type (
	userIDKey    struct{}
	roleKey      struct{}
	requestIDKey struct{}
	clientIPKey  struct{}
)

// UserID retrieves the authenticated subject from the context.
// Returns the zero value (nil UUID) if not set.
func UserID(ctx context.Context) domain.UserID {
	if id, ok := ctx.Value(userIDKey{}).(domain.UserID); ok {
		return id
	}
	return domain.UserID{}
}

// WithUserID injects the authenticated subject into the context.
func WithUserID(ctx context.Context, id domain.UserID) context.Context {
	return context.WithValue(ctx, userIDKey{}, id)
}

// Role retrieves the authenticated subject's role from the context.
// Returns the empty role if not set; the empty role authorizes nothing.
func Role(ctx context.Context) domain.Role {
	if r, ok := ctx.Value(roleKey{}).(domain.Role); ok {
		return r
	}
	return ""
}

// WithRole injects the subject's role into the context.
func WithRole(ctx context.Context, r domain.Role) context.Context {
	return context.WithValue(ctx, roleKey{}, r)
}

// RequestID retrieves the correlation ID assigned by the router middleware.
func RequestID(ctx context.Context) string {
	if id, ok := ctx.Value(requestIDKey{}).(string); ok {
		return id
	}
	return ""
}

// WithRequestID injects a correlation ID into the context.
func WithRequestID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, requestIDKey{}, id)
}

// ClientIP retrieves the client IP extracted by the router middleware.
func ClientIP(ctx context.Context) string {
	if ip, ok := ctx.Value(clientIPKey{}).(string); ok {
		return ip
	}
	return ""
}

// WithClientIP injects a client IP into the context.
func WithClientIP(ctx context.Context, ip string) context.Context {
	return context.WithValue(ctx, clientIPKey{}, ip)
}
