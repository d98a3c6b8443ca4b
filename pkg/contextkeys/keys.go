// Package contextkeys provides centralized context key definitions
//
// All context keys used across the application are defined here. This
// prevents typos, documents dependencies, and makes key usage discoverable.
package contextkeys

import "context"

// Key is the type for context keys to prevent collisions
type Key string

const (
	// SessionKey contains *session.Session
	// Set by: guard.Guard middleware
	// Required by: protected handlers, view-mode endpoints
	SessionKey Key = "session"

	// ViewRoleKey contains identity.Role: the effective (possibly
	// simulated) role the request renders as
	// Set by: guard.Guard middleware
	ViewRoleKey Key = "view_role"

	// RequestIDKey contains the request ID string (UUID)
	// Set by: api request middleware
	// Used by: logger, audit trail
	RequestIDKey Key = "request_id"
)

// WithSession adds the session to the context. The value is stored as
// interface{} to keep this package dependency-free.
func WithSession(ctx context.Context, sess interface{}) context.Context {
	return context.WithValue(ctx, SessionKey, sess)
}

// WithViewRole adds the effective view role to the context.
func WithViewRole(ctx context.Context, role string) context.Context {
	return context.WithValue(ctx, ViewRoleKey, role)
}

// GetViewRole retrieves the effective view role from the context.
func GetViewRole(ctx context.Context) string {
	if role, ok := ctx.Value(ViewRoleKey).(string); ok {
		return role
	}
	return ""
}

// WithRequestID adds a request ID to the context.
func WithRequestID(ctx context.Context, requestID string) context.Context {
	return context.WithValue(ctx, RequestIDKey, requestID)
}

// GetRequestID retrieves the request ID from the context.
func GetRequestID(ctx context.Context) string {
	if requestID, ok := ctx.Value(RequestIDKey).(string); ok {
		return requestID
	}
	return ""
}
