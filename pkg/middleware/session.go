// Package middleware provides shared context helpers for the Orderline
// server. It lives in pkg/ so transport middleware and handlers agree on
// the same context keys without an import cycle.
package middleware

import "context"

type contextKey string

const sessionKey contextKey = "session"

// GetSessionID extracts the conversation session ID from the context.
// Returns "" when the request carried none.
func GetSessionID(ctx context.Context) string {
	if v, ok := ctx.Value(sessionKey).(string); ok {
		return v
	}
	return ""
}

// SetSessionID stores the conversation session ID in the context.
func SetSessionID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, sessionKey, id)
}
