package handlers

import "context"

type contextKey int

const usernameKey contextKey = iota

// WithUsername stamps the authenticated username onto the request
// context; the auth middleware calls this after verifying the token.
func WithUsername(ctx context.Context, username string) context.Context {
	return context.WithValue(ctx, usernameKey, username)
}

// UsernameFromContext returns the authenticated username, or "".
func UsernameFromContext(ctx context.Context) string {
	if v, ok := ctx.Value(usernameKey).(string); ok {
		return v
	}
	return ""
}
