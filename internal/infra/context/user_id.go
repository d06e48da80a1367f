package context

import (
	"context"
)

const (
	contextKeyUserID   = contextKey("userID")
	contextKeyUsername = contextKey("username")
)

// UserIDFromContext extracts the session user ID from the context.
// Returns the ID and true if present, or 0 and false if the request is anonymous.
func UserIDFromContext(ctx context.Context) (int64, bool) {
	userID, ok := ctx.Value(contextKeyUserID).(int64)

	return userID, ok
}

// UsernameFromContext extracts the session username from the context.
func UsernameFromContext(ctx context.Context) (string, bool) {
	username, ok := ctx.Value(contextKeyUsername).(string)

	return username, ok
}

// WithUser returns a context carrying the authenticated user's ID and name.
func WithUser(ctx context.Context, userID int64, username string) context.Context {
	ctx = context.WithValue(ctx, contextKeyUserID, userID)

	return context.WithValue(ctx, contextKeyUsername, username)
}
