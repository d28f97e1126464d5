package middleware

import (
	"context"

	"pathwiki/internal/data"
)

// contextKey defines a custom type for context keys to avoid collisions.
type contextKey string

const userContextKey = contextKey("user")

// SetUser adds the resolved user to the request context.
func SetUser(ctx context.Context, user *data.User) context.Context {
	return context.WithValue(ctx, userContextKey, user)
}

// GetUser retrieves the current user from the request context. It
// returns nil for anonymous requests.
func GetUser(ctx context.Context) *data.User {
	if user, ok := ctx.Value(userContextKey).(*data.User); ok {
		return user
	}
	return nil
}

// Subject returns the authorization subject for the request: "user"
// for a logged-in account, "anonymous" otherwise.
func Subject(ctx context.Context) string {
	if GetUser(ctx) != nil {
		return "user"
	}
	return "anonymous"
}
