package auth

import "context"

type ctxKey string

const userKey ctxKey = "auth_user"

// ContextWithUser stores the authenticated user in the context.
func ContextWithUser(ctx context.Context, user User) context.Context {
	return context.WithValue(ctx, userKey, user)
}

// UserFromContext extracts the authenticated user from the context.
func UserFromContext(ctx context.Context) (User, bool) {
	u, ok := ctx.Value(userKey).(User)
	if !ok || u.Username == "" {
		return User{}, false
	}
	return u, true
}

// UserIDFromContext returns just the username for log enrichment.
func UserIDFromContext(ctx context.Context) (string, bool) {
	u, ok := UserFromContext(ctx)
	if !ok {
		return "", false
	}
	return u.Username, true
}
