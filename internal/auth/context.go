package auth

import "context"

type contextKeyUserID struct{}
type contextKeyUsername struct{}

// ContextWithIdentity stashes the validated session identity in ctx. The
// values are fixed for the rest of the request; nothing downstream mutates
// them.
func ContextWithIdentity(ctx context.Context, sess *Session) context.Context {
	ctx = context.WithValue(ctx, contextKeyUserID{}, sess.UserID)
	return context.WithValue(ctx, contextKeyUsername{}, sess.Username)
}

// UserIDFromContext returns the authenticated user id, or "" if the request
// never passed the auth middleware.
func UserIDFromContext(ctx context.Context) string {
	id, _ := ctx.Value(contextKeyUserID{}).(string)
	return id
}

// UsernameFromContext returns the authenticated display name, or "".
func UsernameFromContext(ctx context.Context) string {
	name, _ := ctx.Value(contextKeyUsername{}).(string)
	return name
}
