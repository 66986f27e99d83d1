package auth

import "context"

// Identity is the per-request resolved caller. It is created by the
// middleware, carried on the request context, and discarded when the
// request ends.
type Identity struct {
	UserID        int64
	Username      string
	Authenticated bool
}

type identityKey struct{}

// WithIdentity returns a context carrying the resolved identity.
func WithIdentity(ctx context.Context, id Identity) context.Context {
	return context.WithValue(ctx, identityKey{}, id)
}

// IdentityFromContext returns the identity attached by the middleware.
// The zero Identity (unauthenticated) is returned when none is present.
func IdentityFromContext(ctx context.Context) Identity {
	id, ok := ctx.Value(identityKey{}).(Identity)
	if !ok {
		return Identity{}
	}
	return id
}
