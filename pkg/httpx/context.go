package httpx

import (
	"context"
	"slices"
)

// Role is a granted authority such as "ROLE_USER". Roles are compared by
// exact string equality; there is no hierarchy.
type Role string

// Principal is the identity bound to a single request.
type Principal struct {
	Username string
	Roles    []Role
}

// HasRole reports whether r was explicitly granted.
func (p Principal) HasRole(r Role) bool {
	return slices.Contains(p.Roles, r)
}

type principalKey struct{}

// WithPrincipal binds p into the request's security context. A context holds
// at most one principal: if one is already bound, ctx is returned unchanged
// and ok is false.
func WithPrincipal(ctx context.Context, p Principal) (_ context.Context, ok bool) {
	if _, exists := PrincipalFromContext(ctx); exists {
		return ctx, false
	}
	return context.WithValue(ctx, principalKey{}, p), true
}

// PrincipalFromContext returns the principal bound to ctx, if any.
func PrincipalFromContext(ctx context.Context) (Principal, bool) {
	p, ok := ctx.Value(principalKey{}).(Principal)
	return p, ok
}
