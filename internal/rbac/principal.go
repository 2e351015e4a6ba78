package rbac

import (
	"context"

	"github.com/campusevents/campusevents/internal/roles"
)

// Principal is an authenticated user together with the grants resolved for
// the current request.
type Principal struct {
	ID          int64         `json:"id"`
	Email       string        `json:"email"`
	DisplayName string        `json:"full_name"`
	Grants      []roles.Grant `json:"roles"`
}

type principalContextKey struct{}

// ContextWithPrincipal stores the principal in context.
func ContextWithPrincipal(ctx context.Context, p Principal) context.Context {
	return context.WithValue(ctx, principalContextKey{}, p)
}

// PrincipalFromContext extracts the principal from context.
func PrincipalFromContext(ctx context.Context) (Principal, bool) {
	p, ok := ctx.Value(principalContextKey{}).(Principal)
	return p, ok
}
