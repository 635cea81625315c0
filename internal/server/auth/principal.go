package auth

import (
	"context"

	"github.com/dmitrijs2005/cityfix/internal/server/models"
)

// Principal is the caller identity derived from a verified token.
type Principal struct {
	ID   string
	Role models.Role
}

func (p Principal) IsAuthority() bool {
	return p.Role == models.RoleAuthority
}

type principalKey struct{}

func WithPrincipal(ctx context.Context, p Principal) context.Context {
	return context.WithValue(ctx, principalKey{}, p)
}

// PrincipalFrom returns the principal stored by WithPrincipal.
func PrincipalFrom(ctx context.Context) (Principal, bool) {
	p, ok := ctx.Value(principalKey{}).(Principal)
	return p, ok
}
