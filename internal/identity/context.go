package identity

import "context"

type principalKey struct{}

// WithPrincipal returns a context carrying p.
func WithPrincipal(ctx context.Context, p *Principal) context.Context {
	return context.WithValue(ctx, principalKey{}, p)
}

// PrincipalFromContext returns the signed-in principal, if any.
func PrincipalFromContext(ctx context.Context) (*Principal, bool) {
	p, ok := ctx.Value(principalKey{}).(*Principal)
	return p, ok && p != nil
}

// Actor returns the email of the signed-in account, or "" when anonymous.
func Actor(ctx context.Context) string {
	if p, ok := PrincipalFromContext(ctx); ok {
		return p.Account.Email
	}
	return ""
}
