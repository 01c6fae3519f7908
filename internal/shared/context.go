package shared

import "context"

// Role gates destructive operations.
type Role string

const (
	RoleAdmin Role = "admin"
	RoleUser  Role = "user"
)

// Principal identifies the authenticated caller.
type Principal struct {
	UserID   string
	Username string
	Role     Role
	TokenID  string
}

// IsAdmin reports whether the principal holds the admin role.
func (p *Principal) IsAdmin() bool {
	return p != nil && p.Role == RoleAdmin
}

type principalContextKey struct{}

// ContextWithPrincipal stores the principal in context.
func ContextWithPrincipal(ctx context.Context, p *Principal) context.Context {
	return context.WithValue(ctx, principalContextKey{}, p)
}

// PrincipalFromContext extracts the principal from context.
func PrincipalFromContext(ctx context.Context) *Principal {
	p, _ := ctx.Value(principalContextKey{}).(*Principal)
	return p
}

// ActorName returns the username on ctx, or fallback when unauthenticated.
func ActorName(ctx context.Context, fallback string) string {
	if p := PrincipalFromContext(ctx); p != nil && p.Username != "" {
		return p.Username
	}
	return fallback
}
