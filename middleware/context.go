package middleware

import (
	"context"

	"github.com/upb/directory-auth/token"
)

// Context key type to avoid collisions
type contextKey string

const (
	// ClaimsKey is the context key for verified token claims
	ClaimsKey contextKey = "claims"
)

// GetClaimsFromContext retrieves verified claims from context
func GetClaimsFromContext(ctx context.Context) (token.ClaimSet, bool) {
	claims, ok := ctx.Value(ClaimsKey).(token.ClaimSet)
	return claims, ok
}

// WithClaims adds verified claims to the context
func WithClaims(ctx context.Context, claims token.ClaimSet) context.Context {
	return context.WithValue(ctx, ClaimsKey, claims)
}
