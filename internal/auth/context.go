package auth

import (
	"context"

	"github.com/authcore/authcore/internal/model"
)

// contextKey is a custom type for context keys to avoid collisions.
type contextKey string

const (
	// claimsContextKey is the context key for the verified access token claims.
	claimsContextKey contextKey = "token_claims"
)

// ContextWithClaims adds verified token claims to the context.
func ContextWithClaims(ctx context.Context, claims *model.TokenClaims) context.Context {
	return context.WithValue(ctx, claimsContextKey, claims)
}

// ClaimsFromContext retrieves token claims from the context.
// Returns nil if not present.
func ClaimsFromContext(ctx context.Context) *model.TokenClaims {
	claims, ok := ctx.Value(claimsContextKey).(*model.TokenClaims)
	if !ok {
		return nil
	}
	return claims
}

// UserIDFromContext returns the authenticated user ID, or 0 if not authenticated.
func UserIDFromContext(ctx context.Context) int64 {
	claims := ClaimsFromContext(ctx)
	if claims == nil {
		return 0
	}
	return claims.UserID
}
