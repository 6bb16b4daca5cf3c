package auth

import (
	"context"

	"github.com/recipebox/recipebox/internal/model"
)

type contextKey struct{}

// ContextWithAuth adds the authenticated principal to ctx.
func ContextWithAuth(ctx context.Context, principal *model.AuthContext) context.Context {
	return context.WithValue(ctx, contextKey{}, principal)
}

// AuthFromContext returns the principal stored by the auth middleware, or nil.
func AuthFromContext(ctx context.Context) *model.AuthContext {
	principal, _ := ctx.Value(contextKey{}).(*model.AuthContext)
	return principal
}

// UserIDFromContext returns the authenticated user's id, or "".
func UserIDFromContext(ctx context.Context) string {
	if principal := AuthFromContext(ctx); principal != nil {
		return principal.UserID
	}
	return ""
}
