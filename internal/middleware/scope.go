package middleware

import (
	"encoding/json"
	"net/http"

	"github.com/recipebox/recipebox/internal/auth"
	"github.com/recipebox/recipebox/internal/model"
)

// RequireScope returns middleware that enforces scope requirements.
// Must be applied after Auth middleware.
// If multiple scopes are provided, having ANY of them is sufficient.
func RequireScope(required ...string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if checkScope(w, r, required) {
				next.ServeHTTP(w, r)
			}
		})
	}
}

// RequireMethodScope applies RequireRead to safe methods and RequireWrite
// to everything else.
func RequireMethodScope() func(http.Handler) http.Handler {
	readOnly, write := RequireRead(), RequireWrite()
	return func(next http.Handler) http.Handler {
		reads, writes := readOnly(next), write(next)
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			switch r.Method {
			case http.MethodGet, http.MethodHead, http.MethodOptions:
				reads.ServeHTTP(w, r)
			default:
				writes.ServeHTTP(w, r)
			}
		})
	}
}

// RequireRead is a convenience middleware for read scope.
func RequireRead() func(http.Handler) http.Handler {
	return RequireScope(model.ScopeRead)
}

// RequireWrite is a convenience middleware for write scope.
func RequireWrite() func(http.Handler) http.Handler {
	return RequireScope(model.ScopeWrite)
}

// checkScope writes an error response and returns false when the caller
// holds none of the required scopes. Admin grants everything.
func checkScope(w http.ResponseWriter, r *http.Request, required []string) bool {
	principal := auth.AuthFromContext(r.Context())
	if principal == nil {
		writeScopeError(w, http.StatusUnauthorized, "UNAUTHORIZED", "Authentication required")
		return false
	}

	for _, scope := range required {
		if principal.HasScope(scope) {
			return true
		}
	}

	msg := "Insufficient permissions"
	if len(required) > 0 {
		msg += ". Required scope: " + required[0]
	}
	writeScopeError(w, http.StatusForbidden, "FORBIDDEN", msg)
	return false
}

// writeScopeError writes a scope-related error response.
func writeScopeError(w http.ResponseWriter, status int, code, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(map[string]any{
		"error": map[string]string{"code": code, "message": message},
	})
}
