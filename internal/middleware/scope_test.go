package middleware

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/recipebox/recipebox/internal/auth"
	"github.com/recipebox/recipebox/internal/model"
)

var okHandler = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
})

func withScopes(r *http.Request, scopes ...string) *http.Request {
	principal := &model.AuthContext{KeyID: "key123", UserID: "user123", Scopes: scopes}
	return r.WithContext(auth.ContextWithAuth(r.Context(), principal))
}

func TestRequireScope(t *testing.T) {
	testCases := []struct {
		name     string
		scopes   []string
		required string
		want     int
	}{
		{"read allows read", []string{model.ScopeRead}, model.ScopeRead, http.StatusOK},
		{"write allows write", []string{model.ScopeWrite}, model.ScopeWrite, http.StatusOK},
		{"admin allows read", []string{model.ScopeAdmin}, model.ScopeRead, http.StatusOK},
		{"admin allows write", []string{model.ScopeAdmin}, model.ScopeWrite, http.StatusOK},
		{"read and write allow write", []string{model.ScopeRead, model.ScopeWrite}, model.ScopeWrite, http.StatusOK},
		{"read cannot write", []string{model.ScopeRead}, model.ScopeWrite, http.StatusForbidden},
		{"write cannot admin", []string{model.ScopeWrite}, model.ScopeAdmin, http.StatusForbidden},
		{"no scopes", nil, model.ScopeRead, http.StatusForbidden},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			req := withScopes(httptest.NewRequest(http.MethodGet, "/", nil), tc.scopes...)
			rec := httptest.NewRecorder()
			RequireScope(tc.required)(okHandler).ServeHTTP(rec, req)

			if rec.Code != tc.want {
				t.Errorf("status = %d, want %d", rec.Code, tc.want)
			}
			if tc.want == http.StatusForbidden && !strings.Contains(rec.Body.String(), `"code":"FORBIDDEN"`) {
				t.Errorf("body = %s", rec.Body.String())
			}
		})
	}
}

func TestRequireScope_NoAuthContext(t *testing.T) {
	rec := httptest.NewRecorder()
	RequireScope(model.ScopeRead)(okHandler).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))

	if rec.Code != http.StatusUnauthorized {
		t.Errorf("status = %d, want 401", rec.Code)
	}
}

func TestRequireMethodScope(t *testing.T) {
	testCases := []struct {
		method string
		scopes []string
		want   int
	}{
		{http.MethodGet, []string{model.ScopeRead}, http.StatusOK},
		{http.MethodHead, []string{model.ScopeRead}, http.StatusOK},
		{http.MethodPost, []string{model.ScopeRead}, http.StatusForbidden},
		{http.MethodPatch, []string{model.ScopeRead}, http.StatusForbidden},
		{http.MethodDelete, []string{model.ScopeRead}, http.StatusForbidden},
		{http.MethodPost, []string{model.ScopeWrite}, http.StatusOK},
		{http.MethodGet, []string{model.ScopeWrite}, http.StatusForbidden},
		{http.MethodDelete, []string{model.ScopeAdmin}, http.StatusOK},
	}

	for _, tc := range testCases {
		t.Run(tc.method+" "+strings.Join(tc.scopes, ","), func(t *testing.T) {
			req := withScopes(httptest.NewRequest(tc.method, "/", nil), tc.scopes...)
			rec := httptest.NewRecorder()
			RequireMethodScope()(okHandler).ServeHTTP(rec, req)

			if rec.Code != tc.want {
				t.Errorf("status = %d, want %d", rec.Code, tc.want)
			}
		})
	}
}

func TestConvenienceMiddleware(t *testing.T) {
	testCases := []struct {
		name       string
		middleware func() func(http.Handler) http.Handler
	}{
		{"RequireRead", RequireRead},
		{"RequireWrite", RequireWrite},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			req := withScopes(httptest.NewRequest(http.MethodGet, "/", nil), model.ScopeAdmin)
			rec := httptest.NewRecorder()
			tc.middleware()(okHandler).ServeHTTP(rec, req)

			if rec.Code != http.StatusOK {
				t.Errorf("status = %d, want 200", rec.Code)
			}
		})
	}
}
