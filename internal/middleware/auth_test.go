package middleware

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/recipebox/recipebox/internal/auth"
	"github.com/recipebox/recipebox/internal/metrics"
	"github.com/recipebox/recipebox/internal/model"
	"github.com/recipebox/recipebox/internal/repository/memstore"
)

var fastParams = auth.Params{Time: 1, Memory: 1024, Threads: 1, KeyLen: 32, SaltLen: 16}

// mapCache is an in-process AuthCache.
type mapCache struct {
	mu      sync.Mutex
	entries map[string]*model.AuthContext
	getErr  error
}

func newMapCache() *mapCache {
	return &mapCache{entries: make(map[string]*model.AuthContext)}
}

func (c *mapCache) GetAuthContext(_ context.Context, key string) (*model.AuthContext, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.getErr != nil {
		return nil, c.getErr
	}
	return c.entries[key], nil
}

func (c *mapCache) SetAuthContext(_ context.Context, key string, principal *model.AuthContext) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[key] = principal
	return nil
}

type failingKeyStore struct{}

func (failingKeyStore) GetAPIKeysByPrefix(context.Context, string) ([]*model.APIKey, error) {
	return nil, errors.New("connection refused")
}

func (failingKeyStore) UpdateAPIKeyLastUsed(context.Context, string) error { return nil }

// seedKey stores a user and an API key for it and returns the plaintext.
func seedKey(t *testing.T, store *memstore.Store, scopes ...string) (string, *model.APIKey) {
	t.Helper()
	ctx := context.Background()

	user := &model.User{ID: "user-" + t.Name(), Email: t.Name() + "@example.com", CreatedAt: time.Now()}
	if err := store.CreateUser(ctx, user); err != nil {
		t.Fatalf("CreateUser: %v", err)
	}

	generated, err := fastParams.GenerateAPIKey(auth.EnvTest)
	if err != nil {
		t.Fatalf("GenerateAPIKey: %v", err)
	}
	key := &model.APIKey{
		ID:            "key-" + t.Name(),
		UserID:        user.ID,
		KeyHash:       generated.Hash,
		KeyPrefix:     generated.Prefix,
		Scopes:        scopes,
		RateLimitTier: model.TierFree,
		CreatedAt:     time.Now(),
	}
	if err := store.CreateAPIKey(ctx, key); err != nil {
		t.Fatalf("CreateAPIKey: %v", err)
	}
	return generated.Plaintext, key
}

// whoami answers with the authenticated user id.
var whoami = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
	_, _ = w.Write([]byte(auth.UserIDFromContext(r.Context())))
})

func TestAuth_ValidKey(t *testing.T) {
	store := memstore.New()
	plaintext, key := seedKey(t, store, model.ScopeRead)
	recorder := metrics.NewInMemory()

	handler := Auth(AuthConfig{Store: store, Metrics: recorder})(whoami)

	for _, header := range []string{"Authorization", "X-API-Key"} {
		t.Run(header, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/api/v1/ingredients", nil)
			if header == "Authorization" {
				req.Header.Set(header, "Bearer "+plaintext)
			} else {
				req.Header.Set(header, plaintext)
			}
			rec := httptest.NewRecorder()
			handler.ServeHTTP(rec, req)

			if rec.Code != http.StatusOK {
				t.Fatalf("status = %d, want 200 (body %s)", rec.Code, rec.Body.String())
			}
			if rec.Body.String() != key.UserID {
				t.Errorf("user id = %q, want %q", rec.Body.String(), key.UserID)
			}
		})
	}

	if got := recorder.Snapshot().AuthSuccesses; got != 2 {
		t.Errorf("AuthSuccesses = %d, want 2", got)
	}
}

func TestAuth_Rejects(t *testing.T) {
	store := memstore.New()
	plaintext, key := seedKey(t, store, model.ScopeRead)

	other, err := fastParams.GenerateAPIKey(auth.EnvTest)
	if err != nil {
		t.Fatalf("GenerateAPIKey: %v", err)
	}
	// Same prefix as the stored key, different secret.
	forged := strings.Replace(other.Plaintext, other.Prefix, key.KeyPrefix, 1)

	tests := []struct {
		name   string
		header string
	}{
		{"missing key", ""},
		{"malformed key", "Bearer not-a-key"},
		{"unknown key", "Bearer " + other.Plaintext},
		{"wrong secret", "Bearer " + forged},
		{"basic scheme", "Basic " + plaintext},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			recorder := metrics.NewInMemory()
			called := false
			handler := Auth(AuthConfig{Store: store, Metrics: recorder})(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				called = true
			}))

			req := httptest.NewRequest(http.MethodGet, "/api/v1/ingredients", nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			rec := httptest.NewRecorder()
			handler.ServeHTTP(rec, req)

			if rec.Code != http.StatusUnauthorized {
				t.Errorf("status = %d, want 401", rec.Code)
			}
			if called {
				t.Error("next handler must not run")
			}
			if !strings.Contains(rec.Body.String(), `"code":"UNAUTHORIZED"`) {
				t.Errorf("body = %s", rec.Body.String())
			}
			if got := recorder.Snapshot().AuthFailures; got != 1 {
				t.Errorf("AuthFailures = %d, want 1", got)
			}
		})
	}
}

func TestAuth_RevokedKey(t *testing.T) {
	store := memstore.New()
	plaintext, key := seedKey(t, store, model.ScopeRead)
	if err := store.RevokeAPIKey(context.Background(), key.ID); err != nil {
		t.Fatalf("RevokeAPIKey: %v", err)
	}

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "Bearer "+plaintext)
	rec := httptest.NewRecorder()
	Auth(AuthConfig{Store: store})(whoami).ServeHTTP(rec, req)

	if rec.Code != http.StatusUnauthorized {
		t.Errorf("status = %d, want 401", rec.Code)
	}
}

func TestAuth_UsesCache(t *testing.T) {
	store := memstore.New()
	plaintext, key := seedKey(t, store, model.ScopeRead)
	cache := newMapCache()
	recorder := metrics.NewInMemory()

	handler := Auth(AuthConfig{Store: store, Cache: cache, Metrics: recorder})(whoami)
	serve := func() *httptest.ResponseRecorder {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.Header.Set("Authorization", "Bearer "+plaintext)
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)
		return rec
	}

	if rec := serve(); rec.Code != http.StatusOK {
		t.Fatalf("first request status = %d", rec.Code)
	}
	cached := cache.entries[auth.QuickHash(plaintext)]
	if cached == nil || cached.KeyID != key.ID {
		t.Fatalf("cache entry = %+v, want key %s", cached, key.ID)
	}

	if rec := serve(); rec.Code != http.StatusOK {
		t.Fatalf("second request status = %d", rec.Code)
	}

	snap := recorder.Snapshot()
	if snap.AuthCacheMisses != 1 || snap.AuthCacheHits != 1 {
		t.Errorf("cache misses/hits = %d/%d, want 1/1", snap.AuthCacheMisses, snap.AuthCacheHits)
	}
}

func TestAuth_CacheErrorFallsBackToStore(t *testing.T) {
	store := memstore.New()
	plaintext, _ := seedKey(t, store, model.ScopeRead)
	cache := newMapCache()
	cache.getErr = errors.New("redis down")

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "Bearer "+plaintext)
	rec := httptest.NewRecorder()
	Auth(AuthConfig{Store: store, Cache: cache})(whoami).ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Errorf("status = %d, want 200", rec.Code)
	}
}

func TestAuth_StoreErrorIsUnauthorized(t *testing.T) {
	generated, err := fastParams.GenerateAPIKey(auth.EnvTest)
	if err != nil {
		t.Fatalf("GenerateAPIKey: %v", err)
	}

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "Bearer "+generated.Plaintext)
	rec := httptest.NewRecorder()
	Auth(AuthConfig{Store: failingKeyStore{}})(whoami).ServeHTTP(rec, req)

	if rec.Code != http.StatusUnauthorized {
		t.Errorf("status = %d, want 401", rec.Code)
	}
}

func TestAuth_MinDuration(t *testing.T) {
	handler := Auth(AuthConfig{Store: memstore.New(), MinDuration: 30 * time.Millisecond})(whoami)

	start := time.Now()
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))

	if elapsed := time.Since(start); elapsed < 30*time.Millisecond {
		t.Errorf("failed auth took %v, want at least 30ms", elapsed)
	}
}

func TestExtractAPIKey(t *testing.T) {
	t.Parallel()

	testCases := []struct {
		name         string
		authHeader   string
		apiKeyHeader string
		want         string
	}{
		{name: "bearer token", authHeader: "Bearer rb_live_abc_secret", want: "rb_live_abc_secret"},
		{name: "x-api-key header", apiKeyHeader: "rb_live_abc_secret", want: "rb_live_abc_secret"},
		{name: "bearer takes precedence", authHeader: "Bearer bearer_key", apiKeyHeader: "header_key", want: "bearer_key"},
		{name: "no key", want: ""},
		{name: "non-bearer scheme", authHeader: "Basic abc123", want: ""},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/", nil)
			if tc.authHeader != "" {
				req.Header.Set("Authorization", tc.authHeader)
			}
			if tc.apiKeyHeader != "" {
				req.Header.Set("X-API-Key", tc.apiKeyHeader)
			}

			if got := extractAPIKey(req); got != tc.want {
				t.Errorf("extractAPIKey() = %q, want %q", got, tc.want)
			}
		})
	}
}
