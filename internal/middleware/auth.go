package middleware

import (
	"context"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/recipebox/recipebox/internal/auth"
	"github.com/recipebox/recipebox/internal/metrics"
	"github.com/recipebox/recipebox/internal/model"
)

// APIKeyStore looks up API keys for authentication.
type APIKeyStore interface {
	GetAPIKeysByPrefix(ctx context.Context, prefix string) ([]*model.APIKey, error)
	UpdateAPIKeyLastUsed(ctx context.Context, id string) error
}

// AuthCache caches resolved principals keyed by a hash of the presented key.
type AuthCache interface {
	GetAuthContext(ctx context.Context, cacheKey string) (*model.AuthContext, error)
	SetAuthContext(ctx context.Context, cacheKey string, principal *model.AuthContext) error
}

// AuthConfig holds configuration for the auth middleware.
type AuthConfig struct {
	Logger  *slog.Logger
	Store   APIKeyStore
	Cache   AuthCache // optional
	Metrics metrics.Recorder
	// MinDuration pads every authentication attempt so success and failure
	// take the same time.
	MinDuration time.Duration
}

// Auth returns a middleware that authenticates API requests.
// It extracts the API key from the Authorization header,
// verifies it, and injects the auth context into the request.
func Auth(cfg AuthConfig) func(http.Handler) http.Handler {
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}
	if cfg.Metrics == nil {
		cfg.Metrics = metrics.NewNoop()
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			principal, cacheHit, reason := authenticate(r, cfg)

			if principal == nil {
				cfg.Metrics.IncAuthRequest(metrics.AuthFailure)
				cfg.Logger.Warn("authentication failed",
					slog.String("reason", reason),
					slog.String("ip", r.RemoteAddr),
					slog.String("endpoint", r.Method+" "+r.URL.Path),
					slog.String("request_id", GetRequestID(r.Context())),
				)
				writeAuthError(w)
				return
			}

			cfg.Metrics.IncAuthRequest(metrics.AuthSuccess)
			cfg.Logger.Debug("authentication successful",
				slog.String("key_id", principal.KeyID),
				slog.String("key_prefix", principal.KeyPrefix),
				slog.String("user_id", principal.UserID),
				slog.Bool("cache_hit", cacheHit),
				slog.String("request_id", GetRequestID(r.Context())),
			)

			ctx := auth.ContextWithAuth(r.Context(), principal)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// authenticate resolves the request's API key to a principal. On failure it
// returns a nil principal and the reason to log.
func authenticate(r *http.Request, cfg AuthConfig) (principal *model.AuthContext, cacheHit bool, reason string) {
	startTime := time.Now()
	defer func() {
		if elapsed := time.Since(startTime); elapsed < cfg.MinDuration {
			time.Sleep(cfg.MinDuration - elapsed)
		}
	}()

	key := extractAPIKey(r)
	if key == "" {
		return nil, false, "missing_key"
	}

	parsed, err := auth.ParseAPIKey(key)
	if err != nil {
		return nil, false, "invalid_format"
	}

	cacheKey := auth.QuickHash(key)
	if cfg.Cache != nil {
		cached, err := cfg.Cache.GetAuthContext(r.Context(), cacheKey)
		if err != nil {
			cfg.Logger.Warn("auth cache lookup failed", slog.String("error", err.Error()))
		}
		if cached != nil {
			cfg.Metrics.IncAuthCacheHit()
			return cached, true, ""
		}
		cfg.Metrics.IncAuthCacheMiss()
	}

	keys, err := cfg.Store.GetAPIKeysByPrefix(r.Context(), parsed.Prefix)
	if err != nil {
		cfg.Logger.Error("database error during auth",
			slog.String("error", err.Error()),
			slog.String("request_id", GetRequestID(r.Context())),
		)
		return nil, false, "store_error"
	}

	// Prefixes can collide; verify against every candidate.
	var matched *model.APIKey
	for _, k := range keys {
		if k.IsRevoked() {
			continue
		}
		ok, err := auth.VerifyPassword(key, k.KeyHash)
		if err == nil && ok {
			matched = k
			break
		}
	}
	if matched == nil {
		return nil, false, "invalid_key"
	}

	principal = &model.AuthContext{
		KeyID:         matched.ID,
		KeyPrefix:     matched.KeyPrefix,
		UserID:        matched.UserID,
		Scopes:        matched.Scopes,
		RateLimitTier: matched.RateLimitTier,
	}

	if cfg.Cache != nil {
		if err := cfg.Cache.SetAuthContext(r.Context(), cacheKey, principal); err != nil {
			cfg.Logger.Warn("auth cache write failed", slog.String("error", err.Error()))
		}
	}

	// The request context is cancelled once the response is written.
	go func(store APIKeyStore, logger *slog.Logger, keyID string) {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := store.UpdateAPIKeyLastUsed(ctx, keyID); err != nil {
			logger.Warn("failed to update key last used", slog.String("key_id", keyID), slog.String("error", err.Error()))
		}
	}(cfg.Store, cfg.Logger, matched.ID)

	return principal, false, ""
}

// extractAPIKey extracts the API key from the request.
// Supports both "Authorization: Bearer <key>" and "X-API-Key: <key>" headers.
func extractAPIKey(r *http.Request) string {
	if authHeader := r.Header.Get("Authorization"); authHeader != "" {
		if token, ok := strings.CutPrefix(authHeader, "Bearer "); ok {
			return strings.TrimSpace(token)
		}
	}

	return r.Header.Get("X-API-Key")
}

// writeAuthError writes a 401 Unauthorized response.
// Uses the same message for all auth failures to prevent enumeration.
func writeAuthError(w http.ResponseWriter) {
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("WWW-Authenticate", `Bearer realm="api"`)
	w.WriteHeader(http.StatusUnauthorized)
	_, _ = w.Write([]byte(`{"error":{"code":"UNAUTHORIZED","message":"Invalid or missing API key"}}`))
}
