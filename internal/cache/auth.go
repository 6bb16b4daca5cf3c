package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/recipebox/recipebox/internal/model"
)

const defaultAuthTTL = 5 * time.Minute

// cachedAuthContext is the JSON form of an AuthContext stored in Redis.
type cachedAuthContext struct {
	KeyID         string   `json:"key_id"`
	KeyPrefix     string   `json:"key_prefix"`
	UserID        string   `json:"user_id"`
	Scopes        []string `json:"scopes"`
	RateLimitTier string   `json:"rate_limit_tier"`
}

func authContextKey(cacheKey string) string {
	return keyNamespace + "auth:ctx:" + cacheKey
}

// authIndexKey holds the set of ctx entries created for one API key, so a
// revocation can drop them without knowing the plaintext.
func authIndexKey(keyID string) string {
	return keyNamespace + "auth:key:" + keyID
}

// GetAuthContext returns the cached principal for cacheKey, or nil on a miss.
// Corrupt entries count as misses.
func (c *Cache) GetAuthContext(ctx context.Context, cacheKey string) (*model.AuthContext, error) {
	data, err := c.client.Get(ctx, authContextKey(cacheKey)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, nil
		}
		return nil, fmt.Errorf("get auth context: %w", err)
	}

	var cached cachedAuthContext
	if err := json.Unmarshal(data, &cached); err != nil {
		return nil, nil //nolint:nilerr
	}

	return &model.AuthContext{
		KeyID:         cached.KeyID,
		KeyPrefix:     cached.KeyPrefix,
		UserID:        cached.UserID,
		Scopes:        cached.Scopes,
		RateLimitTier: cached.RateLimitTier,
	}, nil
}

// SetAuthContext caches principal under cacheKey and indexes it by key id.
func (c *Cache) SetAuthContext(ctx context.Context, cacheKey string, principal *model.AuthContext) error {
	data, err := json.Marshal(cachedAuthContext{
		KeyID:         principal.KeyID,
		KeyPrefix:     principal.KeyPrefix,
		UserID:        principal.UserID,
		Scopes:        principal.Scopes,
		RateLimitTier: principal.RateLimitTier,
	})
	if err != nil {
		return fmt.Errorf("marshal auth context: %w", err)
	}

	index := authIndexKey(principal.KeyID)
	_, err = c.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Set(ctx, authContextKey(cacheKey), data, c.authTTL)
		pipe.SAdd(ctx, index, cacheKey)
		pipe.Expire(ctx, index, c.authTTL)
		return nil
	})
	if err != nil {
		return fmt.Errorf("set auth context: %w", err)
	}
	return nil
}

// InvalidateAPIKey removes every cached principal for keyID.
// Called after a key is revoked.
func (c *Cache) InvalidateAPIKey(ctx context.Context, keyID string) error {
	index := authIndexKey(keyID)

	members, err := c.client.SMembers(ctx, index).Result()
	if err != nil {
		return fmt.Errorf("read auth index: %w", err)
	}

	keys := make([]string, 0, len(members)+1)
	for _, m := range members {
		keys = append(keys, authContextKey(m))
	}
	keys = append(keys, index)

	if err := c.client.Del(ctx, keys...).Err(); err != nil {
		return fmt.Errorf("delete auth contexts: %w", err)
	}
	return nil
}
