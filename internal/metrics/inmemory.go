package metrics

import (
	"sync/atomic"
	"time"
)

// Snapshot captures current in-memory counters.
type Snapshot struct {
	IngredientsCreated  uint64
	TagsCreated         uint64
	RecipesCreated      uint64
	RecipesUpdated      uint64
	RecipesDeleted      uint64
	AuthSuccesses       uint64
	AuthFailures        uint64
	AuthCacheHits       uint64
	AuthCacheMisses     uint64
	RateLimited         uint64
	HTTPRequests        uint64
	HTTPDurationTotalNs int64
}

// InMemoryRecorder stores metrics in memory for tests.
type InMemoryRecorder struct {
	ingredientsCreated  uint64
	tagsCreated         uint64
	recipesCreated      uint64
	recipesUpdated      uint64
	recipesDeleted      uint64
	authSuccesses       uint64
	authFailures        uint64
	authCacheHits       uint64
	authCacheMisses     uint64
	rateLimited         uint64
	httpRequests        uint64
	httpDurationTotalNs int64
}

// NewInMemory returns a Recorder that stores counters in memory.
func NewInMemory() *InMemoryRecorder {
	return &InMemoryRecorder{}
}

// Snapshot returns a copy of the counters.
func (m *InMemoryRecorder) Snapshot() Snapshot {
	return Snapshot{
		IngredientsCreated:  atomic.LoadUint64(&m.ingredientsCreated),
		TagsCreated:         atomic.LoadUint64(&m.tagsCreated),
		RecipesCreated:      atomic.LoadUint64(&m.recipesCreated),
		RecipesUpdated:      atomic.LoadUint64(&m.recipesUpdated),
		RecipesDeleted:      atomic.LoadUint64(&m.recipesDeleted),
		AuthSuccesses:       atomic.LoadUint64(&m.authSuccesses),
		AuthFailures:        atomic.LoadUint64(&m.authFailures),
		AuthCacheHits:       atomic.LoadUint64(&m.authCacheHits),
		AuthCacheMisses:     atomic.LoadUint64(&m.authCacheMisses),
		RateLimited:         atomic.LoadUint64(&m.rateLimited),
		HTTPRequests:        atomic.LoadUint64(&m.httpRequests),
		HTTPDurationTotalNs: atomic.LoadInt64(&m.httpDurationTotalNs),
	}
}

// IncIngredientCreated increments the ingredient counter.
func (m *InMemoryRecorder) IncIngredientCreated() {
	atomic.AddUint64(&m.ingredientsCreated, 1)
}

// IncTagCreated increments the tag counter.
func (m *InMemoryRecorder) IncTagCreated() {
	atomic.AddUint64(&m.tagsCreated, 1)
}

// IncRecipeCreated increments the recipe created counter.
func (m *InMemoryRecorder) IncRecipeCreated() {
	atomic.AddUint64(&m.recipesCreated, 1)
}

// IncRecipeUpdated increments the recipe updated counter.
func (m *InMemoryRecorder) IncRecipeUpdated() {
	atomic.AddUint64(&m.recipesUpdated, 1)
}

// IncRecipeDeleted increments the recipe deleted counter.
func (m *InMemoryRecorder) IncRecipeDeleted() {
	atomic.AddUint64(&m.recipesDeleted, 1)
}

// IncAuthRequest counts an authentication attempt by outcome.
func (m *InMemoryRecorder) IncAuthRequest(result string) {
	if result == AuthSuccess {
		atomic.AddUint64(&m.authSuccesses, 1)
		return
	}
	atomic.AddUint64(&m.authFailures, 1)
}

// IncAuthCacheHit increments the auth cache hit counter.
func (m *InMemoryRecorder) IncAuthCacheHit() {
	atomic.AddUint64(&m.authCacheHits, 1)
}

// IncAuthCacheMiss increments the auth cache miss counter.
func (m *InMemoryRecorder) IncAuthCacheMiss() {
	atomic.AddUint64(&m.authCacheMisses, 1)
}

// IncRateLimited counts a rejected request.
func (m *InMemoryRecorder) IncRateLimited() {
	atomic.AddUint64(&m.rateLimited, 1)
}

// ObserveHTTPRequest records a served request.
func (m *InMemoryRecorder) ObserveHTTPRequest(method, route string, status int, duration time.Duration) {
	atomic.AddUint64(&m.httpRequests, 1)
	atomic.AddInt64(&m.httpDurationTotalNs, duration.Nanoseconds())
}
