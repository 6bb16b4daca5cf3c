// Package metrics provides lightweight hooks for instrumentation.
package metrics

import "time"

// Auth outcomes reported through IncAuthRequest.
const (
	AuthSuccess = "success"
	AuthFailure = "failure"
)

// Recorder captures metric events for the application.
// Implementations can expose these to Prometheus or keep them in memory for tests.
type Recorder interface {
	// Catalog metrics
	IncIngredientCreated()
	IncTagCreated()
	IncRecipeCreated()
	IncRecipeUpdated()
	IncRecipeDeleted()

	// Auth metrics
	IncAuthRequest(result string)
	IncAuthCacheHit()
	IncAuthCacheMiss()
	IncRateLimited()

	// HTTP metrics
	ObserveHTTPRequest(method, route string, status int, duration time.Duration)
}
