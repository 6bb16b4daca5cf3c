package metrics

import "time"

// NoopRecorder implements Recorder with no-op methods.
type NoopRecorder struct{}

// NewNoop returns a Recorder that discards all metrics.
func NewNoop() Recorder {
	return &NoopRecorder{}
}

func (n *NoopRecorder) IncIngredientCreated() {}
func (n *NoopRecorder) IncTagCreated() {}
func (n *NoopRecorder) IncRecipeCreated() {}
func (n *NoopRecorder) IncRecipeUpdated() {}
func (n *NoopRecorder) IncRecipeDeleted() {}
func (n *NoopRecorder) IncAuthRequest(result string) {}
func (n *NoopRecorder) IncAuthCacheHit() {}
func (n *NoopRecorder) IncAuthCacheMiss() {}
func (n *NoopRecorder) IncRateLimited() {}

func (n *NoopRecorder) ObserveHTTPRequest(method, route string, status int, duration time.Duration) {}
