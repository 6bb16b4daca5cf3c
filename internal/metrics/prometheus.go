package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// PrometheusRecorder implements Recorder on a private Prometheus registry.
type PrometheusRecorder struct {
	registry *prometheus.Registry

	catalogOpsTotal     *prometheus.CounterVec
	authRequestsTotal   *prometheus.CounterVec
	authCacheTotal      *prometheus.CounterVec
	rateLimitedTotal    prometheus.Counter
	httpRequestsTotal   *prometheus.CounterVec
	httpRequestDuration *prometheus.HistogramVec
}

// NewPrometheus creates a PrometheusRecorder with all collectors registered.
func NewPrometheus() *PrometheusRecorder {
	registry := prometheus.NewRegistry()

	catalogOpsTotal := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "recipebox_catalog_operations_total",
			Help: "Total number of catalog writes by resource and operation",
		},
		[]string{"resource", "op"},
	)

	authRequestsTotal := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "recipebox_auth_requests_total",
			Help: "Total number of authentication attempts by result",
		},
		[]string{"result"},
	)

	authCacheTotal := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "recipebox_auth_cache_total",
			Help: "Total number of auth cache lookups by outcome",
		},
		[]string{"outcome"},
	)

	rateLimitedTotal := prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "recipebox_rate_limited_total",
			Help: "Total number of requests rejected by the rate limiter",
		},
	)

	httpRequestsTotal := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "recipebox_http_requests_total",
			Help: "Total number of HTTP requests by method, route and status",
		},
		[]string{"method", "route", "status"},
	)

	httpRequestDuration := prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "recipebox_http_request_duration_seconds",
			Help:    "HTTP request duration in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "route"},
	)

	registry.MustRegister(
		catalogOpsTotal,
		authRequestsTotal,
		authCacheTotal,
		rateLimitedTotal,
		httpRequestsTotal,
		httpRequestDuration,
	)

	return &PrometheusRecorder{
		registry:            registry,
		catalogOpsTotal:     catalogOpsTotal,
		authRequestsTotal:   authRequestsTotal,
		authCacheTotal:      authCacheTotal,
		rateLimitedTotal:    rateLimitedTotal,
		httpRequestsTotal:   httpRequestsTotal,
		httpRequestDuration: httpRequestDuration,
	}
}

// Registry returns the registry backing this recorder.
func (p *PrometheusRecorder) Registry() *prometheus.Registry {
	return p.registry
}

// Handler serves the registry in the Prometheus exposition format.
func (p *PrometheusRecorder) Handler() http.Handler {
	return promhttp.HandlerFor(p.registry, promhttp.HandlerOpts{Registry: p.registry})
}

func (p *PrometheusRecorder) IncIngredientCreated() {
	p.catalogOpsTotal.WithLabelValues("ingredient", "create").Inc()
}

func (p *PrometheusRecorder) IncTagCreated() {
	p.catalogOpsTotal.WithLabelValues("tag", "create").Inc()
}

func (p *PrometheusRecorder) IncRecipeCreated() {
	p.catalogOpsTotal.WithLabelValues("recipe", "create").Inc()
}

func (p *PrometheusRecorder) IncRecipeUpdated() {
	p.catalogOpsTotal.WithLabelValues("recipe", "update").Inc()
}

func (p *PrometheusRecorder) IncRecipeDeleted() {
	p.catalogOpsTotal.WithLabelValues("recipe", "delete").Inc()
}

func (p *PrometheusRecorder) IncAuthRequest(result string) {
	p.authRequestsTotal.WithLabelValues(result).Inc()
}

func (p *PrometheusRecorder) IncAuthCacheHit() {
	p.authCacheTotal.WithLabelValues("hit").Inc()
}

func (p *PrometheusRecorder) IncAuthCacheMiss() {
	p.authCacheTotal.WithLabelValues("miss").Inc()
}

func (p *PrometheusRecorder) IncRateLimited() {
	p.rateLimitedTotal.Inc()
}

// ObserveHTTPRequest records count and latency. route is the chi route
// pattern so ids do not explode label cardinality.
func (p *PrometheusRecorder) ObserveHTTPRequest(method, route string, status int, duration time.Duration) {
	p.httpRequestsTotal.WithLabelValues(method, route, strconv.Itoa(status)).Inc()
	p.httpRequestDuration.WithLabelValues(method, route).Observe(duration.Seconds())
}
