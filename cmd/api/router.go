package main

import (
	"log/slog"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"

	"github.com/recipebox/recipebox/internal/config"
	"github.com/recipebox/recipebox/internal/handler"
	"github.com/recipebox/recipebox/internal/metrics"
	"github.com/recipebox/recipebox/internal/middleware"
	"github.com/recipebox/recipebox/internal/service"
)

// appStore is everything the API needs from persistence.
type appStore interface {
	handler.HealthChecker
	middleware.APIKeyStore
	service.IngredientStore
	service.TagStore
	service.RecipeStore
}

// appCache backs auth caching and rate limiting. It may be nil.
type appCache interface {
	handler.HealthChecker
	middleware.AuthCache
	middleware.RateLimiter
}

type routerDeps struct {
	cfg      *config.Config
	logger   *slog.Logger
	store    appStore
	cache    appCache
	recorder *metrics.PrometheusRecorder
}

// newRouter configures the chi router with all routes and middleware.
func newRouter(deps routerDeps) *chi.Mux {
	cfg, logger := deps.cfg, deps.logger

	var recorder metrics.Recorder = metrics.NewNoop()
	if deps.recorder != nil {
		recorder = deps.recorder
	}

	var (
		healthCache handler.HealthChecker
		authCache   middleware.AuthCache
		limiter     middleware.RateLimiter
	)
	if deps.cache != nil {
		healthCache, authCache, limiter = deps.cache, deps.cache, deps.cache
	}

	h := handler.New()
	healthHandler := handler.NewHealthHandler(deps.store, healthCache, logger)
	ingredientHandler := handler.NewIngredientHandler(service.NewIngredientService(deps.store, logger, recorder), logger)
	tagHandler := handler.NewTagHandler(service.NewTagService(deps.store, logger, recorder), logger)
	recipeHandler := handler.NewRecipeHandler(service.NewRecipeService(deps.store, logger, recorder), logger)

	r := chi.NewRouter()

	r.Use(chimiddleware.RealIP)
	r.Use(middleware.RequestID)
	r.Use(middleware.Logger(logger))
	r.Use(middleware.Recoverer(logger, cfg.IsDevelopment()))
	r.Use(middleware.Security(middleware.SecurityConfig{HSTS: cfg.IsProduction()}))
	r.Use(middleware.MaxBodySize(cfg.MaxRequestBodySize))
	r.Use(middleware.CORS(middleware.CORSConfig{AllowedOrigins: cfg.AllowedOrigins()}))
	r.Use(middleware.Metrics(recorder))
	r.Use(chimiddleware.StripSlashes)

	r.Get("/healthz", healthHandler.Healthz)
	r.Get("/readyz", healthHandler.Readyz)
	if cfg.MetricsEnabled && deps.recorder != nil {
		r.Method("GET", "/metrics", deps.recorder.Handler())
	}

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(middleware.Auth(middleware.AuthConfig{
			Logger:      logger,
			Store:       deps.store,
			Cache:       authCache,
			Metrics:     recorder,
			MinDuration: cfg.AuthMinDuration,
		}))
		r.Use(middleware.RecordPrincipal)
		r.Use(middleware.RateLimitAPI(middleware.RateLimitConfig{
			Logger:  logger,
			Limiter: limiter,
			Metrics: recorder,
			Enabled: cfg.RateLimitAPIEnabled,
		}))
		r.Use(middleware.RequireMethodScope())

		r.Get("/ingredients", ingredientHandler.List)
		r.Post("/ingredients", ingredientHandler.Create)

		r.Get("/tags", tagHandler.List)
		r.Post("/tags", tagHandler.Create)

		r.Route("/recipes", func(r chi.Router) {
			r.Get("/", recipeHandler.List)
			r.Post("/", recipeHandler.Create)
			r.Get("/{id}", recipeHandler.Get)
			r.Patch("/{id}", recipeHandler.Update)
			r.Put("/{id}", recipeHandler.Replace)
			r.Delete("/{id}", recipeHandler.Delete)
		})
	})

	r.NotFound(h.NotFound)
	r.MethodNotAllowed(h.MethodNotAllowed)

	return r
}
