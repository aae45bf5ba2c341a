package di

import (
	"net/http"
	"time"

	"smartdocs-backend/internal/config"
	"smartdocs-backend/internal/middleware"
	"smartdocs-backend/internal/observability"
	"smartdocs-backend/internal/resilience"
	"smartdocs-backend/pkg/api"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/cors"
	"go.uber.org/zap"
)

// ServiceVersion is reported by the banner and health endpoints.
const ServiceVersion = "1.0.0"

// routeGroup mounts one handler set under /api.
type routeGroup struct {
	name   string
	routes func(chi.Router)
}

// setupRouter provides the HTTP router with all handlers.
func setupRouter(cfg *config.Config, logger *zap.Logger, metrics *observability.Collector, h *Handlers, coldStart *ColdStartTracker) *chi.Mux {
	r := chi.NewRouter()

	// Global middleware, applied to all routes.
	r.Use(middleware.RequestID)
	r.Use(middleware.Recovery(logger))
	r.Use(metrics.MetricsMiddleware)
	r.Use(observability.TracingMiddleware)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   cfg.Server.AllowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-Request-ID", "X-Hub-Signature-256", "X-GitHub-Event"},
		ExposedHeaders:   []string{"X-Request-ID"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	r.Get("/", func(w http.ResponseWriter, r *http.Request) {
		api.Success(w, http.StatusOK, map[string]any{
			"message": "SmartDocs API",
			"version": ServiceVersion,
			"docs":    "/api/health",
		})
	})
	r.Handle("/metrics", metrics.Handler())

	groups := []routeGroup{
		{"docs", h.Docs.Routes},
		{"ai", h.AI.Routes},
		{"parsing", h.Parsing.Routes},
		{"maintenance", h.Maintenance.Routes},
		{"onboarding", h.Onboarding.Routes},
		{"multilingual", h.Multilingual.Routes},
		{"visualizations", h.Visualization.Routes},
	}

	r.Route("/api", func(r chi.Router) {
		r.Use(middleware.Timeout(cfg.Server.RequestTimeout, logger))

		r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
			names := make([]string, 0, len(groups))
			for _, g := range groups {
				names = append(names, g.name)
			}
			api.Success(w, http.StatusOK, map[string]any{
				"status":         "healthy",
				"version":        ServiceVersion,
				"environment":    cfg.Environment,
				"services":       names,
				"uptime_seconds": int(coldStart.GetTimeSinceColdStart() / time.Second),
			})
		})

		for _, g := range groups {
			// One breaker per group.
			r.Route("/"+g.name, func(r chi.Router) {
				r.Use(middleware.CircuitBreaker(resilience.DefaultBreakerConfig(g.name), logger))
				g.routes(r)
			})
		}
	})

	return r
}
