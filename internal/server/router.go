package server

import (
	"log/slog"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"

	"github.com/subtrackr/subtrackr/internal/handler"
	"github.com/subtrackr/subtrackr/internal/metrics"
	"github.com/subtrackr/subtrackr/internal/middleware"
)

// Handlers groups the HTTP handlers served by the router.
type Handlers struct {
	Root          *handler.Handler
	Health        *handler.HealthHandler
	Metrics       *handler.MetricsHandler
	Cron          *handler.CronHandler
	Dashboard     *handler.DashboardHandler
	Subscriptions *handler.SubscriptionHandler
	Cards         *handler.CardHandler
	Preferences   *handler.PreferenceHandler
	Occurrences   *handler.OccurrenceHandler
}

// RouterConfig carries the cross-cutting settings of the router.
type RouterConfig struct {
	Logger        *slog.Logger
	CronSecret    string
	IsDevelopment bool
	CORS          middleware.CORSConfig
	RateLimit     middleware.RateLimitConfig
	// HTTPMetrics may be nil.
	HTTPMetrics *metrics.HTTPMetrics
}

// NewRouter builds the chi router with every route and middleware.
func NewRouter(h Handlers, cfg RouterConfig) *chi.Mux {
	r := chi.NewRouter()

	r.Use(chimiddleware.RealIP)
	r.Use(middleware.RequestID)
	r.Use(middleware.Logger(cfg.Logger))
	r.Use(middleware.Recoverer(cfg.Logger))
	r.Use(middleware.Metrics(cfg.HTTPMetrics))
	r.Use(middleware.Security(middleware.SecurityConfig{IsDevelopment: cfg.IsDevelopment}))

	r.Get("/", h.Root.Index)
	r.Get("/healthz", h.Health.Healthz)
	r.Get("/readyz", h.Health.Readyz)
	r.Get("/metrics", h.Metrics.Metrics)

	// The trigger is rate limited per IP before the secret is checked.
	r.Route("/api/cron/notify", func(r chi.Router) {
		r.Use(middleware.RateLimitIP(cfg.RateLimit))
		r.Use(middleware.CronSecret(cfg.CronSecret, cfg.Logger))

		r.Get("/", h.Cron.Notify)
		r.Post("/", h.Cron.Notify)
		r.Get("/last", h.Cron.Last)
	})

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(middleware.CORS(cfg.CORS))
		r.Use(middleware.MaxBodySize(middleware.DefaultMaxBodySize))

		// Engine lookups carry no user data.
		r.Get("/occurrences/next", h.Occurrences.Next)

		r.Group(func(r chi.Router) {
			r.Use(middleware.Identity(cfg.Logger))
			r.Use(middleware.RateLimitUser(cfg.RateLimit))

			r.Get("/dashboard", h.Dashboard.Get)

			r.Route("/subscriptions", func(r chi.Router) {
				r.Get("/", h.Subscriptions.List)
				r.Post("/", h.Subscriptions.Create)
				r.Get("/{id}", h.Subscriptions.Get)
				r.Put("/{id}", h.Subscriptions.Update)
				r.Delete("/{id}", h.Subscriptions.Delete)
			})

			r.Route("/cards", func(r chi.Router) {
				r.Get("/", h.Cards.List)
				r.Post("/", h.Cards.Create)
				r.Put("/{id}", h.Cards.Update)
				r.Delete("/{id}", h.Cards.Delete)
			})

			r.Get("/preferences", h.Preferences.Get)
			r.Put("/preferences", h.Preferences.Update)
		})
	})

	r.NotFound(h.Root.NotFound)
	r.MethodNotAllowed(h.Root.MethodNotAllowed)

	return r
}
