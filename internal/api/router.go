package api

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/go-chi/httprate"
)

// RouterConfig carries the cross-cutting dependencies of the router.
type RouterConfig struct {
	DB    Pinger
	Redis Pinger
	// Metrics may be nil to disable instrumentation and /metrics.
	Metrics *Metrics
	Log     *slog.Logger

	CORSOrigin      string
	CORSCredentials bool
	// RateLimitPerMinute is the per-IP request budget; 0 disables limiting.
	RateLimitPerMinute int
}

// NewRouter builds and returns the Chi router with all routes configured.
// Resource routes live under /api; / and /metrics sit at the root.
func NewRouter(handlers *Handlers, cfg RouterConfig) *chi.Mux {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(RequestLogger(cfg.Log))
	if cfg.Metrics != nil {
		r.Use(cfg.Metrics.Middleware)
	}
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{cfg.CORSOrigin},
		AllowedMethods:   []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete, http.MethodOptions},
		AllowedHeaders:   []string{"Origin", "X-Requested-With", "Content-Type", "Accept", "Authorization", "If-None-Match"},
		ExposedHeaders:   []string{"ETag"},
		AllowCredentials: cfg.CORSCredentials,
		MaxAge:           300,
	}))
	if cfg.RateLimitPerMinute > 0 {
		r.Use(httprate.Limit(cfg.RateLimitPerMinute, time.Minute,
			httprate.WithKeyFuncs(httprate.KeyByIP),
			httprate.WithLimitHandler(func(w http.ResponseWriter, _ *http.Request) {
				writeFailure(w, http.StatusTooManyRequests, "Too many requests")
			}),
		))
	}

	r.NotFound(NotFound)
	r.MethodNotAllowed(MethodNotAllowed)

	r.Get("/", handlers.Root)
	if cfg.Metrics != nil {
		r.Method(http.MethodGet, "/metrics", cfg.Metrics.Handler())
	}

	r.Route("/api", func(r chi.Router) {
		r.Get("/health", HealthHandlerFunc(cfg.DB, cfg.Redis, cfg.Log))

		r.Route("/destinations", func(r chi.Router) {
			r.Get("/", handlers.ListDestinations)
			r.Post("/", handlers.CreateDestination)
			r.Get("/{id}", handlers.GetDestination)
			r.Put("/{id}", handlers.UpdateDestination)
			r.Delete("/{id}", handlers.DeleteDestination)
		})

		r.Route("/tour-packages", func(r chi.Router) {
			r.Get("/", handlers.ListTourPackages)
			r.Post("/", handlers.CreateTourPackage)
			r.Get("/destination-type/{destinationTypeId}", handlers.ListTourPackagesByDestinationType)
			r.Get("/destination-type/{destinationTypeId}/average-price", handlers.AveragePrice)
			r.Get("/{id}", handlers.GetTourPackage)
			r.Put("/{id}", handlers.UpdateTourPackage)
			r.Delete("/{id}", handlers.DeleteTourPackage)
		})
	})

	return r
}

// Ensure chi.Mux implements http.Handler.
var _ http.Handler = (*chi.Mux)(nil)
