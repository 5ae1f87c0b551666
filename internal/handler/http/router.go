// Package http wires the directory's HTTP surface: routing, request
// middleware and the JSON handlers.
package http

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/staffdir/staffdir/pkg/health"
	"github.com/staffdir/staffdir/pkg/middleware"
)

// RouterConfig carries the router's dependencies.
type RouterConfig struct {
	ServiceName string
	CORSOrigins []string
	Logger      *slog.Logger
	Validate    middleware.TokenValidator
	Auth        *AuthHandler
	Users       *UserHandler
	Health      *health.Handler
}

// NewRouter assembles the chi router with the full middleware stack.
func NewRouter(cfg RouterConfig) *chi.Mux {
	r := chi.NewRouter()

	r.Use(middleware.Recovery(cfg.Logger))
	r.Use(middleware.RequestLogging(cfg.Logger))
	r.Use(middleware.RequestLogger(cfg.Logger))
	r.Use(middleware.PrometheusMetrics(cfg.ServiceName))
	r.Use(CORS(cfg.CORSOrigins))

	r.Get("/health/live", cfg.Health.LivenessHandler())
	r.Get("/health/ready", cfg.Health.ReadinessHandler())
	r.Handle("/metrics", promhttp.Handler())

	r.Route("/api/v1", func(r chi.Router) {
		r.Post("/auth/login", cfg.Auth.Login)

		r.Group(func(r chi.Router) {
			r.Use(middleware.Auth(cfg.Validate))
			// Re-store the request logger now that the session is known.
			r.Use(middleware.RequestLogger(cfg.Logger))

			r.Post("/auth/logout", cfg.Auth.Logout)
			r.Get("/auth/session", cfg.Auth.Session)

			r.Route("/users", func(r chi.Router) {
				r.Get("/", cfg.Users.List)
				r.Post("/", cfg.Users.Create)
				r.Get("/me", cfg.Users.Me)
				r.Get("/{id}", cfg.Users.Get)
				r.Put("/{id}", cfg.Users.Update)
				r.Delete("/{id}", cfg.Users.Delete)
			})
		})
	})

	return r
}

// CORS sets the cross-origin headers and answers preflight requests.
func CORS(origins []string) func(http.Handler) http.Handler {
	allowed := make(map[string]bool, len(origins))
	wildcard := false
	for _, o := range origins {
		if o == "*" {
			wildcard = true
		}
		allowed[o] = true
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			origin := r.Header.Get("Origin")
			switch {
			case wildcard:
				w.Header().Set("Access-Control-Allow-Origin", "*")
			case origin != "" && allowed[origin]:
				w.Header().Set("Access-Control-Allow-Origin", origin)
				w.Header().Set("Vary", "Origin")
			}

			if r.Method == http.MethodOptions {
				w.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
				w.Header().Set("Access-Control-Allow-Headers", "Authorization, Content-Type")
				w.WriteHeader(http.StatusNoContent)
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}
