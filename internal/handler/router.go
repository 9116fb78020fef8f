package handler

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/claritytracking/clarity-go/internal/middleware"
)

// RouterConfig carries everything the HTTP surface needs.
type RouterConfig struct {
	Auth     *AuthHandler
	Websites *WebsiteHandler
	Events   *EventHandler
	Health   *HealthHandler
	Waitlist *WaitlistHandler

	Tokens        middleware.TokenValidator
	AuthLimiter   *middleware.IPRateLimiter
	IngestLimiter *middleware.IPRateLimiter
	CORSOrigins   []string

	// Ready reports whether dependencies such as the database are reachable.
	Ready func(ctx context.Context) error
}

// NewRouter builds the chi router with all routes mounted.
func NewRouter(cfg RouterConfig) http.Handler {
	r := chi.NewRouter()
	r.Use(chimw.RealIP)
	r.Use(middleware.Logger)
	r.Use(chimw.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   cfg.CORSOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", middleware.RequestIDHeader},
		ExposedHeaders:   []string{middleware.RequestIDHeader},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})
	r.Get("/readyz", func(w http.ResponseWriter, r *http.Request) {
		if cfg.Ready != nil {
			ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
			defer cancel()
			if err := cfg.Ready(ctx); err != nil {
				slog.Warn("readiness check failed", "error", err)
				writeJSON(w, http.StatusServiceUnavailable, map[string]string{"status": "unavailable"})
				return
			}
		}
		writeJSON(w, http.StatusOK, map[string]string{"status": "ready"})
	})
	r.Handle("/metrics", promhttp.Handler())

	r.Route("/api", func(r chi.Router) {
		r.Group(func(r chi.Router) {
			r.Use(cfg.AuthLimiter.Middleware)
			r.Post("/waitlist", cfg.Waitlist.HandleJoin)
			r.Post("/register", cfg.Auth.HandleRegister)
			r.Post("/login", cfg.Auth.HandleLogin)
		})

		r.Group(func(r chi.Router) {
			r.Use(middleware.JWTAuth(cfg.Tokens))
			r.Get("/users/me", cfg.Auth.HandleMe)

			r.Post("/websites", cfg.Websites.HandleCreate)
			r.Get("/websites", cfg.Websites.HandleList)

			r.Route("/websites/{website_id}", func(r chi.Router) {
				r.Post("/connections", cfg.Websites.HandleCreateConnection)
				r.Get("/health", cfg.Health.HandleHealth)
				r.Get("/alerts", cfg.Health.HandleAlerts)
				r.Get("/events/summary", cfg.Health.HandleSummary)
				r.Get("/events/duplicates", cfg.Health.HandleDuplicates)

				r.Group(func(r chi.Router) {
					r.Use(cfg.IngestLimiter.Middleware)
					r.Post("/events", cfg.Events.HandleAppend)
					r.Post("/events/batch", cfg.Events.HandleAppendBatch)
				})
			})
		})
	})

	return r
}
