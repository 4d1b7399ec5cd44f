package router

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/wolfman30/patient-booking/internal/http/handlers"
	httpmiddleware "github.com/wolfman30/patient-booking/internal/http/middleware"
	"github.com/wolfman30/patient-booking/pkg/logging"
)

// Config holds router configuration
type Config struct {
	Logger             *logging.Logger
	Booking            *handlers.BookingHandler
	AdminSessions      *handlers.AdminSessionsHandler
	AdminAuthSecret    string
	MetricsHandler     http.Handler
	CORSAllowedOrigins []string

	// RateLimiter is optional; nil disables per-IP limiting.
	RateLimiter *httpmiddleware.RateLimiter
}

// New creates a new Chi router with all routes configured
func New(cfg *Config) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(httpmiddleware.RequestLogger(cfg.Logger))
	if policy := httpmiddleware.NewOriginPolicy(cfg.CORSAllowedOrigins); !policy.Empty() {
		r.Use(httpmiddleware.CORS(policy))
	}

	r.Group(func(public chi.Router) {
		public.Get("/health", handlers.Health)
		if cfg.MetricsHandler != nil {
			public.Handle("/metrics", cfg.MetricsHandler)
		}
	})

	if cfg.Booking != nil {
		r.Group(func(api chi.Router) {
			if cfg.RateLimiter != nil {
				api.Use(cfg.RateLimiter.Middleware)
			}
			api.Mount("/v1", cfg.Booking.Routes())
		})
	}

	if cfg.AdminAuthSecret != "" && cfg.AdminSessions != nil {
		r.Route("/admin", func(admin chi.Router) {
			admin.Use(httpmiddleware.AdminJWT(cfg.AdminAuthSecret))
			admin.Get("/sessions", cfg.AdminSessions.ListSessions)
		})
	}

	return r
}
