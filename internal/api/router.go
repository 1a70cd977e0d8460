package api

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"github.com/orderline/orderline/internal/api/handlers"
	"github.com/orderline/orderline/internal/api/middleware"
	"github.com/orderline/orderline/internal/config"
)

// NewRouter creates the HTTP router with all API routes.
func NewRouter(cfg *config.Config, h *handlers.Handlers) http.Handler {
	r := chi.NewRouter()

	r.Use(chimw.RequestID)
	r.Use(chimw.RealIP)
	r.Use(chimw.Recoverer)
	r.Use(chimw.Compress(5))
	r.Use(middleware.SessionExtractor)
	r.Use(middleware.Logger)
	r.Use(middleware.Telemetry)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"*"},
		AllowedMethods:   []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-Session-Id", "X-Request-Id", "X-API-Key"},
		ExposedHeaders:   []string{"X-Request-Id", "X-Session-Id"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	// Health & info
	r.Get("/health", healthHandler)
	r.Get("/version", versionHandler(cfg))

	adminAuth := middleware.NewAPIKeyAuth(cfg.Auth.APIKeys)

	r.Route("/api/v1", func(r chi.Router) {
		// Conversation
		r.Post("/chat", h.Chat)
		r.Get("/sessions/{sessionID}/order", h.GetOrder)

		// Catalog
		r.Route("/catalog", func(r chi.Router) {
			r.Get("/", h.GetCatalog)
			r.With(adminAuth.Middleware).Post("/refresh", h.RefreshCatalog)
		})
	})

	return r
}

func healthHandler(w http.ResponseWriter, r *http.Request) {
	json.NewEncoder(w).Encode(map[string]string{
		"status":  "healthy",
		"service": "orderline",
	})
}

func versionHandler(cfg *config.Config) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]string{
			"version": cfg.Version,
			"service": "orderline",
		})
	}
}
