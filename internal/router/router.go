package router

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/cors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/wayfarer-bot/wayfarer/internal/conversation"
	"github.com/wayfarer-bot/wayfarer/internal/panel"
)

// Config contains dependencies needed for the router setup.
type Config struct {
	MessageHandler         *conversation.Handler
	PanelHandler           *panel.Handler
	AuthenticateMiddleware func(http.Handler) http.Handler
}

// SetupRouter initializes and configures the main application router.
// Server-wide middleware (logger, requestID, recoverer) are applied before
// mounting this router in main.go.
func SetupRouter(cfg *Config) chi.Router {
	r := chi.NewRouter()

	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"http://localhost:5173", "http://localhost:3000"},
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	r.Get("/ping", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("pong"))
	})
	r.Handle("/metrics", promhttp.Handler())

	r.Route("/api/v1", func(r chi.Router) {
		r.Post("/messages", cfg.MessageHandler.HandleMessage)
	})

	r.Route("/panel", func(r chi.Router) {
		r.Post("/login", cfg.PanelHandler.Login)

		r.Group(func(r chi.Router) {
			r.Use(cfg.AuthenticateMiddleware)
			r.Get("/users", cfg.PanelHandler.ListUsers)
			r.Get("/journeys", cfg.PanelHandler.ListJourneys)
			r.Get("/journeys/{journeyID}", cfg.PanelHandler.JourneyDetail)
		})
	})

	return r
}
