package api

import (
	"log/slog"

	"github.com/go-chi/chi/v5"

	"github.com/buildline/worktrack/internal/engine"
	"github.com/buildline/worktrack/internal/notifier"
	"github.com/buildline/worktrack/internal/store"
)

// NewRouter creates the Chi router with all routes and middleware.
func NewRouter(
	db *store.DB,
	eng *engine.Engine,
	builds *store.BuildStore,
	workflowCfg notifier.Config,
	apiKey string,
	logger *slog.Logger,
) *chi.Mux {
	r := chi.NewRouter()

	// Global middleware (runs on ALL routes including /health)
	r.Use(CORS)
	r.Use(RequestID)
	r.Use(Logger(logger))
	r.Use(Recovery(logger))

	// Handlers
	healthH := NewHealthHandler(db)
	buildH := NewBuildHandler(builds)
	sessionH := NewSessionHandler(eng)
	configH := NewConfigHandler(workflowCfg)

	// Unauthenticated routes
	r.Get("/health", healthH.Health)

	// Authenticated routes
	r.Group(func(r chi.Router) {
		r.Use(BearerAuth(apiKey))

		r.Get("/config", configH.Get)

		r.Route("/builds", func(r chi.Router) {
			r.Get("/{buildNumber}", buildH.Get)
		})

		r.Route("/sessions", func(r chi.Router) {
			r.Post("/start", sessionH.Start)
			r.Get("/active/{workerId}", sessionH.GetActive)
			r.Post("/pause", sessionH.Pause)
			r.Post("/resume", sessionH.Resume)
			r.Post("/defects", sessionH.Defects)
			r.Post("/popup", sessionH.Popup)
			r.Post("/submit", sessionH.Submit)
		})
	})

	return r
}
