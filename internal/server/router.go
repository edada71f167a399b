package server

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/BlueSinkers/medical-summarizer-t3/internal/api/handlers"
	"github.com/BlueSinkers/medical-summarizer-t3/internal/api/middleware"
)

type RouterConfig struct {
	APIKey          string
	HealthHandler   *handlers.HealthHandler
	ReportHandler   *handlers.ReportHandler
	ValidateHandler *handlers.ValidateHandler
	ArchiveHandler  *handlers.ArchiveHandler
}

func NewRouter(cfg RouterConfig) http.Handler {
	r := chi.NewRouter()

	const maxBodyBytes int64 = 5 * 1024 * 1024

	r.Use(middleware.RequestID)
	r.Use(middleware.SentryMiddleware)
	r.Use(middleware.AccessLog)
	r.Use(middleware.MaxBodyBytes(maxBodyBytes))

	r.Get("/health", cfg.HealthHandler.Get)

	r.Group(func(r chi.Router) {
		r.Use(middleware.APIKeyAuth(cfg.APIKey))

		r.Post("/summarize", cfg.ReportHandler.Summarize)
		r.Post("/chat", cfg.ReportHandler.Chat)
		r.Post("/validate", cfg.ValidateHandler.Validate)

		r.Route("/reports", func(r chi.Router) {
			r.Post("/archive", cfg.ArchiveHandler.Archive)
		})
	})

	return r
}
