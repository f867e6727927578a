// Package httptransport assembles the public HTTP surface.
package httptransport

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"mia/internal/conversation/handler"
	"mia/internal/platform/middleware"
)

// NewRouter wires all public endpoints with the shared middleware chain.
func NewRouter(conversation *handler.Handler, logger *slog.Logger) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.Recovery(logger))
	r.Use(middleware.RequestID)
	r.Use(middleware.RequestLogger(logger))

	r.Get("/health", handler.HandleHealth)
	r.Handle("/metrics", promhttp.Handler())

	r.Group(func(api chi.Router) {
		api.Use(middleware.ContentTypeJSON)
		conversation.Register(api)
	})

	return r
}
