// Package httpapi exposes the card service over HTTP in server mode.
package httpapi

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/a3tai/mcp-idcard-reader/internal/card"
)

// multipartOverhead is the room left for form fields and part headers on
// top of two card images.
const multipartOverhead = 1 << 20

// NewRouter returns the HTTP API. mcpHandler, when not nil, serves the MCP
// streamable HTTP transport at /mcp.
func NewRouter(svc *card.Service, mcpHandler http.Handler) http.Handler {
	h := &handlers{
		svc:     svc,
		maxBody: 2*svc.MaxFileSize() + multipartOverhead,
	}

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)

	r.Get("/healthz", h.health)
	r.Route("/api/v1/idcard", func(r chi.Router) {
		r.Get("/info", h.info)
		r.Post("/extract", h.extract)
		r.Post("/extract-text", h.extractText)
		r.Post("/verify", h.verifyCard)
	})

	if mcpHandler != nil {
		r.Handle("/mcp", mcpHandler)
	}
	return r
}
