// Package api implements the notepress REST API using chi.
package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/starford/notepress/internal/publishservice"
)

// NewRouter creates a chi router with all API routes mounted.
// sseHandler, if non-nil, is mounted at GET /events.
func NewRouter(svc *publishservice.Service, sseHandler http.Handler) chi.Router {
	h := NewHandler(svc)

	r := chi.NewRouter()

	// Publishing.
	r.Post("/publish", h.Publish)
	r.Get("/status", h.Status)

	// Published site metadata.
	r.Get("/manifest", h.Manifest)
	r.Get("/folders", h.Folder)
	r.Get("/folders/*", h.Folder)
	r.Get("/search", h.Search)

	// Dry run of a single note.
	r.Get("/preview", h.Preview)

	if sseHandler != nil {
		r.Get("/events", sseHandler.ServeHTTP)
	}

	return r
}
