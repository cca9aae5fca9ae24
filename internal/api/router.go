package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/starford/bookdesk/internal/bookservice"
)

// NewRouter creates a chi router with all API routes mounted.
// sseHandler, if non-nil, is mounted at GET /events.
func NewRouter(svc *bookservice.Service, sseHandler http.Handler) chi.Router {
	h := NewHandler(svc)

	r := chi.NewRouter()

	r.Get("/books", h.ListBooks)
	r.Get("/books/all", h.AllBooks)
	r.Post("/books/refresh", h.RefreshBooks)
	r.Post("/books", h.CreateBook)
	r.Put("/books/{id}", h.UpdateBook)
	r.Delete("/books/{id}", h.DeleteBook)

	r.Get("/genres", h.Genres)

	if sseHandler != nil {
		r.Get("/events", sseHandler.ServeHTTP)
	}

	return r
}
