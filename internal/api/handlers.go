package api

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"

	"github.com/go-chi/chi/v5"
	validation "github.com/go-ozzo/ozzo-validation/v4"

	"github.com/starford/bookdesk/internal/bookservice"
	"github.com/starford/bookdesk/internal/models"
	"github.com/starford/bookdesk/internal/view"
)

// MaxPageSize bounds the page_size query parameter.
const MaxPageSize = 100

// Handler holds API route handlers.
type Handler struct {
	svc *bookservice.Service
}

// NewHandler creates a new Handler.
func NewHandler(svc *bookservice.Service) *Handler {
	return &Handler{svc: svc}
}

// ListBooks handles GET /api/books.
//
//	@Summary		One page of the filtered collection
//	@Tags			books
//	@Produce		json
//	@Param			search		query		string	false	"Case-insensitive title or author substring"
//	@Param			genre		query		string	false	"Exact genre"
//	@Param			status		query		string	false	"Status"	Enums(Available, Issued)
//	@Param			page		query		int		false	"1-based page index"
//	@Param			page_size	query		int		false	"Records per page"
//	@Success		200			{object}	PageResponse
//	@Failure		400			{object}	errResponse
//	@Router			/books [get]
func (h *Handler) ListBooks(w http.ResponseWriter, r *http.Request) {
	q, pageSize, err := parseListQuery(r.URL.Query())
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody(err.Error()))
		return
	}
	writeJSON(w, http.StatusOK, h.svc.Project(q, pageSize))
}

// AllBooks handles GET /api/books/all.
//
//	@Summary		The whole record store
//	@Tags			books
//	@Produce		json
//	@Success		200	{object}	SnapshotResponse
//	@Router			/books/all [get]
func (h *Handler) AllBooks(w http.ResponseWriter, _ *http.Request) {
	snap := h.svc.Snapshot()
	writeJSON(w, http.StatusOK, SnapshotResponse{
		Books:     snap.Books,
		Loaded:    snap.Loaded,
		FetchedAt: snap.FetchedAt,
	})
}

// Genres handles GET /api/genres.
//
//	@Summary		Distinct genres in the collection
//	@Tags			books
//	@Produce		json
//	@Success		200	{object}	GenresResponse
//	@Router			/genres [get]
func (h *Handler) Genres(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, GenresResponse{Genres: h.svc.Genres()})
}

// RefreshBooks handles POST /api/books/refresh.
//
//	@Summary		Reload the collection from the remote store
//	@Tags			books
//	@Success		204	"Reloaded"
//	@Failure		502	{object}	errResponse
//	@Router			/books/refresh [post]
func (h *Handler) RefreshBooks(w http.ResponseWriter, r *http.Request) {
	if err := h.svc.Refresh(r.Context()); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// CreateBook handles POST /api/books.
//
//	@Summary		Add a book
//	@Tags			books
//	@Accept			json
//	@Produce		json
//	@Param			body	body		BookRequest	true	"Book to create"
//	@Success		201		{object}	Book
//	@Failure		400		{object}	errResponse
//	@Failure		422		{object}	errResponse
//	@Failure		502		{object}	errResponse
//	@Router			/books [post]
func (h *Handler) CreateBook(w http.ResponseWriter, r *http.Request) {
	d, ok := decodeDraft(w, r)
	if !ok {
		return
	}
	b, err := h.svc.Create(r.Context(), d)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, b)
}

// UpdateBook handles PUT /api/books/{id}.
//
//	@Summary		Replace a book
//	@Tags			books
//	@Accept			json
//	@Produce		json
//	@Param			id		path		string		true	"Book id"
//	@Param			body	body		BookRequest	true	"New field values"
//	@Success		200		{object}	Book
//	@Failure		404		{object}	errResponse
//	@Failure		422		{object}	errResponse
//	@Failure		502		{object}	errResponse
//	@Router			/books/{id} [put]
func (h *Handler) UpdateBook(w http.ResponseWriter, r *http.Request) {
	d, ok := decodeDraft(w, r)
	if !ok {
		return
	}
	b, err := h.svc.Update(r.Context(), bookID(r), d)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, b)
}

// DeleteBook handles DELETE /api/books/{id}.
//
//	@Summary		Delete a book
//	@Tags			books
//	@Param			id	path	string	true	"Book id"
//	@Success		204	"Book deleted"
//	@Failure		404	{object}	errResponse
//	@Failure		502	{object}	errResponse
//	@Router			/books/{id} [delete]
func (h *Handler) DeleteBook(w http.ResponseWriter, r *http.Request) {
	if err := h.svc.Delete(r.Context(), bookID(r)); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func bookID(r *http.Request) string {
	raw := chi.URLParam(r, "id")
	if decoded, err := url.PathUnescape(raw); err == nil {
		return decoded
	}
	return raw
}

func decodeDraft(w http.ResponseWriter, r *http.Request) (models.Draft, bool) {
	r.Body = http.MaxBytesReader(w, r.Body, 1<<20)
	var d models.Draft
	if err := json.NewDecoder(r.Body).Decode(&d); err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody("invalid JSON body"))
		return models.Draft{}, false
	}
	return d, true
}

func parseListQuery(v url.Values) (view.Query, int, error) {
	page, err := intParam(v, "page", 1)
	if err != nil {
		return view.Query{}, 0, err
	}
	pageSize, err := intParam(v, "page_size", 0)
	if err != nil {
		return view.Query{}, 0, err
	}
	if pageSize > MaxPageSize {
		return view.Query{}, 0, fmt.Errorf("page_size must be at most %d", MaxPageSize)
	}

	status := v.Get("status")
	if err := validation.Validate(status,
		validation.In(string(models.StatusAvailable), string(models.StatusIssued)),
	); err != nil {
		return view.Query{}, 0, fmt.Errorf("status: %w", err)
	}

	q := view.NewQuery().
		WithSearch(v.Get("search")).
		WithGenre(v.Get("genre")).
		WithStatus(models.Status(status)).
		WithPage(page)
	return q, pageSize, nil
}

// intParam reads a positive integer parameter; def is returned when absent.
func intParam(v url.Values, name string, def int) (int, error) {
	raw := v.Get(name)
	if raw == "" {
		return def, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n < 1 {
		return 0, fmt.Errorf("%s must be a positive integer", name)
	}
	return n, nil
}
