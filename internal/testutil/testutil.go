// Package testutil provides a fake books collection for tests.
package testutil

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"slices"
	"strconv"
	"sync"
	"testing"

	"github.com/go-chi/chi/v5"

	"github.com/starford/bookdesk/internal/models"
)

// Operation names accepted by Fail and Calls.
const (
	OpList   = "list"
	OpCreate = "create"
	OpUpdate = "update"
	OpDelete = "delete"
)

// FakeBackend is an in-memory REST books collection served over httptest.
// Ids are assigned sequentially as decimal strings starting at "1".
type FakeBackend struct {
	Server *httptest.Server

	mu     sync.Mutex
	books  []models.Book
	nextID int
	fail   map[string]int
	calls  map[string]int
}

// NewFakeBackend starts a fake collection seeded with books (ids kept as given)
// and closes it when the test ends.
func NewFakeBackend(t *testing.T, books ...models.Book) *FakeBackend {
	t.Helper()
	fb := &FakeBackend{
		books:  slices.Clone(books),
		nextID: len(books) + 1,
		fail:   make(map[string]int),
		calls:  make(map[string]int),
	}

	r := chi.NewRouter()
	r.Get("/books", fb.list)
	r.Post("/books", fb.create)
	r.Put("/books/{id}", fb.update)
	r.Delete("/books/{id}", fb.delete)

	fb.Server = httptest.NewServer(r)
	t.Cleanup(fb.Server.Close)
	return fb
}

// URL returns the base URL of the fake (without /books).
func (fb *FakeBackend) URL() string {
	return fb.Server.URL
}

// Fail makes every subsequent call of op answer with status until cleared
// with Fail(op, 0).
func (fb *FakeBackend) Fail(op string, status int) {
	fb.mu.Lock()
	defer fb.mu.Unlock()
	if status == 0 {
		delete(fb.fail, op)
		return
	}
	fb.fail[op] = status
}

// Calls returns how many requests of op reached the fake.
func (fb *FakeBackend) Calls(op string) int {
	fb.mu.Lock()
	defer fb.mu.Unlock()
	return fb.calls[op]
}

// Books returns a copy of the server-side collection.
func (fb *FakeBackend) Books() []models.Book {
	fb.mu.Lock()
	defer fb.mu.Unlock()
	return slices.Clone(fb.books)
}

// enter records a call and reports an injected failure status, if any.
func (fb *FakeBackend) enter(op string) int {
	fb.mu.Lock()
	defer fb.mu.Unlock()
	fb.calls[op]++
	return fb.fail[op]
}

func (fb *FakeBackend) list(w http.ResponseWriter, _ *http.Request) {
	if status := fb.enter(OpList); status != 0 {
		http.Error(w, "injected failure", status)
		return
	}
	writeJSON(w, http.StatusOK, fb.Books())
}

func (fb *FakeBackend) create(w http.ResponseWriter, r *http.Request) {
	if status := fb.enter(OpCreate); status != 0 {
		http.Error(w, "injected failure", status)
		return
	}
	var d models.Draft
	if err := json.NewDecoder(r.Body).Decode(&d); err != nil {
		http.Error(w, "invalid JSON", http.StatusBadRequest)
		return
	}

	fb.mu.Lock()
	b := d.Book(strconv.Itoa(fb.nextID))
	fb.nextID++
	fb.books = append(fb.books, b)
	fb.mu.Unlock()

	writeJSON(w, http.StatusCreated, b)
}

func (fb *FakeBackend) update(w http.ResponseWriter, r *http.Request) {
	if status := fb.enter(OpUpdate); status != 0 {
		http.Error(w, "injected failure", status)
		return
	}
	id := chi.URLParam(r, "id")
	var d models.Draft
	if err := json.NewDecoder(r.Body).Decode(&d); err != nil {
		http.Error(w, "invalid JSON", http.StatusBadRequest)
		return
	}

	fb.mu.Lock()
	i := fb.index(id)
	if i < 0 {
		fb.mu.Unlock()
		http.NotFound(w, r)
		return
	}
	fb.books[i] = d.Book(id)
	b := fb.books[i]
	fb.mu.Unlock()

	writeJSON(w, http.StatusOK, b)
}

func (fb *FakeBackend) delete(w http.ResponseWriter, r *http.Request) {
	if status := fb.enter(OpDelete); status != 0 {
		http.Error(w, "injected failure", status)
		return
	}
	id := chi.URLParam(r, "id")

	fb.mu.Lock()
	i := fb.index(id)
	if i < 0 {
		fb.mu.Unlock()
		http.NotFound(w, r)
		return
	}
	fb.books = slices.Delete(fb.books, i, i+1)
	fb.mu.Unlock()

	w.WriteHeader(http.StatusNoContent)
}

// index must be called with mu held.
func (fb *FakeBackend) index(id string) int {
	return slices.IndexFunc(fb.books, func(b models.Book) bool { return b.ID == id })
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// SampleBooks returns n valid books with ids "1".."n" and alternating status.
func SampleBooks(n int) []models.Book {
	out := make([]models.Book, n)
	for i := range out {
		status := models.StatusAvailable
		if i%2 == 1 {
			status = models.StatusIssued
		}
		out[i] = models.Book{
			ID:     strconv.Itoa(i + 1),
			Title:  "Book " + strconv.Itoa(i+1),
			Author: "Author " + strconv.Itoa(i+1),
			Genre:  models.Genres[i%len(models.Genres)],
			Year:   1900 + i,
			Status: status,
		}
	}
	return out
}
