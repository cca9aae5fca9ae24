package api

import (
	"time"

	"github.com/starford/bookdesk/internal/models"
	"github.com/starford/bookdesk/internal/view"
)

// BookRequest is the request body for creating or replacing a book.
type BookRequest = models.Draft

// Book is a stored record (aliased from the domain layer).
type Book = models.Book

// PageResponse is one page of the filtered collection.
type PageResponse = view.Page

// SnapshotResponse is the full record store.
type SnapshotResponse struct {
	Books     []Book    `json:"books" validate:"required"`
	Loaded    bool      `json:"loaded" example:"true"`
	FetchedAt time.Time `json:"fetched_at,omitzero"`
}

// GenresResponse lists the genres present in the collection.
type GenresResponse struct {
	Genres []string `json:"genres" example:"Classic,Dystopian" validate:"required"`
}
