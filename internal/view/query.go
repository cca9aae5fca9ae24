// Package view computes filtered, paginated projections of book records.
package view

import "github.com/starford/bookdesk/internal/models"

// DefaultPageSize is the number of rows shown per page.
const DefaultPageSize = 10

// Query is the presentation layer's filter and page state. It is a value:
// every With* method returns a modified copy.
//
// Changing any filter resets Page to 1, because the current page no longer
// refers to the same rows.
type Query struct {
	Search string        `json:"search"`
	Genre  string        `json:"genre,omitempty"`  // empty means any genre
	Status models.Status `json:"status,omitempty"` // empty means any status
	Page   int           `json:"page"`             // 1-based
}

// NewQuery returns an unfiltered query on the first page.
func NewQuery() Query {
	return Query{Page: 1}
}

// WithSearch sets the free-text search and resets the page.
func (q Query) WithSearch(text string) Query {
	q.Search = text
	q.Page = 1
	return q
}

// WithGenre sets the genre filter ("" clears it) and resets the page.
func (q Query) WithGenre(genre string) Query {
	q.Genre = genre
	q.Page = 1
	return q
}

// WithStatus sets the status filter ("" clears it) and resets the page.
func (q Query) WithStatus(status models.Status) Query {
	q.Status = status
	q.Page = 1
	return q
}

// WithPage moves to page n without touching the filters.
func (q Query) WithPage(n int) Query {
	q.Page = n
	return q
}

// Clamp moves Page into [1, totalPages]. With no pages it returns page 1.
func (q Query) Clamp(totalPages int) Query {
	if q.Page > totalPages {
		q.Page = totalPages
	}
	if q.Page < 1 {
		q.Page = 1
	}
	return q
}
