package view

import (
	"fmt"
	"strings"

	"golang.org/x/text/cases"

	"github.com/starford/bookdesk/internal/models"
)

// State tells the presentation layer what to render.
type State string

// Projection states.
const (
	StateLoading State = "loading" // store has not loaded yet
	StateEmpty   State = "empty"   // loaded, but nothing on this page
	StateReady   State = "ready"
)

// Page is one page of a projection.
type Page struct {
	Items      []models.Book `json:"items"`
	Page       int           `json:"page"`
	PageSize   int           `json:"page_size"`
	TotalPages int           `json:"total_pages"`
	MatchCount int           `json:"match_count"`
	State      State         `json:"state"`
}

// Loading returns the placeholder page shown before the first load.
func Loading(q Query, pageSize int) Page {
	return Page{Items: []models.Book{}, Page: q.Page, PageSize: pageSize, State: StateLoading}
}

// Project filters records by q, keeps their relative order, and returns page
// q.Page of size pageSize. A page past the end is empty; clamping is the
// caller's job.
//
// pageSize < 1 or q.Page < 1 is a programming error and panics.
func Project(records []models.Book, q Query, pageSize int) Page {
	if pageSize < 1 {
		panic(fmt.Sprintf("view: page size must be positive, got %d", pageSize))
	}
	if q.Page < 1 {
		panic(fmt.Sprintf("view: page index must be >= 1, got %d", q.Page))
	}

	match := newMatcher(q)
	start := (q.Page - 1) * pageSize
	end := start + pageSize

	items := make([]models.Book, 0, pageSize)
	count := 0
	for _, b := range records {
		if !match(b) {
			continue
		}
		if count >= start && count < end {
			items = append(items, b)
		}
		count++
	}

	state := StateReady
	if len(items) == 0 {
		state = StateEmpty
	}
	return Page{
		Items:      items,
		Page:       q.Page,
		PageSize:   pageSize,
		TotalPages: TotalPages(count, pageSize),
		MatchCount: count,
		State:      state,
	}
}

// Filter returns every record matching q, in order, ignoring q.Page.
func Filter(records []models.Book, q Query) []models.Book {
	match := newMatcher(q)
	out := make([]models.Book, 0, len(records))
	for _, b := range records {
		if match(b) {
			out = append(out, b)
		}
	}
	return out
}

// TotalPages is ceil(matchCount / pageSize).
func TotalPages(matchCount, pageSize int) int {
	if matchCount <= 0 || pageSize <= 0 {
		return 0
	}
	return (matchCount + pageSize - 1) / pageSize
}

// Genres returns the distinct genres of records in first-seen order.
func Genres(records []models.Book) []string {
	seen := make(map[string]struct{})
	out := []string{}
	for _, b := range records {
		if b.Genre == "" {
			continue
		}
		if _, ok := seen[b.Genre]; ok {
			continue
		}
		seen[b.Genre] = struct{}{}
		out = append(out, b.Genre)
	}
	return out
}

func newMatcher(q Query) func(models.Book) bool {
	fold := cases.Fold()
	needle := fold.String(strings.TrimSpace(q.Search))
	return func(b models.Book) bool {
		if q.Genre != "" && b.Genre != q.Genre {
			return false
		}
		if q.Status != "" && b.Status != q.Status {
			return false
		}
		if needle == "" {
			return true
		}
		return strings.Contains(fold.String(b.Title), needle) ||
			strings.Contains(fold.String(b.Author), needle)
	}
}
