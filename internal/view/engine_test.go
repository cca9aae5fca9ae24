package view

import (
	"math/rand/v2"
	"strconv"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/starford/bookdesk/internal/models"
)

var duneAnd1984 = []models.Book{
	{ID: "1", Title: "Dune", Author: "Herbert", Genre: "Science Fiction", Year: 1965, Status: models.StatusAvailable},
	{ID: "2", Title: "1984", Author: "Orwell", Genre: "Dystopian", Year: 1949, Status: models.StatusIssued},
}

func titles(books []models.Book) []string {
	out := make([]string, len(books))
	for i, b := range books {
		out[i] = b.Title
	}
	return out
}

func numbered(n int) []models.Book {
	out := make([]models.Book, n)
	for i := range out {
		out[i] = models.Book{ID: strconv.Itoa(i + 1), Title: "T" + strconv.Itoa(i+1), Author: "A", Genre: "Fiction", Year: 2000, Status: models.StatusAvailable}
	}
	return out
}

func TestProject_SearchMatchesTitle(t *testing.T) {
	p := Project(duneAnd1984, NewQuery().WithSearch("du"), DefaultPageSize)
	assert.Equal(t, []string{"Dune"}, titles(p.Items))
	assert.Equal(t, 1, p.MatchCount)
	assert.Equal(t, 1, p.TotalPages)
	assert.Equal(t, StateReady, p.State)
}

func TestProject_SearchMatchesAuthorCaseInsensitive(t *testing.T) {
	p := Project(duneAnd1984, NewQuery().WithSearch("ORWE"), DefaultPageSize)
	assert.Equal(t, []string{"1984"}, titles(p.Items))
}

func TestProject_SearchFoldsUnicode(t *testing.T) {
	books := []models.Book{{ID: "1", Title: "Straße", Author: "X", Genre: "Fiction", Year: 1, Status: models.StatusAvailable}}
	p := Project(books, NewQuery().WithSearch("STRASSE"), DefaultPageSize)
	assert.Len(t, p.Items, 1)
}

func TestProject_SearchTrimsWhitespace(t *testing.T) {
	p := Project(duneAnd1984, NewQuery().WithSearch("  dune "), DefaultPageSize)
	assert.Equal(t, []string{"Dune"}, titles(p.Items))
}

func TestProject_StatusFilter(t *testing.T) {
	p := Project(duneAnd1984, NewQuery().WithStatus(models.StatusIssued), DefaultPageSize)
	assert.Equal(t, []string{"1984"}, titles(p.Items))
}

func TestProject_GenreFilter(t *testing.T) {
	p := Project(duneAnd1984, NewQuery().WithGenre("Science Fiction"), DefaultPageSize)
	assert.Equal(t, []string{"Dune"}, titles(p.Items))

	p = Project(duneAnd1984, NewQuery().WithGenre("Romance"), DefaultPageSize)
	assert.Empty(t, p.Items)
	assert.Equal(t, 0, p.TotalPages)
	assert.Equal(t, StateEmpty, p.State)
}

func TestProject_FiltersCombine(t *testing.T) {
	q := NewQuery().WithSearch("o").WithStatus(models.StatusAvailable)
	// "o" appears only in "Orwell"; Orwell's book is Issued.
	p := Project(duneAnd1984, q, DefaultPageSize)
	assert.Empty(t, p.Items)
}

func TestProject_Pagination25(t *testing.T) {
	books := numbered(25)

	p := Project(books, NewQuery(), 10)
	assert.Equal(t, 3, p.TotalPages)
	assert.Equal(t, 25, p.MatchCount)
	assert.Len(t, p.Items, 10)

	p = Project(books, NewQuery().WithPage(3), 10)
	require.Len(t, p.Items, 5)
	assert.Equal(t, "T21", p.Items[0].Title)
	assert.Equal(t, "T25", p.Items[4].Title)
}

func TestProject_PageBeyondEndIsEmpty(t *testing.T) {
	p := Project(numbered(25), NewQuery().WithPage(4), 10)
	assert.Empty(t, p.Items)
	assert.Equal(t, 3, p.TotalPages)
	assert.Equal(t, StateEmpty, p.State)
	assert.NotNil(t, p.Items)
}

func TestProject_EmptyCollection(t *testing.T) {
	p := Project(nil, NewQuery(), 10)
	assert.Equal(t, 0, p.TotalPages)
	assert.Equal(t, 0, p.MatchCount)
	assert.Equal(t, StateEmpty, p.State)
}

func TestProject_PreconditionsPanic(t *testing.T) {
	assert.Panics(t, func() { Project(nil, NewQuery(), 0) })
	assert.Panics(t, func() { Project(nil, Query{Page: 0}, 10) })
}

func TestProject_DoesNotMutateInput(t *testing.T) {
	books := numbered(5)
	before := append([]models.Book(nil), books...)
	_ = Project(books, NewQuery().WithSearch("t"), 2)
	assert.Equal(t, before, books)
}

func TestLoadingIsDistinctFromEmpty(t *testing.T) {
	p := Loading(NewQuery(), 10)
	assert.Equal(t, StateLoading, p.State)
	assert.NotEqual(t, Project(nil, NewQuery(), 10).State, p.State)
}

func TestTotalPages(t *testing.T) {
	tests := []struct{ matches, size, want int }{
		{0, 10, 0},
		{1, 10, 1},
		{10, 10, 1},
		{11, 10, 2},
		{25, 10, 3},
		{7, 1, 7},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, TotalPages(tt.matches, tt.size), "TotalPages(%d, %d)", tt.matches, tt.size)
	}
}

func TestGenres(t *testing.T) {
	books := append(numbered(2), duneAnd1984...)
	books = append(books, models.Book{Genre: "Dystopian"}, models.Book{Genre: ""})
	assert.Equal(t, []string{"Fiction", "Science Fiction", "Dystopian"}, Genres(books))
	assert.Equal(t, []string{}, Genres(nil))
}

// Randomized check of the projection invariants: every returned record
// satisfies the predicate, relative order is preserved, and the page count
// matches the number of matches.
func TestProject_Invariants(t *testing.T) {
	rng := rand.New(rand.NewPCG(1, 2))
	words := []string{"dune", "emma", "ulysses", "orwell", "austen", "joyce", "herbert"}
	genres := []string{"Classic", "Fiction", "Dystopian"}
	statuses := []models.Status{"", models.StatusAvailable, models.StatusIssued}

	for iter := 0; iter < 200; iter++ {
		n := rng.IntN(40)
		books := make([]models.Book, n)
		for i := range books {
			books[i] = models.Book{
				ID:     strconv.Itoa(i),
				Title:  words[rng.IntN(len(words))],
				Author: strings.ToUpper(words[rng.IntN(len(words))]),
				Genre:  genres[rng.IntN(len(genres))],
				Year:   1900 + i,
				Status: statuses[1+rng.IntN(2)],
			}
		}
		q := Query{
			Search: words[rng.IntN(len(words))][:1+rng.IntN(3)],
			Status: statuses[rng.IntN(len(statuses))],
			Page:   1 + rng.IntN(5),
		}
		if rng.IntN(2) == 0 {
			q.Genre = genres[rng.IntN(len(genres))]
		}
		if rng.IntN(4) == 0 {
			q.Search = ""
		}
		size := 1 + rng.IntN(10)

		all := Filter(books, q)
		p := Project(books, q, size)

		require.Equal(t, len(all), p.MatchCount)
		require.Equal(t, TotalPages(len(all), size), p.TotalPages)
		if p.MatchCount == 0 {
			require.Zero(t, p.TotalPages)
		}

		lastIdx := -1
		for _, b := range p.Items {
			idx, _ := strconv.Atoi(b.ID)
			require.Greater(t, idx, lastIdx, "order not preserved")
			lastIdx = idx

			s := strings.ToLower(strings.TrimSpace(q.Search))
			require.True(t, strings.Contains(strings.ToLower(b.Title), s) || strings.Contains(strings.ToLower(b.Author), s))
			if q.Genre != "" {
				require.Equal(t, q.Genre, b.Genre)
			}
			if q.Status != "" {
				require.Equal(t, q.Status, b.Status)
			}
		}

		start := (q.Page - 1) * size
		if start < len(all) {
			end := min(start+size, len(all))
			require.Equal(t, all[start:end], p.Items)
		} else {
			require.Empty(t, p.Items)
		}
	}
}
