package remote

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/starford/bookdesk/internal/models"
	"github.com/starford/bookdesk/internal/testutil"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newTestClient(t *testing.T, baseURL string) *Client {
	t.Helper()
	c, err := New(baseURL, testLogger(), WithRateLimit(0, 0))
	require.NoError(t, err)
	return c
}

func dune() models.Draft {
	return models.Draft{Title: "Dune", Author: "Herbert", Genre: "Science Fiction", Year: 1965, Status: models.StatusAvailable}
}

func TestNew_RejectsBadScheme(t *testing.T) {
	_, err := New("ftp://example.com", testLogger())
	assert.Error(t, err)
}

func TestClient_CRUD(t *testing.T) {
	fb := testutil.NewFakeBackend(t)
	c := newTestClient(t, fb.URL())
	ctx := context.Background()

	created, err := c.Create(ctx, dune())
	require.NoError(t, err)
	assert.Equal(t, "1", created.ID)
	assert.Equal(t, "Dune", created.Title)

	books, err := c.List(ctx)
	require.NoError(t, err)
	require.Len(t, books, 1)
	assert.Equal(t, created, books[0])

	changed := dune()
	changed.Status = models.StatusIssued
	updated, err := c.Update(ctx, created.ID, changed)
	require.NoError(t, err)
	assert.Equal(t, models.StatusIssued, updated.Status)
	assert.Equal(t, created.ID, updated.ID)

	require.NoError(t, c.Delete(ctx, created.ID))
	books, err = c.List(ctx)
	require.NoError(t, err)
	assert.Empty(t, books)
}

func TestClient_StatusMapping(t *testing.T) {
	tests := []struct {
		name       string
		statusCode int
		wantErr    error
	}{
		{"not found", http.StatusNotFound, ErrNotFound},
		{"bad request", http.StatusBadRequest, ErrBadRequest},
		{"unprocessable", http.StatusUnprocessableEntity, ErrBadRequest},
		{"rate limited", http.StatusTooManyRequests, ErrRateLimited},
		{"server error", http.StatusInternalServerError, ErrServer},
		{"bad gateway", http.StatusBadGateway, ErrServer},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fb := testutil.NewFakeBackend(t)
			fb.Fail(testutil.OpList, tt.statusCode)
			c := newTestClient(t, fb.URL())

			_, err := c.List(context.Background())
			require.Error(t, err)
			assert.ErrorIs(t, err, tt.wantErr)

			var re *Error
			require.ErrorAs(t, err, &re)
			assert.Equal(t, "list", re.Op)
		})
	}
}

func TestClient_UnexpectedStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusConflict)
		_, _ = w.Write([]byte("nope"))
	}))
	defer srv.Close()

	c := newTestClient(t, srv.URL)
	err := c.Delete(context.Background(), "9")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unexpected status 409")
	assert.Contains(t, err.Error(), "[9]")
}

func TestClient_MalformedJSON(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`{"not":"an array"`))
	}))
	defer srv.Close()

	_, err := newTestClient(t, srv.URL).List(context.Background())
	assert.ErrorIs(t, err, ErrDecode)
}

func TestClient_NumericIDs(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`[{"id":12,"title":"1984","author":"Orwell","genre":"Dystopian","year":1949,"status":"Issued"},{"id":"ab3","title":"Emma"}]`))
	}))
	defer srv.Close()

	books, err := newTestClient(t, srv.URL).List(context.Background())
	require.NoError(t, err)
	require.Len(t, books, 2)
	assert.Equal(t, "12", books[0].ID)
	assert.Equal(t, models.StatusIssued, books[0].Status)
	assert.Equal(t, "ab3", books[1].ID)
}

func TestClient_CreateWithoutIDIsDecodeError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusCreated)
		_, _ = w.Write([]byte(`{"title":"Dune"}`))
	}))
	defer srv.Close()

	_, err := newTestClient(t, srv.URL).Create(context.Background(), dune())
	assert.ErrorIs(t, err, ErrDecode)
}

func TestClient_UpdateEmptyBodyFallsBackToDraft(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPut, r.Method)
		assert.Equal(t, "/books/a%2Fb", r.URL.EscapedPath())
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	b, err := newTestClient(t, srv.URL).Update(context.Background(), "a/b", dune())
	require.NoError(t, err)
	assert.Equal(t, "a/b", b.ID)
	assert.Equal(t, "Dune", b.Title)
}

func TestClient_Headers(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "application/json", r.Header.Get("Accept"))
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
		assert.NotEmpty(t, r.Header.Get("X-Request-ID"))
		assert.Equal(t, userAgent, r.Header.Get("User-Agent"))
		w.WriteHeader(http.StatusCreated)
		_, _ = w.Write([]byte(`{"id":"1","title":"Dune"}`))
	}))
	defer srv.Close()

	_, err := newTestClient(t, srv.URL).Create(context.Background(), dune())
	require.NoError(t, err)
}

func TestClient_BaseURLWithPrefix(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/v1/books", r.URL.Path)
		_, _ = w.Write([]byte(`[]`))
	}))
	defer srv.Close()

	books, err := newTestClient(t, srv.URL+"/api/v1/").List(context.Background())
	require.NoError(t, err)
	assert.Empty(t, books)
}

func TestClient_ContextCancelled(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		<-r.Context().Done()
	}))
	defer srv.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	_, err := newTestClient(t, srv.URL).List(ctx)
	require.Error(t, err)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}
