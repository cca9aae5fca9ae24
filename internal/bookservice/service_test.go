package bookservice

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/starford/bookdesk/internal/catalog"
	"github.com/starford/bookdesk/internal/models"
	"github.com/starford/bookdesk/internal/mutation"
	"github.com/starford/bookdesk/internal/remote"
	"github.com/starford/bookdesk/internal/sse"
	"github.com/starford/bookdesk/internal/testutil"
	"github.com/starford/bookdesk/internal/view"
)

func newService(t *testing.T, pageSize int, seed ...models.Book) (*Service, *testutil.FakeBackend) {
	t.Helper()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	fb := testutil.NewFakeBackend(t, seed...)
	client, err := remote.New(fb.URL(), logger, remote.WithRateLimit(0, 0))
	require.NoError(t, err)
	store := catalog.NewStore(client, logger)
	coord := mutation.New(client, store, nil, logger)
	return NewService(store, coord, pageSize), fb
}

func TestProject_LoadingBeforeFirstRefresh(t *testing.T) {
	svc, _ := newService(t, 10, testutil.SampleBooks(3)...)

	page := svc.Project(view.NewQuery(), 0)
	assert.Equal(t, view.StateLoading, page.State)
	assert.Empty(t, page.Items)
	assert.False(t, svc.Loaded())
}

func TestProject_EmptyAfterLoadIsNotLoading(t *testing.T) {
	svc, _ := newService(t, 10)
	require.NoError(t, svc.Refresh(context.Background()))

	page := svc.Project(view.NewQuery(), 0)
	assert.Equal(t, view.StateEmpty, page.State)
	assert.Equal(t, 0, page.TotalPages)
}

func TestProject_DefaultPageSize(t *testing.T) {
	svc, _ := newService(t, 4, testutil.SampleBooks(9)...)
	require.NoError(t, svc.Refresh(context.Background()))

	page := svc.Project(view.NewQuery(), 0)
	assert.Equal(t, 4, page.PageSize)
	assert.Equal(t, 3, page.TotalPages)
	assert.Len(t, page.Items, 4)

	svc.SetPageSize(5)
	page = svc.Project(view.Query{Page: 2}, 0)
	assert.Len(t, page.Items, 4)
	assert.Equal(t, 2, page.TotalPages)

	page = svc.Project(view.Query{Page: 0}, 3)
	assert.Equal(t, 1, page.Page, "page below 1 treated as 1")
}

func TestSetPageSize_FallsBackToDefault(t *testing.T) {
	svc, _ := newService(t, 0)
	assert.Equal(t, view.DefaultPageSize, svc.PageSize())
	svc.SetPageSize(-3)
	assert.Equal(t, view.DefaultPageSize, svc.PageSize())
}

func TestMutationsVisibleThroughProjection(t *testing.T) {
	svc, _ := newService(t, 10)
	ctx := context.Background()
	require.NoError(t, svc.Refresh(ctx))

	b, err := svc.Create(ctx, models.Draft{Title: "1984", Author: "Orwell", Genre: "Dystopian", Year: 1949, Status: models.StatusIssued})
	require.NoError(t, err)

	page := svc.Project(view.NewQuery().WithStatus(models.StatusIssued), 0)
	require.Len(t, page.Items, 1)
	assert.Equal(t, "1984", page.Items[0].Title)
	assert.Equal(t, []string{"Dystopian"}, svc.Genres())

	require.NoError(t, svc.Delete(ctx, b.ID))
	assert.Empty(t, svc.All())
	assert.Equal(t, view.StateEmpty, svc.Project(view.NewQuery(), 0).State)
}

func TestRefreshFailureKeepsLastSnapshot(t *testing.T) {
	svc, fb := newService(t, 10, testutil.SampleBooks(2)...)
	ctx := context.Background()
	require.NoError(t, svc.Refresh(ctx))

	fb.Fail(testutil.OpList, http.StatusBadGateway)
	require.Error(t, svc.Refresh(ctx))
	assert.Len(t, svc.All(), 2)
	assert.True(t, svc.Snapshot().Loaded)
}

type eventLog struct {
	events []sse.Event
}

func (l *eventLog) Publish(e sse.Event) { l.events = append(l.events, e) }

func TestRefresh_PublishesOnSuccessOnly(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	fb := testutil.NewFakeBackend(t, testutil.SampleBooks(2)...)
	client, err := remote.New(fb.URL(), logger, remote.WithRateLimit(0, 0))
	require.NoError(t, err)
	store := catalog.NewStore(client, logger)
	log := &eventLog{}
	svc := NewService(store, mutation.New(client, store, nil, logger), 10, WithPublisher(log))

	require.NoError(t, svc.Refresh(context.Background()))
	require.Len(t, log.events, 1)
	assert.Equal(t, sse.EventStoreRefreshed, log.events[0].Type)
	assert.Equal(t, 2, log.events[0].Data.(map[string]any)["records"])

	fb.Fail(testutil.OpList, http.StatusBadGateway)
	require.Error(t, svc.Refresh(context.Background()))
	assert.Len(t, log.events, 1)

	// Mutation reloads go through the store and stay off this event.
	fb.Fail(testutil.OpList, 0)
	_, err = svc.Create(context.Background(), testutil.SampleBooks(1)[0].Draft())
	require.NoError(t, err)
	assert.Len(t, log.events, 1)
}
