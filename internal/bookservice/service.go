// Package bookservice is the facade the adapters (HTTP, CLI, MCP) talk to.
// It ties the record store, the view engine and the mutation coordinator
// together.
package bookservice

import (
	"context"
	"sync/atomic"

	"github.com/starford/bookdesk/internal/catalog"
	"github.com/starford/bookdesk/internal/models"
	"github.com/starford/bookdesk/internal/mutation"
	"github.com/starford/bookdesk/internal/sse"
	"github.com/starford/bookdesk/internal/view"
)

// Publisher receives stream events. *sse.Broker implements it.
type Publisher interface {
	Publish(sse.Event)
}

// Option configures a Service.
type Option func(*Service)

// WithPublisher announces every successful Refresh on p.
func WithPublisher(p Publisher) Option {
	return func(s *Service) {
		s.publisher = p
	}
}

// Service coordinates the store and the coordinator.
type Service struct {
	store     *catalog.Store
	coord     *mutation.Coordinator
	publisher Publisher

	pageSize atomic.Int64
}

// NewService creates a facade. A pageSize below 1 falls back to
// view.DefaultPageSize.
func NewService(store *catalog.Store, coord *mutation.Coordinator, pageSize int, opts ...Option) *Service {
	s := &Service{store: store, coord: coord}
	for _, opt := range opts {
		opt(s)
	}
	s.SetPageSize(pageSize)
	return s
}

// SetPageSize changes the default page size used when callers pass 0.
func (s *Service) SetPageSize(n int) {
	if n < 1 {
		n = view.DefaultPageSize
	}
	s.pageSize.Store(int64(n))
}

// PageSize returns the current default page size.
func (s *Service) PageSize() int {
	return int(s.pageSize.Load())
}

// Refresh reloads the collection from the remote store.
func (s *Service) Refresh(ctx context.Context) error {
	if err := s.store.Refresh(ctx); err != nil {
		return err
	}
	if s.publisher != nil {
		snap := s.store.Snapshot()
		s.publisher.Publish(sse.Event{Type: sse.EventStoreRefreshed, Data: map[string]any{
			"records":    len(snap.Books),
			"fetched_at": snap.FetchedAt,
		}})
	}
	return nil
}

// All returns every record in remote order.
func (s *Service) All() []models.Book {
	return s.store.All()
}

// Snapshot returns the full store state.
func (s *Service) Snapshot() catalog.Snapshot {
	return s.store.Snapshot()
}

// Loaded reports whether the collection has been fetched at least once.
func (s *Service) Loaded() bool {
	return s.store.Loaded()
}

// Project returns one page of the filtered collection. pageSize 0 uses the
// default; a page below 1 is treated as 1. Before the first successful
// refresh the page is in the loading state.
func (s *Service) Project(q view.Query, pageSize int) view.Page {
	if pageSize < 1 {
		pageSize = s.PageSize()
	}
	if q.Page < 1 {
		q.Page = 1
	}
	if !s.store.Loaded() {
		return view.Loading(q, pageSize)
	}
	return view.Project(s.store.All(), q, pageSize)
}

// Genres lists the distinct genres present in the collection.
func (s *Service) Genres() []string {
	return view.Genres(s.store.All())
}

// Create adds a record.
func (s *Service) Create(ctx context.Context, d models.Draft) (models.Book, error) {
	return s.coord.Create(ctx, d)
}

// Update replaces the record at id.
func (s *Service) Update(ctx context.Context, id string, d models.Draft) (models.Book, error) {
	return s.coord.Update(ctx, id, d)
}

// Delete removes the record at id.
func (s *Service) Delete(ctx context.Context, id string) error {
	return s.coord.Delete(ctx, id)
}
