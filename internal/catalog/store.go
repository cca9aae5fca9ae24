// Package catalog holds the in-memory record store: an atomically replaced
// snapshot of the remote books collection.
package catalog

import (
	"context"
	"log/slog"
	"slices"
	"strconv"
	"sync"
	"sync/atomic"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/starford/bookdesk/internal/apperr"
	"github.com/starford/bookdesk/internal/metrics"
	"github.com/starford/bookdesk/internal/models"
)

// Lister fetches the full remote collection.
type Lister interface {
	List(ctx context.Context) ([]models.Book, error)
}

// Snapshot is an immutable view of the store at one point in time.
// Loaded is false until the first successful Refresh, which distinguishes
// "not yet loaded" from an empty collection.
type Snapshot struct {
	Books     []models.Book
	Loaded    bool
	FetchedAt time.Time
}

// Store is safe for concurrent use.
type Store struct {
	source Lister
	logger *slog.Logger

	current atomic.Pointer[Snapshot]
	group   singleflight.Group
	now     func() time.Time

	// generation keys the shared flight; Reload bumps it so that callers
	// never join a request started before their write.
	generation atomic.Uint64
	// started numbers every list request; installMu guards installed, the
	// number of the request whose result is current.
	started   atomic.Uint64
	installMu sync.Mutex
	installed uint64
}

// NewStore creates an empty, not-yet-loaded store backed by source.
func NewStore(source Lister, logger *slog.Logger) *Store {
	if logger == nil {
		logger = slog.Default()
	}
	s := &Store{source: source, logger: logger, now: time.Now}
	s.current.Store(&Snapshot{})
	return s
}

// Refresh replaces the snapshot with the remote collection. Concurrent calls
// share one request. On failure the previous snapshot is kept and a
// *apperr.FetchError is returned.
//
// The shared request is detached from any single caller's cancellation; each
// caller stops waiting when its own ctx is done.
func (s *Store) Refresh(ctx context.Context) error {
	key := "refresh/" + strconv.FormatUint(s.generation.Load(), 10)
	ch := s.group.DoChan(key, func() (any, error) {
		return nil, s.fetch(context.WithoutCancel(ctx))
	})

	select {
	case <-ctx.Done():
		return &apperr.FetchError{Err: ctx.Err()}
	case res := <-ch:
		if res.Err != nil {
			s.logger.Warn("store refresh failed", slog.String("error", res.Err.Error()))
			return res.Err
		}
		s.logger.Debug("store refreshed",
			slog.Int("records", len(s.current.Load().Books)),
			slog.Bool("shared", res.Shared))
		return nil
	}
}

// Reload is Refresh without joining a request already in flight. Call it
// after a write so the snapshot is fetched after the write landed.
func (s *Store) Reload(ctx context.Context) error {
	s.generation.Add(1)
	return s.Refresh(ctx)
}

func (s *Store) fetch(ctx context.Context) error {
	n := s.started.Add(1)
	books, err := s.source.List(ctx)
	if err != nil {
		return &apperr.FetchError{Err: err}
	}
	if books == nil {
		books = []models.Book{}
	}

	s.installMu.Lock()
	defer s.installMu.Unlock()
	// A request started later has already landed; its data is newer.
	if n < s.installed {
		return nil
	}
	s.installed = n
	s.current.Store(&Snapshot{
		Books:     books,
		Loaded:    true,
		FetchedAt: s.now(),
	})
	metrics.StoreRecords.Set(float64(len(books)))
	return nil
}

// All returns a copy of the current records in remote order.
func (s *Store) All() []models.Book {
	return slices.Clone(s.current.Load().Books)
}

// Snapshot returns the current snapshot with its own copy of the records.
func (s *Store) Snapshot() Snapshot {
	snap := *s.current.Load()
	snap.Books = slices.Clone(snap.Books)
	return snap
}

// Loaded reports whether at least one refresh has succeeded.
func (s *Store) Loaded() bool {
	return s.current.Load().Loaded
}
