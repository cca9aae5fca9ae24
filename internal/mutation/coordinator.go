// Package mutation sends create, update and delete requests to the remote
// collection and re-fetches the record store after every success.
package mutation

import (
	"context"
	"errors"
	"log/slog"
	"strings"

	validation "github.com/go-ozzo/ozzo-validation/v4"

	"github.com/starford/bookdesk/internal/apperr"
	"github.com/starford/bookdesk/internal/models"
)

// Writer is the remote side of a mutation.
type Writer interface {
	Create(ctx context.Context, d models.Draft) (models.Book, error)
	Update(ctx context.Context, id string, d models.Draft) (models.Book, error)
	Delete(ctx context.Context, id string) error
}

// Refresher reloads the record store. Reload must fetch with a request that
// starts after the call, never one already in flight.
type Refresher interface {
	Reload(ctx context.Context) error
}

// Notifier receives the outcome of every mutation.
type Notifier interface {
	Notify(n models.Notice)
}

// NotifierFunc adapts a function to Notifier.
type NotifierFunc func(n models.Notice)

// Notify calls f(n).
func (f NotifierFunc) Notify(n models.Notice) { f(n) }

// LogNotifier writes notices to a logger.
type LogNotifier struct {
	Logger *slog.Logger
}

// Notify logs n at info level for successes and warn level for errors.
func (l LogNotifier) Notify(n models.Notice) {
	level := slog.LevelInfo
	if n.Level == models.NoticeError {
		level = slog.LevelWarn
	}
	l.Logger.Log(context.Background(), level, n.Message,
		slog.String("op", n.Op),
		slog.String("book_id", n.BookID))
}

// Notice texts shown as toasts by the desk UI.
var successText = map[string]string{
	models.OpCreate: "Book added successfully",
	models.OpUpdate: "Book updated successfully",
	models.OpDelete: "Book deleted successfully",
}

var failureText = map[string]string{
	models.OpCreate:  "Something went wrong",
	models.OpUpdate:  "Something went wrong",
	models.OpDelete:  "Failed to delete book",
	models.OpRefresh: "Failed to reload books",
}

// Coordinator is the only path through which records change. It never
// patches local state: a successful mutation is followed by a full refresh.
type Coordinator struct {
	remote Writer
	store  Refresher
	notify Notifier
	logger *slog.Logger
}

// New creates a coordinator. notify may be nil.
func New(remote Writer, store Refresher, notify Notifier, logger *slog.Logger) *Coordinator {
	if logger == nil {
		logger = slog.Default()
	}
	if notify == nil {
		notify = NotifierFunc(func(models.Notice) {})
	}
	return &Coordinator{remote: remote, store: store, notify: notify, logger: logger}
}

// Create validates d and posts it. The returned book carries the id assigned
// by the remote store.
func (c *Coordinator) Create(ctx context.Context, d models.Draft) (models.Book, error) {
	d = d.Normalize()
	if err := d.Validate(); err != nil {
		return models.Book{}, apperr.Validation(err)
	}
	b, err := c.remote.Create(ctx, d)
	if err != nil {
		return models.Book{}, c.fail(models.OpCreate, "", err)
	}
	c.succeed(ctx, models.OpCreate, b.ID)
	return b, nil
}

// Update replaces the record at id with d.
func (c *Coordinator) Update(ctx context.Context, id string, d models.Draft) (models.Book, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return models.Book{}, missingID()
	}
	d = d.Normalize()
	if err := d.Validate(); err != nil {
		return models.Book{}, apperr.Validation(err)
	}
	b, err := c.remote.Update(ctx, id, d)
	if err != nil {
		return models.Book{}, c.fail(models.OpUpdate, id, err)
	}
	c.succeed(ctx, models.OpUpdate, id)
	return b, nil
}

// Delete removes the record at id. A missing record is reported as the
// remote store reports it; nothing is retried.
func (c *Coordinator) Delete(ctx context.Context, id string) error {
	id = strings.TrimSpace(id)
	if id == "" {
		return missingID()
	}
	if err := c.remote.Delete(ctx, id); err != nil {
		return c.fail(models.OpDelete, id, err)
	}
	c.succeed(ctx, models.OpDelete, id)
	return nil
}

func (c *Coordinator) fail(op, id string, err error) error {
	c.logger.Warn("mutation failed",
		slog.String("op", op),
		slog.String("book_id", id),
		slog.String("error", err.Error()))
	c.notify.Notify(models.Notice{
		Level:   models.NoticeError,
		Op:      op,
		BookID:  id,
		Message: failureText[op],
	})
	return &apperr.MutationError{Op: op, ID: id, Err: err}
}

// succeed publishes the success notice and then reloads the store. A failed
// reload does not undo the mutation; it is reported as its own notice.
func (c *Coordinator) succeed(ctx context.Context, op, id string) {
	c.logger.Info("mutation applied", slog.String("op", op), slog.String("book_id", id))
	c.notify.Notify(models.Notice{
		Level:   models.NoticeSuccess,
		Op:      op,
		BookID:  id,
		Message: successText[op],
	})

	// The store logs the failure.
	if err := c.store.Reload(ctx); err != nil {
		c.notify.Notify(models.Notice{
			Level:   models.NoticeError,
			Op:      models.OpRefresh,
			Message: failureText[models.OpRefresh],
		})
	}
}

func missingID() error {
	return apperr.Validation(validation.Errors{"id": errors.New("id is required")})
}
