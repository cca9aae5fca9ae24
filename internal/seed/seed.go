// Package seed bulk-imports books from a JSON or YAML file into the remote
// collection.
package seed

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/schollz/progressbar/v3"
	"gopkg.in/yaml.v3"

	"github.com/starford/bookdesk/internal/models"
	"github.com/starford/bookdesk/internal/mutation"
)

// File is the on-disk layout: {"books": [...]}. Ids in the file are ignored;
// the remote store assigns new ones.
type File struct {
	Books []models.Draft `json:"books" yaml:"books"`
}

// Load reads a seed file. JSON is accepted since it is valid YAML.
func Load(path string) ([]models.Draft, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read seed file %s: %w", path, err)
	}
	var f File
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("parse seed file %s: %w", path, err)
	}
	return f.Books, nil
}

// Result counts the outcome of an import.
type Result struct {
	Created int
	Invalid int
	Failed  int
}

// Importer creates records one by one and reloads the store once at the end.
type Importer struct {
	remote mutation.Writer
	store  mutation.Refresher
	logger *slog.Logger
	out    io.Writer
}

// NewImporter creates an importer. The progress bar is drawn on out; nil
// means stdout.
func NewImporter(remote mutation.Writer, store mutation.Refresher, logger *slog.Logger, out io.Writer) *Importer {
	if logger == nil {
		logger = slog.Default()
	}
	return &Importer{remote: remote, store: store, logger: logger, out: out}
}

// Import validates and creates every draft in order. Invalid drafts and
// rejected requests are logged and skipped. Cancelling ctx stops the import
// after the current record.
func (im *Importer) Import(ctx context.Context, drafts []models.Draft) (Result, error) {
	var res Result
	bar := im.newBar(len(drafts))

	for i, d := range drafts {
		if err := ctx.Err(); err != nil {
			return res, err
		}

		d = d.Normalize()
		if err := d.Validate(); err != nil {
			res.Invalid++
			im.logger.Warn("seed record rejected",
				slog.Int("index", i),
				slog.String("title", d.Title),
				slog.String("error", err.Error()))
			_ = bar.Add(1)
			continue
		}

		b, err := im.remote.Create(ctx, d)
		if err != nil {
			res.Failed++
			im.logger.Error("seed record failed",
				slog.Int("index", i),
				slog.String("title", d.Title),
				slog.String("error", err.Error()))
			_ = bar.Add(1)
			continue
		}
		res.Created++
		im.logger.Debug("seed record created", slog.String("book_id", b.ID))
		_ = bar.Add(1)
	}
	_ = bar.Finish()

	if res.Created > 0 {
		if err := im.store.Reload(ctx); err != nil {
			return res, fmt.Errorf("reload after seed: %w", err)
		}
	}
	if res.Created == 0 && len(drafts) > 0 {
		return res, errors.New("no records imported")
	}
	return res, nil
}

func (im *Importer) newBar(n int) *progressbar.ProgressBar {
	if im.out == nil {
		return progressbar.Default(int64(n), "importing books")
	}
	return progressbar.NewOptions64(int64(n),
		progressbar.OptionSetWriter(im.out),
		progressbar.OptionSetDescription("importing books"),
	)
}
