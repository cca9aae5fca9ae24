package internal

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/starford/bookdesk/internal/bookservice"
	"github.com/starford/bookdesk/internal/catalog"
	"github.com/starford/bookdesk/internal/mutation"
	"github.com/starford/bookdesk/internal/remote"
)

// Core is the wired record store, coordinator and facade shared by the
// serve, CLI and MCP entry points.
type Core struct {
	Remote  *remote.Client
	Store   *catalog.Store
	Service *bookservice.Service
}

// NewCore wires the core against cfg.Backend. notify receives mutation
// notices; nil logs them. opts are passed to the facade.
func NewCore(cfg *Config, logger *slog.Logger, notify mutation.Notifier, opts ...bookservice.Option) (*Core, error) {
	client, err := remote.New(cfg.Backend.BaseURL, logger,
		remote.WithTimeout(cfg.Backend.Timeout),
		remote.WithRateLimit(cfg.Backend.RateLimit, cfg.Backend.Burst),
	)
	if err != nil {
		return nil, fmt.Errorf("init remote client: %w", err)
	}
	if notify == nil {
		notify = mutation.LogNotifier{Logger: logger}
	}

	store := catalog.NewStore(client, logger)
	coord := mutation.New(client, store, notify, logger)
	return &Core{
		Remote:  client,
		Store:   store,
		Service: bookservice.NewService(store, coord, cfg.View.PageSize, opts...),
	}, nil
}

// NewLogger creates the JSON logger used by every command. level may be nil.
func NewLogger(level slog.Leveler) *slog.Logger {
	return slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: level,
	}))
}
