package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
	"text/tabwriter"

	"github.com/urfave/cli/v3"

	"github.com/starford/bookdesk/internal"
	"github.com/starford/bookdesk/internal/mcpserver"
	"github.com/starford/bookdesk/internal/models"
	"github.com/starford/bookdesk/internal/seed"
	"github.com/starford/bookdesk/internal/view"
	pkgconfig "github.com/starford/bookdesk/pkg/config"
)

func newRootCommand() *cli.Command {
	return &cli.Command{
		Name:   "bookdesk",
		Usage:  "Book catalog desk: filtered, paginated views over a remote books collection",
		Action: runServe,
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:        "config",
				Aliases:     []string{"c"},
				Usage:       "Path to config file",
				DefaultText: "config/config.yaml",
				Value:       "config/config.yaml",
				Sources:     cli.EnvVars("APP_CONFIG_FILE"),
			},
		},
		Commands: []*cli.Command{
			{
				Name:   "serve",
				Usage:  "Run the HTTP API and event stream",
				Action: runServe,
			},
			{
				Name:  "list",
				Usage: "Print one page of the filtered catalog",
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "search", Aliases: []string{"s"}, Usage: "Title or author substring"},
					&cli.StringFlag{Name: "genre", Aliases: []string{"g"}, Usage: "Exact genre"},
					&cli.StringFlag{Name: "status", Usage: "Available or Issued"},
					&cli.IntFlag{Name: "page", Aliases: []string{"p"}, Value: 1, Usage: "1-based page index"},
					&cli.IntFlag{Name: "page-size", Usage: "Records per page (0 uses the configured default)"},
				},
				Action: runList,
			},
			{
				Name:   "genres",
				Usage:  "Print the distinct genres in the catalog",
				Action: runGenres,
			},
			{
				Name:   "add",
				Usage:  "Add a book",
				Flags:  draftFlags(true),
				Action: runAdd,
			},
			{
				Name:      "edit",
				Usage:     "Replace a book's fields; omitted flags keep the current value",
				ArgsUsage: "<id>",
				Flags:     draftFlags(false),
				Action:    runEdit,
			},
			{
				Name:      "delete",
				Usage:     "Delete a book",
				ArgsUsage: "<id>",
				Action:    runDelete,
			},
			{
				Name:      "seed",
				Usage:     `Bulk-import a {"books": [...]} JSON or YAML file`,
				ArgsUsage: "<file>",
				Action:    runSeed,
			},
			{
				Name:   "mcp",
				Usage:  "Serve the catalog tools over MCP on stdio",
				Action: runMCP,
			},
		},
	}
}

func draftFlags(required bool) []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{Name: "title", Required: required},
		&cli.StringFlag{Name: "author", Required: required},
		&cli.StringFlag{Name: "genre", Required: required, Usage: strings.Join(models.Genres, ", ")},
		&cli.IntFlag{Name: "year", Required: required},
		&cli.StringFlag{Name: "status", Required: required, Usage: "Available or Issued"},
	}
}

func loadConfig(cmd *cli.Command) (*internal.Config, string, error) {
	path := cmd.String("config")
	cfg := internal.NewDefaultConfig()
	if err := pkgconfig.Load(path, cfg); err != nil {
		return nil, "", fmt.Errorf("failed to parse config: %w", err)
	}
	return cfg, path, nil
}

func runServe(ctx context.Context, cmd *cli.Command) error {
	cfg, path, err := loadConfig(cmd)
	if err != nil {
		return err
	}

	opts := []internal.Option{
		internal.WithConfig(cfg),
		internal.WithConfigPath(path),
	}

	if err := internal.Run(ctx, opts...); err != nil {
		return fmt.Errorf("app run error: %w", err)
	}

	return nil
}

// session is the wiring shared by the one-shot commands. Logs go to stderr
// so stdout stays readable; notices are printed to stdout.
type session struct {
	core   *internal.Core
	out    io.Writer
	logger *slog.Logger
}

func openSession(cmd *cli.Command) (*session, error) {
	cfg, _, err := loadConfig(cmd)
	if err != nil {
		return nil, err
	}
	out := writer(cmd)
	logger := slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{Level: cfg.App.LogLevel}))

	core, err := internal.NewCore(cfg, logger, noticePrinter{out: out})
	if err != nil {
		return nil, err
	}
	return &session{core: core, out: out, logger: logger}, nil
}

func writer(cmd *cli.Command) io.Writer {
	if w := cmd.Root().Writer; w != nil {
		return w
	}
	return os.Stdout
}

type noticePrinter struct {
	out io.Writer
}

func (p noticePrinter) Notify(n models.Notice) {
	fmt.Fprintln(p.out, n.Message)
}

func runList(ctx context.Context, cmd *cli.Command) error {
	s, err := openSession(cmd)
	if err != nil {
		return err
	}
	if err := s.core.Service.Refresh(ctx); err != nil {
		return err
	}

	status := models.Status(cmd.String("status"))
	if status != "" && !status.Valid() {
		return fmt.Errorf("unknown status %q", status)
	}
	page := int(cmd.Int("page"))
	pageSize := int(cmd.Int("page-size"))
	if page < 1 || pageSize < 0 {
		return errors.New("page must be >= 1 and page-size must not be negative")
	}

	q := view.NewQuery().
		WithSearch(cmd.String("search")).
		WithGenre(cmd.String("genre")).
		WithStatus(status).
		WithPage(page)
	printPage(s.out, s.core.Service.Project(q, pageSize))
	return nil
}

func printPage(out io.Writer, p view.Page) {
	if p.State != view.StateReady {
		fmt.Fprintln(out, "No books match the current filters.")
		if p.TotalPages > 0 {
			fmt.Fprintf(out, "page %d of %d\n", p.Page, p.TotalPages)
		}
		return
	}

	tw := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tTITLE\tAUTHOR\tGENRE\tYEAR\tSTATUS")
	for _, b := range p.Items {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%d\t%s\n", b.ID, b.Title, b.Author, b.Genre, b.Year, b.Status)
	}
	_ = tw.Flush()
	fmt.Fprintf(out, "page %d of %d (%d matching)\n", p.Page, p.TotalPages, p.MatchCount)
}

func runGenres(ctx context.Context, cmd *cli.Command) error {
	s, err := openSession(cmd)
	if err != nil {
		return err
	}
	if err := s.core.Service.Refresh(ctx); err != nil {
		return err
	}
	for _, g := range s.core.Service.Genres() {
		fmt.Fprintln(s.out, g)
	}
	return nil
}

func runAdd(ctx context.Context, cmd *cli.Command) error {
	s, err := openSession(cmd)
	if err != nil {
		return err
	}
	d := models.Draft{
		Title:  cmd.String("title"),
		Author: cmd.String("author"),
		Genre:  cmd.String("genre"),
		Year:   int(cmd.Int("year")),
		Status: models.Status(cmd.String("status")),
	}
	b, err := s.core.Service.Create(ctx, d)
	if err != nil {
		return err
	}
	fmt.Fprintf(s.out, "id: %s\n", b.ID)
	return nil
}

func runEdit(ctx context.Context, cmd *cli.Command) error {
	id := cmd.Args().First()
	if id == "" {
		return errors.New("edit: book id is required")
	}
	s, err := openSession(cmd)
	if err != nil {
		return err
	}
	if err := s.core.Service.Refresh(ctx); err != nil {
		return err
	}

	var current models.Book
	found := false
	for _, b := range s.core.Service.All() {
		if b.ID == id {
			current, found = b, true
			break
		}
	}
	if !found {
		return fmt.Errorf("edit: book %s not found", id)
	}

	d := current.Draft()
	if cmd.IsSet("title") {
		d.Title = cmd.String("title")
	}
	if cmd.IsSet("author") {
		d.Author = cmd.String("author")
	}
	if cmd.IsSet("genre") {
		d.Genre = cmd.String("genre")
	}
	if cmd.IsSet("year") {
		d.Year = int(cmd.Int("year"))
	}
	if cmd.IsSet("status") {
		d.Status = models.Status(cmd.String("status"))
	}
	_, err = s.core.Service.Update(ctx, id, d)
	return err
}

func runDelete(ctx context.Context, cmd *cli.Command) error {
	id := cmd.Args().First()
	if id == "" {
		return errors.New("delete: book id is required")
	}
	s, err := openSession(cmd)
	if err != nil {
		return err
	}
	return s.core.Service.Delete(ctx, id)
}

func runSeed(ctx context.Context, cmd *cli.Command) error {
	file := cmd.Args().First()
	if file == "" {
		return errors.New("seed: file is required")
	}
	drafts, err := seed.Load(file)
	if err != nil {
		return err
	}
	s, err := openSession(cmd)
	if err != nil {
		return err
	}

	im := seed.NewImporter(s.core.Remote, s.core.Store, s.logger, cmd.Root().ErrWriter)
	res, err := im.Import(ctx, drafts)
	fmt.Fprintf(s.out, "\ncreated %d, invalid %d, failed %d\n", res.Created, res.Invalid, res.Failed)
	return err
}

func runMCP(_ context.Context, cmd *cli.Command) error {
	cfg, _, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	// stdout carries the MCP protocol; logs must stay on stderr.
	logger := slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{Level: cfg.App.LogLevel}))
	slog.SetDefault(logger)

	core, err := internal.NewCore(cfg, logger, nil)
	if err != nil {
		return err
	}
	return mcpserver.New(core.Service).ServeStdio()
}
