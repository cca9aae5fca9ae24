// Package mcpserver provides an MCP (Model Context Protocol) server
// that exposes the book catalog to LLM clients via stdio transport.
package mcpserver

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"maps"
	"slices"
	"strings"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/starford/bookdesk/internal/apperr"
	"github.com/starford/bookdesk/internal/bookservice"
	"github.com/starford/bookdesk/internal/models"
	"github.com/starford/bookdesk/internal/view"
)

const contractURI = "bookdesk://book-format"

// Server wraps the MCP server with the book tools.
type Server struct {
	mcp *server.MCPServer
	svc *bookservice.Service
}

// New creates a new MCP server with all book tools registered.
func New(svc *bookservice.Service) *Server {
	s := &Server{svc: svc}

	s.mcp = server.NewMCPServer(
		"Bookdesk",
		"1.0.0",
		server.WithToolCapabilities(false),
		server.WithResourceCapabilities(false, false),
	)

	s.mcp.AddTool(mcp.NewTool("search_books",
		mcp.WithDescription("Search the book catalog. Search matches title or author, case-insensitive. "+
			"Filters combine with AND. Returns one page of results."),
		mcp.WithString("search", mcp.Description("Substring of the title or author")),
		mcp.WithString("genre", mcp.Description("Exact genre, e.g. Classic")),
		mcp.WithString("status", mcp.Description("Available or Issued")),
		mcp.WithNumber("page", mcp.Description("1-based page index (default 1)")),
	), s.searchBooks)

	s.mcp.AddTool(mcp.NewTool("list_genres",
		mcp.WithDescription("List the distinct genres present in the catalog."),
	), s.listGenres)

	s.mcp.AddTool(mcp.NewTool("get_book_contract",
		mcp.WithDescription("Returns the book record format. "+
			"Call this before creating or updating books."),
	), s.getBookContract)

	s.mcp.AddTool(mcp.NewTool("create_book",
		mcp.WithDescription("Add a book. All fields are required. Read the contract first via "+
			"the get_book_contract tool or the "+contractURI+" resource."),
		mcp.WithString("title", mcp.Required(), mcp.Description("Book title")),
		mcp.WithString("author", mcp.Required(), mcp.Description("Author name")),
		mcp.WithString("genre", mcp.Required(), mcp.Description("One of the allowed genres")),
		mcp.WithNumber("year", mcp.Required(), mcp.Description("Publication year, positive integer")),
		mcp.WithString("status", mcp.Required(), mcp.Description("Available or Issued")),
	), s.createBook)

	s.mcp.AddTool(mcp.NewTool("update_book",
		mcp.WithDescription("Replace a book's fields. Omitted fields keep their current value."),
		mcp.WithString("id", mcp.Required(), mcp.Description("Book id")),
		mcp.WithString("title", mcp.Description("Book title")),
		mcp.WithString("author", mcp.Description("Author name")),
		mcp.WithString("genre", mcp.Description("One of the allowed genres")),
		mcp.WithNumber("year", mcp.Description("Publication year, positive integer")),
		mcp.WithString("status", mcp.Description("Available or Issued")),
	), s.updateBook)

	s.mcp.AddTool(mcp.NewTool("delete_book",
		mcp.WithDescription("Delete a book by id."),
		mcp.WithString("id", mcp.Required(), mcp.Description("Book id")),
	), s.deleteBook)

	s.mcp.AddTool(mcp.NewTool("refresh_books",
		mcp.WithDescription("Reload the catalog from the remote store."),
	), s.refreshBooks)

	s.mcp.AddResource(
		mcp.NewResource(contractURI, "Book Format Contract",
			mcp.WithResourceDescription("Fields, enumerations and rules every book record follows."),
			mcp.WithMIMEType("text/markdown"),
		),
		s.readBookFormatResource,
	)

	return s
}

// ServeStdio starts the MCP server on stdin/stdout.
func (s *Server) ServeStdio() error {
	return server.ServeStdio(s.mcp)
}

// MCPServer returns the underlying server for testing.
func (s *Server) MCPServer() *server.MCPServer {
	return s.mcp
}

// ensureLoaded fetches the catalog once so read tools never answer from an
// unloaded store.
func (s *Server) ensureLoaded(ctx context.Context) error {
	if s.svc.Loaded() {
		return nil
	}
	return s.svc.Refresh(ctx)
}

func (s *Server) searchBooks(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	if err := s.ensureLoaded(ctx); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	status := models.Status(req.GetString("status", ""))
	if status != "" && !status.Valid() {
		return mcp.NewToolResultError(fmt.Sprintf("unknown status %q", status)), nil
	}
	page := req.GetInt("page", 1)
	if page < 1 {
		return mcp.NewToolResultError("page must be a positive integer"), nil
	}

	q := view.NewQuery().
		WithSearch(req.GetString("search", "")).
		WithGenre(req.GetString("genre", "")).
		WithStatus(status).
		WithPage(page)
	return jsonResult(s.svc.Project(q, 0))
}

func (s *Server) listGenres(ctx context.Context, _ mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	if err := s.ensureLoaded(ctx); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	genres := s.svc.Genres()
	if len(genres) == 0 {
		return mcp.NewToolResultText("no genres found"), nil
	}
	return mcp.NewToolResultText(strings.Join(genres, "\n")), nil
}

func (s *Server) getBookContract(_ context.Context, _ mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return mcp.NewToolResultText(BookFormatContract), nil
}

func (s *Server) readBookFormatResource(_ context.Context, _ mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
	return []mcp.ResourceContents{
		mcp.TextResourceContents{
			URI:      contractURI,
			MIMEType: "text/markdown",
			Text:     BookFormatContract,
		},
	}, nil
}

func (s *Server) createBook(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	var d models.Draft
	var err error
	if d.Title, err = req.RequireString("title"); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	if d.Author, err = req.RequireString("author"); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	if d.Genre, err = req.RequireString("genre"); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	if d.Year, err = req.RequireInt("year"); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	status, err := req.RequireString("status")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	d.Status = models.Status(status)

	b, err := s.svc.Create(ctx, d)
	if err != nil {
		return mcp.NewToolResultError(describe(err)), nil
	}
	return jsonResult(b)
}

func (s *Server) updateBook(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	id, err := req.RequireString("id")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	if err := s.ensureLoaded(ctx); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	current, ok := s.find(id)
	if !ok {
		return mcp.NewToolResultError(fmt.Sprintf("book not found: %s", id)), nil
	}

	d := models.Draft{
		Title:  req.GetString("title", current.Title),
		Author: req.GetString("author", current.Author),
		Genre:  req.GetString("genre", current.Genre),
		Year:   req.GetInt("year", current.Year),
		Status: models.Status(req.GetString("status", string(current.Status))),
	}
	b, err := s.svc.Update(ctx, id, d)
	if err != nil {
		return mcp.NewToolResultError(describe(err)), nil
	}
	return jsonResult(b)
}

func (s *Server) deleteBook(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	id, err := req.RequireString("id")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	if err := s.svc.Delete(ctx, id); err != nil {
		return mcp.NewToolResultError(describe(err)), nil
	}
	return mcp.NewToolResultText(fmt.Sprintf("deleted: %s", id)), nil
}

func (s *Server) refreshBooks(ctx context.Context, _ mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	if err := s.svc.Refresh(ctx); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return mcp.NewToolResultText(fmt.Sprintf("loaded %d books", len(s.svc.All()))), nil
}

func (s *Server) find(id string) (models.Book, bool) {
	for _, b := range s.svc.All() {
		if b.ID == id {
			return b, true
		}
	}
	return models.Book{}, false
}

// describe flattens validation errors into "field: message" lines.
func describe(err error) string {
	var fields validation.Errors
	if !errors.Is(err, apperr.ErrValidation) || !errors.As(err, &fields) {
		return err.Error()
	}
	lines := []string{apperr.ErrValidation.Error()}
	for _, name := range slices.Sorted(maps.Keys(fields)) {
		lines = append(lines, fmt.Sprintf("%s: %v", name, fields[name]))
	}
	return strings.Join(lines, "\n")
}

func jsonResult(v any) (*mcp.CallToolResult, error) {
	out, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return mcp.NewToolResultText(string(out)), nil
}
