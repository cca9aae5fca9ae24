// Package remote is the HTTP client for the REST books collection that owns
// the authoritative catalog.
package remote

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	gonanoid "github.com/matoous/go-nanoid/v2"
	"golang.org/x/time/rate"

	"github.com/starford/bookdesk/internal/metrics"
	"github.com/starford/bookdesk/internal/models"
)

const (
	booksPath = "/books"
	userAgent = "bookdesk/1.0"

	defaultTimeout   = 15 * time.Second
	defaultRateLimit = 10.0
	defaultBurst     = 5

	maxResponseBytes = 10 << 20
)

// Option configures a Client.
type Option func(*Client)

// WithTimeout sets the per-request timeout of the underlying HTTP client.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) {
		if d > 0 {
			c.http.Timeout = d
		}
	}
}

// WithRateLimit caps outbound requests to rps with the given burst.
// A non-positive rps disables limiting.
func WithRateLimit(rps float64, burst int) Option {
	return func(c *Client) {
		if rps <= 0 {
			c.limiter = rate.NewLimiter(rate.Inf, 0)
			return
		}
		if burst <= 0 {
			burst = 1
		}
		c.limiter = rate.NewLimiter(rate.Limit(rps), burst)
	}
}

// Client talks to a books collection rooted at baseURL + "/books".
type Client struct {
	base    *url.URL
	http    *http.Client
	limiter *rate.Limiter
	logger  *slog.Logger
}

// New creates a client for the collection at baseURL.
func New(baseURL string, logger *slog.Logger, opts ...Option) (*Client, error) {
	u, err := url.Parse(strings.TrimRight(baseURL, "/"))
	if err != nil {
		return nil, fmt.Errorf("remote: parse base url: %w", err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return nil, fmt.Errorf("remote: unsupported scheme %q", u.Scheme)
	}
	if logger == nil {
		logger = slog.Default()
	}
	c := &Client{
		base:    u,
		http:    &http.Client{Timeout: defaultTimeout},
		limiter: rate.NewLimiter(rate.Limit(defaultRateLimit), defaultBurst),
		logger:  logger,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// List returns the full collection in server order.
func (c *Client) List(ctx context.Context) ([]models.Book, error) {
	var rows []wireBook
	if err := c.do(ctx, "list", "", http.MethodGet, booksPath, nil, &rows); err != nil {
		return nil, err
	}
	books := make([]models.Book, len(rows))
	for i, r := range rows {
		books[i] = r.book()
	}
	return books, nil
}

// Create posts d and returns the record with its assigned id.
func (c *Client) Create(ctx context.Context, d models.Draft) (models.Book, error) {
	var row wireBook
	if err := c.do(ctx, "create", "", http.MethodPost, booksPath, d, &row); err != nil {
		return models.Book{}, err
	}
	if row.ID == "" {
		return models.Book{}, wrapError("create", "", fmt.Errorf("%w: no id in response", ErrDecode))
	}
	return row.book(), nil
}

// Update replaces the record at id with d.
func (c *Client) Update(ctx context.Context, id string, d models.Draft) (models.Book, error) {
	var row wireBook
	if err := c.do(ctx, "update", id, http.MethodPut, bookPath(id), d, &row); err != nil {
		return models.Book{}, err
	}
	b := row.book()
	// Some servers answer PUT with an empty body or without the id.
	if b.ID == "" {
		b = d.Book(id)
	}
	return b, nil
}

// Delete removes the record at id.
func (c *Client) Delete(ctx context.Context, id string) error {
	return c.do(ctx, "delete", id, http.MethodDelete, bookPath(id), nil, nil)
}

func bookPath(id string) string {
	return booksPath + "/" + url.PathEscape(id)
}

// do executes one rate-limited request and decodes a JSON response into out.
func (c *Client) do(ctx context.Context, op, id, method, path string, body, out any) error {
	if err := c.limiter.Wait(ctx); err != nil {
		return wrapError(op, id, fmt.Errorf("rate limit wait: %w", err))
	}

	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return wrapError(op, id, fmt.Errorf("encode body: %w", err))
		}
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.base.String()+path, reader)
	if err != nil {
		return wrapError(op, id, fmt.Errorf("create request: %w", err))
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", userAgent)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if rid, idErr := gonanoid.New(); idErr == nil {
		req.Header.Set("X-Request-ID", rid)
	}

	c.logger.Debug("remote request",
		slog.String("op", op),
		slog.String("method", method),
		slog.String("path", path))

	start := time.Now()
	resp, err := c.http.Do(req)
	metrics.RemoteRequestDuration.WithLabelValues(op).Observe(time.Since(start).Seconds())
	if err != nil {
		metrics.RemoteRequestsTotal.WithLabelValues(op, "error").Inc()
		return wrapError(op, id, fmt.Errorf("execute request: %w", err))
	}
	defer resp.Body.Close()
	metrics.RemoteRequestsTotal.WithLabelValues(op, strconv.Itoa(resp.StatusCode)).Inc()

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return wrapError(op, id, fmt.Errorf("read response: %w", err))
	}

	if err := statusError(resp.StatusCode, data); err != nil {
		return wrapError(op, id, err)
	}

	if out == nil || len(bytes.TrimSpace(data)) == 0 {
		return nil
	}
	if err := json.Unmarshal(data, out); err != nil {
		return wrapError(op, id, fmt.Errorf("%w: %v", ErrDecode, err))
	}
	return nil
}

func statusError(code int, body []byte) error {
	switch {
	case code >= 200 && code < 300:
		return nil
	case code == http.StatusNotFound:
		return ErrNotFound
	case code == http.StatusTooManyRequests:
		return ErrRateLimited
	case code == http.StatusBadRequest || code == http.StatusUnprocessableEntity:
		return ErrBadRequest
	case code >= 500:
		return ErrServer
	default:
		return fmt.Errorf("unexpected status %d: %s", code, truncate(string(body), 200))
	}
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
