// Package client is a typed HTTP client for the movie catalog API.
package client

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/goccy/go-json"
	"github.com/hafizmfadli/movie-catalog/internal/data"
	"github.com/hafizmfadli/movie-catalog/internal/jsonlog"
)

// DefaultTimeout bounds every request made by a Client.
const DefaultTimeout = 15 * time.Second

// APIError is returned when the API answers with a non-2xx status.
type APIError struct {
	StatusCode int
	// Message is the server's "mensagem".
	Message string
	// Detail is the server's "erro": a string, a field -> message map, or nil.
	Detail any
}

func (e *APIError) Error() string {
	if s, ok := e.Detail.(string); ok && s != "" {
		return fmt.Sprintf("%s (status %d): %s", e.Message, e.StatusCode, s)
	}
	return fmt.Sprintf("%s (status %d)", e.Message, e.StatusCode)
}

// FieldErrors returns the per-field validation messages carried by a 400
// response, or nil.
func (e *APIError) FieldErrors() map[string]string {
	m, ok := e.Detail.(map[string]any)
	if !ok {
		return nil
	}
	out := make(map[string]string, len(m))
	for k, v := range m {
		out[k] = fmt.Sprint(v)
	}
	return out
}

// IsNotFound reports whether err is an APIError with status 404.
func IsNotFound(err error) bool {
	var apiErr *APIError
	return errors.As(err, &apiErr) && apiErr.StatusCode == http.StatusNotFound
}

// ListFilters narrows a ListMovies call. Zero values mean "no filter".
type ListFilters struct {
	Genre string
	Year  *int
}

// MovieList is one page of movie summaries.
type MovieList struct {
	Movies      []*data.MovieSummary `json:"dados"`
	TotalPages  int                  `json:"totalPaginas"`
	CurrentPage int                  `json:"paginaAtual"`
	TotalMovies int                  `json:"totalFilmes"`
}

// SearchResult is the answer to a text search.
type SearchResult struct {
	Results []*data.Movie `json:"resultados"`
	Total   int           `json:"total"`
	Term    string        `json:"termo"`
}

// MovieResult is the answer to a create, update or delete.
type MovieResult struct {
	Message string      `json:"mensagem"`
	Movie   *data.Movie `json:"filme"`
}

// Health is the answer of the healthcheck endpoint.
type Health struct {
	Status string `json:"status"`
	System struct {
		Environment string `json:"ambiente"`
		Version     string `json:"versao"`
	} `json:"sistema"`
}

// Client talks to the catalog API rooted at baseURL (for example
// http://localhost:5000/api).
type Client struct {
	baseURL    string
	httpClient *http.Client
	timeout    time.Duration
	logger     *jsonlog.Logger
}

// Option configures a Client.
type Option func(*Client)

// WithTimeout replaces DefaultTimeout.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) {
		c.timeout = d
	}
}

// WithHTTPClient makes the Client send requests through a copy of hc. The
// copy gets the Client's timeout; hc itself is left alone.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		c.httpClient = hc
	}
}

// New creates a Client. A nil logger discards failure logs.
func New(baseURL string, logger *jsonlog.Logger, opts ...Option) *Client {
	if logger == nil {
		logger = jsonlog.NewLogger(io.Discard, jsonlog.LevelOff)
	}

	c := &Client{
		baseURL:    strings.TrimSuffix(baseURL, "/"),
		httpClient: &http.Client{},
		timeout:    DefaultTimeout,
		logger:     logger,
	}
	for _, opt := range opts {
		opt(c)
	}

	// Options may come in any order, so the timeout is applied last.
	hc := *c.httpClient
	hc.Timeout = c.timeout
	c.httpClient = &hc

	return c
}

// ListMovies fetches one page of the catalog, newest first.
func (c *Client) ListMovies(ctx context.Context, page, limit int, filters ListFilters) (*MovieList, error) {
	qs := url.Values{}
	qs.Set("pagina", strconv.Itoa(page))
	qs.Set("limite", strconv.Itoa(limit))
	if filters.Genre != "" {
		qs.Set("genero", filters.Genre)
	}
	if filters.Year != nil {
		qs.Set("ano", strconv.Itoa(*filters.Year))
	}

	var list MovieList
	if err := c.do(ctx, http.MethodGet, "/movies", qs, nil, &list); err != nil {
		return nil, err
	}
	return &list, nil
}

// GetMovie fetches a single movie by id.
func (c *Client) GetMovie(ctx context.Context, id string) (*data.Movie, error) {
	var movie data.Movie
	if err := c.do(ctx, http.MethodGet, "/movies/"+url.PathEscape(id), nil, nil, &movie); err != nil {
		return nil, err
	}
	return &movie, nil
}

// CreateMovie adds a movie to the catalog.
func (c *Client) CreateMovie(ctx context.Context, in data.MovieInput) (*MovieResult, error) {
	var res MovieResult
	if err := c.do(ctx, http.MethodPost, "/movies", nil, in, &res); err != nil {
		return nil, err
	}
	return &res, nil
}

// UpdateMovie changes the fields set in in and leaves the rest untouched.
func (c *Client) UpdateMovie(ctx context.Context, id string, in data.MovieInput) (*MovieResult, error) {
	var res MovieResult
	if err := c.do(ctx, http.MethodPut, "/movies/"+url.PathEscape(id), nil, in, &res); err != nil {
		return nil, err
	}
	return &res, nil
}

// DeleteMovie removes a movie and returns it.
func (c *Client) DeleteMovie(ctx context.Context, id string) (*MovieResult, error) {
	var res MovieResult
	if err := c.do(ctx, http.MethodDelete, "/movies/"+url.PathEscape(id), nil, nil, &res); err != nil {
		return nil, err
	}
	return &res, nil
}

// SearchMovies runs a case-insensitive text search.
func (c *Client) SearchMovies(ctx context.Context, term string) (*SearchResult, error) {
	qs := url.Values{}
	qs.Set("termo", term)

	var res SearchResult
	if err := c.do(ctx, http.MethodGet, "/movies/busca", qs, nil, &res); err != nil {
		return nil, err
	}
	return &res, nil
}

// MovieStats fetches the per-genre and overall statistics.
func (c *Client) MovieStats(ctx context.Context) (*data.Stats, error) {
	var stats data.Stats
	if err := c.do(ctx, http.MethodGet, "/movies/estatisticas", nil, nil, &stats); err != nil {
		return nil, err
	}
	return &stats, nil
}

// Health checks that the API and its database are up.
func (c *Client) Health(ctx context.Context) (*Health, error) {
	var h Health
	if err := c.do(ctx, http.MethodGet, "/healthcheck", nil, nil, &h); err != nil {
		return nil, err
	}
	return &h, nil
}

// do sends one request and decodes a successful answer into dst. Failures
// are logged once and returned as they are.
func (c *Client) do(ctx context.Context, method, path string, qs url.Values, body, dst any) error {
	endpoint := c.baseURL + path
	if len(qs) > 0 {
		endpoint += "?" + qs.Encode()
	}

	status, err := c.roundTrip(ctx, method, endpoint, body, dst)
	if err != nil {
		props := map[string]string{
			"method": method,
			"url":    endpoint,
		}
		if status != 0 {
			props["status"] = strconv.Itoa(status)
		}
		c.logger.PrintError(err, props)
	}
	return err
}

func (c *Client) roundTrip(ctx context.Context, method, endpoint string, body, dst any) (int, error) {
	var reader io.Reader
	if body != nil {
		js, err := json.Marshal(body)
		if err != nil {
			return 0, fmt.Errorf("encode request: %w", err)
		}
		reader = bytes.NewReader(js)
	}

	req, err := http.NewRequestWithContext(ctx, method, endpoint, reader)
	if err != nil {
		return 0, err
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("X-Requested-With", "XMLHttpRequest")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return 0, err
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return resp.StatusCode, decodeError(resp)
	}

	if err := json.NewDecoder(resp.Body).Decode(dst); err != nil {
		return resp.StatusCode, fmt.Errorf("decode response: %w", err)
	}
	return resp.StatusCode, nil
}

func decodeError(resp *http.Response) *APIError {
	apiErr := &APIError{StatusCode: resp.StatusCode}

	var payload struct {
		Message string `json:"mensagem"`
		Detail  any    `json:"erro"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&payload); err == nil && payload.Message != "" {
		apiErr.Message = payload.Message
		apiErr.Detail = payload.Detail
	} else {
		apiErr.Message = http.StatusText(resp.StatusCode)
	}
	return apiErr
}
