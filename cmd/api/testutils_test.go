package main

import (
	"bytes"
	"context"
	"io"
	"math"
	"net/http"
	"net/http/httptest"
	"sort"
	"strings"
	"sync"
	"testing"

	"github.com/goccy/go-json"
	"github.com/hafizmfadli/movie-catalog/internal/config"
	"github.com/hafizmfadli/movie-catalog/internal/data"
	"github.com/hafizmfadli/movie-catalog/internal/jsonlog"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/v2/bson"
)

// fakeMovies is an in-memory stand-in for data.MovieModel.
type fakeMovies struct {
	mu     sync.Mutex
	movies map[bson.ObjectID]*data.Movie
	stats  *data.Stats

	// err, when set, is returned by every method.
	err error

	searches []string
}

func newFakeMovies() *fakeMovies {
	return &fakeMovies{movies: make(map[bson.ObjectID]*data.Movie)}
}

func (f *fakeMovies) Insert(_ context.Context, movie *data.Movie) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.err != nil {
		return f.err
	}
	for _, m := range f.movies {
		if m.Title == movie.Title {
			return data.ErrDuplicateTitle
		}
	}

	movie.ID = bson.NewObjectID()
	stored := *movie
	f.movies[movie.ID] = &stored
	return nil
}

func (f *fakeMovies) Get(_ context.Context, id bson.ObjectID) (*data.Movie, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.err != nil {
		return nil, f.err
	}
	m, ok := f.movies[id]
	if !ok {
		return nil, data.ErrRecordNotFound
	}
	movie := *m
	return &movie, nil
}

func (f *fakeMovies) Update(_ context.Context, id bson.ObjectID, in data.MovieInput) (*data.Movie, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.err != nil {
		return nil, f.err
	}
	m, ok := f.movies[id]
	if !ok {
		return nil, data.ErrRecordNotFound
	}

	if in.Title != nil {
		for otherID, other := range f.movies {
			if otherID != id && other.Title == *in.Title {
				return nil, data.ErrDuplicateTitle
			}
		}
		m.Title = *in.Title
	}
	if in.Year != nil {
		m.Year = *in.Year
	}
	if in.Poster != nil {
		m.Poster = *in.Poster
	}
	if in.Synopsis != nil {
		m.Synopsis = *in.Synopsis
	}
	if in.Genres != nil {
		m.Genres = *in.Genres
	}
	if in.Director != nil {
		m.Director = *in.Director
	}
	if in.Cast != nil {
		m.Cast = *in.Cast
	}
	if in.Rating != nil {
		if in.Rating.Score != nil {
			m.Rating.Score = *in.Rating.Score
		}
		if in.Rating.VoteCount != nil {
			m.Rating.VoteCount = *in.Rating.VoteCount
		}
		if in.Rating.ExternalID != nil {
			m.Rating.ExternalID = in.Rating.ExternalID
		}
	}

	movie := *m
	return &movie, nil
}

func (f *fakeMovies) Delete(_ context.Context, id bson.ObjectID) (*data.Movie, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.err != nil {
		return nil, f.err
	}
	m, ok := f.movies[id]
	if !ok {
		return nil, data.ErrRecordNotFound
	}
	delete(f.movies, id)
	return m, nil
}

func (f *fakeMovies) GetAll(_ context.Context, filters data.Filters) ([]*data.MovieSummary, data.Metadata, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.err != nil {
		return nil, data.Metadata{}, f.err
	}

	var matched []*data.Movie
	for _, m := range f.movies {
		if filters.Genre != "" && !contains(m.Genres, filters.Genre) {
			continue
		}
		if filters.Year != nil && m.Year != *filters.Year {
			continue
		}
		matched = append(matched, m)
	}
	sort.Slice(matched, func(i, j int) bool { return matched[i].Year > matched[j].Year })

	summaries := []*data.MovieSummary{}
	start := (filters.Page - 1) * filters.PageSize
	for i := start; i < len(matched) && i < start+filters.PageSize; i++ {
		m := matched[i]
		summaries = append(summaries, &data.MovieSummary{
			ID: m.ID, Title: m.Title, Year: m.Year, Poster: m.Poster, Genres: m.Genres,
			Rating: data.SummaryRating{Score: m.Rating.Score},
		})
	}

	return summaries, data.Metadata{
		CurrentPage:  filters.Page,
		PageSize:     filters.PageSize,
		LastPage:     int(math.Ceil(float64(len(matched)) / float64(filters.PageSize))),
		TotalRecords: len(matched),
	}, nil
}

func (f *fakeMovies) Search(_ context.Context, term string) ([]*data.Movie, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.searches = append(f.searches, term)
	if f.err != nil {
		return nil, f.err
	}

	results := []*data.Movie{}
	for _, m := range f.movies {
		if strings.Contains(strings.ToLower(m.Title), strings.ToLower(term)) {
			results = append(results, m)
		}
	}
	return results, nil
}

func (f *fakeMovies) Stats(_ context.Context) (*data.Stats, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.err != nil {
		return nil, f.err
	}
	if f.stats != nil {
		return f.stats, nil
	}
	return &data.Stats{ByGenre: []data.GenreStats{}}, nil
}

func (f *fakeMovies) Ping(_ context.Context) error {
	return f.err
}

func contains(values []string, v string) bool {
	for _, s := range values {
		if s == v {
			return true
		}
	}
	return false
}

// newTestApplication returns an application backed by movies, with logging
// and rate limiting off.
func newTestApplication(t *testing.T, movies *fakeMovies) *application {
	t.Helper()

	cfg := config.Default()
	cfg.Limiter.Enabled = false

	return &application{
		config: cfg,
		logger: jsonlog.NewLogger(io.Discard, jsonlog.LevelOff),
		models: data.Models{Movies: movies},
	}
}

type response struct {
	status  int
	headers http.Header
	body    []byte
}

// decode unmarshals the response body into a generic map.
func (r response) decode(t *testing.T) map[string]any {
	t.Helper()

	var body map[string]any
	require.NoError(t, json.Unmarshal(r.body, &body), string(r.body))
	return body
}

// do sends a request through the full middleware chain.
func do(t *testing.T, h http.Handler, method, target string, body string, headers map[string]string) response {
	t.Helper()

	var reader io.Reader
	if body != "" {
		reader = bytes.NewBufferString(body)
	}

	req := httptest.NewRequest(method, target, reader)
	for k, v := range headers {
		req.Header.Set(k, v)
	}

	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)

	rs := rr.Result()
	defer rs.Body.Close()

	b, err := io.ReadAll(rs.Body)
	require.NoError(t, err)

	return response{status: rs.StatusCode, headers: rs.Header, body: b}
}

func seed(t *testing.T, movies *fakeMovies, title string, year int, genres ...string) *data.Movie {
	t.Helper()

	in := data.MovieInput{Title: &title, Year: &year}
	if genres != nil {
		in.Genres = &genres
	}
	movie := data.NewMovie(in, testTime)
	require.NoError(t, movies.Insert(context.Background(), movie))
	return movie
}
