package main

import (
	"bytes"
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/hafizmfadli/movie-catalog/internal/jsonlog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCORS(t *testing.T) {
	local := []string{"http://localhost:3000"}

	tests := []struct {
		name            string
		trusted         []string
		method          string
		headers         map[string]string
		wantStatus      int
		wantOrigin      string
		wantCredentials bool
		wantMethods     string
	}{
		{
			name:    "trusted preflight",
			trusted: local,
			method:  http.MethodOptions,
			headers: map[string]string{
				"Origin":                         "http://localhost:3000",
				"Access-Control-Request-Method":  http.MethodPut,
				"Access-Control-Request-Headers": "Content-Type",
			},
			wantStatus:      http.StatusNoContent,
			wantOrigin:      "http://localhost:3000",
			wantCredentials: true,
			wantMethods:     http.MethodPut,
		},
		{
			name:    "untrusted preflight",
			trusted: local,
			method:  http.MethodOptions,
			headers: map[string]string{
				"Origin":                        "http://evil.example",
				"Access-Control-Request-Method": http.MethodDelete,
			},
			wantStatus: http.StatusNoContent,
		},
		{
			name:    "preflight for a method not offered",
			trusted: local,
			method:  http.MethodOptions,
			headers: map[string]string{
				"Origin":                        "http://localhost:3000",
				"Access-Control-Request-Method": http.MethodPatch,
			},
			wantStatus: http.StatusNoContent,
		},
		{
			name:    "wildcard preflight",
			trusted: []string{"*"},
			method:  http.MethodOptions,
			headers: map[string]string{
				"Origin":                         "http://anywhere.example",
				"Access-Control-Request-Method":  http.MethodPost,
				"Access-Control-Request-Headers": "content-type",
			},
			wantStatus:  http.StatusNoContent,
			wantOrigin:  "*",
			wantMethods: http.MethodPost,
		},
		{
			name:    "empty allow-list trusts nobody",
			trusted: nil,
			method:  http.MethodOptions,
			headers: map[string]string{
				"Origin":                        "http://localhost:3000",
				"Access-Control-Request-Method": http.MethodGet,
			},
			wantStatus: http.StatusNoContent,
		},
		{
			name:       "bare options",
			trusted:    local,
			method:     http.MethodOptions,
			wantStatus: http.StatusNoContent,
		},
		{
			name:            "trusted simple request",
			trusted:         local,
			method:          http.MethodGet,
			headers:         map[string]string{"Origin": "http://localhost:3000"},
			wantStatus:      http.StatusOK,
			wantOrigin:      "http://localhost:3000",
			wantCredentials: true,
		},
		{
			name:       "untrusted simple request",
			trusted:    local,
			method:     http.MethodGet,
			headers:    map[string]string{"Origin": "http://evil.example"},
			wantStatus: http.StatusOK,
		},
		{
			name:            "origin case ignored",
			trusted:         []string{"https://Catalog.example"},
			method:          http.MethodGet,
			headers:         map[string]string{"Origin": "https://catalog.example"},
			wantStatus:      http.StatusOK,
			wantOrigin:      "https://catalog.example",
			wantCredentials: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			app := newTestApplication(t, newFakeMovies())
			app.config.CORS.TrustedOrigins = tt.trusted

			rs := do(t, app.routes(t.Context()), tt.method, "/api/movies", "", tt.headers)
			require.Equal(t, tt.wantStatus, rs.status)

			assert.Equal(t, tt.wantOrigin, rs.headers.Get("Access-Control-Allow-Origin"))
			assert.Equal(t, tt.wantMethods, rs.headers.Get("Access-Control-Allow-Methods"))

			if tt.wantCredentials {
				assert.Equal(t, "true", rs.headers.Get("Access-Control-Allow-Credentials"))
			} else {
				assert.Empty(t, rs.headers.Get("Access-Control-Allow-Credentials"))
			}
			if tt.headers["Origin"] != "" {
				assert.Contains(t, rs.headers.Values("Vary"), "Origin")
			}
			if tt.wantMethods != "" {
				assert.Contains(t, rs.headers.Get("Access-Control-Allow-Headers"), "Content-Type")
			}
			if tt.method == http.MethodOptions {
				assert.Empty(t, rs.body)
			}
		})
	}
}

func TestRecoverPanic(t *testing.T) {
	app := newTestApplication(t, newFakeMovies())

	h := app.recoverPanic(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		panic("boom")
	}))

	rs := do(t, h, http.MethodGet, "/", "", nil)
	require.Equal(t, http.StatusInternalServerError, rs.status)
	assert.Equal(t, "close", rs.headers.Get("Connection"))

	body := rs.decode(t)
	assert.Equal(t, "Erro interno do servidor", body["mensagem"])
	assert.Equal(t, "boom", body["erro"])
}

func TestRateLimit(t *testing.T) {
	app := newTestApplication(t, newFakeMovies())
	app.config.Limiter.Enabled = true
	app.config.Limiter.RPS = 1
	app.config.Limiter.Burst = 2

	h := app.rateLimit(t.Context(), http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	send := func(addr string) int {
		req := httptest.NewRequest(http.MethodGet, "/api/movies", nil)
		req.RemoteAddr = addr
		rr := httptest.NewRecorder()
		h.ServeHTTP(rr, req)
		return rr.Code
	}

	assert.Equal(t, http.StatusOK, send("10.0.0.1:1234"))
	assert.Equal(t, http.StatusOK, send("10.0.0.1:1235"))
	assert.Equal(t, http.StatusTooManyRequests, send("10.0.0.1:1236"))

	// Each client address has its own bucket.
	assert.Equal(t, http.StatusOK, send("10.0.0.2:1234"))
}

func TestRateLimitDisabled(t *testing.T) {
	app := newTestApplication(t, newFakeMovies())
	app.config.Limiter.RPS = 1
	app.config.Limiter.Burst = 1

	h := app.rateLimit(t.Context(), http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	for i := 0; i < 5; i++ {
		rr := httptest.NewRecorder()
		h.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/", nil))
		assert.Equal(t, http.StatusOK, rr.Code)
	}
}

func TestVisitorsSweep(t *testing.T) {
	vs := newVisitors(1, 1)
	now := time.Now()

	assert.True(t, vs.allow("10.0.0.1", now))
	assert.True(t, vs.allow("10.0.0.2", now.Add(2*time.Minute)))

	vs.sweep(now.Add(visitorTTL + time.Second))
	assert.Equal(t, 1, vs.len())

	// A forgotten client starts again with a full bucket.
	assert.True(t, vs.allow("10.0.0.1", now.Add(visitorTTL+time.Second)))
}

func TestVisitorsSweepEveryStopsWithContext(t *testing.T) {
	vs := newVisitors(1, 1)
	ctx, cancel := context.WithCancel(context.Background())

	done := make(chan struct{})
	go func() {
		vs.sweepEvery(ctx, time.Millisecond)
		close(done)
	}()

	cancel()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("sweeper kept running after its context was cancelled")
	}
}

func TestRouteLabel(t *testing.T) {
	tests := map[string]string{
		"/api/movies":                          "/api/movies",
		"/api/movies/":                         "/api/movies",
		"/api/movies/busca":                    "/api/movies/busca",
		"/api/movies/estatisticas":             "/api/movies/estatisticas",
		"/api/movies/65f1c2a9e4b0a1b2c3d4e5f6": "/api/movies/:id",
		"/api/healthcheck":                     "/api/healthcheck",
		"/api/unknown":                         "/api/other",
		"/metrics":                             "/metrics",
		"/":                                    "/",
		"/static/js/main.js":                   "static",
	}

	for path, want := range tests {
		assert.Equal(t, want, routeLabel(path), path)
	}
}

func TestMetricsEndpoint(t *testing.T) {
	h := newTestApplication(t, newFakeMovies()).routes(t.Context())

	do(t, h, http.MethodGet, "/api/movies", "", nil)

	rs := do(t, h, http.MethodGet, "/metrics", "", nil)
	require.Equal(t, http.StatusOK, rs.status)
	assert.Contains(t, string(rs.body), "movies_api_requests_total")
}

func TestProductionServesFrontend(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "index.html"), []byte("<html>catalog</html>"), 0o644))
	require.NoError(t, os.MkdirAll(filepath.Join(dir, "static"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "static", "app.js"), []byte("console.log(1)"), 0o644))

	app := newTestApplication(t, newFakeMovies())
	app.config.Env = "production"
	app.config.StaticDir = dir
	h := app.routes(t.Context())

	rs := do(t, h, http.MethodGet, "/", "", nil)
	assert.Equal(t, http.StatusOK, rs.status)
	assert.Contains(t, string(rs.body), "catalog")

	rs = do(t, h, http.MethodGet, "/static/app.js", "", nil)
	assert.Equal(t, http.StatusOK, rs.status)
	assert.Equal(t, "console.log(1)", string(rs.body))

	// Client-side routes fall back to index.html.
	rs = do(t, h, http.MethodGet, "/filmes/123", "", nil)
	assert.Equal(t, http.StatusOK, rs.status)
	assert.Contains(t, string(rs.body), "catalog")

	// Unknown API paths stay JSON.
	rs = do(t, h, http.MethodGet, "/api/nothing", "", nil)
	assert.Equal(t, http.StatusNotFound, rs.status)
	assert.NotEmpty(t, rs.decode(t)["mensagem"])

	// The API still answers normally.
	rs = do(t, h, http.MethodGet, "/api/movies", "", nil)
	assert.Equal(t, http.StatusOK, rs.status)
}

func TestProductionWithoutFrontend(t *testing.T) {
	app := newTestApplication(t, newFakeMovies())
	app.config.Env = "production"
	app.config.StaticDir = t.TempDir()

	rs := do(t, app.routes(t.Context()), http.MethodGet, "/", "", nil)
	assert.Equal(t, http.StatusNotFound, rs.status)
}

func TestRequestID(t *testing.T) {
	app := newTestApplication(t, newFakeMovies())

	var seen string
	h := app.requestID(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = app.contextGetRequestID(r)
	}))

	rs := do(t, h, http.MethodGet, "/", "", nil)
	assert.Len(t, rs.headers.Get("X-Request-ID"), 36)
	assert.Equal(t, rs.headers.Get("X-Request-ID"), seen)

	rs = do(t, h, http.MethodGet, "/", "", map[string]string{"X-Request-ID": "upstream-42"})
	assert.Equal(t, "upstream-42", rs.headers.Get("X-Request-ID"))
	assert.Equal(t, "upstream-42", seen)
}

func TestErrorLogCarriesRequestID(t *testing.T) {
	movies := newFakeMovies()
	movies.err = errors.New("connection refused")

	var buf bytes.Buffer
	app := newTestApplication(t, movies)
	app.logger = jsonlog.NewLogger(&buf, jsonlog.LevelInfo)

	rs := do(t, app.routes(t.Context()), http.MethodGet, "/api/movies", "", map[string]string{"X-Request-ID": "req-7"})
	require.Equal(t, http.StatusInternalServerError, rs.status)

	assert.Contains(t, buf.String(), `"request_id":"req-7"`)
	assert.Contains(t, buf.String(), `"request_url":"/api/movies"`)
}
