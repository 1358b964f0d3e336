package main

import (
	"bytes"
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/goccy/go-json"
	"github.com/hafizmfadli/movie-catalog/internal/client"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const movieJSON = `{
	"_id": "65f1c2a9e4b0a1b2c3d4e5f6",
	"titulo": "Casablanca",
	"ano": 1942,
	"poster": "p.jpg",
	"sinopse": "Um clássico.",
	"generos": ["Drama", "Romance"],
	"diretor": "Michael Curtiz",
	"atores": ["Humphrey Bogart"],
	"imdb": {"avaliacao": 8.5, "votos": 600000},
	"dataAdicionado": "2024-03-10T09:30:00Z"
}`

// fakeAPI serves canned answers and records the last request body.
type fakeAPI struct {
	lastMethod string
	lastQuery  string
	lastBody   map[string]any
	calls      int
}

func (f *fakeAPI) handler() http.Handler {
	mux := http.NewServeMux()

	reply := func(w http.ResponseWriter, status int, body string) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		_, _ = io.WriteString(w, body)
	}

	record := func(r *http.Request) {
		f.calls++
		f.lastMethod = r.Method
		f.lastQuery = r.URL.RawQuery
		f.lastBody = nil
		if b, _ := io.ReadAll(r.Body); len(b) > 0 {
			_ = json.Unmarshal(b, &f.lastBody)
		}
	}

	mux.HandleFunc("GET /api/movies", func(w http.ResponseWriter, r *http.Request) {
		record(r)
		reply(w, http.StatusOK, `{"dados":[{"_id":"65f1c2a9e4b0a1b2c3d4e5f6","titulo":"Casablanca","ano":1942,"poster":"p.jpg","generos":["Drama"],"imdb":{"avaliacao":8.5}}],"totalPaginas":1,"paginaAtual":1,"totalFilmes":1}`)
	})
	mux.HandleFunc("POST /api/movies", func(w http.ResponseWriter, r *http.Request) {
		record(r)
		reply(w, http.StatusCreated, `{"mensagem":"Filme criado com sucesso","filme":`+movieJSON+`}`)
	})
	mux.HandleFunc("GET /api/movies/busca", func(w http.ResponseWriter, r *http.Request) {
		record(r)
		reply(w, http.StatusOK, `{"resultados":[`+movieJSON+`],"total":1,"termo":"casa"}`)
	})
	mux.HandleFunc("GET /api/movies/estatisticas", func(w http.ResponseWriter, r *http.Request) {
		record(r)
		reply(w, http.StatusOK, `{"porGenero":[{"genero":"Drama","quantidade":2,"avaliacaoMedia":4,"anoMedio":2000}],"geral":{"totalFilmes":2,"avaliacaoMedia":4,"anoMaisAntigo":1999,"anoMaisRecente":2001,"mediaAno":2000}}`)
	})
	mux.HandleFunc("GET /api/movies/65f1c2a9e4b0a1b2c3d4e5f6", func(w http.ResponseWriter, r *http.Request) {
		record(r)
		reply(w, http.StatusOK, movieJSON)
	})
	mux.HandleFunc("PUT /api/movies/65f1c2a9e4b0a1b2c3d4e5f6", func(w http.ResponseWriter, r *http.Request) {
		record(r)
		reply(w, http.StatusOK, `{"mensagem":"Filme atualizado com sucesso","filme":`+movieJSON+`}`)
	})
	mux.HandleFunc("DELETE /api/movies/65f1c2a9e4b0a1b2c3d4e5f6", func(w http.ResponseWriter, r *http.Request) {
		record(r)
		reply(w, http.StatusOK, `{"mensagem":"Filme excluído com sucesso","filme":`+movieJSON+`}`)
	})
	mux.HandleFunc("GET /api/movies/{id}", func(w http.ResponseWriter, r *http.Request) {
		record(r)
		reply(w, http.StatusNotFound, `{"mensagem":"Filme não encontrado"}`)
	})

	return mux
}

func run(t *testing.T, args ...string) (*fakeAPI, string, error) {
	t.Helper()

	api := &fakeAPI{}
	srv := httptest.NewServer(api.handler())
	t.Cleanup(srv.Close)

	var out, errOut bytes.Buffer
	app := newApp()
	app.Writer = &out
	app.ErrWriter = &errOut

	err := app.Run(context.Background(), append([]string{"moviectl", "--api", srv.URL + "/api"}, args...))
	return api, out.String(), err
}

func TestList(t *testing.T) {
	api, out, err := run(t, "list", "--pagina", "2", "--limite", "5", "--genero", "Drama", "--ano", "1942")
	require.NoError(t, err)

	assert.Contains(t, api.lastQuery, "pagina=2")
	assert.Contains(t, api.lastQuery, "limite=5")
	assert.Contains(t, api.lastQuery, "genero=Drama")
	assert.Contains(t, api.lastQuery, "ano=1942")

	assert.Contains(t, out, "65f1c2a9e4b0a1b2c3d4e5f6")
	assert.Contains(t, out, "Casablanca")
	assert.Contains(t, out, "Página 1 de 1 (1 filmes)")
}

func TestShow(t *testing.T) {
	_, out, err := run(t, "show", "65f1c2a9e4b0a1b2c3d4e5f6")
	require.NoError(t, err)

	assert.Contains(t, out, "Michael Curtiz")
	assert.Contains(t, out, "Drama, Romance")
	assert.Contains(t, out, "8.5 (600000 votos)")
	assert.Contains(t, out, "2024-03-10")
}

func TestShowNotFound(t *testing.T) {
	_, out, err := run(t, "show", "000000000000000000000000")
	require.Error(t, err)
	assert.True(t, client.IsNotFound(err))
	assert.Contains(t, err.Error(), "Filme não encontrado")
	assert.Empty(t, out)
}

func TestMissingArguments(t *testing.T) {
	for _, args := range [][]string{{"show"}, {"delete"}, {"edit"}, {"search"}} {
		api, _, err := run(t, args...)
		require.Error(t, err, args)
		assert.Zero(t, api.calls, "no request for %v", args)
	}
}

func TestSearch(t *testing.T) {
	api, out, err := run(t, "search", "casa")
	require.NoError(t, err)

	assert.Equal(t, "termo=casa", api.lastQuery)
	assert.Contains(t, out, `1 resultado(s) para "casa"`)
	assert.Contains(t, out, "Casablanca")
}

func TestStats(t *testing.T) {
	_, out, err := run(t, "stats")
	require.NoError(t, err)

	assert.Contains(t, out, "Total de filmes:")
	assert.Contains(t, out, "1999")
	assert.Contains(t, out, "2001")
	assert.Contains(t, out, "Drama")
}

func TestAdd(t *testing.T) {
	api, out, err := run(t, "add",
		"--titulo", "Casablanca", "--ano", "1942",
		"--genero", "Drama", "--genero", "Romance",
		"--avaliacao", "8.5")
	require.NoError(t, err)

	assert.Equal(t, http.MethodPost, api.lastMethod)
	assert.Equal(t, "Casablanca", api.lastBody["titulo"])
	assert.Equal(t, float64(1942), api.lastBody["ano"])
	assert.Equal(t, []any{"Drama", "Romance"}, api.lastBody["generos"])
	assert.Equal(t, map[string]any{"avaliacao": 8.5}, api.lastBody["imdb"])
	assert.NotContains(t, api.lastBody, "diretor")

	assert.Contains(t, out, "Filme criado com sucesso")
}

func TestAddRequiresTitleAndYear(t *testing.T) {
	api, _, err := run(t, "add", "--titulo", "Casablanca")
	require.Error(t, err)
	assert.Zero(t, api.calls)
}

func TestEditSendsOnlyGivenFields(t *testing.T) {
	api, out, err := run(t, "edit", "--ano", "1943", "65f1c2a9e4b0a1b2c3d4e5f6")
	require.NoError(t, err)

	assert.Equal(t, http.MethodPut, api.lastMethod)
	assert.Equal(t, map[string]any{"ano": float64(1943)}, api.lastBody)
	assert.Contains(t, out, "Filme atualizado com sucesso")
}

func TestEditWithoutFields(t *testing.T) {
	api, _, err := run(t, "edit", "65f1c2a9e4b0a1b2c3d4e5f6")
	require.ErrorIs(t, err, errNothingToUpdate)
	assert.Zero(t, api.calls)
}

func TestDelete(t *testing.T) {
	api, out, err := run(t, "delete", "65f1c2a9e4b0a1b2c3d4e5f6")
	require.NoError(t, err)

	assert.Equal(t, http.MethodDelete, api.lastMethod)
	assert.Contains(t, out, "Filme excluído com sucesso")
}
