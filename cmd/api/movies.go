package main

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/hafizmfadli/movie-catalog/internal/data"
	"github.com/hafizmfadli/movie-catalog/internal/validator"
	"github.com/julienschmidt/httprouter"
)

// createMovieHandler for the "POST /api/movies" endpoint.
func (app *application) createMovieHandler(w http.ResponseWriter, r *http.Request) {
	var input data.MovieInput

	err := app.readJSON(w, r, &input)
	if err != nil {
		app.badRequestResponse(w, r, err)
		return
	}

	v := validator.New()

	if data.ValidateMovieInput(v, input); !v.Valid() {
		app.failedValidationResponse(w, r, v.Errors)
		return
	}

	movie := data.NewMovie(input, time.Now().UTC())

	if data.ValidateMovie(v, movie); !v.Valid() {
		app.failedValidationResponse(w, r, v.Errors)
		return
	}

	err = app.models.Movies.Insert(r.Context(), movie)
	if err != nil {
		switch {
		case errors.Is(err, data.ErrDuplicateTitle):
			app.duplicateTitleResponse(w, r)
		default:
			app.serverErrorResponse(w, r, "Erro ao criar filme", err)
		}
		return
	}

	// Let the client know where to find the newly-created movie.
	headers := make(http.Header)
	headers.Set("Location", "/api/movies/"+movie.ID.Hex())

	err = app.writeJSON(w, http.StatusCreated, envelope{"mensagem": "Filme criado com sucesso", "filme": movie}, headers)
	if err != nil {
		app.serverErrorResponse(w, r, "Erro ao criar filme", err)
	}
}

// movieResourceHandler serves every GET below /api/movies/. httprouter does
// not allow the static /busca and /estatisticas segments to live next to the
// :id parameter, so they are dispatched here.
func (app *application) movieResourceHandler(w http.ResponseWriter, r *http.Request) {
	switch httprouter.ParamsFromContext(r.Context()).ByName("id") {
	case "busca":
		app.searchMoviesHandler(w, r)
	case "estatisticas":
		app.movieStatsHandler(w, r)
	default:
		app.showMovieHandler(w, r)
	}
}

// showMovieHandler for the "GET /api/movies/:id" endpoint.
func (app *application) showMovieHandler(w http.ResponseWriter, r *http.Request) {
	id, err := app.readIDParam(r)
	if err != nil {
		app.movieNotFoundResponse(w, r)
		return
	}

	movie, err := app.models.Movies.Get(r.Context(), id)
	if err != nil {
		switch {
		case errors.Is(err, data.ErrRecordNotFound):
			app.movieNotFoundResponse(w, r)
		default:
			app.serverErrorResponse(w, r, "Erro ao buscar filme", err)
		}
		return
	}

	err = app.writeJSON(w, http.StatusOK, movie, nil)
	if err != nil {
		app.serverErrorResponse(w, r, "Erro ao buscar filme", err)
	}
}

// updateMovieHandler for the "PUT /api/movies/:id" endpoint. Only the fields
// present in the body are changed.
func (app *application) updateMovieHandler(w http.ResponseWriter, r *http.Request) {
	id, err := app.readIDParam(r)
	if err != nil {
		app.movieNotFoundResponse(w, r)
		return
	}

	var input data.MovieInput

	err = app.readJSON(w, r, &input)
	if err != nil {
		app.badRequestResponse(w, r, err)
		return
	}

	v := validator.New()

	if data.ValidateMovieUpdate(v, input); !v.Valid() {
		app.failedValidationResponse(w, r, v.Errors)
		return
	}

	movie, err := app.models.Movies.Update(r.Context(), id, input)
	if err != nil {
		switch {
		case errors.Is(err, data.ErrRecordNotFound):
			app.movieNotFoundResponse(w, r)
		case errors.Is(err, data.ErrDuplicateTitle):
			app.duplicateTitleResponse(w, r)
		default:
			app.serverErrorResponse(w, r, "Erro ao atualizar filme", err)
		}
		return
	}

	err = app.writeJSON(w, http.StatusOK, envelope{"mensagem": "Filme atualizado com sucesso", "filme": movie}, nil)
	if err != nil {
		app.serverErrorResponse(w, r, "Erro ao atualizar filme", err)
	}
}

// deleteMovieHandler for the "DELETE /api/movies/:id" endpoint.
func (app *application) deleteMovieHandler(w http.ResponseWriter, r *http.Request) {
	id, err := app.readIDParam(r)
	if err != nil {
		app.movieNotFoundResponse(w, r)
		return
	}

	movie, err := app.models.Movies.Delete(r.Context(), id)
	if err != nil {
		switch {
		case errors.Is(err, data.ErrRecordNotFound):
			app.movieNotFoundResponse(w, r)
		default:
			app.serverErrorResponse(w, r, "Erro ao excluir filme", err)
		}
		return
	}

	err = app.writeJSON(w, http.StatusOK, envelope{"mensagem": "Filme excluído com sucesso", "filme": movie}, nil)
	if err != nil {
		app.serverErrorResponse(w, r, "Erro ao excluir filme", err)
	}
}

// listMoviesHandler for the "GET /api/movies" endpoint.
func (app *application) listMoviesHandler(w http.ResponseWriter, r *http.Request) {
	v := validator.New()

	qs := r.URL.Query()

	filters := data.Filters{
		Page:     app.readPositiveInt(qs, "pagina", data.DefaultPage),
		PageSize: app.readPositiveInt(qs, "limite", data.DefaultPageSize),
		Genre:    app.readString(qs, "genero", ""),
	}

	if s := app.readString(qs, "ano", ""); s != "" {
		year, err := strconv.Atoi(s)
		if err != nil {
			v.AddError("ano", "must be an integer value")
		} else {
			filters.Year = &year
		}
	}

	if data.ValidateFilters(v, filters); !v.Valid() {
		app.failedValidationResponse(w, r, v.Errors)
		return
	}

	movies, metadata, err := app.models.Movies.GetAll(r.Context(), filters)
	if err != nil {
		app.serverErrorResponse(w, r, "Erro ao buscar filmes", err)
		return
	}

	err = app.writeJSON(w, http.StatusOK, envelope{
		"dados":        movies,
		"totalPaginas": metadata.LastPage,
		"paginaAtual":  metadata.CurrentPage,
		"totalFilmes":  metadata.TotalRecords,
	}, nil)
	if err != nil {
		app.serverErrorResponse(w, r, "Erro ao buscar filmes", err)
	}
}

// searchMoviesHandler for the "GET /api/movies/busca" endpoint.
func (app *application) searchMoviesHandler(w http.ResponseWriter, r *http.Request) {
	term := app.readString(r.URL.Query(), "termo", "")
	if term == "" {
		app.missingSearchTermResponse(w, r)
		return
	}

	movies, err := app.models.Movies.Search(r.Context(), term)
	if err != nil {
		app.serverErrorResponse(w, r, "Erro na busca de filmes", err)
		return
	}

	err = app.writeJSON(w, http.StatusOK, envelope{
		"resultados": movies,
		"total":      len(movies),
		"termo":      term,
	}, nil)
	if err != nil {
		app.serverErrorResponse(w, r, "Erro na busca de filmes", err)
	}
}

// movieStatsHandler for the "GET /api/movies/estatisticas" endpoint.
func (app *application) movieStatsHandler(w http.ResponseWriter, r *http.Request) {
	stats, err := app.models.Movies.Stats(r.Context())
	if err != nil {
		app.serverErrorResponse(w, r, "Erro ao obter estatísticas", err)
		return
	}

	err = app.writeJSON(w, http.StatusOK, stats, nil)
	if err != nil {
		app.serverErrorResponse(w, r, "Erro ao obter estatísticas", err)
	}
}
