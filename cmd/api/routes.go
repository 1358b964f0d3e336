package main

import (
	"context"
	"net/http"

	"github.com/julienschmidt/httprouter"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// routes returns the router wrapped in the middleware chain. Background work
// started by the chain stops when ctx is done.
func (app *application) routes(ctx context.Context) http.Handler {
	router := httprouter.New()

	router.NotFound = http.HandlerFunc(app.fallbackHandler)
	router.MethodNotAllowed = http.HandlerFunc(app.methodNotAllowedResponse)

	router.HandlerFunc(http.MethodGet, "/", app.rootHandler)
	router.HandlerFunc(http.MethodGet, "/api/healthcheck", app.healthcheckHandler)

	router.HandlerFunc(http.MethodGet, "/api/movies", app.listMoviesHandler)
	router.HandlerFunc(http.MethodPost, "/api/movies", app.createMovieHandler)
	router.HandlerFunc(http.MethodGet, "/api/movies/:id", app.movieResourceHandler)
	router.HandlerFunc(http.MethodPut, "/api/movies/:id", app.updateMovieHandler)
	router.HandlerFunc(http.MethodDelete, "/api/movies/:id", app.deleteMovieHandler)

	router.Handler(http.MethodGet, "/metrics", promhttp.Handler())

	return app.metrics(app.requestID(app.recoverPanic(app.enableCORS(app.rateLimit(ctx, router)))))
}
