package main

import (
	"net/http"
	"os"
	"path"
	"path/filepath"
	"strings"
)

// rootHandler answers "GET /". In production it serves the front-end, in any
// other environment a plain status message.
func (app *application) rootHandler(w http.ResponseWriter, r *http.Request) {
	if app.config.IsProduction() {
		app.serveFrontend(w, r)
		return
	}

	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.Write([]byte("API está funcionando!"))
}

// fallbackHandler handles requests that match no route. In production, GET
// requests outside /api/ belong to the single-page front-end.
func (app *application) fallbackHandler(w http.ResponseWriter, r *http.Request) {
	if app.config.IsProduction() && r.Method == http.MethodGet && !strings.HasPrefix(r.URL.Path, "/api/") {
		app.serveFrontend(w, r)
		return
	}

	app.notFoundResponse(w, r)
}

// serveFrontend serves a file from the static directory, falling back to
// index.html so that client-side routes resolve.
func (app *application) serveFrontend(w http.ResponseWriter, r *http.Request) {
	dir := app.config.StaticDir

	name := filepath.Join(dir, filepath.FromSlash(path.Clean("/"+r.URL.Path)))

	info, err := os.Stat(name)
	if err != nil || info.IsDir() {
		name = filepath.Join(dir, "index.html")
		if _, err := os.Stat(name); err != nil {
			app.notFoundResponse(w, r)
			return
		}
	}

	http.ServeFile(w, r, name)
}
