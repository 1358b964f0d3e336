package main

import (
	"net/http"
)

// healthcheckHandler reports the application status, environment and version.
// It answers 500 when the database does not respond.
func (app *application) healthcheckHandler(w http.ResponseWriter, r *http.Request) {
	err := app.models.Movies.Ping(r.Context())
	if err != nil {
		app.serverErrorResponse(w, r, "Banco de dados indisponível", err)
		return
	}

	env := envelope{
		"status": "disponivel",
		"sistema": map[string]string{
			"ambiente": app.config.Env,
			"versao":   version,
		},
	}

	err = app.writeJSON(w, http.StatusOK, env, nil)
	if err != nil {
		app.serverErrorResponse(w, r, "Erro ao verificar o sistema", err)
	}
}
