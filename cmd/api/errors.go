package main

import (
	"net/http"
)

// logError is generic helper for logging error message.
func (app *application) logError(r *http.Request, err error) {
	props := map[string]string{
		"request_method": r.Method,
		"request_url":    r.URL.String(),
	}
	if id := app.contextGetRequestID(r); id != "" {
		props["request_id"] = id
	}

	app.logger.PrintError(err, props)
}

// errorResponse is generic helper for sending JSON-formatted error message.
// The body is {"mensagem": message, "erro": detail}; detail is left out when nil.
func (app *application) errorResponse(w http.ResponseWriter, r *http.Request, status int, message string, detail interface{}) {
	env := envelope{
		"mensagem": message,
	}
	if detail != nil {
		env["erro"] = detail
	}

	err := app.writeJSON(w, status, env, nil)
	if err != nil {
		app.logError(r, err)
		w.WriteHeader(http.StatusInternalServerError)
	}
}

// serverErrorResponse logs err and sends a 500 Internal Server Error with a
// message describing what the handler was doing.
func (app *application) serverErrorResponse(w http.ResponseWriter, r *http.Request, message string, err error) {
	app.logError(r, err)

	app.errorResponse(w, r, http.StatusInternalServerError, message, err.Error())
}

// notFoundResponse will be used to send a 404 Not Found status code with JSON formatted
func (app *application) notFoundResponse(w http.ResponseWriter, r *http.Request) {
	app.errorResponse(w, r, http.StatusNotFound, "o recurso solicitado não foi encontrado", nil)
}

// movieNotFoundResponse sends a 404 for an id that does not resolve to a movie.
func (app *application) movieNotFoundResponse(w http.ResponseWriter, r *http.Request) {
	app.errorResponse(w, r, http.StatusNotFound, "Filme não encontrado", nil)
}

// methodNotAllowedResponse will be used to send a 405 Method Not Allowed status code with JSON formatted
func (app *application) methodNotAllowedResponse(w http.ResponseWriter, r *http.Request) {
	app.errorResponse(w, r, http.StatusMethodNotAllowed, "método "+r.Method+" não suportado para este recurso", nil)
}

// badRequestResponse will be used to send a 400 Bad Request status code with JSON formatted
func (app *application) badRequestResponse(w http.ResponseWriter, r *http.Request, err error) {
	app.errorResponse(w, r, http.StatusBadRequest, "Requisição inválida", err.Error())
}

// failedValidationResponse sends a 400 Bad Request carrying the field errors.
func (app *application) failedValidationResponse(w http.ResponseWriter, r *http.Request, errors map[string]string) {
	app.errorResponse(w, r, http.StatusBadRequest, "Dados do filme inválidos", errors)
}

// duplicateTitleResponse sends a 400 Bad Request when the title is taken.
func (app *application) duplicateTitleResponse(w http.ResponseWriter, r *http.Request) {
	app.errorResponse(w, r, http.StatusBadRequest, "Filme com este título já existe", nil)
}

// missingSearchTermResponse sends a 400 Bad Request when a search has no term.
func (app *application) missingSearchTermResponse(w http.ResponseWriter, r *http.Request) {
	app.errorResponse(w, r, http.StatusBadRequest, "Termo de busca é obrigatório", nil)
}

// rateLimitExceededResponse will be used to send a 429 Too Many Requests status code with JSON formatted
func (app *application) rateLimitExceededResponse(w http.ResponseWriter, r *http.Request) {
	app.errorResponse(w, r, http.StatusTooManyRequests, "limite de requisições excedido", nil)
}
