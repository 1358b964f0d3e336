package main

import (
	"context"
	"net/http"
)

type contextKey string

const requestIDContextKey = contextKey("requestID")

// contextSetRequestID returns a copy of r carrying id.
func (app *application) contextSetRequestID(r *http.Request, id string) *http.Request {
	ctx := context.WithValue(r.Context(), requestIDContextKey, id)
	return r.WithContext(ctx)
}

// contextGetRequestID returns the id set by the requestID middleware, or ""
// outside of it.
func (app *application) contextGetRequestID(r *http.Request) string {
	id, _ := r.Context().Value(requestIDContextKey).(string)
	return id
}
