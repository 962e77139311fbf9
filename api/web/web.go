// Package web is the thin request plumbing every handler is built on:
// context-aware handlers returning errors, middleware wrapping, and JSON
// request/response helpers.
package web

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/gorilla/mux"
)

// Handler is an http.HandlerFunc that takes a context and reports failure
// through an error instead of writing it out itself.
type Handler func(ctx context.Context, w http.ResponseWriter, r *http.Request) error

type Middleware func(Handler) Handler

// WrapMiddleware layers mw around handler so that the first middleware in
// the slice is the outermost at run time. Nil entries are skipped.
func WrapMiddleware(mw []Middleware, handler Handler) Handler {
	for i := len(mw) - 1; i >= 0; i-- {
		if m := mw[i]; m != nil {
			handler = m(handler)
		}
	}
	return handler
}

// Respond writes data as JSON with the given status. A 204 writes the
// status alone.
func Respond(ctx context.Context, w http.ResponseWriter, data interface{}, statusCode int) error {
	if statusCode == http.StatusNoContent {
		w.WriteHeader(statusCode)
		return nil
	}

	b, err := json.Marshal(data)
	if err != nil {
		return fmt.Errorf("cannot marshal response data: %w", err)
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)

	if _, err := w.Write(b); err != nil {
		return fmt.Errorf("cannot write response data: %w", err)
	}
	return nil
}

// maxBodyBytes caps request bodies; the biggest legitimate body here is a
// product payload.
const maxBodyBytes = 1 << 20

// Decode reads the JSON request body into val, rejecting unknown fields.
func Decode(w http.ResponseWriter, r *http.Request, val interface{}) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)

	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	return dec.Decode(val)
}

// Param returns the named route variable, empty when absent.
func Param(r *http.Request, key string) string {
	return mux.Vars(r)[key]
}
