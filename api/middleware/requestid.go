package middleware

import (
	"context"
	"net/http"

	"github.com/fadhlimu/craftmarket/api/web"
	"github.com/google/uuid"
)

// RequestIDHeader lets a proxy or test inject its own correlation id.
const RequestIDHeader = "X-Request-Id"

// requestIDLengthLimit truncates injected ids so a client cannot bloat the
// logs.
const requestIDLengthLimit = 128

type ctxKey int

const requestIDKey ctxKey = 1

// RequestID tags the request context with the inbound correlation id, or a
// fresh one when the header is absent.
func RequestID() web.Middleware {
	m := func(handler web.Handler) web.Handler {
		h := func(ctx context.Context, w http.ResponseWriter, r *http.Request) error {

			id := r.Header.Get(RequestIDHeader)
			switch {
			case id == "":
				id = uuid.NewString()
			case len(id) > requestIDLengthLimit:
				id = id[:requestIDLengthLimit]
			}

			ctx = context.WithValue(ctx, requestIDKey, id)
			return handler(ctx, w, r)
		}
		return h
	}
	return m
}

// ContextRequestID returns the id RequestID stored, empty when the
// middleware did not run.
func ContextRequestID(ctx context.Context) string {
	if id, ok := ctx.Value(requestIDKey).(string); ok {
		return id
	}
	return ""
}
