package middleware

import (
	"context"
	"net/http"

	"github.com/alexedwards/scs/v2"
	"github.com/fadhlimu/craftmarket/api/web"
)

// LoadAndSave adapts the scs middleware so every handler runs with the
// caller's session loaded into the context and committed on the way out.
// The session is what scopes carts and wishlists to a browser.
func LoadAndSave(session *scs.SessionManager) web.Middleware {
	m := func(handler web.Handler) web.Handler {
		h := func(ctx context.Context, w http.ResponseWriter, r *http.Request) error {

			var err error
			wrapped := session.LoadAndSave(http.HandlerFunc(func(ww http.ResponseWriter, rr *http.Request) {
				err = handler(rr.Context(), ww, rr)
			}))

			wrapped.ServeHTTP(w, r.WithContext(ctx))
			return err
		}
		return h
	}
	return m
}
