package middleware

import (
	"context"
	"crypto/subtle"
	"errors"
	"net/http"

	"github.com/fadhlimu/craftmarket/api/web"
	"github.com/fadhlimu/craftmarket/api/weberr"
)

// APIKey guards catalog administration. The key travels in the "api_key"
// header.
func APIKey(key string) web.Middleware {
	m := func(handler web.Handler) web.Handler {
		h := func(ctx context.Context, w http.ResponseWriter, r *http.Request) error {

			got := r.Header.Get("api_key")
			if got == "" {
				return weberr.NotAuthorized(errors.New("api key required"))
			}

			if subtle.ConstantTimeCompare([]byte(got), []byte(key)) != 1 {
				return weberr.NotAuthorized(errors.New("invalid api key"))
			}

			return handler(ctx, w, r)
		}
		return h
	}
	return m
}
