package middleware

import (
	"context"
	"errors"
	"net"
	"net/http"

	"github.com/fadhlimu/craftmarket/api/web"
	"github.com/fadhlimu/craftmarket/api/weberr"
	"github.com/fadhlimu/craftmarket/rate"
)

// RateLimit rejects clients that exceed the limiter's budget, keyed by
// remote address. Used on the coupon endpoint to slow down code guessing.
func RateLimit(lim *rate.Limiter) web.Middleware {
	m := func(handler web.Handler) web.Handler {
		h := func(ctx context.Context, w http.ResponseWriter, r *http.Request) error {

			host, _, err := net.SplitHostPort(r.RemoteAddr)
			if err != nil {
				host = r.RemoteAddr
			}

			if !lim.Check(host) {
				err := errors.New("too many requests")
				return weberr.NewError(err, err.Error(), http.StatusTooManyRequests)
			}

			return handler(ctx, w, r)
		}
		return h
	}
	return m
}
