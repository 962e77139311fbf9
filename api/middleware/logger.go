package middleware

import (
	"context"
	"net/http"
	"time"

	"github.com/fadhlimu/craftmarket/api/web"
	"github.com/sirupsen/logrus"
	"github.com/zenazn/goji/web/mutil"
)

// Logger writes a started/completed pair per request. The writer is wrapped
// so the completed line can carry the status code and the bytes written.
func Logger(log logrus.FieldLogger) web.Middleware {
	m := func(handler web.Handler) web.Handler {
		h := func(ctx context.Context, w http.ResponseWriter, r *http.Request) error {

			entry := log.WithFields(logrus.Fields{
				"req_id":      ContextRequestID(ctx),
				"method":      r.Method,
				"path":        r.URL.Path,
				"remote_addr": r.RemoteAddr,
			})

			entry.Info("request started")
			start := time.Now().UTC()

			lw := mutil.WrapWriter(w)
			err := handler(ctx, lw, r)

			entry.WithFields(logrus.Fields{
				"status_code": lw.Status(),
				"bytes":       lw.BytesWritten(),
				"duration":    time.Since(start).String(),
			}).Info("request completed")

			return err
		}
		return h
	}
	return m
}
