package wishlist

import (
	"context"
	"net/http"

	"github.com/fadhlimu/craftmarket/api/web"
	"github.com/fadhlimu/craftmarket/api/weberr"
	"github.com/fadhlimu/craftmarket/core/product"
	"github.com/fadhlimu/craftmarket/kv"
	"github.com/fadhlimu/craftmarket/validate"
	"github.com/jmoiron/sqlx"
	"github.com/sirupsen/logrus"
)

// HandleShow resolves the saved ids to full products. Products that have
// left the catalog are silently skipped.
func HandleShow(db *sqlx.DB, kvs kv.Store, log logrus.FieldLogger) web.Handler {
	return func(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
		wl := Load(ctx, kvs, Key, log)

		ps, err := product.FetchMany(ctx, db, wl.IDs())
		if err != nil {
			return err
		}

		return web.Respond(ctx, w, ps, http.StatusOK)
	}
}

func HandleAdd(kvs kv.Store, log logrus.FieldLogger) web.Handler {
	return func(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
		id := web.Param(r, "product_id")
		if err := validate.CheckID(id); err != nil {
			return weberr.NewError(err, err.Error(), http.StatusBadRequest)
		}

		wl := Load(ctx, kvs, Key, log)
		if err := wl.Add(ctx, id); err != nil {
			log.Warnf("continuing without persistence: %v", err)
		}

		return web.Respond(ctx, w, wl.IDs(), http.StatusOK)
	}
}

func HandleRemove(kvs kv.Store, log logrus.FieldLogger) web.Handler {
	return func(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
		id := web.Param(r, "product_id")

		wl := Load(ctx, kvs, Key, log)
		if err := wl.Remove(ctx, id); err != nil {
			log.Warnf("continuing without persistence: %v", err)
		}

		return web.Respond(ctx, w, wl.IDs(), http.StatusOK)
	}
}
