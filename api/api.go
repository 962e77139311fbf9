package api

import (
	"context"
	"net/http"

	"github.com/alexedwards/scs/v2"
	"github.com/fadhlimu/craftmarket/api/background"
	"github.com/fadhlimu/craftmarket/api/middleware"
	"github.com/fadhlimu/craftmarket/api/web"
	"github.com/fadhlimu/craftmarket/config"
	"github.com/fadhlimu/craftmarket/core/cart"
	"github.com/fadhlimu/craftmarket/core/coupon"
	"github.com/fadhlimu/craftmarket/core/order"
	"github.com/fadhlimu/craftmarket/core/product"
	"github.com/fadhlimu/craftmarket/core/wishlist"
	"github.com/fadhlimu/craftmarket/database"
	"github.com/fadhlimu/craftmarket/kv"
	"github.com/fadhlimu/craftmarket/rate"
	"github.com/gorilla/mux"
	"github.com/jmoiron/sqlx"
	"github.com/plutov/paypal/v4"
	"github.com/sirupsen/logrus"
	stripecl "github.com/stripe/stripe-go/v74/client"
)

type APIConfig struct {
	CorsOrigin  string
	Log         logrus.FieldLogger
	DB          *sqlx.DB
	Session     *scs.SessionManager
	Coupons     coupon.Table
	AdminAPIKey string
	CouponLimit *rate.Limiter
	Background  *background.Background
	Paypal      *paypal.Client
	Stripe      *stripecl.API
	StripeCfg   config.Stripe
}

type api struct {
	*mux.Router
	mw  []web.Middleware
	log logrus.FieldLogger
}

func APIMux(cfg APIConfig) http.Handler {
	a := &api{
		Router: mux.NewRouter(),
		log:    cfg.Log,
	}

	a.mw = append(a.mw, middleware.LoadAndSave(cfg.Session))
	a.mw = append(a.mw, middleware.RequestID())
	a.mw = append(a.mw, middleware.Logger(cfg.Log))
	a.mw = append(a.mw, middleware.Errors(cfg.Log))
	a.mw = append(a.mw, middleware.Panics())

	if cfg.CorsOrigin != "" {
		a.mw = append(a.mw, middleware.Cors(cfg.CorsOrigin))

		h := func(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
			w.WriteHeader(http.StatusNoContent)
			return nil
		}

		a.Handle(http.MethodOptions, "/{path:.*}", h)
	}

	admin := middleware.APIKey(cfg.AdminAPIKey)
	sessionKV := kv.NewSession(cfg.Session)

	a.Handle(http.MethodGet, "/health", handleHealth(cfg.DB))

	a.Handle(http.MethodGet, "/products/{id}", product.HandleShow(cfg.DB))
	a.Handle(http.MethodGet, "/products", product.HandleList(cfg.DB))
	a.Handle(http.MethodPost, "/products", product.HandleCreate(cfg.DB), admin)
	a.Handle(http.MethodPut, "/products/{id}", product.HandleUpdate(cfg.DB), admin)

	a.Handle(http.MethodGet, "/cart", cart.HandleShow(sessionKV, cfg.Log))
	a.Handle(http.MethodDelete, "/cart", cart.HandleClear(sessionKV, cfg.Log))
	a.Handle(http.MethodPut, "/cart/items", cart.HandleAddItem(cfg.DB, sessionKV, cfg.Log))
	a.Handle(http.MethodPut, "/cart/items/{product_id}", cart.HandleUpdateItem(sessionKV, cfg.Log))
	a.Handle(http.MethodDelete, "/cart/items/{product_id}", cart.HandleRemoveItem(sessionKV, cfg.Log))
	a.Handle(http.MethodPost, "/cart/coupon", cart.HandleApplyCoupon(sessionKV, cfg.Log, cfg.Coupons), middleware.RateLimit(cfg.CouponLimit))
	a.Handle(http.MethodDelete, "/cart/coupon", cart.HandleRemoveCoupon(sessionKV, cfg.Log))

	a.Handle(http.MethodGet, "/wishlist", wishlist.HandleShow(cfg.DB, sessionKV, cfg.Log))
	a.Handle(http.MethodPut, "/wishlist/{product_id}", wishlist.HandleAdd(sessionKV, cfg.Log))
	a.Handle(http.MethodDelete, "/wishlist/{product_id}", wishlist.HandleRemove(sessionKV, cfg.Log))

	a.Handle(http.MethodPost, "/orders/paypal", order.HandlePaypalCheckout(cfg.DB, cfg.Paypal, sessionKV, cfg.Log))
	a.Handle(http.MethodPost, "/orders/paypal/{id}/capture", order.HandlePaypalCapture(cfg.DB, cfg.Paypal, sessionKV, cfg.Log))
	a.Handle(http.MethodPost, "/orders/stripe", order.HandleStripeCheckout(cfg.DB, cfg.Stripe, cfg.StripeCfg, sessionKV, cfg.Log))
	a.Handle(http.MethodPost, "/orders/stripe/capture", order.HandleStripeCapture(cfg.DB, cfg.StripeCfg, cfg.Background))

	return a.Router
}

func handleHealth(db *sqlx.DB) web.Handler {
	return func(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
		status := "ok"
		code := http.StatusOK

		if err := database.StatusCheck(ctx, db); err != nil {
			status = "db not ready"
			code = http.StatusInternalServerError
		}

		h := struct {
			Status string `json:"status"`
		}{status}
		return web.Respond(ctx, w, h, code)
	}
}

func (a *api) Handle(method string, path string, handler web.Handler, mw ...web.Middleware) {

	handler = web.WrapMiddleware(mw, handler)

	handler = web.WrapMiddleware(a.mw, handler)

	h := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {

		ctx := r.Context()

		if err := handler(ctx, w, r); err != nil {

			a.log.WithFields(logrus.Fields{
				"req_id":  middleware.ContextRequestID(ctx),
				"message": err,
			}).Error("ERROR")
		}
	})

	a.Router.Handle(path, h).Methods(method)
}
