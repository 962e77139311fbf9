package cart

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/fadhlimu/craftmarket/api/web"
	"github.com/fadhlimu/craftmarket/api/weberr"
	"github.com/fadhlimu/craftmarket/core/coupon"
	"github.com/fadhlimu/craftmarket/core/pricing"
	"github.com/fadhlimu/craftmarket/core/product"
	"github.com/fadhlimu/craftmarket/kv"
	"github.com/fadhlimu/craftmarket/validate"
	"github.com/jmoiron/sqlx"
	"github.com/sirupsen/logrus"
)

// ItemNew is the request body for adding a product. Quantity defaults to 1.
type ItemNew struct {
	ProductID string `json:"productId" validate:"required"`
	Quantity  *int   `json:"quantity" validate:"omitempty,gt=0"`
}

// QuantityUp sets the quantity of an existing line. Zero removes the line,
// so the field is a required pointer rather than a bare int.
type QuantityUp struct {
	Quantity *int `json:"quantity" validate:"required"`
}

// CouponNew carries the user-entered code.
type CouponNew struct {
	Code string `json:"code"`
}

type payload struct {
	Items   []LineItem        `json:"items"`
	Coupon  *coupon.Applied   `json:"coupon,omitempty"`
	Count   int               `json:"count"`
	Pricing pricing.Breakdown `json:"pricing"`
}

func HandleShow(kvs kv.Store, log logrus.FieldLogger) web.Handler {
	return func(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
		s := Load(ctx, kvs, Key, log)
		return respond(ctx, w, s)
	}
}

func HandleAddItem(db *sqlx.DB, kvs kv.Store, log logrus.FieldLogger) web.Handler {
	return func(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
		var in ItemNew
		if err := web.Decode(w, r, &in); err != nil {
			return weberr.BadRequest(fmt.Errorf("decoding cart item: %w", err))
		}

		if err := validate.Check(in); err != nil {
			return weberr.UnprocessableEntity(err)
		}

		if err := validate.CheckID(in.ProductID); err != nil {
			return weberr.NewError(err, err.Error(), http.StatusBadRequest)
		}

		p, err := product.Fetch(ctx, db, in.ProductID)
		if err != nil {
			if errors.Is(err, product.ErrNotFound) {
				return weberr.NotFound(err)
			}
			return err
		}

		quantity := 1
		if in.Quantity != nil {
			quantity = *in.Quantity
		}

		stock := p.StockCount
		info := ProductInfo{
			ID:           p.ID,
			Name:         p.Name,
			Price:        p.Price,
			InStock:      p.InStock(),
			StockCount:   &stock,
			ShippingCost: p.ShippingCost,
			FreeShipping: p.FreeShipping,
		}

		s := Load(ctx, kvs, Key, log)
		if err := s.Add(ctx, info, quantity); err != nil {
			if rerr := rejection(err, log); rerr != nil {
				return rerr
			}
		}

		return respond(ctx, w, s)
	}
}

func HandleUpdateItem(kvs kv.Store, log logrus.FieldLogger) web.Handler {
	return func(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
		id := web.Param(r, "product_id")

		var in QuantityUp
		if err := web.Decode(w, r, &in); err != nil {
			return weberr.BadRequest(fmt.Errorf("decoding quantity: %w", err))
		}

		if err := validate.Check(in); err != nil {
			return weberr.UnprocessableEntity(err)
		}

		s := Load(ctx, kvs, Key, log)
		if err := s.UpdateQuantity(ctx, id, *in.Quantity); err != nil {
			if rerr := rejection(err, log); rerr != nil {
				return rerr
			}
		}

		return respond(ctx, w, s)
	}
}

func HandleRemoveItem(kvs kv.Store, log logrus.FieldLogger) web.Handler {
	return func(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
		s := Load(ctx, kvs, Key, log)
		if err := s.Remove(ctx, web.Param(r, "product_id")); err != nil {
			if rerr := rejection(err, log); rerr != nil {
				return rerr
			}
		}

		return respond(ctx, w, s)
	}
}

func HandleClear(kvs kv.Store, log logrus.FieldLogger) web.Handler {
	return func(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
		s := Load(ctx, kvs, Key, log)
		if err := s.Clear(ctx); err != nil {
			if rerr := rejection(err, log); rerr != nil {
				return rerr
			}
		}

		return web.Respond(ctx, w, nil, http.StatusNoContent)
	}
}

func HandleApplyCoupon(kvs kv.Store, log logrus.FieldLogger, table coupon.Table) web.Handler {
	return func(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
		var in CouponNew
		if err := web.Decode(w, r, &in); err != nil {
			return weberr.BadRequest(fmt.Errorf("decoding coupon: %w", err))
		}

		s := Load(ctx, kvs, Key, log)
		if err := s.ApplyCoupon(ctx, table, in.Code); err != nil {
			if rerr := rejection(err, log); rerr != nil {
				return rerr
			}
		}

		return respond(ctx, w, s)
	}
}

func HandleRemoveCoupon(kvs kv.Store, log logrus.FieldLogger) web.Handler {
	return func(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
		s := Load(ctx, kvs, Key, log)
		if err := s.RemoveCoupon(ctx); err != nil {
			if rerr := rejection(err, log); rerr != nil {
				return rerr
			}
		}

		return respond(ctx, w, s)
	}
}

// rejection maps store errors to client responses. Persistence failures are
// logged and swallowed: the mutation is applied in memory and the session
// keeps working without the write.
func rejection(err error, log logrus.FieldLogger) error {
	var perr *PersistError
	if errors.As(err, &perr) {
		log.Warnf("continuing without persistence: %v", perr)
		return nil
	}

	var serr *StockError
	var merr *coupon.MinOrderError
	switch {
	case errors.Is(err, ErrOutOfStock),
		errors.Is(err, coupon.ErrEmptyCode),
		errors.Is(err, coupon.ErrUnknownCode):
		return weberr.UnprocessableEntity(err)

	case errors.As(err, &serr):
		return weberr.UnprocessableEntity(err,
			weberr.WithFields(map[string]interface{}{"max_quantity": serr.Max}))

	case errors.As(err, &merr):
		return weberr.UnprocessableEntity(err,
			weberr.WithFields(map[string]interface{}{"min_order": merr.Min}))
	}

	return err
}

func respond(ctx context.Context, w http.ResponseWriter, s *Store) error {
	items := s.Items()
	if items == nil {
		items = []LineItem{}
	}

	p := payload{
		Items:   items,
		Coupon:  s.Applied(),
		Count:   s.Count(),
		Pricing: pricing.Calculate(PricingItems(items), s.Applied()).Rounded(),
	}
	return web.Respond(ctx, w, p, http.StatusOK)
}

// PricingItems projects cart lines onto the pricing input.
func PricingItems(items []LineItem) []pricing.Item {
	out := make([]pricing.Item, 0, len(items))
	for _, it := range items {
		out = append(out, pricing.Item{
			Price:        it.Price,
			Quantity:     it.Quantity,
			ShippingCost: it.ShippingCost,
			FreeShipping: it.FreeShipping,
		})
	}
	return out
}
