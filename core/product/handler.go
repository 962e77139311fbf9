package product

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/fadhlimu/craftmarket/api/web"
	"github.com/fadhlimu/craftmarket/api/weberr"
	"github.com/fadhlimu/craftmarket/validate"
	"github.com/jmoiron/sqlx"
)

func HandleList(db *sqlx.DB) web.Handler {
	return func(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
		var (
			ps  []Product
			err error
		)

		if category := r.URL.Query().Get("category"); category != "" {
			ps, err = FetchByCategory(ctx, db, category)
		} else {
			ps, err = FetchAll(ctx, db)
		}
		if err != nil {
			return err
		}

		return web.Respond(ctx, w, ps, http.StatusOK)
	}
}

func HandleShow(db *sqlx.DB) web.Handler {
	return func(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
		id := web.Param(r, "id")
		if err := validate.CheckID(id); err != nil {
			return weberr.NewError(err, err.Error(), http.StatusBadRequest)
		}

		p, err := Fetch(ctx, db, id)
		if err != nil {
			if errors.Is(err, ErrNotFound) {
				return weberr.NotFound(err)
			}
			return err
		}

		return web.Respond(ctx, w, p, http.StatusOK)
	}
}

func HandleCreate(db *sqlx.DB) web.Handler {
	return func(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
		var pn ProductNew
		if err := web.Decode(w, r, &pn); err != nil {
			return weberr.BadRequest(fmt.Errorf("decoding product: %w", err))
		}

		if err := validate.Check(pn); err != nil {
			return weberr.UnprocessableEntity(err)
		}

		now := time.Now().UTC()
		p := Product{
			ID:           validate.GenerateID(),
			Name:         pn.Name,
			Description:  pn.Description,
			Category:     pn.Category,
			ImageURL:     pn.ImageURL,
			Price:        pn.Price,
			StockCount:   pn.StockCount,
			ShippingCost: pn.ShippingCost,
			FreeShipping: pn.FreeShipping,
			CreatedAt:    now,
			UpdatedAt:    now,
			Version:      1,
		}

		if err := Create(ctx, db, p); err != nil {
			return err
		}

		return web.Respond(ctx, w, p, http.StatusCreated)
	}
}

func HandleUpdate(db *sqlx.DB) web.Handler {
	return func(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
		id := web.Param(r, "id")
		if err := validate.CheckID(id); err != nil {
			return weberr.NewError(err, err.Error(), http.StatusBadRequest)
		}

		var up ProductUp
		if err := web.Decode(w, r, &up); err != nil {
			return weberr.BadRequest(fmt.Errorf("decoding product update: %w", err))
		}

		if err := validate.Check(up); err != nil {
			return weberr.UnprocessableEntity(err)
		}

		p, err := Fetch(ctx, db, id)
		if err != nil {
			if errors.Is(err, ErrNotFound) {
				return weberr.NotFound(err)
			}
			return err
		}

		if up.Name != nil {
			p.Name = *up.Name
		}
		if up.Description != nil {
			p.Description = *up.Description
		}
		if up.Category != nil {
			p.Category = *up.Category
		}
		if up.ImageURL != nil {
			p.ImageURL = *up.ImageURL
		}
		if up.Price != nil {
			p.Price = *up.Price
		}
		if up.StockCount != nil {
			p.StockCount = *up.StockCount
		}
		if up.ShippingCost != nil {
			p.ShippingCost = up.ShippingCost
		}
		if up.FreeShipping != nil {
			p.FreeShipping = *up.FreeShipping
		}
		p.UpdatedAt = time.Now().UTC()

		if err := Update(ctx, db, p); err != nil {
			return err
		}

		return web.Respond(ctx, w, p, http.StatusOK)
	}
}
