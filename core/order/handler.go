package order

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"math"
	"net/http"
	"strconv"
	"time"

	"github.com/fadhlimu/craftmarket/api/background"
	"github.com/fadhlimu/craftmarket/api/web"
	"github.com/fadhlimu/craftmarket/api/weberr"
	"github.com/fadhlimu/craftmarket/config"
	"github.com/fadhlimu/craftmarket/core/cart"
	"github.com/fadhlimu/craftmarket/core/pricing"
	"github.com/fadhlimu/craftmarket/database"
	"github.com/fadhlimu/craftmarket/kv"
	"github.com/fadhlimu/craftmarket/random"
	"github.com/fadhlimu/craftmarket/validate"
	"github.com/jmoiron/sqlx"
	"github.com/plutov/paypal/v4"
	"github.com/sirupsen/logrus"
	"github.com/stripe/stripe-go/v74"
	stripecl "github.com/stripe/stripe-go/v74/client"
	"github.com/stripe/stripe-go/v74/webhook"
)

// checkout prices the session cart for handing to a payment provider.
func checkout(ctx context.Context, kvs kv.Store, log logrus.FieldLogger) (*cart.Store, pricing.Breakdown, error) {
	s := cart.Load(ctx, kvs, cart.Key, log)
	if len(s.Items()) == 0 {
		err := errors.New("no items to checkout")
		return nil, pricing.Breakdown{}, weberr.UnprocessableEntity(err)
	}

	bd := pricing.Calculate(cart.PricingItems(s.Items()), s.Applied())
	return s, bd, nil
}

// prepare records the pending order bound to the provider payment, with its
// line items and the totals the payment was created for.
func prepare(ctx context.Context, db *sqlx.DB, providerID string, s *cart.Store, bd pricing.Breakdown) error {
	err := database.Transaction(db, func(tx sqlx.ExtContext) error {
		now := time.Now().UTC()
		rounded := bd.Rounded()

		ord := Order{
			ID:         validate.GenerateID(),
			Reference:  "ORD-" + random.String(10),
			ProviderID: providerID,
			Status:     Pending,
			Subtotal:   rounded.Subtotal,
			Discount:   rounded.Discount,
			Shipping:   rounded.Shipping,
			Tax:        rounded.Tax,
			Total:      rounded.Total,
			CreatedAt:  now,
			UpdatedAt:  now,
		}
		if ap := s.Applied(); ap != nil {
			code := ap.Code
			ord.CouponCode = &code
		}

		if err := Create(ctx, tx, ord); err != nil {
			return err
		}

		for _, li := range s.Items() {
			it := Item{
				OrderID:   ord.ID,
				ProductID: li.ProductID,
				Name:      li.Name,
				Price:     li.Price,
				Quantity:  li.Quantity,
				CreatedAt: now,
			}

			if err := CreateItem(ctx, tx, it); err != nil {
				return err
			}
		}

		return nil
	})

	if err != nil {
		return fmt.Errorf("creating the order bound to payment[%s]: %w", providerID, err)
	}
	return nil
}

func fulfill(ctx context.Context, db *sqlx.DB, providerID string) error {
	ord, err := FetchByProviderID(ctx, db, providerID)
	if err != nil {
		return fmt.Errorf("fetching the order bound to payment[%s]: %w", providerID, err)
	}

	up := StatusUp{
		ID:        ord.ID,
		Status:    Success,
		UpdatedAt: time.Now().UTC(),
	}

	if err := UpdateStatus(ctx, db, up); err != nil {
		return fmt.Errorf("fulfilling order[%s] bound to payment[%s]: %w", ord.ID, providerID, err)
	}
	return nil
}

func HandlePaypalCheckout(db *sqlx.DB, pp *paypal.Client, kvs kv.Store, log logrus.FieldLogger) web.Handler {
	return func(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
		s, bd, err := checkout(ctx, kvs, log)
		if err != nil {
			return err
		}

		items := make([]paypal.Item, 0, len(s.Items()))
		for _, li := range s.Items() {
			items = append(items, paypal.Item{
				Name:     li.Name,
				SKU:      li.ProductID,
				Quantity: strconv.Itoa(li.Quantity),

				UnitAmount: &paypal.Money{
					Currency: "USD",
					Value:    money(li.Price),
				},
			})
		}

		rounded := bd.Rounded()
		units := []paypal.PurchaseUnitRequest{{
			Items: items,

			Amount: &paypal.PurchaseUnitAmount{
				Currency: "USD",
				Value:    money(rounded.Total),

				Breakdown: &paypal.PurchaseUnitAmountBreakdown{
					ItemTotal: &paypal.Money{Currency: "USD", Value: money(rounded.Subtotal)},
					Shipping:  &paypal.Money{Currency: "USD", Value: money(rounded.Shipping)},
					TaxTotal:  &paypal.Money{Currency: "USD", Value: money(rounded.Tax)},
					Discount:  &paypal.Money{Currency: "USD", Value: money(rounded.Discount)},
				},
			},
		}}

		ord, err := pp.CreateOrder(ctx, "CAPTURE", units, nil, &paypal.ApplicationContext{})
		if err != nil {
			return fmt.Errorf("creating paypal order: %w", err)
		}

		if err := prepare(ctx, db, ord.ID, s, bd); err != nil {
			return err
		}

		return web.Respond(ctx, w, ord, http.StatusOK)
	}
}

func HandlePaypalCapture(db *sqlx.DB, pp *paypal.Client, kvs kv.Store, log logrus.FieldLogger) web.Handler {
	return func(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
		providerID := web.Param(r, "id")

		resp, err := pp.CaptureOrder(ctx, providerID, paypal.CaptureOrderRequest{})
		if err != nil {
			return fmt.Errorf("capturing paypal order[%s]: %w", providerID, err)
		}

		if resp.Status != "COMPLETED" {
			return fmt.Errorf("captured order[%s] with status[%s] different from 'COMPLETED'", providerID, resp.Status)
		}

		if err := fulfill(ctx, db, providerID); err != nil {
			return fmt.Errorf("the order was payed but its fulfillment failed: %w", err)
		}

		// The capture runs in the buyer's session, so the cart can be
		// flushed right here.
		s := cart.Load(ctx, kvs, cart.Key, log)
		if err := s.Clear(ctx); err != nil {
			log.Warnf("cart not cleared after capture: %v", err)
		}

		return web.Respond(ctx, w, nil, http.StatusNoContent)
	}
}

func HandleStripeCheckout(db *sqlx.DB, strp *stripecl.API, cfg config.Stripe, kvs kv.Store, log logrus.FieldLogger) web.Handler {
	return func(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
		s, bd, err := checkout(ctx, kvs, log)
		if err != nil {
			return err
		}

		rounded := bd.Rounded()

		// Stripe line items cannot carry a negative amount, so a
		// discounted cart collapses into a single total line.
		var li []*stripe.CheckoutSessionLineItemParams
		if rounded.Discount > 0 {
			li = append(li, &stripe.CheckoutSessionLineItemParams{
				Quantity: stripe.Int64(1),

				PriceData: &stripe.CheckoutSessionLineItemPriceDataParams{
					Currency:   stripe.String("usd"),
					UnitAmount: stripe.Int64(cents(rounded.Total)),

					ProductData: &stripe.CheckoutSessionLineItemPriceDataProductDataParams{
						Name: stripe.String("Cart total (discount applied)"),
					},
				},
			})
		} else {
			for _, it := range s.Items() {
				li = append(li, &stripe.CheckoutSessionLineItemParams{
					Quantity: stripe.Int64(int64(it.Quantity)),

					PriceData: &stripe.CheckoutSessionLineItemPriceDataParams{
						Currency:   stripe.String("usd"),
						UnitAmount: stripe.Int64(cents(it.Price)),

						ProductData: &stripe.CheckoutSessionLineItemPriceDataProductDataParams{
							Name: stripe.String(it.Name),
						},
					},
				})
			}

			for _, extra := range []struct {
				name   string
				amount float64
			}{
				{"Shipping", rounded.Shipping},
				{"Tax", rounded.Tax},
			} {
				if extra.amount <= 0 {
					continue
				}

				li = append(li, &stripe.CheckoutSessionLineItemParams{
					Quantity: stripe.Int64(1),

					PriceData: &stripe.CheckoutSessionLineItemPriceDataParams{
						Currency:   stripe.String("usd"),
						UnitAmount: stripe.Int64(cents(extra.amount)),

						ProductData: &stripe.CheckoutSessionLineItemPriceDataProductDataParams{
							Name: stripe.String(extra.name),
						},
					},
				})
			}
		}

		params := &stripe.CheckoutSessionParams{
			SuccessURL: stripe.String(cfg.SuccessURL),
			CancelURL:  stripe.String(cfg.CancelURL),
			Mode:       stripe.String(string(stripe.CheckoutSessionModePayment)),
			LineItems:  li,
		}

		sess, err := strp.CheckoutSessions.New(params)
		if err != nil {
			return fmt.Errorf("creating stripe session: %w", err)
		}

		if err := prepare(ctx, db, sess.ID, s, bd); err != nil {
			return err
		}

		return web.Respond(ctx, w, sess.URL, http.StatusOK)
	}
}

// HandleStripeCapture consumes the signed checkout.session.completed webhook.
// Fulfillment runs on the background runner so stripe gets its response
// quickly; the webhook carries no browser session, so the success page is
// responsible for clearing the cart.
func HandleStripeCapture(db *sqlx.DB, cfg config.Stripe, bg *background.Background) web.Handler {
	return func(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
		b, err := io.ReadAll(r.Body)
		if err != nil {
			return weberr.BadRequest(fmt.Errorf("cannot read the request body: %w", err))
		}

		sig := r.Header.Get("Stripe-Signature")
		if sig == "" {
			return weberr.BadRequest(errors.New("received stripe event is not signed"))
		}

		event, err := webhook.ConstructEvent(b, sig, cfg.WebhookSecret)
		if err != nil {
			return weberr.BadRequest(fmt.Errorf("cannot construct stripe event: %w", err))
		}

		if event.Type != "checkout.session.completed" {
			return web.Respond(ctx, w, nil, http.StatusNoContent)
		}

		var session stripe.CheckoutSession
		if err := json.Unmarshal(event.Data.Raw, &session); err != nil {
			return weberr.BadRequest(fmt.Errorf("unable to decode stripe event: %w", err))
		}

		if session.Mode != stripe.CheckoutSessionModePayment {
			return web.Respond(ctx, w, nil, http.StatusNoContent)
		}

		bg.Go(func() error {
			if err := fulfill(context.Background(), db, session.ID); err != nil {
				return fmt.Errorf("the order was payed but its fulfillment failed: %w", err)
			}
			return nil
		})

		return web.Respond(ctx, w, nil, http.StatusNoContent)
	}
}

func money(v float64) string {
	return strconv.FormatFloat(v, 'f', 2, 64)
}

func cents(v float64) int64 {
	return int64(math.Round(v * 100))
}
