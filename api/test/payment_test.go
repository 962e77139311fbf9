package test

import (
	"context"
	"encoding/json"
	"fmt"
	"math/rand"
	"net/http"
	"strconv"

	"github.com/fadhlimu/craftmarket/api/web"
	"github.com/fadhlimu/craftmarket/core/pricing"
	"github.com/gorilla/mux"
	"github.com/plutov/paypal/v4"
	mock "github.com/stripe/stripe-mock/param"
)

// mockPaypal plays the paypal REST API. Every created order must carry the
// rounded totals in expected, breakdown included, or the mock rejects it.
type mockPaypal struct {
	expected pricing.Breakdown
}

func (m *mockPaypal) handle() http.Handler {
	checkout := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var pu struct {
			Units []paypal.PurchaseUnitRequest `json:"purchase_units"`
		}
		if err := json.NewDecoder(r.Body).Decode(&pu); err != nil {
			web.Respond(context.Background(), w, nil, 400)
			return
		}

		if len(pu.Units) != 1 {
			web.Respond(context.Background(), w, nil, 400)
			return
		}

		amount := pu.Units[0].Amount
		if amount == nil || amount.Breakdown == nil {
			web.Respond(context.Background(), w, nil, 400)
			return
		}

		checks := []struct {
			got  string
			want float64
		}{
			{amount.Value, m.expected.Total},
			{amount.Breakdown.ItemTotal.Value, m.expected.Subtotal},
			{amount.Breakdown.Shipping.Value, m.expected.Shipping},
			{amount.Breakdown.TaxTotal.Value, m.expected.Tax},
			{amount.Breakdown.Discount.Value, m.expected.Discount},
		}
		for _, c := range checks {
			if c.got != money(c.want) {
				web.Respond(context.Background(), w, nil, 400)
				return
			}
		}

		randID := fmt.Sprintf("paypal-%d", rand.Intn(300))
		ord := paypal.Order{ID: randID, Status: "CREATED"}
		web.Respond(context.Background(), w, ord, 200)
	})

	capture := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ord := paypal.Order{Status: "COMPLETED"}
		web.Respond(context.Background(), w, ord, 200)
	})

	r := mux.NewRouter()
	r.Handle("/v2/checkout/orders", checkout).Methods("POST")
	r.Handle("/v2/checkout/orders/{id}/capture", capture).Methods("POST")
	return r
}

func money(v float64) string {
	return strconv.FormatFloat(v, 'f', 2, 64)
}

// mockStripe plays the checkout sessions endpoint. The line items of every
// created session must sum to expectedCents no matter how they are split.
type mockStripe struct {
	expectedCents int64
}

func (m *mockStripe) handle() http.Handler {
	checkout := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		params, _ := mock.ParseParams(r)
		lines, ok := params["line_items"].(map[string]any)
		if !ok {
			web.Respond(context.Background(), w, nil, 400)
			return
		}

		var tot int64
		for _, li := range lines {
			it := li.(map[string]any)

			qty, err := strconv.ParseInt(it["quantity"].(string), 10, 0)
			if err != nil {
				web.Respond(context.Background(), w, err, 400)
				return
			}

			pd := it["price_data"].(map[string]any)
			amount, err := strconv.ParseInt(pd["unit_amount"].(string), 10, 0)
			if err != nil {
				web.Respond(context.Background(), w, err, 400)
				return
			}

			tot += qty * amount
		}

		if tot != m.expectedCents {
			web.Respond(context.Background(), w, nil, 400)
			return
		}

		randID := fmt.Sprintf("cs-test-%d", rand.Intn(300))
		sess := map[string]any{"id": randID, "url": "https://checkout.stripe.test/pay/" + randID}
		web.Respond(context.Background(), w, sess, 201)
	})

	r := mux.NewRouter()
	r.Handle("/v1/checkout/sessions", checkout).Methods("POST")
	return r
}
