package test

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"math"
	"net/http"
	"path"
	"testing"
	"time"

	"github.com/fadhlimu/craftmarket/core/order"
	"github.com/fadhlimu/craftmarket/core/pricing"
	"github.com/fadhlimu/craftmarket/core/product"
	"github.com/plutov/paypal/v4"
	"github.com/stripe/stripe-go/v74"
	"github.com/stripe/stripe-go/v74/webhook"
)

type orderTest struct {
	*TestEnv
}

func TestOrder(t *testing.T) {
	env, err := NewTestEnv(t, "order_test")
	if err != nil {
		t.Fatalf("initializing test env: %v", err)
	}

	ot := &orderTest{env}
	rt := &cartTest{env}

	mug := env.createProductOK(t, product.ProductNew{
		Name:        "Stoneware mug",
		Description: "Wheel-thrown mug with speckled glaze",
		Category:    "kitchen",
		Price:       50,
		StockCount:  20,
	})
	quilt := env.createProductOK(t, product.ProductNew{
		Name:         "Patchwork quilt",
		Description:  "Queen-size quilt from reclaimed fabric",
		Category:     "home",
		Price:        60,
		StockCount:   5,
		FreeShipping: true,
	})

	// One mug: 50 + 5 shipping + 3.50 tax.
	rt.cartOK(t, http.MethodPut, "/cart/items", map[string]any{"productId": mug.ID})
	ot.Paypal.expected = pricing.Breakdown{Subtotal: 50, Shipping: 5, Tax: 3.5, Total: 58.5}
	ot.testPaypal(t)

	// The capture ran in this session, so the cart is gone with it.
	p := rt.cartOK(t, http.MethodGet, "/cart", nil)
	if p.Count != 0 {
		t.Fatalf("cart not cleared by the capture: %+v", p)
	}

	// Two quilts ship free and cross the free-shipping threshold:
	// 120 + 8.40 tax, in cents.
	rt.cartOK(t, http.MethodPut, "/cart/items", map[string]any{"productId": quilt.ID, "quantity": 2})
	ot.Stripe.expectedCents = 12840
	ot.testStripe(t)
}

func (ot *orderTest) testPaypal(t *testing.T) {
	r, err := http.NewRequest(http.MethodPost, ot.URL+"/orders/paypal", nil)
	if err != nil {
		t.Fatal(err)
	}

	w, err := ot.Client().Do(r)
	if err != nil {
		t.Fatal(err)
	}
	defer w.Body.Close()

	if w.StatusCode != http.StatusOK {
		t.Fatalf("can't create paypal order: status code %s", w.Status)
	}

	var ord paypal.Order
	if err := json.NewDecoder(w.Body).Decode(&ord); err != nil {
		t.Fatalf("cannot unmarshal paypal order: %v", err)
	}

	rec := ot.orderByProvider(t, ord.ID)
	if rec.Status != order.Pending {
		t.Fatalf("expected a pending order, got status %s", rec.Status)
	}
	if rec.Total != ot.Paypal.expected.Total {
		t.Fatalf("recorded total %v differs from the charged %v", rec.Total, ot.Paypal.expected.Total)
	}

	r, err = http.NewRequest(http.MethodPost, ot.URL+"/orders/paypal/"+ord.ID+"/capture", nil)
	if err != nil {
		t.Fatal(err)
	}

	w, err = ot.Client().Do(r)
	if err != nil {
		t.Fatal(err)
	}
	defer w.Body.Close()

	if w.StatusCode != http.StatusNoContent {
		t.Fatalf("can't capture paypal order: status code %s", w.Status)
	}

	rec = ot.orderByProvider(t, ord.ID)
	if rec.Status != order.Success {
		t.Fatalf("captured order still has status %s", rec.Status)
	}
}

func (ot *orderTest) testStripe(t *testing.T) {
	r, err := http.NewRequest(http.MethodPost, ot.URL+"/orders/stripe", nil)
	if err != nil {
		t.Fatal(err)
	}

	w, err := ot.Client().Do(r)
	if err != nil {
		t.Fatal(err)
	}
	defer w.Body.Close()

	if w.StatusCode != http.StatusOK {
		t.Fatalf("can't create stripe order: status code %s", w.Status)
	}

	urlBytes, err := io.ReadAll(w.Body)
	if err != nil {
		t.Fatal(err)
	}

	var url string
	if err := json.Unmarshal(urlBytes, &url); err != nil {
		t.Fatal(err)
	}

	sessID := path.Base(url)
	rec := ot.orderByProvider(t, sessID)
	if rec.Status != order.Pending {
		t.Fatalf("expected a pending order, got status %s", rec.Status)
	}
	if cents := int64(math.Round(rec.Total * 100)); cents != ot.Stripe.expectedCents {
		t.Fatalf("recorded total %v differs from the charged %d cents", rec.Total, ot.Stripe.expectedCents)
	}

	obj := map[string]any{
		"id":   sessID,
		"mode": stripe.CheckoutSessionModePayment,
	}

	raw, err := json.Marshal(obj)
	if err != nil {
		t.Fatal(err)
	}

	evt := stripe.Event{
		APIVersion: "2022-11-15",
		Type:       "checkout.session.completed",
		Data: &stripe.EventData{
			Raw: json.RawMessage(raw),
		},
	}

	b, err := json.Marshal(evt)
	if err != nil {
		t.Fatal(err)
	}

	signed := webhook.GenerateTestSignedPayload(&webhook.UnsignedPayload{
		Payload:   b,
		Secret:    ot.WebhookSecret,
		Timestamp: time.Now(),
	})

	r, err = http.NewRequest(http.MethodPost, ot.URL+"/orders/stripe/capture", bytes.NewBuffer(b))
	if err != nil {
		t.Fatal(err)
	}
	r.Header.Set("Stripe-Signature", signed.Header)

	w, err = ot.Client().Do(r)
	if err != nil {
		t.Fatal(err)
	}
	defer w.Body.Close()

	if w.StatusCode != http.StatusNoContent {
		t.Fatalf("can't trigger stripe webhook: status code %s", w.Status)
	}

	// Fulfillment runs on the background runner, so give it a moment.
	deadline := time.Now().Add(5 * time.Second)
	for {
		rec = ot.orderByProvider(t, sessID)
		if rec.Status == order.Success {
			return
		}
		if time.Now().After(deadline) {
			t.Fatalf("order[%s] not fulfilled, status %s", rec.ID, rec.Status)
		}
		time.Sleep(50 * time.Millisecond)
	}
}

func (ot *orderTest) orderByProvider(t *testing.T, providerID string) order.Order {
	t.Helper()

	rec, err := order.FetchByProviderID(context.Background(), ot.DB, providerID)
	if err != nil {
		t.Fatalf("fetching order bound to payment[%s]: %v", providerID, err)
	}
	return rec
}

// An empty cart has nothing to hand to a provider.
func TestCheckoutEmptyCart(t *testing.T) {
	env, err := NewTestEnv(t, "order_empty_test")
	if err != nil {
		t.Fatalf("initializing test env: %v", err)
	}

	for _, route := range []string{"/orders/paypal", "/orders/stripe"} {
		r, err := http.NewRequest(http.MethodPost, env.URL+route, nil)
		if err != nil {
			t.Fatal(err)
		}

		w, err := env.Client().Do(r)
		if err != nil {
			t.Fatal(err)
		}
		w.Body.Close()

		if w.StatusCode != http.StatusUnprocessableEntity {
			t.Fatalf("POST %s on an empty cart: expected status 422, got %s", route, w.Status)
		}
	}
}
