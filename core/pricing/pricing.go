// Package pricing derives order totals from cart contents. It is a pure
// computation with no I/O: malformed input is the cart's problem, not ours.
package pricing

import (
	"math"

	"github.com/fadhlimu/craftmarket/core/coupon"
)

const (
	// FreeShippingAt is the subtotal at which shipping becomes free.
	FreeShippingAt = 100.0

	// DefaultItemShipping is the per-unit shipping cost for items that do
	// not declare one.
	DefaultItemShipping = 5.0

	// ShippingCap is the flat ceiling on the summed shipping cost.
	ShippingCap = 20.0

	// TaxRate applies to the gross subtotal, before any discount.
	TaxRate = 0.07
)

// Item carries the fields of a cart line that pricing depends on.
type Item struct {
	Price        float64
	Quantity     int
	ShippingCost *float64
	FreeShipping bool
}

type Breakdown struct {
	Subtotal float64 `json:"subtotal"`
	Discount float64 `json:"discount"`
	Shipping float64 `json:"shipping"`
	Tax      float64 `json:"tax"`
	Total    float64 `json:"total"`
}

// Calculate prices the given items with an optionally applied coupon.
// Amounts carry full precision; round only for display.
func Calculate(items []Item, applied *coupon.Applied) Breakdown {
	var b Breakdown

	for _, it := range items {
		b.Subtotal += it.Price * float64(it.Quantity)
	}

	if applied != nil {
		switch applied.Kind {
		case coupon.Percentage:
			b.Discount = b.Subtotal * applied.Value
		case coupon.Fixed:
			// A fixed discount never exceeds the subtotal, which keeps
			// the total non-negative.
			b.Discount = math.Min(applied.Value, b.Subtotal)
		}
	}

	b.Shipping = shipping(items, b.Subtotal)
	b.Tax = b.Subtotal * TaxRate
	b.Total = b.Subtotal - b.Discount + b.Shipping + b.Tax

	return b
}

func shipping(items []Item, subtotal float64) float64 {
	if len(items) == 0 || subtotal >= FreeShippingAt {
		return 0
	}

	var sum float64
	for _, it := range items {
		if it.FreeShipping {
			continue
		}

		cost := DefaultItemShipping
		if it.ShippingCost != nil {
			cost = *it.ShippingCost
		}
		sum += cost * float64(it.Quantity)
	}

	return math.Min(sum, ShippingCap)
}

// Rounded returns a copy with every amount rounded to two decimals, the form
// handed to clients.
func (b Breakdown) Rounded() Breakdown {
	return Breakdown{
		Subtotal: round2(b.Subtotal),
		Discount: round2(b.Discount),
		Shipping: round2(b.Shipping),
		Tax:      round2(b.Tax),
		Total:    round2(b.Total),
	}
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
