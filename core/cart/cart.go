// Package cart maintains the session shopping cart: an ordered list of line
// items plus an optionally applied coupon, synchronized to a key-value store
// after every mutation.
package cart

import (
	"errors"
	"fmt"

	"github.com/fadhlimu/craftmarket/core/coupon"
)

// Key is the kv entry the cart state lives under. The session store scopes
// it per browser.
const Key = "cart"

// LineItem is one product entry in the cart. StockCount and ShippingCost are
// optional: a missing StockCount means unbounded stock and a missing
// ShippingCost falls back to the pricing default.
type LineItem struct {
	ProductID    string   `json:"productId"`
	Name         string   `json:"name"`
	Price        float64  `json:"price"`
	Quantity     int      `json:"quantity"`
	StockCount   *int     `json:"stockCount,omitempty"`
	ShippingCost *float64 `json:"shippingCost,omitempty"`
	FreeShipping bool     `json:"freeShipping,omitempty"`
}

// ProductInfo is the product view the store needs to admit an item.
type ProductInfo struct {
	ID           string
	Name         string
	Price        float64
	InStock      bool
	StockCount   *int
	ShippingCost *float64
	FreeShipping bool
}

// state is the persisted form of the cart.
type state struct {
	Items  []LineItem      `json:"items"`
	Coupon *coupon.Applied `json:"coupon,omitempty"`
}

// ErrOutOfStock rejects adding a product that is not in stock.
var ErrOutOfStock = errors.New("product is out of stock")

// StockError rejects a quantity above the product's stock count. Max is the
// largest quantity the store would accept.
type StockError struct {
	Max int
}

func (e *StockError) Error() string {
	return fmt.Sprintf("only %d in stock", e.Max)
}

// PersistError reports a failed best-effort save. The in-memory mutation it
// accompanies has already been applied and stays applied.
type PersistError struct {
	Err error
}

func (e *PersistError) Error() string {
	return fmt.Sprintf("cart state not persisted: %v", e.Err)
}

func (e *PersistError) Unwrap() error { return e.Err }
