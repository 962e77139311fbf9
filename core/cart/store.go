package cart

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/fadhlimu/craftmarket/core/coupon"
	"github.com/fadhlimu/craftmarket/kv"
	"github.com/sirupsen/logrus"
)

// Store owns the in-memory cart for one request and keeps it in sync with
// the key-value store. The in-memory state is authoritative for the session:
// a failed save is surfaced as *PersistError but never rolls a mutation back.
type Store struct {
	kv  kv.Store
	key string
	log logrus.FieldLogger

	items   []LineItem
	applied *coupon.Applied
}

// Load builds a Store from the persisted state under key. A missing entry
// yields an empty cart; a corrupt one is dropped with a warning, since the
// worst acceptable outcome of a persistence fault is an empty cart.
func Load(ctx context.Context, kvs kv.Store, key string, log logrus.FieldLogger) *Store {
	s := &Store{kv: kvs, key: key, log: log}

	b, err := kvs.Load(ctx, key)
	if err != nil {
		if !errors.Is(err, kv.ErrNotFound) {
			log.WithField("key", key).Warnf("loading cart state: %v", err)
		}
		return s
	}

	var st state
	if err := json.Unmarshal(b, &st); err != nil {
		log.WithField("key", key).Warnf("corrupt cart state dropped: %v", err)
		return s
	}

	s.items = st.Items
	s.applied = st.Coupon
	return s
}

// Items returns the line items in insertion order.
func (s *Store) Items() []LineItem { return s.items }

// Applied returns the currently applied coupon, if any.
func (s *Store) Applied() *coupon.Applied { return s.applied }

// Count is the sum of quantities, not the number of lines.
func (s *Store) Count() int {
	var n int
	for _, it := range s.items {
		n += it.Quantity
	}
	return n
}

// Subtotal is the sum of price times quantity, before discount, shipping
// and tax.
func (s *Store) Subtotal() float64 {
	var t float64
	for _, it := range s.items {
		t += it.Price * float64(it.Quantity)
	}
	return t
}

// Add puts quantity units of the product into the cart, merging with an
// existing line for the same product. It rejects products that are out of
// stock and quantities above the stock count, leaving the cart untouched.
func (s *Store) Add(ctx context.Context, p ProductInfo, quantity int) error {
	if quantity <= 0 {
		return fmt.Errorf("quantity must be positive, got %d", quantity)
	}

	if !p.InStock {
		return ErrOutOfStock
	}

	for i, it := range s.items {
		if it.ProductID != p.ID {
			continue
		}

		next := it.Quantity + quantity
		if it.StockCount != nil && next > *it.StockCount {
			return &StockError{Max: *it.StockCount}
		}

		s.items[i].Quantity = next
		return s.save(ctx)
	}

	if p.StockCount != nil && quantity > *p.StockCount {
		return &StockError{Max: *p.StockCount}
	}

	s.items = append(s.items, LineItem{
		ProductID:    p.ID,
		Name:         p.Name,
		Price:        p.Price,
		Quantity:     quantity,
		StockCount:   p.StockCount,
		ShippingCost: p.ShippingCost,
		FreeShipping: p.FreeShipping,
	})
	return s.save(ctx)
}

// UpdateQuantity sets the quantity of a line. Zero or less removes the line.
func (s *Store) UpdateQuantity(ctx context.Context, productID string, quantity int) error {
	if quantity <= 0 {
		return s.Remove(ctx, productID)
	}

	for i, it := range s.items {
		if it.ProductID != productID {
			continue
		}

		if it.StockCount != nil && quantity > *it.StockCount {
			return &StockError{Max: *it.StockCount}
		}

		s.items[i].Quantity = quantity
		return s.save(ctx)
	}

	return nil
}

// Remove deletes the line for productID. Removing an absent product is a
// no-op, not an error.
func (s *Store) Remove(ctx context.Context, productID string) error {
	for i, it := range s.items {
		if it.ProductID == productID {
			s.items = append(s.items[:i], s.items[i+1:]...)
			return s.save(ctx)
		}
	}
	return nil
}

// Clear empties the cart. The coupon is cart-scoped and goes with it.
func (s *Store) Clear(ctx context.Context) error {
	s.items = nil
	s.applied = nil
	return s.save(ctx)
}

// ApplyCoupon validates code against the table at the current subtotal and
// attaches it, replacing any previous coupon. An invalid code leaves the
// previous coupon in place.
func (s *Store) ApplyCoupon(ctx context.Context, table coupon.Table, code string) error {
	ap, err := coupon.Apply(table, code, s.Subtotal())
	if err != nil {
		return err
	}

	s.applied = &ap
	return s.save(ctx)
}

// RemoveCoupon detaches any applied coupon. No validation needed.
func (s *Store) RemoveCoupon(ctx context.Context) error {
	s.applied = nil
	return s.save(ctx)
}

func (s *Store) save(ctx context.Context) error {
	b, err := json.Marshal(state{Items: s.items, Coupon: s.applied})
	if err != nil {
		return &PersistError{Err: err}
	}

	if err := s.kv.Save(ctx, s.key, b); err != nil {
		return &PersistError{Err: err}
	}
	return nil
}
