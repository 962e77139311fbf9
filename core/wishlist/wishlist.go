// Package wishlist keeps the session's saved product ids on the same
// key-value contract the cart uses.
package wishlist

import (
	"context"
	"encoding/json"
	"errors"

	"github.com/fadhlimu/craftmarket/kv"
	"github.com/sirupsen/logrus"
)

// Key is the kv entry the wishlist lives under.
const Key = "wishlist"

type Wishlist struct {
	kv  kv.Store
	key string
	log logrus.FieldLogger

	ids []string
}

// Load reads the persisted id list. Missing or corrupt values become an
// empty wishlist, matching the cart's recovery behavior.
func Load(ctx context.Context, kvs kv.Store, key string, log logrus.FieldLogger) *Wishlist {
	wl := &Wishlist{kv: kvs, key: key, log: log}

	b, err := kvs.Load(ctx, key)
	if err != nil {
		if !errors.Is(err, kv.ErrNotFound) {
			log.WithField("key", key).Warnf("loading wishlist: %v", err)
		}
		return wl
	}

	if err := json.Unmarshal(b, &wl.ids); err != nil {
		log.WithField("key", key).Warnf("corrupt wishlist dropped: %v", err)
		wl.ids = nil
	}
	return wl
}

func (w *Wishlist) IDs() []string { return w.ids }

func (w *Wishlist) Has(productID string) bool {
	for _, id := range w.ids {
		if id == productID {
			return true
		}
	}
	return false
}

// Add appends productID. Adding an id twice is a no-op.
func (w *Wishlist) Add(ctx context.Context, productID string) error {
	if w.Has(productID) {
		return nil
	}

	w.ids = append(w.ids, productID)
	return w.save(ctx)
}

// Remove deletes productID; absent ids are a no-op.
func (w *Wishlist) Remove(ctx context.Context, productID string) error {
	for i, id := range w.ids {
		if id == productID {
			w.ids = append(w.ids[:i], w.ids[i+1:]...)
			return w.save(ctx)
		}
	}
	return nil
}

func (w *Wishlist) save(ctx context.Context) error {
	b, err := json.Marshal(w.ids)
	if err != nil {
		return err
	}
	return w.kv.Save(ctx, w.key, b)
}
