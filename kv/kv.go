// Package kv defines the key-value contract that cart and wishlist state is
// persisted through. Implementations are best-effort: callers must tolerate
// a failing Save and treat a failing Load as an empty value.
package kv

import (
	"context"
	"errors"
)

// ErrNotFound is returned by Load when no value exists under the key.
var ErrNotFound = errors.New("key not found")

type Store interface {
	Load(ctx context.Context, key string) ([]byte, error)
	Save(ctx context.Context, key string, value []byte) error
}
