// Package persist mirrors client state to durable local storage so the
// UI can render from the previous session before the network responds.
// Durability is best-effort: write failures are logged and ignored.
package persist

import (
	"context"
	"errors"
)

// Durable keys. A single key holds the serialized cache snapshot; token
// and user live under their own keys.
const (
	KeySnapshot = "adaboards_cache"
	KeyToken    = "adaboards_auth_token"
	KeyUser     = "adaboards_user"
)

// ErrNotFound is returned by Get when the key holds no value.
var ErrNotFound = errors.New("persist: not found")

// Store is a durable key/value store.
type Store interface {
	Put(ctx context.Context, key string, value []byte) error
	Get(ctx context.Context, key string) ([]byte, error)
	Delete(ctx context.Context, key string) error
}
