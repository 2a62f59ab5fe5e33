// Package localstorage persists the string-keyed values of the client's
// local storage in SQLite.
package localstorage

import (
	"context"
)

// Repository stores opaque values under string keys.
type Repository interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte) error
	Delete(ctx context.Context, key string) error
	List(ctx context.Context) (map[string][]byte, error)
	Clear(ctx context.Context) error
}
