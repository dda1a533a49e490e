package metadata

import (
	"context"
)

// Repository is a small key-value table in the local database. The record
// store is persisted here as a single snapshot blob.
type Repository interface {
	// Get returns common.ErrorNotFound when the key is absent.
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte) error
}
