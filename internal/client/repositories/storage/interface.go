// Package storage is the client's durable key/value store ("local storage").
// The session store keeps its persisted record here.
package storage

import (
	"context"
)

// Repository reads and writes raw values by key. Get returns (nil, nil) for
// an absent key.
type Repository interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte) error
	Delete(ctx context.Context, key string) error
}
