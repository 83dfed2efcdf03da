// Package kv holds the key-value backends that persist the ledger blobs.
package kv

import (
	"context"
	"errors"
)

// ErrNotFound is returned by Get when the key was never written.
var ErrNotFound = errors.New("kv: key not found")

// Backend stores opaque blobs by key. A Put replaces the whole value.
type Backend interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Put(ctx context.Context, key string, value []byte) error
}
