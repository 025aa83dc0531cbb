// Package recordstore abstracts the shared key-value record persistence
// boundary. Values are opaque serialized strings; callers own the document
// schema. Backends are synchronous and assume a single active writer.
package recordstore

import (
	"context"
	"errors"
)

// ErrKeyNotFound reports an absent key. Callers decide whether absence is a
// default-and-continue case or a failure.
var ErrKeyNotFound = errors.New("recordstore: key not found")

// Store is the synchronous string key-value boundary shared by catalog, cart
// and order persistence.
type Store interface {
	Read(ctx context.Context, key string) (string, error)
	Write(ctx context.Context, key, value string) error
	Close() error
}
