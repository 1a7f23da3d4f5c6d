
package storage

import (
	"context"
	"errors"
)

// ErrNotExist is returned by Load when no document has been saved yet.
var ErrNotExist = errors.New("storage: document does not exist")

// Store holds one whole JSON document. Save always replaces the complete
// document; there are no partial writes.
type Store interface {
	Load(ctx context.Context) ([]byte, error)
	Save(ctx context.Context, data []byte) error
}

var (
	_ Store = (*FileStore)(nil)
	_ Store = (*RedisStore)(nil)
	_ Store = (*MemoryStore)(nil)
)
