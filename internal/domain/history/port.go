package history

import "context"

// Store port (interface untuk persistence history)
//
// List must return an empty slice, not an error, when nothing was ever
// persisted or the persisted value is corrupt.
type Store interface {
	Append(ctx context.Context, e Entry) error
	List(ctx context.Context) ([]Entry, error)
	Clear(ctx context.Context) error
}
