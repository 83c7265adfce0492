package media

import "context"

// PreviewStore port (interface untuk preview handle)
type PreviewStore interface {
	Acquire(ctx context.Context, a *Asset) (PreviewHandle, error)
	Release(ctx context.Context, h PreviewHandle) error
}
