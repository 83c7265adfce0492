package storage

import (
	"context"
	"fmt"
	"sync"

	"github.com/google/uuid"

	"github.com/bryanwahyu/marine-vision/internal/domain/media"
)

type preview struct {
	contentType string
	data        []byte
}

// MemoryStore keeps previews in process memory and serves them under
// BaseURL + "/" + handle id. It is the default PreviewStore.
type MemoryStore struct {
	BaseURL string

	mu    sync.RWMutex
	items map[string]preview
}

func NewMemoryStore(baseURL string) *MemoryStore {
	return &MemoryStore{BaseURL: baseURL, items: make(map[string]preview)}
}

// Acquire implementasi PreviewStore
func (s *MemoryStore) Acquire(ctx context.Context, a *media.Asset) (media.PreviewHandle, error) {
	id := uuid.New().String()
	s.mu.Lock()
	s.items[id] = preview{contentType: a.MIMEType, data: a.Content}
	s.mu.Unlock()
	return media.PreviewHandle{ID: id, URL: fmt.Sprintf("%s/%s", s.BaseURL, id)}, nil
}

// Release revokes a handle. Unknown handles are ignored.
func (s *MemoryStore) Release(ctx context.Context, h media.PreviewHandle) error {
	s.mu.Lock()
	delete(s.items, h.ID)
	s.mu.Unlock()
	return nil
}

// Open returns the preview bytes for a live handle.
func (s *MemoryStore) Open(id string) (data []byte, contentType string, ok bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	p, ok := s.items[id]
	return p.data, p.contentType, ok
}

// Len reports how many previews are currently held.
func (s *MemoryStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.items)
}
